package models

import "time"

type PostingAttempt struct {
	ID           int64     `db:"id" json:"id"`
	UserID       int64     `db:"user_id" json:"user_id"`
	PostID       int64     `db:"post_id" json:"post_id"`
	AccountID    int64     `db:"account_id" json:"account_id"`
	Stage        string    `db:"stage" json:"stage"`
	ErrorMessage string    `db:"error_message" json:"error_message"`
	Permanent    bool      `db:"permanent" json:"permanent"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

const (
	AttemptStagePublish     = "publish"
	AttemptStageSecondStage = "second_stage"
	AttemptStageDelete      = "delete"
)
