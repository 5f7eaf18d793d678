package models

import "time"

type ScheduledPost struct {
	ID                int64     `db:"id" json:"id"`
	UserID            int64     `db:"user_id" json:"user_id"`
	AccountID         int64     `db:"account_id" json:"account_id"`
	Content           string    `db:"content" json:"content"`
	ScheduledAt       int64     `db:"scheduled_at" json:"scheduled_at"`
	Status            string    `db:"status" json:"status"`
	PlatformPostID    string    `db:"platform_post_id" json:"platform_post_id"`
	Permalink         string    `db:"permalink" json:"permalink"`
	SecondStage       string    `db:"second_stage" json:"second_stage"`
	SecondStagePostID string    `db:"second_stage_post_id" json:"second_stage_post_id"`
	SecondStageOptOut bool      `db:"second_stage_opt_out" json:"second_stage_opt_out"`
	SourcePostID      string    `db:"source_post_id" json:"source_post_id"`
	SourceShortCode   string    `db:"source_short_code" json:"source_short_code"`
	IdempotencyKey    string    `db:"idempotency_key" json:"-"`
	IsDeleted         bool      `db:"is_deleted" json:"is_deleted"`
	PostedAt          int64     `db:"posted_at" json:"posted_at"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time `db:"updated_at" json:"updated_at"`
}

const (
	PostStatusPending      = "pending"
	PostStatusPendingQuote = "pending_quote"
	PostStatusPublishing   = "publishing"
	PostStatusPosted       = "posted"
	PostStatusFailed       = "failed"
	PostStatusDeleted      = "deleted"
)

const (
	SecondStageNone    = "none"
	SecondStageWaiting = "waiting"
	SecondStageDone    = "done"
)

// PermalinkUnresolved marks a permalink that permanently failed to resolve,
// so the pipeline stops retrying it.
const PermalinkUnresolved = "-"
