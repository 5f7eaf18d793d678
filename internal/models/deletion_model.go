package models

import "time"

// DeletionQueueEntry is one outstanding "delete everything for this account"
// job. The in_progress flag is an advisory claim only: a crashed worker leaves
// it set, and claimed_at lets a later pass take the entry back over.
type DeletionQueueEntry struct {
	ID              int64     `db:"id" json:"id"`
	UserID          int64     `db:"user_id" json:"user_id"`
	AccountID       int64     `db:"account_id" json:"account_id"`
	InProgress      bool      `db:"in_progress" json:"in_progress"`
	ClaimedAt       int64     `db:"claimed_at" json:"claimed_at"`
	LastProcessedAt int64     `db:"last_processed_at" json:"last_processed_at"`
	RetryCount      int       `db:"retry_count" json:"retry_count"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}
