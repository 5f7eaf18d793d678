package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"postpilot/internal/models"
)

const deletionColumns = `id, user_id, account_id, in_progress, claimed_at,
	last_processed_at, retry_count, created_at`

type DeletionQueueRepository interface {
	Create(ctx context.Context, e *models.DeletionQueueEntry) (int64, error)
	ListDue(ctx context.Context, now, backoffSeconds, claimTTLSeconds int64) ([]*models.DeletionQueueEntry, error)
	Claim(ctx context.Context, id, now, claimTTLSeconds int64) (bool, error)
	Release(ctx context.Context, id, lastProcessedAt int64) error
	Remove(ctx context.Context, id int64) error
	RemoveByAccountID(ctx context.Context, accountID int64) error
	ExistsByAccountID(ctx context.Context, accountID int64) (bool, error)
}

type deletionQueueRepository struct {
	db *sql.DB
}

func NewDeletionQueueRepository(db *sql.DB) DeletionQueueRepository {
	return &deletionQueueRepository{db: db}
}

func (r *deletionQueueRepository) Create(ctx context.Context, e *models.DeletionQueueEntry) (int64, error) {
	query := `
		INSERT INTO deletion_queue (user_id, account_id)
		VALUES ($1, $2)
		RETURNING id
	`

	var id int64
	err := r.db.QueryRowContext(ctx, query, e.UserID, e.AccountID).Scan(&id)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	return id, nil
}

// ListDue returns unclaimed entries that have never been processed or whose
// last pass is older than the back-off interval. Entries whose claim has
// outlived the claim TTL are returned too, so a crashed worker's stale claim
// does not park an account forever.
func (r *deletionQueueRepository) ListDue(ctx context.Context, now, backoffSeconds, claimTTLSeconds int64) ([]*models.DeletionQueueEntry, error) {
	query := `SELECT ` + deletionColumns + `
		FROM deletion_queue
		WHERE (
			in_progress = false
			AND (last_processed_at = 0 OR last_processed_at <= $1)
		)
		OR (in_progress = true AND claimed_at <= $2)
		ORDER BY created_at`
	rows, err := r.db.QueryContext(ctx, query, now-backoffSeconds, now-claimTTLSeconds)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var entries []*models.DeletionQueueEntry
	for rows.Next() {
		var e models.DeletionQueueEntry
		err := rows.Scan(&e.ID, &e.UserID, &e.AccountID, &e.InProgress,
			&e.ClaimedAt, &e.LastProcessedAt, &e.RetryCount, &e.CreatedAt)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		entries = append(entries, &e)
	}
	if err := rows.Err(); err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	return entries, nil
}

// Claim succeeds only when the entry is unclaimed or its claim is past the
// TTL. Advisory only: cancel-deletion removes entries without waiting on it.
func (r *deletionQueueRepository) Claim(ctx context.Context, id, now, claimTTLSeconds int64) (bool, error) {
	query := `
		UPDATE deletion_queue
		SET in_progress = true, claimed_at = $2
		WHERE id = $1 AND (in_progress = false OR claimed_at <= $3)
	`
	result, err := r.db.ExecContext(ctx, query, id, now, now-claimTTLSeconds)
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}
	return affected == 1, nil
}

func (r *deletionQueueRepository) Release(ctx context.Context, id, lastProcessedAt int64) error {
	query := `
		UPDATE deletion_queue
		SET in_progress = false,
			claimed_at = 0,
			last_processed_at = $2,
			retry_count = retry_count + 1
		WHERE id = $1
	`
	_, err := r.db.ExecContext(ctx, query, id, lastProcessedAt)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *deletionQueueRepository) Remove(ctx context.Context, id int64) error {
	query := `DELETE FROM deletion_queue WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *deletionQueueRepository) RemoveByAccountID(ctx context.Context, accountID int64) error {
	query := `DELETE FROM deletion_queue WHERE account_id = $1`
	_, err := r.db.ExecContext(ctx, query, accountID)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *deletionQueueRepository) ExistsByAccountID(ctx context.Context, accountID int64) (bool, error) {
	query := `SELECT 1 FROM deletion_queue WHERE account_id = $1 LIMIT 1`

	var result int
	err := r.db.QueryRowContext(ctx, query, accountID).Scan(&result)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		slog.Info(err.Error())
		return false, err
	}

	return result == 1, nil
}
