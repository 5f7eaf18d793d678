package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"postpilot/internal/models"
)

type PostingAttemptRepository interface {
	Create(ctx context.Context, a *models.PostingAttempt) (int64, error)
	ListByPostID(ctx context.Context, postID int64) ([]*models.PostingAttempt, error)
}

type postingAttemptRepository struct {
	db *sql.DB
}

func NewPostingAttemptRepository(db *sql.DB) PostingAttemptRepository {
	return &postingAttemptRepository{db: db}
}

func (r *postingAttemptRepository) Create(ctx context.Context, a *models.PostingAttempt) (int64, error) {
	query := `
		INSERT INTO posting_attempts (user_id, post_id, account_id, stage, error_message, permanent)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	var id int64
	err := r.db.QueryRowContext(ctx, query,
		a.UserID, a.PostID, a.AccountID, a.Stage, a.ErrorMessage, a.Permanent).Scan(&id)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	return id, nil
}

func (r *postingAttemptRepository) ListByPostID(ctx context.Context, postID int64) ([]*models.PostingAttempt, error) {
	query := `SELECT id, user_id, post_id, account_id, stage, error_message, permanent, created_at
		FROM posting_attempts WHERE post_id = $1 ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, postID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var attempts []*models.PostingAttempt
	for rows.Next() {
		var a models.PostingAttempt
		err := rows.Scan(&a.ID, &a.UserID, &a.PostID, &a.AccountID, &a.Stage,
			&a.ErrorMessage, &a.Permanent, &a.CreatedAt)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		attempts = append(attempts, &a)
	}
	if err := rows.Err(); err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	return attempts, nil
}
