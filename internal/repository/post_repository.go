package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"postpilot/internal/models"
)

const postColumns = `id, user_id, account_id, content, scheduled_at, status,
	platform_post_id, permalink, second_stage, second_stage_post_id,
	second_stage_opt_out, source_post_id, source_short_code, idempotency_key,
	is_deleted, posted_at, created_at, updated_at`

const qualifiedPostColumns = `p.id, p.user_id, p.account_id, p.content, p.scheduled_at, p.status,
	p.platform_post_id, p.permalink, p.second_stage, p.second_stage_post_id,
	p.second_stage_opt_out, p.source_post_id, p.source_short_code, p.idempotency_key,
	p.is_deleted, p.posted_at, p.created_at, p.updated_at`

type PostRepository interface {
	Create(ctx context.Context, post *models.ScheduledPost) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.ScheduledPost, error)
	ListByUserID(ctx context.Context, userID int64) ([]*models.ScheduledPost, error)
	CheckByUserID(ctx context.Context, postID, userID int64) (bool, error)
	ListDuePending(ctx context.Context, now int64, staleClaimBefore time.Time, limit int) ([]*models.ScheduledPost, error)
	ListDueSecondStage(ctx context.Context, postedBefore int64, limit int) ([]*models.ScheduledPost, error)
	ClaimPending(ctx context.Context, id int64, staleClaimBefore time.Time) (bool, error)
	RevertClaim(ctx context.Context, id int64) (bool, error)
	MarkFailed(ctx context.Context, id int64) (bool, error)
	MarkPosted(ctx context.Context, id int64, platformPostID, permalink, secondStage string, postedAt int64) (bool, error)
	MarkSecondStageDone(ctx context.Context, id int64, replyID string) (bool, error)
	FillQuoteContent(ctx context.Context, id, userID int64, content string, scheduledAt int64) (bool, error)
	ExistsBySource(ctx context.Context, userID int64, sourcePostID, shortCode string) (bool, error)
	ListDeletable(ctx context.Context, accountID int64, limit int) ([]*models.ScheduledPost, error)
	CountDeletable(ctx context.Context, accountID int64) (int, error)
	SoftDelete(ctx context.Context, id int64) (bool, error)
	Remove(ctx context.Context, id, userID int64) error
}

type postRepository struct {
	db *sql.DB
}

func NewPostRepository(db *sql.DB) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) Create(ctx context.Context, post *models.ScheduledPost) (int64, error) {
	query := `
		INSERT INTO scheduled_posts (
			user_id, account_id, content, scheduled_at, status, second_stage,
			second_stage_opt_out, source_post_id, source_short_code, idempotency_key
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`

	var id int64
	err := r.db.QueryRowContext(ctx, query,
		post.UserID,
		post.AccountID,
		post.Content,
		post.ScheduledAt,
		post.Status,
		post.SecondStage,
		post.SecondStageOptOut,
		post.SourcePostID,
		post.SourceShortCode,
		post.IdempotencyKey,
	).Scan(&id)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	return id, nil
}

func (r *postRepository) GetByID(ctx context.Context, id int64) (*models.ScheduledPost, error) {
	query := `SELECT ` + postColumns + ` FROM scheduled_posts WHERE id = $1`
	row := r.db.QueryRowContext(ctx, query, id)

	post, err := scanPost(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return post, nil
}

func (r *postRepository) ListByUserID(ctx context.Context, userID int64) ([]*models.ScheduledPost, error) {
	query := `SELECT ` + postColumns + ` FROM scheduled_posts WHERE user_id = $1 ORDER BY scheduled_at DESC`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	return collectPosts(rows)
}

func (r *postRepository) CheckByUserID(ctx context.Context, postID, userID int64) (bool, error) {
	query := `SELECT 1 FROM scheduled_posts WHERE id = $1 AND user_id = $2`

	var result int
	err := r.db.QueryRowContext(ctx, query, postID, userID).Scan(&result)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		slog.Info(err.Error())
		return false, err
	}

	return result == 1, nil
}

// ListDuePending also sweeps up stale publishing claims left behind by a
// crashed worker pass. Accounts whose posting automation is suspended (a bulk
// deletion in flight) or that need re-authorization are excluded; their
// records stay pending until automation is restored.
func (r *postRepository) ListDuePending(ctx context.Context, now int64, staleClaimBefore time.Time, limit int) ([]*models.ScheduledPost, error) {
	query := `SELECT ` + qualifiedPostColumns + `
		FROM scheduled_posts p
		JOIN accounts a ON a.id = p.account_id
		WHERE p.is_deleted = false
		AND a.auto_post = true
		AND a.auth_state = $1
		AND (
			(p.status = $2 AND p.scheduled_at <= $3)
			OR (p.status = $4 AND p.updated_at <= $5)
		)
		ORDER BY p.scheduled_at
		LIMIT $6`
	rows, err := r.db.QueryContext(ctx, query, models.AuthStateAuthorized,
		models.PostStatusPending, now, models.PostStatusPublishing, staleClaimBefore, limit)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	return collectPosts(rows)
}

func (r *postRepository) ListDueSecondStage(ctx context.Context, postedBefore int64, limit int) ([]*models.ScheduledPost, error) {
	query := `SELECT ` + postColumns + `
		FROM scheduled_posts
		WHERE status = $1
		AND second_stage = $2
		AND is_deleted = false
		AND posted_at > 0
		AND posted_at <= $3
		ORDER BY posted_at
		LIMIT $4`
	rows, err := r.db.QueryContext(ctx, query,
		models.PostStatusPosted, models.SecondStageWaiting, postedBefore, limit)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	return collectPosts(rows)
}

// ClaimPending conditionally moves a record into the publishing state. The
// condition is what makes concurrent publish calls on the same record safe:
// only one caller sees rows affected = 1. A publishing claim older than
// staleClaimBefore may be taken over.
func (r *postRepository) ClaimPending(ctx context.Context, id int64, staleClaimBefore time.Time) (bool, error) {
	query := `
		UPDATE scheduled_posts
		SET status = $2, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1
		AND is_deleted = false
		AND (status = $3 OR (status = $2 AND updated_at <= $4))
	`
	result, err := r.db.ExecContext(ctx, query, id,
		models.PostStatusPublishing, models.PostStatusPending, staleClaimBefore)
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

// RevertClaim returns a claimed record to pending after a transient platform
// failure. The guard on platform_post_id keeps a committed publish from ever
// being rolled back.
func (r *postRepository) RevertClaim(ctx context.Context, id int64) (bool, error) {
	query := `
		UPDATE scheduled_posts
		SET status = $2, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1 AND status = $3 AND platform_post_id = ''
	`
	result, err := r.db.ExecContext(ctx, query, id,
		models.PostStatusPending, models.PostStatusPublishing)
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

func (r *postRepository) MarkFailed(ctx context.Context, id int64) (bool, error) {
	query := `
		UPDATE scheduled_posts
		SET status = $2, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1 AND status = $3 AND platform_post_id = ''
	`
	result, err := r.db.ExecContext(ctx, query, id,
		models.PostStatusFailed, models.PostStatusPublishing)
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

func (r *postRepository) MarkPosted(ctx context.Context, id int64, platformPostID, permalink, secondStage string, postedAt int64) (bool, error) {
	query := `
		UPDATE scheduled_posts
		SET status = $2,
			platform_post_id = $3,
			permalink = $4,
			second_stage = $5,
			posted_at = $6,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = $1 AND status = $7 AND is_deleted = false
	`
	result, err := r.db.ExecContext(ctx, query, id,
		models.PostStatusPosted, platformPostID, permalink, secondStage, postedAt,
		models.PostStatusPublishing)
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

// MarkSecondStageDone is conditional on the waiting state so a concurrent
// follow-up invocation cannot record a second reply.
func (r *postRepository) MarkSecondStageDone(ctx context.Context, id int64, replyID string) (bool, error) {
	query := `
		UPDATE scheduled_posts
		SET second_stage = $2,
			second_stage_post_id = $3,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = $1 AND second_stage = $4 AND status = $5
	`
	result, err := r.db.ExecContext(ctx, query, id,
		models.SecondStageDone, replyID, models.SecondStageWaiting, models.PostStatusPosted)
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

// FillQuoteContent moves a quote draft to pending once its content has been
// generated, making it eligible for the pipeline.
func (r *postRepository) FillQuoteContent(ctx context.Context, id, userID int64, content string, scheduledAt int64) (bool, error) {
	query := `
		UPDATE scheduled_posts
		SET content = $3,
			scheduled_at = $4,
			status = $5,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = $1 AND user_id = $2 AND status = $6 AND is_deleted = false
	`
	result, err := r.db.ExecContext(ctx, query, id, userID, content, scheduledAt,
		models.PostStatusPending, models.PostStatusPendingQuote)
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

// ExistsBySource matches on either the source post id or the short code: the
// upstream API exposes the two identifiers inconsistently across endpoints.
func (r *postRepository) ExistsBySource(ctx context.Context, userID int64, sourcePostID, shortCode string) (bool, error) {
	query := `
		SELECT 1 FROM scheduled_posts
		WHERE user_id = $1
		AND (
			(source_post_id <> '' AND source_post_id = $2)
			OR (source_short_code <> '' AND source_short_code = $3)
		)
		LIMIT 1
	`

	var result int
	err := r.db.QueryRowContext(ctx, query, userID, sourcePostID, shortCode).Scan(&result)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		slog.Info(err.Error())
		return false, err
	}

	return result == 1, nil
}

func (r *postRepository) ListDeletable(ctx context.Context, accountID int64, limit int) ([]*models.ScheduledPost, error) {
	query := `SELECT ` + postColumns + `
		FROM scheduled_posts
		WHERE account_id = $1 AND status = $2 AND is_deleted = false
		ORDER BY posted_at
		LIMIT $3`
	rows, err := r.db.QueryContext(ctx, query, accountID, models.PostStatusPosted, limit)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	return collectPosts(rows)
}

func (r *postRepository) CountDeletable(ctx context.Context, accountID int64) (int, error) {
	query := `SELECT COUNT(*) FROM scheduled_posts WHERE account_id = $1 AND status = $2 AND is_deleted = false`

	var count int
	err := r.db.QueryRowContext(ctx, query, accountID, models.PostStatusPosted).Scan(&count)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	return count, nil
}

func (r *postRepository) SoftDelete(ctx context.Context, id int64) (bool, error) {
	query := `
		UPDATE scheduled_posts
		SET status = $2, is_deleted = true, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1 AND status = $3
	`
	result, err := r.db.ExecContext(ctx, query, id,
		models.PostStatusDeleted, models.PostStatusPosted)
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

// Remove hard-deletes a record. Reserved for records that never reached the
// platform; published records only ever get the soft-delete path.
func (r *postRepository) Remove(ctx context.Context, id, userID int64) error {
	query := `
		DELETE FROM scheduled_posts
		WHERE id = $1 AND user_id = $2 AND status IN ($3, $4, $5)
	`
	_, err := r.db.ExecContext(ctx, query, id, userID,
		models.PostStatusPending, models.PostStatusPendingQuote, models.PostStatusFailed)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPost(row rowScanner) (*models.ScheduledPost, error) {
	var post models.ScheduledPost
	err := row.Scan(
		&post.ID, &post.UserID, &post.AccountID, &post.Content, &post.ScheduledAt,
		&post.Status, &post.PlatformPostID, &post.Permalink, &post.SecondStage,
		&post.SecondStagePostID, &post.SecondStageOptOut, &post.SourcePostID,
		&post.SourceShortCode, &post.IdempotencyKey, &post.IsDeleted,
		&post.PostedAt, &post.CreatedAt, &post.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func collectPosts(rows *sql.Rows) ([]*models.ScheduledPost, error) {
	var posts []*models.ScheduledPost
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	return posts, nil
}
