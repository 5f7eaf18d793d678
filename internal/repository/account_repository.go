package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"postpilot/internal/models"
)

const accountColumns = `id, user_id, platform_user_id, username, access_token,
	refresh_token, token_expires_at, refresh_failures, auth_state,
	follow_up_content, monitored_account, auto_post, auto_quote,
	created_at, updated_at`

type AccountRepository interface {
	Create(ctx context.Context, a *models.Account) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.Account, error)
	ListByUserID(ctx context.Context, userID int64) ([]*models.Account, error)
	CheckByUserID(ctx context.Context, accountID, userID int64) (bool, error)
	ListDueRefresh(ctx context.Context, expiresBefore int64, limit int) ([]*models.Account, error)
	ListAutoQuote(ctx context.Context) ([]*models.Account, error)
	SetToken(ctx context.Context, id int64, accessToken, refreshToken string, expiresAt int64) (bool, error)
	RecordRefreshFailure(ctx context.Context, id int64, limit int) (int, error)
	SetReauthRequired(ctx context.Context, id int64) error
	ClearCredentials(ctx context.Context, platformUserID string) error
	SetAutomation(ctx context.Context, id int64, autoPost, autoQuote bool) error
	UpdateSettings(ctx context.Context, id, userID int64, followUpContent, monitoredAccount string, autoPost, autoQuote bool) error
}

type accountRepository struct {
	db *sql.DB
}

func NewAccountRepository(db *sql.DB) AccountRepository {
	return &accountRepository{db: db}
}

func (r *accountRepository) Create(ctx context.Context, a *models.Account) (int64, error) {
	query := `
		INSERT INTO accounts (
			user_id, platform_user_id, username, access_token, refresh_token,
			token_expires_at, auth_state, auto_post, auto_quote
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (user_id, platform_user_id) DO UPDATE
		SET access_token = EXCLUDED.access_token,
			refresh_token = EXCLUDED.refresh_token,
			token_expires_at = EXCLUDED.token_expires_at,
			auth_state = EXCLUDED.auth_state,
			refresh_failures = 0,
			updated_at = CURRENT_TIMESTAMP
		RETURNING id
	`

	var id int64
	err := r.db.QueryRowContext(ctx, query,
		a.UserID,
		a.PlatformUserID,
		a.Username,
		a.AccessToken,
		a.RefreshToken,
		a.TokenExpiresAt,
		models.AuthStateAuthorized,
		a.AutoPost,
		a.AutoQuote,
	).Scan(&id)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	return id, nil
}

func (r *accountRepository) GetByID(ctx context.Context, id int64) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`
	row := r.db.QueryRowContext(ctx, query, id)

	account, err := scanAccount(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return account, nil
}

func (r *accountRepository) ListByUserID(ctx context.Context, userID int64) ([]*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE user_id = $1`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	return collectAccounts(rows)
}

func (r *accountRepository) CheckByUserID(ctx context.Context, accountID, userID int64) (bool, error) {
	query := `SELECT 1 FROM accounts WHERE id = $1 AND user_id = $2`

	var result int
	err := r.db.QueryRowContext(ctx, query, accountID, userID).Scan(&result)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		slog.Info(err.Error())
		return false, err
	}

	return result == 1, nil
}

// ListDueRefresh selects authorized accounts whose credential expires before
// the deadline, already-expired ones included.
func (r *accountRepository) ListDueRefresh(ctx context.Context, expiresBefore int64, limit int) ([]*models.Account, error) {
	query := `SELECT ` + accountColumns + `
		FROM accounts
		WHERE auth_state = $1 AND token_expires_at <= $2
		ORDER BY token_expires_at
		LIMIT $3`
	rows, err := r.db.QueryContext(ctx, query, models.AuthStateAuthorized, expiresBefore, limit)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	return collectAccounts(rows)
}

func (r *accountRepository) ListAutoQuote(ctx context.Context) ([]*models.Account, error) {
	query := `SELECT ` + accountColumns + `
		FROM accounts
		WHERE auth_state = $1 AND auto_quote = true AND monitored_account <> ''`
	rows, err := r.db.QueryContext(ctx, query, models.AuthStateAuthorized)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	return collectAccounts(rows)
}

// SetToken stores a refreshed credential and resets the failure counter. The
// expiry guard keeps token_expires_at strictly increasing, so a stale refresh
// result can never overwrite a newer one.
func (r *accountRepository) SetToken(ctx context.Context, id int64, accessToken, refreshToken string, expiresAt int64) (bool, error) {
	query := `
		UPDATE accounts
		SET access_token = $2,
			refresh_token = COALESCE(NULLIF($3, ''), refresh_token),
			token_expires_at = $4,
			refresh_failures = 0,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = $1 AND token_expires_at < $4
	`
	result, err := r.db.ExecContext(ctx, query, id, accessToken, refreshToken, expiresAt)
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

// RecordRefreshFailure bumps the persistent failure counter and, in the same
// statement, flips the account to reauth_required once the counter reaches
// the limit. The counter only ever resets on a verified refresh success.
func (r *accountRepository) RecordRefreshFailure(ctx context.Context, id int64, limit int) (int, error) {
	query := `
		UPDATE accounts
		SET refresh_failures = refresh_failures + 1,
			auth_state = CASE WHEN refresh_failures + 1 >= $2 THEN $3 ELSE auth_state END,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = $1
		RETURNING refresh_failures
	`

	var failures int
	err := r.db.QueryRowContext(ctx, query, id, limit, models.AuthStateReauthRequired).Scan(&failures)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	return failures, nil
}

func (r *accountRepository) SetReauthRequired(ctx context.Context, id int64) error {
	query := `
		UPDATE accounts
		SET auth_state = $2, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1
	`
	_, err := r.db.ExecContext(ctx, query, id, models.AuthStateReauthRequired)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

// ClearCredentials handles a deauthorization callback from the platform: the
// tokens are wiped but the record is kept.
func (r *accountRepository) ClearCredentials(ctx context.Context, platformUserID string) error {
	query := `
		UPDATE accounts
		SET access_token = '',
			refresh_token = '',
			auth_state = $2,
			updated_at = CURRENT_TIMESTAMP
		WHERE platform_user_id = $1
	`
	_, err := r.db.ExecContext(ctx, query, platformUserID, models.AuthStateReauthRequired)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *accountRepository) SetAutomation(ctx context.Context, id int64, autoPost, autoQuote bool) error {
	query := `
		UPDATE accounts
		SET auto_post = $2, auto_quote = $3, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1
	`
	_, err := r.db.ExecContext(ctx, query, id, autoPost, autoQuote)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *accountRepository) UpdateSettings(ctx context.Context, id, userID int64, followUpContent, monitoredAccount string, autoPost, autoQuote bool) error {
	query := `
		UPDATE accounts
		SET follow_up_content = $3,
			monitored_account = $4,
			auto_post = $5,
			auto_quote = $6,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = $1 AND user_id = $2
	`
	_, err := r.db.ExecContext(ctx, query, id, userID, followUpContent, monitoredAccount, autoPost, autoQuote)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func scanAccount(row rowScanner) (*models.Account, error) {
	var a models.Account
	err := row.Scan(
		&a.ID, &a.UserID, &a.PlatformUserID, &a.Username, &a.AccessToken,
		&a.RefreshToken, &a.TokenExpiresAt, &a.RefreshFailures, &a.AuthState,
		&a.FollowUpContent, &a.MonitoredAccount, &a.AutoPost, &a.AutoQuote,
		&a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func collectAccounts(rows *sql.Rows) ([]*models.Account, error) {
	var accounts []*models.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		accounts = append(accounts, account)
	}
	if err := rows.Err(); err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	return accounts, nil
}
