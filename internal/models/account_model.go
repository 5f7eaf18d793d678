package models

import "time"

type Account struct {
	ID               int64     `db:"id" json:"id"`
	UserID           int64     `db:"user_id" json:"user_id"`
	PlatformUserID   string    `db:"platform_user_id" json:"platform_user_id"`
	Username         string    `db:"username" json:"username"`
	AccessToken      string    `db:"access_token" json:"-"`
	RefreshToken     string    `db:"refresh_token" json:"-"`
	TokenExpiresAt   int64     `db:"token_expires_at" json:"token_expires_at"`
	RefreshFailures  int       `db:"refresh_failures" json:"refresh_failures"`
	AuthState        string    `db:"auth_state" json:"auth_state"`
	FollowUpContent  string    `db:"follow_up_content" json:"follow_up_content"`
	MonitoredAccount string    `db:"monitored_account" json:"monitored_account"`
	AutoPost         bool      `db:"auto_post" json:"auto_post"`
	AutoQuote        bool      `db:"auto_quote" json:"auto_quote"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}

const (
	AuthStateAuthorized     = "authorized"
	AuthStateReauthRequired = "reauth_required"
)

// AutomationActive reports whether the pipeline may post for this account.
// A reauth_required account is disabled regardless of its toggles, and a bulk
// deletion in flight clears auto_post until the queue drains.
func (a *Account) AutomationActive() bool {
	return a.AuthState == AuthStateAuthorized && a.AutoPost
}
