package job

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	config "postpilot/configs"
	"postpilot/internal/models"
	"postpilot/internal/notify"
	"postpilot/internal/platform"
	"postpilot/internal/repository"
	"postpilot/pkg/utils"
)

type TokenRefreshJob struct {
	cfg      config.Config
	ar       repository.AccountRepository
	client   platform.Client
	notifier notify.Notifier
}

func NewTokenRefreshJob(
	cfg config.Config,
	ar repository.AccountRepository,
	client platform.Client,
	notifier notify.Notifier) *TokenRefreshJob {
	return &TokenRefreshJob{
		cfg:      cfg,
		ar:       ar,
		client:   client,
		notifier: notifier,
	}
}

// RefreshTokens is the cron entry point: it refreshes every authorized
// account whose credential expires inside the configured window, bounded to
// one batch per run. Repeated failures escalate to reauth_required; the
// failure counter never resets on time alone.
func (j *TokenRefreshJob) RefreshTokens() {
	ctx := context.Background()

	deadline := time.Now().Add(j.cfg.RefreshWindow).Unix()
	accounts, err := j.ar.ListDueRefresh(ctx, deadline, j.cfg.RefreshBatchSize)
	if err != nil {
		slog.Info(err.Error())
		return
	}

	var wg sync.WaitGroup

	concurrencyLimit := 10
	semaphore := make(chan struct{}, concurrencyLimit)

	for _, acc := range accounts {
		wg.Add(1)
		semaphore <- struct{}{}

		go func(acc *models.Account) {
			defer wg.Done()
			defer func() { <-semaphore }()

			j.refreshOne(ctx, acc)
		}(acc)
	}

	wg.Wait()
}

func (j *TokenRefreshJob) refreshOne(ctx context.Context, acc *models.Account) {
	// Without a refresh token or client secret there is nothing to retry.
	if acc.RefreshToken == "" || j.cfg.ClientSecret == "" {
		if err := j.ar.SetReauthRequired(ctx, acc.ID); err != nil {
			slog.Info(err.Error())
			return
		}
		j.notifier.Send(ctx, fmt.Sprintf("account %s needs manual re-authorization (no refresh credential)", acc.Username))
		return
	}

	refreshToken, err := utils.Decrypt(acc.RefreshToken, []byte(j.cfg.SecretKey))
	if err != nil {
		if err := j.ar.SetReauthRequired(ctx, acc.ID); err != nil {
			slog.Info(err.Error())
		}
		return
	}

	tokenResponse, err := j.client.RefreshCredential(ctx, refreshToken)
	if err != nil {
		slog.Info(fmt.Sprintf("unable to refresh tokens for account %d: %v", acc.ID, err))
		failures, ferr := j.ar.RecordRefreshFailure(ctx, acc.ID, j.cfg.RefreshFailureLimit)
		if ferr != nil {
			slog.Info(ferr.Error())
			return
		}
		if failures >= j.cfg.RefreshFailureLimit {
			j.notifier.Send(ctx, fmt.Sprintf("account %s disabled after %d failed refreshes, re-link required", acc.Username, failures))
		}
		return
	}

	encryptedAccessToken, err := utils.Encrypt([]byte(tokenResponse.AccessToken), []byte(j.cfg.SecretKey))
	if err != nil {
		return
	}

	// Some token endpoints rotate the refresh token, some don't; an empty
	// value keeps the stored one.
	encryptedRefreshToken := ""
	if tokenResponse.RefreshToken != "" {
		encryptedRefreshToken, err = utils.Encrypt([]byte(tokenResponse.RefreshToken), []byte(j.cfg.SecretKey))
		if err != nil {
			return
		}
	}

	expiresAt := time.Now().Add(time.Second * time.Duration(tokenResponse.ExpiresIn)).Unix()
	updated, err := j.ar.SetToken(ctx, acc.ID, encryptedAccessToken, encryptedRefreshToken, expiresAt)
	if err != nil {
		slog.Info(err.Error())
		return
	}
	if !updated {
		slog.Info(fmt.Sprintf("skipped stale token update for account %d", acc.ID))
	}
}
