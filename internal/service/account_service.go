package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/oauth2"
	config "postpilot/configs"
	"postpilot/internal/models"
	"postpilot/internal/platform"
	"postpilot/internal/repository"
	"postpilot/internal/transfer"
	"postpilot/pkg/utils"
)

type AccountService interface {
	AuthorizeURL(state string) string
	LinkCallback(ctx context.Context, code string, userID int64) error
	List(ctx context.Context, userID int64) ([]*models.Account, error)
	UpdateSettings(ctx context.Context, userID int64, as *transfer.AccountSettings) error
	Deauthorize(ctx context.Context, platformUserID string) error
}

type accountService struct {
	cfg    config.Config
	oauth  oauth2.Config
	ar     repository.AccountRepository
	client platform.Client
}

func NewAccountService(cfg config.Config, ar repository.AccountRepository, client platform.Client) AccountService {
	return &accountService{
		cfg: cfg,
		oauth: oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURI,
			Endpoint: oauth2.Endpoint{
				AuthURL:  cfg.PlatformAuthURL,
				TokenURL: cfg.PlatformTokenURL,
			},
			Scopes: []string{"posts.read", "posts.write", "accounts.read"},
		},
		ar:     ar,
		client: client,
	}
}

func (s *accountService) AuthorizeURL(state string) string {
	return s.oauth.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// LinkCallback exchanges the OAuth code, fetches the platform profile and
// stores the linked account with encrypted credentials. Re-linking an
// existing account resets its failure counter and auth state.
func (s *accountService) LinkCallback(ctx context.Context, code string, userID int64) error {
	if code == "" {
		err := errors.New("code is empty")
		slog.Info(err.Error())
		return err
	}

	token, err := s.oauth.Exchange(ctx, code)
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	profile, err := s.client.FetchProfile(ctx, token.AccessToken)
	if err != nil {
		return err
	}

	encryptedAccessToken, err := utils.Encrypt([]byte(token.AccessToken), []byte(s.cfg.SecretKey))
	if err != nil {
		return err
	}
	encryptedRefreshToken, err := utils.Encrypt([]byte(token.RefreshToken), []byte(s.cfg.SecretKey))
	if err != nil {
		return err
	}

	account := models.Account{
		UserID:         userID,
		PlatformUserID: profile.ID,
		Username:       profile.Username,
		AccessToken:    encryptedAccessToken,
		RefreshToken:   encryptedRefreshToken,
		TokenExpiresAt: token.Expiry.Unix(),
		AutoPost:       true,
	}
	if token.Expiry.IsZero() {
		account.TokenExpiresAt = time.Now().Add(time.Hour).Unix()
	}

	if _, err := s.ar.Create(ctx, &account); err != nil {
		return err
	}
	return nil
}

func (s *accountService) List(ctx context.Context, userID int64) ([]*models.Account, error) {
	return s.ar.ListByUserID(ctx, userID)
}

func (s *accountService) UpdateSettings(ctx context.Context, userID int64, as *transfer.AccountSettings) error {
	if as == nil {
		return errors.New("settings are nil")
	}

	owned, err := s.ar.CheckByUserID(ctx, as.AccountID, userID)
	if err != nil {
		return err
	}
	if !owned {
		return errors.New("account does not exist")
	}

	return s.ar.UpdateSettings(ctx, as.AccountID, userID,
		as.FollowUpContent, as.MonitoredAccount, as.AutoPost, as.AutoQuote)
}

// Deauthorize handles the platform's deauthorization webhook: credentials are
// cleared, the record stays.
func (s *accountService) Deauthorize(ctx context.Context, platformUserID string) error {
	if platformUserID == "" {
		return errors.New("platform user id is empty")
	}
	return s.ar.ClearCredentials(ctx, platformUserID)
}
