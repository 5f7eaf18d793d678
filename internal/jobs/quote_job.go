package job

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	config "postpilot/configs"
	"postpilot/internal/models"
	"postpilot/internal/platform"
	"postpilot/internal/repository"
	"postpilot/pkg/utils"
)

type QuoteJob struct {
	cfg    config.Config
	ar     repository.AccountRepository
	pr     repository.PostRepository
	client platform.Client
}

func NewQuoteJob(
	cfg config.Config,
	ar repository.AccountRepository,
	pr repository.PostRepository,
	client platform.Client) *QuoteJob {
	return &QuoteJob{
		cfg:    cfg,
		ar:     ar,
		pr:     pr,
		client: client,
	}
}

// MirrorLatest is the cron entry point: for every account watching an
// upstream profile it mirrors that profile's most recent post into a local
// quote draft, at most once per upstream post. The existence check matches
// both the source post id and the short code because the upstream API is
// inconsistent about which identifier it returns. The check is best effort;
// overlapping runs can in rare cases both create a draft.
func (j *QuoteJob) MirrorLatest() {
	ctx := context.Background()

	accounts, err := j.ar.ListAutoQuote(ctx)
	if err != nil {
		slog.Info(err.Error())
		return
	}

	for _, acc := range accounts {
		if err := j.mirrorOne(ctx, acc); err != nil {
			slog.Info(fmt.Sprintf("quote mirror for account %d: %v", acc.ID, err))
		}
	}
}

func (j *QuoteJob) mirrorOne(ctx context.Context, acc *models.Account) error {
	accessToken, err := utils.Decrypt(acc.AccessToken, []byte(j.cfg.SecretKey))
	if err != nil || accessToken == "" {
		return fmt.Errorf("no usable credential")
	}

	latest, err := j.client.FetchLatestPost(ctx, accessToken, acc.MonitoredAccount)
	if err != nil {
		return err
	}
	if latest == nil || (latest.ID == "" && latest.ShortCode == "") {
		return nil
	}

	exists, err := j.pr.ExistsBySource(ctx, acc.UserID, latest.ID, latest.ShortCode)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	draft := models.ScheduledPost{
		UserID:          acc.UserID,
		AccountID:       acc.ID,
		Status:          models.PostStatusPendingQuote,
		SecondStage:     models.SecondStageNone,
		ScheduledAt:     time.Now().Unix(),
		SourcePostID:    latest.ID,
		SourceShortCode: latest.ShortCode,
	}
	if _, err := j.pr.Create(ctx, &draft); err != nil {
		return err
	}
	return nil
}
