package job

import (
	"context"
	"fmt"
	"log"
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

type DeletionJob struct {
	cfg      config.Config
	dq       repository.DeletionQueueRepository
	pr       repository.PostRepository
	ar       repository.AccountRepository
	pa       repository.PostingAttemptRepository
	client   platform.Client
	notifier notify.Notifier
}

func NewDeletionJob(
	cfg config.Config,
	dq repository.DeletionQueueRepository,
	pr repository.PostRepository,
	ar repository.AccountRepository,
	pa repository.PostingAttemptRepository,
	client platform.Client,
	notifier notify.Notifier) *DeletionJob {
	return &DeletionJob{
		cfg:      cfg,
		dq:       dq,
		pr:       pr,
		ar:       ar,
		pa:       pa,
		client:   client,
		notifier: notifier,
	}
}

// ProcessQueue is the cron entry point. Each due entry is claimed, drained by
// one bounded batch and either released for the next pass or removed when the
// account has no deletable posts left.
func (j *DeletionJob) ProcessQueue() {
	ctx := context.Background()

	now := time.Now().Unix()
	entries, err := j.dq.ListDue(ctx, now,
		int64(j.cfg.DeletionBackoff.Seconds()), int64(j.cfg.DeletionClaimTTL.Seconds()))
	if err != nil {
		slog.Info(err.Error())
		return
	}

	var wg sync.WaitGroup

	concurrencyLimit := 4
	semaphore := make(chan struct{}, concurrencyLimit)

	for _, entry := range entries {
		wg.Add(1)
		semaphore <- struct{}{}

		go func(entry *models.DeletionQueueEntry) {
			defer wg.Done()
			defer func() { <-semaphore }()

			j.processEntry(ctx, entry)
		}(entry)
	}

	wg.Wait()
}

func (j *DeletionJob) processEntry(ctx context.Context, entry *models.DeletionQueueEntry) {
	claimed, err := j.dq.Claim(ctx, entry.ID, time.Now().Unix(), int64(j.cfg.DeletionClaimTTL.Seconds()))
	if err != nil || !claimed {
		return
	}

	account, err := j.ar.GetByID(ctx, entry.AccountID)
	if err != nil {
		j.release(ctx, entry)
		return
	}
	if account == nil {
		// The account is gone; nothing left to delete for it.
		if err := j.dq.Remove(ctx, entry.ID); err != nil {
			slog.Info(err.Error())
		}
		return
	}

	accessToken, err := utils.Decrypt(account.AccessToken, []byte(j.cfg.SecretKey))
	if err != nil || accessToken == "" {
		log.Printf("deletion for account %d stalled: no usable credential", account.ID)
		j.release(ctx, entry)
		return
	}

	posts, err := j.pr.ListDeletable(ctx, entry.AccountID, j.cfg.DeletionBatchSize)
	if err != nil {
		j.release(ctx, entry)
		return
	}

	for _, post := range posts {
		if err := j.deleteOne(ctx, accessToken, post); err != nil {
			// Transient failure: leave the post for the next pass.
			slog.Info(fmt.Sprintf("deleting post %d: %v", post.ID, err))
		}
	}

	remaining, err := j.pr.CountDeletable(ctx, entry.AccountID)
	if err != nil {
		// The batch ran, so this pass does count as processing.
		if rerr := j.dq.Release(ctx, entry.ID, time.Now().Unix()); rerr != nil {
			slog.Info(rerr.Error())
		}
		return
	}

	if remaining > 0 {
		if err := j.dq.Release(ctx, entry.ID, time.Now().Unix()); err != nil {
			slog.Info(err.Error())
		}
		return
	}

	if err := j.dq.Remove(ctx, entry.ID); err != nil {
		slog.Info(err.Error())
		return
	}
	if err := j.ar.SetAutomation(ctx, entry.AccountID, true, true); err != nil {
		slog.Info(err.Error())
	}
	j.notifier.Send(ctx, fmt.Sprintf("historical post deletion finished for account %s", account.Username))
}

// deleteOne removes a single post on the platform and soft-deletes the local
// record. A permanent platform error (the post is already gone, or access is
// forbidden) counts as deleted so the entry can't loop forever.
func (j *DeletionJob) deleteOne(ctx context.Context, accessToken string, post *models.ScheduledPost) error {
	err := j.client.DeletePost(ctx, accessToken, post.PlatformPostID)
	if err != nil && !platform.IsPermanent(err) {
		return err
	}
	if err != nil {
		attempt := models.PostingAttempt{
			UserID:       post.UserID,
			PostID:       post.ID,
			AccountID:    post.AccountID,
			Stage:        models.AttemptStageDelete,
			ErrorMessage: err.Error(),
			Permanent:    true,
		}
		if _, aerr := j.pa.Create(ctx, &attempt); aerr != nil {
			slog.Info(aerr.Error())
		}
	}

	if _, err := j.pr.SoftDelete(ctx, post.ID); err != nil {
		return err
	}
	return nil
}

// release gives a claim back after a pass that attempted no deletions. The
// previous last_processed_at is kept, so a transient hiccup does not defer
// the entry by the full back-off interval.
func (j *DeletionJob) release(ctx context.Context, entry *models.DeletionQueueEntry) {
	if err := j.dq.Release(ctx, entry.ID, entry.LastProcessedAt); err != nil {
		slog.Info(err.Error())
	}
}
