package job

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	config "postpilot/configs"
	"postpilot/internal/models"
	"postpilot/internal/repository"
	"postpilot/internal/service"
)

const scanBatchSize = 100

// PublishScanJob is the correctness backstop behind the exact-time queue: it
// periodically sweeps due pending posts (including stale publishing claims)
// and due second-stage follow-ups. One record's failure never aborts the pass.
type PublishScanJob struct {
	cfg config.Config
	pr  repository.PostRepository
	ps  service.PublishService
}

func NewPublishScanJob(cfg config.Config, pr repository.PostRepository, ps service.PublishService) *PublishScanJob {
	return &PublishScanJob{cfg: cfg, pr: pr, ps: ps}
}

func (j *PublishScanJob) ScanDuePosts() {
	ctx := context.Background()

	staleBefore := time.Now().Add(-j.cfg.PublishClaimTTL)
	posts, err := j.pr.ListDuePending(ctx, time.Now().Unix(), staleBefore, scanBatchSize)
	if err != nil {
		slog.Info(err.Error())
		return
	}

	var wg sync.WaitGroup

	concurrencyLimit := 10
	semaphore := make(chan struct{}, concurrencyLimit)

	for _, post := range posts {
		wg.Add(1)
		semaphore <- struct{}{}

		go func(post *models.ScheduledPost) {
			defer wg.Done()
			defer func() { <-semaphore }()

			if _, err := j.ps.PublishPost(ctx, post.ID); err != nil {
				if !errors.Is(err, service.ErrAlreadyPublished) {
					slog.Info(err.Error())
				}
			}
		}(post)
	}

	wg.Wait()
}

func (j *PublishScanJob) ScanSecondStage() {
	ctx := context.Background()

	postedBefore := time.Now().Add(-j.cfg.SecondStageDelay).Unix()
	posts, err := j.pr.ListDueSecondStage(ctx, postedBefore, scanBatchSize)
	if err != nil {
		slog.Info(err.Error())
		return
	}

	var wg sync.WaitGroup

	concurrencyLimit := 10
	semaphore := make(chan struct{}, concurrencyLimit)

	for _, post := range posts {
		wg.Add(1)
		semaphore <- struct{}{}

		go func(post *models.ScheduledPost) {
			defer wg.Done()
			defer func() { <-semaphore }()

			if err := j.ps.RunFollowUp(ctx, post.ID); err != nil {
				if !errors.Is(err, service.ErrAlreadyDone) {
					slog.Info(err.Error())
				}
			}
		}(post)
	}

	wg.Wait()
}
