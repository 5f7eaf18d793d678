package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	config "postpilot/configs"
	"postpilot/internal/models"
	"postpilot/internal/notify"
	"postpilot/internal/platform"
	"postpilot/internal/repository"
	"postpilot/pkg/utils"
)

// Named outcomes for user-triggered publish and follow-up calls. All of them
// are fatal for the record in question: the caller must not retry.
var (
	ErrAlreadyPublished       = errors.New("already_published_or_deleted")
	ErrAlreadyDone            = errors.New("already_done")
	ErrAutomationSuspended    = errors.New("automation_suspended")
	ErrMissingCredential      = errors.New("missing_credential")
	ErrMissingPostID          = errors.New("missing_post_id")
	ErrMissingFollowUpContent = errors.New("missing_followup_content")
	ErrPostNotFound           = errors.New("post_not_found")
)

type PublishService interface {
	PublishPost(ctx context.Context, postID int64) (*models.ScheduledPost, error)
	RunFollowUp(ctx context.Context, postID int64) error
}

type publishService struct {
	cfg      config.Config
	pr       repository.PostRepository
	ar       repository.AccountRepository
	pa       repository.PostingAttemptRepository
	client   platform.Client
	notifier notify.Notifier
}

func NewPublishService(
	cfg config.Config,
	pr repository.PostRepository,
	ar repository.AccountRepository,
	pa repository.PostingAttemptRepository,
	client platform.Client,
	notifier notify.Notifier) PublishService {
	return &publishService{
		cfg:      cfg,
		pr:       pr,
		ar:       ar,
		pa:       pa,
		client:   client,
		notifier: notifier,
	}
}

// PublishPost moves a pending record to posted. The order matters: the
// conditional claim is taken before the platform call, so a concurrent
// invocation of the same record makes zero platform calls. A transient
// platform failure reverts the claim; a permanent one parks the record in
// failed.
func (s *publishService) PublishPost(ctx context.Context, postID int64) (*models.ScheduledPost, error) {
	post, err := s.pr.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, ErrPostNotFound
	}
	if post.IsDeleted || post.Status == models.PostStatusPosted || post.Status == models.PostStatusDeleted {
		return nil, ErrAlreadyPublished
	}
	if post.Status == models.PostStatusPendingQuote {
		// Quote drafts become publishable only once their content is filled.
		return nil, fmt.Errorf("post %d is an unfilled quote draft", postID)
	}

	account, err := s.ar.GetByID(ctx, post.AccountID)
	if err != nil {
		return nil, err
	}

	accessToken, err := s.decryptedAccessToken(account)
	if err != nil {
		s.recordAttempt(ctx, post, models.AttemptStagePublish, err, true)
		return nil, ErrMissingCredential
	}

	if !account.AutomationActive() {
		// A bulk deletion in flight suspends posting for the account; the
		// record stays pending until automation is restored.
		return nil, ErrAutomationSuspended
	}

	staleBefore := time.Now().Add(-s.cfg.PublishClaimTTL)
	claimed, err := s.pr.ClaimPending(ctx, post.ID, staleBefore)
	if err != nil {
		return nil, err
	}
	if !claimed {
		return nil, ErrAlreadyPublished
	}

	platformPostID, err := s.client.CreatePost(ctx, accessToken, post.Content, post.IdempotencyKey)
	if err != nil {
		permanent := platform.IsPermanent(err)
		s.recordAttempt(ctx, post, models.AttemptStagePublish, err, permanent)
		if permanent {
			if _, err := s.pr.MarkFailed(ctx, post.ID); err != nil {
				slog.Info(err.Error())
			}
			return nil, fmt.Errorf("platform rejected post %d: %w", post.ID, err)
		}
		if _, err := s.pr.RevertClaim(ctx, post.ID); err != nil {
			slog.Info(err.Error())
		}
		return nil, fmt.Errorf("publishing post %d: %w", post.ID, err)
	}

	// Best effort, one attempt only. An unresolvable permalink is recorded
	// with the "-" sentinel so later passes don't keep retrying it.
	permalink, err := s.client.ResolvePermalink(ctx, accessToken, platformPostID)
	if err != nil || permalink == "" {
		if err != nil {
			slog.Info(err.Error())
		}
		permalink = models.PermalinkUnresolved
	}

	secondStage := models.SecondStageNone
	if account.FollowUpContent != "" && !post.SecondStageOptOut {
		secondStage = models.SecondStageWaiting
	}

	postedAt := time.Now().Unix()
	committed, err := s.pr.MarkPosted(ctx, post.ID, platformPostID, permalink, secondStage, postedAt)
	if err != nil {
		return nil, err
	}
	if !committed {
		// Another actor advanced the record between the claim and the
		// commit; the platform post exists, so surface it but don't undo.
		slog.Info(fmt.Sprintf("post %d advanced concurrently after platform call", post.ID))
		return nil, ErrAlreadyPublished
	}

	post.Status = models.PostStatusPosted
	post.PlatformPostID = platformPostID
	post.Permalink = permalink
	post.SecondStage = secondStage
	post.PostedAt = postedAt
	return post, nil
}

// RunFollowUp publishes the delayed second-stage reply to an already-posted
// record. Every precondition failure is reported with a named reason and
// makes no platform call.
func (s *publishService) RunFollowUp(ctx context.Context, postID int64) error {
	post, err := s.pr.GetByID(ctx, postID)
	if err != nil {
		return err
	}
	if post == nil {
		return ErrPostNotFound
	}
	if post.SecondStage == models.SecondStageDone {
		return ErrAlreadyDone
	}
	if post.Status != models.PostStatusPosted || post.SecondStage != models.SecondStageWaiting {
		return ErrAlreadyPublished
	}
	if post.PlatformPostID == "" {
		return ErrMissingPostID
	}

	account, err := s.ar.GetByID(ctx, post.AccountID)
	if err != nil {
		return err
	}
	if account == nil || account.FollowUpContent == "" {
		return ErrMissingFollowUpContent
	}

	accessToken, err := s.decryptedAccessToken(account)
	if err != nil {
		s.recordAttempt(ctx, post, models.AttemptStageSecondStage, err, true)
		return ErrMissingCredential
	}

	replyID, err := s.client.CreateReply(ctx, accessToken, account.FollowUpContent, post.PlatformPostID)
	if err != nil {
		s.recordAttempt(ctx, post, models.AttemptStageSecondStage, err, platform.IsPermanent(err))
		return fmt.Errorf("second stage for post %d: %w", post.ID, err)
	}

	done, err := s.pr.MarkSecondStageDone(ctx, post.ID, replyID)
	if err != nil {
		return err
	}
	if !done {
		return ErrAlreadyDone
	}
	return nil
}

func (s *publishService) decryptedAccessToken(account *models.Account) (string, error) {
	if account == nil || account.AccessToken == "" || account.AuthState != models.AuthStateAuthorized {
		return "", errors.New("account has no usable credential")
	}
	token, err := utils.Decrypt(account.AccessToken, []byte(s.cfg.SecretKey))
	if err != nil {
		return "", err
	}
	if token == "" {
		return "", errors.New("account has no usable credential")
	}
	return token, nil
}

func (s *publishService) recordAttempt(ctx context.Context, post *models.ScheduledPost, stage string, cause error, permanent bool) {
	attempt := models.PostingAttempt{
		UserID:    post.UserID,
		PostID:    post.ID,
		AccountID: post.AccountID,
		Stage:     stage,
		Permanent: permanent,
	}
	if cause != nil {
		attempt.ErrorMessage = cause.Error()
	}
	if _, err := s.pa.Create(ctx, &attempt); err != nil {
		slog.Info(err.Error())
	}
}
