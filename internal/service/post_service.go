package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"postpilot/internal/models"
	"postpilot/internal/repository"
	"postpilot/internal/transfer"
)

type PostService interface {
	Create(ctx context.Context, userID int64, pc *transfer.PostCreation) (int64, time.Duration, error)
	List(ctx context.Context, userID int64) ([]*models.ScheduledPost, error)
	Info(ctx context.Context, postID, userID int64) (*models.ScheduledPost, error)
	Attempts(ctx context.Context, postID, userID int64) ([]*models.PostingAttempt, error)
	FillQuote(ctx context.Context, userID int64, qf *transfer.QuoteFill) error
	Remove(ctx context.Context, userID, postID int64) error
}

type postService struct {
	pr repository.PostRepository
	ar repository.AccountRepository
	pa repository.PostingAttemptRepository
}

func NewPostService(pr repository.PostRepository, ar repository.AccountRepository, pa repository.PostingAttemptRepository) PostService {
	return &postService{pr: pr, ar: ar, pa: pa}
}

func (s *postService) Create(ctx context.Context, userID int64, pc *transfer.PostCreation) (int64, time.Duration, error) {
	if pc == nil {
		err := errors.New("post creation data is nil")
		slog.Error(err.Error())
		return 0, 0, err
	}
	if pc.Content == "" {
		err := errors.New("content cannot be empty")
		slog.Info(err.Error())
		return 0, 0, err
	}

	scheduledTime, err := time.Parse("2006-01-02T15:04", pc.ScheduledTime)
	if err != nil {
		err = fmt.Errorf("invalid scheduled time format: %w", err)
		slog.Error(err.Error())
		return 0, 0, err
	}

	exists, err := s.ar.CheckByUserID(ctx, pc.AccountID, userID)
	if err != nil {
		return 0, 0, err
	}
	if !exists {
		err := fmt.Errorf("account %d does not exist", pc.AccountID)
		slog.Info(err.Error())
		return 0, 0, err
	}

	idempotencyKey, err := gonanoid.New()
	if err != nil {
		return 0, 0, err
	}

	post := models.ScheduledPost{
		UserID:            userID,
		AccountID:         pc.AccountID,
		Content:           pc.Content,
		ScheduledAt:       scheduledTime.Unix(),
		Status:            models.PostStatusPending,
		SecondStage:       models.SecondStageNone,
		SecondStageOptOut: pc.SecondStageOptOut,
		IdempotencyKey:    idempotencyKey,
	}

	postID, err := s.pr.Create(ctx, &post)
	if err != nil {
		return 0, 0, fmt.Errorf("error creating post: %w", err)
	}

	delay := time.Until(scheduledTime)
	if delay < 0 {
		delay = 0
	}

	return postID, delay, nil
}

func (s *postService) List(ctx context.Context, userID int64) ([]*models.ScheduledPost, error) {
	posts, err := s.pr.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error listing posts: %w", err)
	}
	return posts, nil
}

func (s *postService) Info(ctx context.Context, postID, userID int64) (*models.ScheduledPost, error) {
	isValid, err := s.pr.CheckByUserID(ctx, postID, userID)
	if err != nil {
		return nil, err
	}
	if !isValid {
		return nil, ErrPostNotFound
	}

	post, err := s.pr.GetByID(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("error getting post info: %w", err)
	}
	return post, nil
}

// Attempts returns the per-attempt error history recorded for a post.
func (s *postService) Attempts(ctx context.Context, postID, userID int64) ([]*models.PostingAttempt, error) {
	isValid, err := s.pr.CheckByUserID(ctx, postID, userID)
	if err != nil {
		return nil, err
	}
	if !isValid {
		return nil, ErrPostNotFound
	}

	return s.pa.ListByPostID(ctx, postID)
}

// FillQuote stores generated content on a quote draft and makes it eligible
// for publication.
func (s *postService) FillQuote(ctx context.Context, userID int64, qf *transfer.QuoteFill) error {
	if qf == nil || qf.Content == "" {
		err := errors.New("quote content cannot be empty")
		slog.Info(err.Error())
		return err
	}

	filled, err := s.pr.FillQuoteContent(ctx, qf.PostID, userID, qf.Content, time.Now().Unix())
	if err != nil {
		return err
	}
	if !filled {
		return errors.New("post is not an unfilled quote draft")
	}
	return nil
}

func (s *postService) Remove(ctx context.Context, userID, postID int64) error {
	if userID == 0 || postID == 0 {
		err := errors.New("post_id is not valid")
		slog.Info(err.Error())
		return err
	}

	isValid, err := s.pr.CheckByUserID(ctx, postID, userID)
	if err != nil {
		return err
	}
	if !isValid {
		return ErrPostNotFound
	}

	return s.pr.Remove(ctx, postID, userID)
}
