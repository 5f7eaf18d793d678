package service

import (
	"context"
	"errors"
	"log/slog"

	"postpilot/internal/models"
	"postpilot/internal/repository"
)

var ErrDeletionAlreadyQueued = errors.New("deletion_already_queued")

type DeletionService interface {
	RequestDeletion(ctx context.Context, userID, accountID int64) error
	CancelDeletion(ctx context.Context, userID, accountID int64) error
}

type deletionService struct {
	dq repository.DeletionQueueRepository
	ar repository.AccountRepository
}

func NewDeletionService(dq repository.DeletionQueueRepository, ar repository.AccountRepository) DeletionService {
	return &deletionService{dq: dq, ar: ar}
}

// RequestDeletion enqueues a bulk-delete job for the account and suspends its
// automation until the queue drains.
func (s *deletionService) RequestDeletion(ctx context.Context, userID, accountID int64) error {
	owned, err := s.ar.CheckByUserID(ctx, accountID, userID)
	if err != nil {
		return err
	}
	if !owned {
		return errors.New("account does not exist")
	}

	queued, err := s.dq.ExistsByAccountID(ctx, accountID)
	if err != nil {
		return err
	}
	if queued {
		return ErrDeletionAlreadyQueued
	}

	entry := models.DeletionQueueEntry{
		UserID:    userID,
		AccountID: accountID,
	}
	if _, err := s.dq.Create(ctx, &entry); err != nil {
		return err
	}

	if err := s.ar.SetAutomation(ctx, accountID, false, false); err != nil {
		slog.Info(err.Error())
	}
	return nil
}

// CancelDeletion removes the account's queue entries and restores automation
// immediately. It deliberately does not wait for a worker pass holding a
// stale claim; the worker simply finds no entry on its next pass.
func (s *deletionService) CancelDeletion(ctx context.Context, userID, accountID int64) error {
	owned, err := s.ar.CheckByUserID(ctx, accountID, userID)
	if err != nil {
		return err
	}
	if !owned {
		return errors.New("account does not exist")
	}

	if err := s.dq.RemoveByAccountID(ctx, accountID); err != nil {
		return err
	}
	return s.ar.SetAutomation(ctx, accountID, true, true)
}
