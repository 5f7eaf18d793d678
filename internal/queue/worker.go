package queue

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"
	"postpilot/internal/models"
	"postpilot/internal/service"
)

// HandlePublishPostTask publishes a scheduled post at its exact scheduled
// time. Fatal per-record outcomes return nil so asynq does not retry them;
// transient errors are returned and retried on asynq's schedule, with the
// periodic scan as the final backstop.
func (q *Queue) HandlePublishPostTask(ctx context.Context, task *asynq.Task) error {
	var payload PublishPostPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return err
	}

	post, err := q.ps.PublishPost(ctx, payload.PostID)
	if err != nil {
		if isFatalOutcome(err) {
			slog.Info(err.Error())
			return nil
		}
		return err
	}

	if post.SecondStage == models.SecondStageWaiting {
		return EnqueueSecondStage(q.client, SecondStagePayload{PostID: post.ID}, q.cfg.SecondStageDelay)
	}
	return nil
}

func (q *Queue) HandleSecondStageTask(ctx context.Context, task *asynq.Task) error {
	var payload SecondStagePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return err
	}

	if err := q.ps.RunFollowUp(ctx, payload.PostID); err != nil {
		if isFatalOutcome(err) {
			slog.Info(err.Error())
			return nil
		}
		return err
	}
	return nil
}

func isFatalOutcome(err error) bool {
	return errors.Is(err, service.ErrAlreadyPublished) ||
		errors.Is(err, service.ErrAlreadyDone) ||
		errors.Is(err, service.ErrAutomationSuspended) ||
		errors.Is(err, service.ErrMissingCredential) ||
		errors.Is(err, service.ErrMissingPostID) ||
		errors.Is(err, service.ErrMissingFollowUpContent) ||
		errors.Is(err, service.ErrPostNotFound)
}
