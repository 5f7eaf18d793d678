package queue

import (
	"github.com/hibiken/asynq"
	config "postpilot/configs"
	"postpilot/internal/service"
)

type Queue struct {
	cfg    config.Config
	ps     service.PublishService
	client *asynq.Client
}

func NewQueue(cfg config.Config, ps service.PublishService, client *asynq.Client) *Queue {
	return &Queue{
		cfg:    cfg,
		ps:     ps,
		client: client,
	}
}

const (
	TaskTypePublishPost = "publish:post"
	TaskTypeSecondStage = "publish:second_stage"
)

type PublishPostPayload struct {
	PostID int64 `json:"post_id"`
}

type SecondStagePayload struct {
	PostID int64 `json:"post_id"`
}
