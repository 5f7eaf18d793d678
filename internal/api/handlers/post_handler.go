package handlers

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/hibiken/asynq"
	"postpilot/internal/queue"
	"postpilot/internal/service"
	"postpilot/internal/transfer"
)

type PostHandler struct {
	s           service.PostService
	ps          service.PublishService
	AsynqClient *asynq.Client
}

func NewPostHandler(s service.PostService, ps service.PublishService, asynqClient *asynq.Client) *PostHandler {
	return &PostHandler{s: s, ps: ps, AsynqClient: asynqClient}
}

func (h *PostHandler) CreatePost(c *fiber.Ctx) error {
	userID := GetUserID(c)

	var pc transfer.PostCreation
	if err := c.BodyParser(&pc); err != nil {
		slog.Error(err.Error())
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse request body",
		})
	}

	postID, delay, err := h.s.Create(c.Context(), userID, &pc)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	err = queue.EnqueuePublish(h.AsynqClient, queue.PublishPostPayload{PostID: postID}, delay)
	if err != nil {
		// The periodic scan still publishes the post; scheduling is degraded,
		// not broken.
		slog.Error(err.Error())
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "Post scheduled successfully",
		"post_id": postID,
	})
}

func (h *PostHandler) ListPosts(c *fiber.Ctx) error {
	userID := GetUserID(c)
	postID := c.QueryInt("id", 0)

	if postID != 0 {
		post, err := h.s.Info(c.Context(), int64(postID), userID)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Unable to get post",
			})
		}
		return c.Status(fiber.StatusOK).JSON(post)
	}

	posts, err := h.s.List(c.Context(), userID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to list posts",
		})
	}

	return c.Status(fiber.StatusOK).JSON(posts)
}

// ListAttempts exposes the recorded error history for one post.
func (h *PostHandler) ListAttempts(c *fiber.Ctx) error {
	userID := GetUserID(c)
	postID := c.QueryInt("id", 0)

	attempts, err := h.s.Attempts(c.Context(), int64(postID), userID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Post doesn't exist",
		})
	}

	return c.Status(fiber.StatusOK).JSON(attempts)
}

// PublishNow triggers immediate publication and reports a structured outcome:
// success, already done, or a named blocked reason.
func (h *PostHandler) PublishNow(c *fiber.Ctx) error {
	userID := GetUserID(c)
	postID := c.QueryInt("id", 0)

	if _, err := h.s.Info(c.Context(), int64(postID), userID); err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Post doesn't exist",
		})
	}

	post, err := h.ps.PublishPost(c.Context(), int64(postID))
	if err != nil {
		return publishOutcome(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status":           "published",
		"platform_post_id": post.PlatformPostID,
		"permalink":        post.Permalink,
		"second_stage":     post.SecondStage,
	})
}

func (h *PostHandler) RunSecondStage(c *fiber.Ctx) error {
	userID := GetUserID(c)
	postID := c.QueryInt("id", 0)

	if _, err := h.s.Info(c.Context(), int64(postID), userID); err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Post doesn't exist",
		})
	}

	if err := h.ps.RunFollowUp(c.Context(), int64(postID)); err != nil {
		return publishOutcome(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "published",
	})
}

func (h *PostHandler) FillQuote(c *fiber.Ctx) error {
	userID := GetUserID(c)

	var qf transfer.QuoteFill
	if err := c.BodyParser(&qf); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse request body",
		})
	}

	if err := h.s.FillQuote(c.Context(), userID, &qf); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.SendStatus(fiber.StatusOK)
}

func (h *PostHandler) RemovePost(c *fiber.Ctx) error {
	userID := GetUserID(c)
	postID := c.QueryInt("id", 0)

	if err := h.s.Remove(c.Context(), userID, int64(postID)); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Unable to remove post",
		})
	}

	return c.SendStatus(fiber.StatusOK)
}

func publishOutcome(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrAlreadyPublished), errors.Is(err, service.ErrAlreadyDone):
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status": "already_done",
		})
	case errors.Is(err, service.ErrAutomationSuspended),
		errors.Is(err, service.ErrMissingCredential),
		errors.Is(err, service.ErrMissingPostID),
		errors.Is(err, service.ErrMissingFollowUpContent):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"status": "blocked",
			"reason": err.Error(),
		})
	default:
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"status": "error",
			"error":  err.Error(),
		})
	}
}
