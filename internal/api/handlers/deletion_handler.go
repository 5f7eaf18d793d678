package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"postpilot/internal/service"
)

type DeletionHandler struct {
	s service.DeletionService
}

func NewDeletionHandler(s service.DeletionService) *DeletionHandler {
	return &DeletionHandler{s: s}
}

func (h *DeletionHandler) RequestDeletion(c *fiber.Ctx) error {
	userID := GetUserID(c)
	accountID := c.QueryInt("account_id", 0)

	err := h.s.RequestDeletion(c.Context(), userID, int64(accountID))
	if err != nil {
		if errors.Is(err, service.ErrDeletionAlreadyQueued) {
			return c.Status(fiber.StatusOK).JSON(fiber.Map{
				"status": "already_queued",
			})
		}
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "queued",
	})
}

func (h *DeletionHandler) CancelDeletion(c *fiber.Ctx) error {
	userID := GetUserID(c)
	accountID := c.QueryInt("account_id", 0)

	if err := h.s.CancelDeletion(c.Context(), userID, int64(accountID)); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "cancelled",
	})
}
