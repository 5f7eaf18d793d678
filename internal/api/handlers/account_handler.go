package handlers

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	config "postpilot/configs"
	"postpilot/internal/service"
	"postpilot/internal/transfer"
	"postpilot/pkg/utils"
)

const linkStateCookie = "link_state"

type AccountHandler struct {
	cfg config.Config
	s   service.AccountService
}

func NewAccountHandler(cfg config.Config, s service.AccountService) *AccountHandler {
	return &AccountHandler{cfg: cfg, s: s}
}

func (h *AccountHandler) Link(c *fiber.Ctx) error {
	state, err := utils.GenerateRandomKey(16)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Unable to start account linking",
		})
	}

	c.Cookie(&fiber.Cookie{
		Name:     linkStateCookie,
		Value:    fmt.Sprintf("%s:%d", state, GetUserID(c)),
		Path:     "/",
		HTTPOnly: true,
		Expires:  time.Now().Add(10 * time.Minute),
	})

	return c.Redirect(h.s.AuthorizeURL(state))
}

func (h *AccountHandler) LinkCallback(c *fiber.Ctx) error {
	code := c.Query("code")
	state := c.Query("state")

	cookie := c.Cookies(linkStateCookie)
	if cookie == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Missing link state",
		})
	}
	parts := strings.SplitN(cookie, ":", 2)
	if len(parts) != 2 {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid link state",
		})
	}
	cookieState := parts[0]
	userID, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid link state",
		})
	}
	if state == "" || state != cookieState {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "State mismatch",
		})
	}

	if err := h.s.LinkCallback(c.Context(), code, userID); err != nil {
		slog.Error(err.Error())
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": "Unable to link account",
		})
	}

	c.Cookie(&fiber.Cookie{Name: linkStateCookie, Value: "", Path: "/", MaxAge: -1})
	return c.SendStatus(fiber.StatusOK)
}

func (h *AccountHandler) ListAccounts(c *fiber.Ctx) error {
	accounts, err := h.s.List(c.Context(), GetUserID(c))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to list accounts",
		})
	}
	return c.Status(fiber.StatusOK).JSON(accounts)
}

func (h *AccountHandler) UpdateSettings(c *fiber.Ctx) error {
	var as transfer.AccountSettings
	if err := c.BodyParser(&as); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse request body",
		})
	}

	if err := h.s.UpdateSettings(c.Context(), GetUserID(c), &as); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.SendStatus(fiber.StatusOK)
}

// DeauthorizeCallback is the platform-facing webhook fired when a user
// revokes access on the platform side. It is unauthenticated by design.
func (h *AccountHandler) DeauthorizeCallback(c *fiber.Ctx) error {
	var payload struct {
		PlatformUserID string `json:"platform_user_id"`
	}
	if err := c.BodyParser(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse request body",
		})
	}

	if err := h.s.Deauthorize(c.Context(), payload.PlatformUserID); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.SendStatus(fiber.StatusOK)
}
