package handlers

import (
	"fmt"
	"log/slog"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/hibiken/asynq"
	config "github.com/mehulsen/postmirror/configs"
	"github.com/mehulsen/postmirror/internal/models"
	"github.com/mehulsen/postmirror/internal/queue"
	"github.com/mehulsen/postmirror/internal/service"
	"github.com/mehulsen/postmirror/internal/transfer"
	"github.com/mehulsen/postmirror/pkg/utils"
)

type AccountHandler struct {
	as        service.AccountService
	tw        service.TwitterService
	li        service.LinkedinService
	client    *asynq.Client
	inspector *asynq.Inspector
	cfg       config.Config
}

func NewAccountHandler(
	as service.AccountService,
	tw service.TwitterService,
	li service.LinkedinService,
	client *asynq.Client,
	inspector *asynq.Inspector,
	cfg config.Config) *AccountHandler {
	return &AccountHandler{
		as:        as,
		tw:        tw,
		li:        li,
		client:    client,
		inspector: inspector,
		cfg:       cfg,
	}
}

func (h *AccountHandler) ConnectAccount(c *fiber.Ctx) error {
	authURL := h.as.GetAuthURL(c.Context(), c.Params("platform"), c.Query("state"))
	if authURL == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "unsupported platform",
		})
	}
	return c.Redirect(authURL)
}

func (h *AccountHandler) CallbackHandler(c *fiber.Ctx) error {
	code := c.Query("code")
	state := c.Query("state")

	claims, err := utils.ValidateToken(h.cfg.SecretKey, state)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to validate user",
		})
	}

	userID, err := strconv.ParseInt(claims.UserID, 10, 64)
	if err != nil {
		slog.Info(err.Error())
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to validate user",
		})
	}

	var accountID int64
	switch c.Params("platform") {
	case models.PlatformTwitter:
		accountID, err = h.tw.TwitterCallback(c.Context(), code, c.Query("verifier"), userID)
	case models.PlatformLinkedin:
		accountID, err = h.li.LinkedinCallback(c.Context(), code, userID)
	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "unsupported platform",
		})
	}
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "something went wrong",
		})
	}

	// First sync starts right away so suggestions have something to work with.
	if err := queue.EnqueueSync(h.client, h.inspector, accountID, 0); err != nil {
		slog.Info(err.Error())
	}

	redirectURL := fmt.Sprintf("%s/dashboard/accounts", h.cfg.FrontendURL)
	return c.Redirect(redirectURL, fiber.StatusTemporaryRedirect)
}

func (h *AccountHandler) ListAccounts(c *fiber.Ctx) error {
	userID := GetUserID(c)

	accountList, err := h.as.List(c.Context(), userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch connected accounts",
		})
	}

	return c.Status(fiber.StatusOK).JSON(accountList)
}

func (h *AccountHandler) GetAccount(c *fiber.Ctx) error {
	userID := GetUserID(c)
	accountID := c.QueryInt("id", 0)

	account, err := h.as.Get(c.Context(), userID, int64(accountID))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "connected account doesn't exist",
		})
	}

	return c.Status(fiber.StatusOK).JSON(account)
}

func (h *AccountHandler) UpdateSettings(c *fiber.Ctx) error {
	userID := GetUserID(c)
	accountID := c.QueryInt("id", 0)

	var update transfer.AccountSettingsUpdate
	if err := c.BodyParser(&update); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	if err := h.as.UpdateSettings(c.Context(), userID, int64(accountID), &update); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Unable to update settings",
		})
	}

	return c.SendStatus(fiber.StatusOK)
}

func (h *AccountHandler) TriggerSync(c *fiber.Ctx) error {
	userID := GetUserID(c)
	accountID := c.QueryInt("id", 0)

	if _, err := h.as.Get(c.Context(), userID, int64(accountID)); err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "connected account doesn't exist",
		})
	}

	if err := queue.EnqueueSync(h.client, h.inspector, int64(accountID), 0); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Unable to schedule sync",
		})
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"message": "sync scheduled",
	})
}

func (h *AccountHandler) DeleteAccount(c *fiber.Ctx) error {
	userID := GetUserID(c)
	accountID := c.QueryInt("id", 0)

	err := h.as.Deactivate(c.Context(), userID, int64(accountID))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Unable to disconnect account",
		})
	}

	return c.SendStatus(fiber.StatusOK)
}
