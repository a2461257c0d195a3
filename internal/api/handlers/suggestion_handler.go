package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/hibiken/asynq"
	"github.com/mehulsen/postmirror/internal/queue"
	"github.com/mehulsen/postmirror/internal/repository"
	"github.com/mehulsen/postmirror/internal/service"
)

type SuggestionHandler struct {
	sg     service.SuggestionService
	as     service.AccountService
	client *asynq.Client
}

func NewSuggestionHandler(sg service.SuggestionService, as service.AccountService, client *asynq.Client) *SuggestionHandler {
	return &SuggestionHandler{
		sg:     sg,
		as:     as,
		client: client,
	}
}

func (h *SuggestionHandler) ListSuggestions(c *fiber.Ctx) error {
	userID := GetUserID(c)
	accountID := c.QueryInt("account_id", 0)
	limit := c.QueryInt("limit", 20)

	suggestions, err := h.sg.List(c.Context(), userID, int64(accountID), limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch suggestions",
		})
	}

	return c.Status(fiber.StatusOK).JSON(suggestions)
}

func (h *SuggestionHandler) GenerateSuggestions(c *fiber.Ctx) error {
	userID := GetUserID(c)
	accountID := c.QueryInt("account_id", 0)
	count := c.QueryInt("count", 0)

	if _, err := h.as.Get(c.Context(), userID, int64(accountID)); err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "connected account doesn't exist",
		})
	}

	if err := queue.EnqueueGenerateSuggestions(h.client, int64(accountID), count); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Unable to schedule generation",
		})
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"message": "generation scheduled",
	})
}

func (h *SuggestionHandler) UseSuggestion(c *fiber.Ctx) error {
	userID := GetUserID(c)
	suggestionID := c.QueryInt("id", 0)

	err := h.sg.Use(c.Context(), userID, int64(suggestionID))
	if err != nil {
		return suggestionActionError(c, err)
	}

	return c.SendStatus(fiber.StatusOK)
}

func (h *SuggestionHandler) DismissSuggestion(c *fiber.Ctx) error {
	userID := GetUserID(c)
	suggestionID := c.QueryInt("id", 0)

	err := h.sg.Dismiss(c.Context(), userID, int64(suggestionID))
	if err != nil {
		return suggestionActionError(c, err)
	}

	return c.SendStatus(fiber.StatusOK)
}

func suggestionActionError(c *fiber.Ctx, err error) error {
	if errors.Is(err, repository.ErrSuggestionNotPending) {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "suggestion was already used, dismissed or expired",
		})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": "something went wrong",
	})
}
