package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/mehulsen/postmirror/internal/service"
)

type StyleHandler struct {
	ss service.StyleService
	as service.AccountService
}

func NewStyleHandler(ss service.StyleService, as service.AccountService) *StyleHandler {
	return &StyleHandler{
		ss: ss,
		as: as,
	}
}

func (h *StyleHandler) GetStyle(c *fiber.Ctx) error {
	userID := GetUserID(c)
	accountID := c.QueryInt("account_id", 0)

	style, err := h.ss.Get(c.Context(), userID, int64(accountID))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusOK).JSON(style)
}

func (h *StyleHandler) AnalyzeStyle(c *fiber.Ctx) error {
	userID := GetUserID(c)
	accountID := c.QueryInt("account_id", 0)

	if _, err := h.as.Get(c.Context(), userID, int64(accountID)); err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "connected account doesn't exist",
		})
	}

	style, err := h.ss.Analyze(c.Context(), int64(accountID))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusOK).JSON(style)
}
