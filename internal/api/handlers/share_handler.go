package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/mehulsen/postmirror/internal/service"
)

type ShareHandler struct {
	s service.ShareService
}

func NewShareHandler(service service.ShareService) *ShareHandler {
	return &ShareHandler{s: service}
}

func (h *ShareHandler) CreateLink(c *fiber.Ctx) error {
	userID := GetUserID(c)
	suggestionID := c.QueryInt("suggestion_id", 0)

	link, shareURL, err := h.s.CreateLink(c.Context(), userID, int64(suggestionID))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"slug": link.Slug,
		"url":  shareURL,
	})
}

func (h *ShareHandler) ResolveLink(c *fiber.Ctx) error {
	slug := c.Params("slug")

	suggestion, err := h.s.Resolve(c.Context(), slug)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "share link doesn't exist",
		})
	}

	return c.Status(fiber.StatusOK).JSON(suggestion)
}

func (h *ShareHandler) QRCode(c *fiber.Ctx) error {
	slug := c.Params("slug")

	png, err := h.s.QRCode(c.Context(), slug)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "share link doesn't exist",
		})
	}

	c.Type("png")
	return c.Send(png)
}
