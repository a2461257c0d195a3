package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/mehulsen/postmirror/internal/service"
)

type MediaHandler struct {
	s service.MediaService
}

func NewMediaHandler(service service.MediaService) *MediaHandler {
	return &MediaHandler{s: service}
}

func (h *MediaHandler) UploadMedia(c *fiber.Ctx) error {
	userID := GetUserID(c)

	file, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "missing file",
		})
	}

	asset, err := h.s.Upload(c.Context(), userID, file)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusOK).JSON(asset)
}

func (h *MediaHandler) ListMedia(c *fiber.Ctx) error {
	userID := GetUserID(c)

	assets, err := h.s.List(c.Context(), userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch media assets",
		})
	}

	return c.Status(fiber.StatusOK).JSON(assets)
}
