package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/mehulsen/postmirror/internal/service"
)

type TopicHandler struct {
	ts service.TopicService
	tr service.TrendingService
}

func NewTopicHandler(ts service.TopicService, tr service.TrendingService) *TopicHandler {
	return &TopicHandler{
		ts: ts,
		tr: tr,
	}
}

func (h *TopicHandler) ListTopics(c *fiber.Ctx) error {
	topics, err := h.ts.List(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch topics",
		})
	}

	return c.Status(fiber.StatusOK).JSON(topics)
}

func (h *TopicHandler) Subscribe(c *fiber.Ctx) error {
	userID := GetUserID(c)
	accountID := c.QueryInt("account_id", 0)
	topicID := c.QueryInt("topic_id", 0)

	err := h.ts.Subscribe(c.Context(), userID, int64(accountID), int64(topicID))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.SendStatus(fiber.StatusOK)
}

func (h *TopicHandler) Unsubscribe(c *fiber.Ctx) error {
	userID := GetUserID(c)
	accountID := c.QueryInt("account_id", 0)
	topicID := c.QueryInt("topic_id", 0)

	err := h.ts.Unsubscribe(c.Context(), userID, int64(accountID), int64(topicID))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.SendStatus(fiber.StatusOK)
}

func (h *TopicHandler) ListSubscribed(c *fiber.Ctx) error {
	userID := GetUserID(c)
	accountID := c.QueryInt("account_id", 0)

	topics, err := h.ts.ListSubscribed(c.Context(), userID, int64(accountID))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch subscriptions",
		})
	}

	return c.Status(fiber.StatusOK).JSON(topics)
}

func (h *TopicHandler) ListTrending(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 10)

	trending, err := h.tr.ListTrending(c.Context(), limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch trending topics",
		})
	}

	return c.Status(fiber.StatusOK).JSON(trending)
}
