package handlers

import (
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/mehulsen/postmirror/internal/models"
	"github.com/mehulsen/postmirror/internal/service"
	"github.com/mehulsen/postmirror/internal/transfer"
)

type PaymentHandler struct {
	s service.SubscriptionService
}

func NewPaymentHandler(service service.SubscriptionService) *PaymentHandler {
	return &PaymentHandler{s: service}
}

func (h *PaymentHandler) PaymentWebhook(c *fiber.Ctx) error {

	var requestData transfer.SubscriptionEvent

	if err := c.BodyParser(&requestData); err != nil {
		slog.Info(err.Error())
		return err
	}

	endDate, err := time.Parse(time.RFC3339, requestData.SubscriptionEndDate)
	if err != nil {
		slog.Info(err.Error())
		return c.Status(fiber.StatusBadRequest).SendString("invalid subscription_end_date")
	}

	subscription := &models.Subscription{
		UserID:              requestData.UserID,
		SubscriptionID:      requestData.SubscriptionID,
		Status:              requestData.Status,
		SubscriptionEndDate: endDate,
	}

	if err := h.s.Record(c.Context(), subscription); err != nil {
		return c.Status(fiber.StatusInternalServerError).SendString(err.Error())
	}

	return c.SendStatus(fiber.StatusOK)
}

func (h *PaymentHandler) GetStatus(c *fiber.Ctx) error {
	userID := GetUserID(c)

	status, err := h.s.Status(c.Context(), userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch subscription status",
		})
	}

	return c.Status(fiber.StatusOK).JSON(status)
}
