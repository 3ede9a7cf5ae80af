package handlers

import (
	"net/http"

	"clinicore/internal/common"
	"clinicore/internal/models"
	"clinicore/internal/services"

	"github.com/labstack/echo/v4"
)

// NotificationHandlers manages per-clinic webhook delivery configuration.
type NotificationHandlers struct {
	notifier services.NotifierService
}

func NewNotificationHandlers(notifier services.NotifierService) *NotificationHandlers {
	return &NotificationHandlers{notifier: notifier}
}

func validNotificationType(t string) bool {
	switch models.NotificationType(t) {
	case models.NotificationTypeInvitation, models.NotificationTypePaymentAlert, models.NotificationTypeRevenueAlert:
		return true
	}
	return false
}

// SetWebhookConfig registers or replaces the webhook endpoint for one
// notification type.
func (h *NotificationHandlers) SetWebhookConfig(c echo.Context) error {
	ctx := c.Request().Context()

	clinicID, ok := common.GetClinicIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Missing clinic context")
	}

	notificationType := c.Param("type")
	if !validNotificationType(notificationType) {
		return echo.NewHTTPError(http.StatusBadRequest, "Unknown notification type")
	}

	var config models.WebhookConfig
	if err := c.Bind(&config); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	if config.URL == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Webhook URL is required")
	}

	if err := h.notifier.SetWebhookConfig(ctx, clinicID, models.NotificationType(notificationType), &config); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to save webhook config")
	}

	return c.JSON(http.StatusOK, config)
}

func (h *NotificationHandlers) GetWebhookConfig(c echo.Context) error {
	ctx := c.Request().Context()

	clinicID, ok := common.GetClinicIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Missing clinic context")
	}

	notificationType := c.Param("type")
	if !validNotificationType(notificationType) {
		return echo.NewHTTPError(http.StatusBadRequest, "Unknown notification type")
	}

	config, err := h.notifier.GetWebhookConfig(ctx, clinicID, models.NotificationType(notificationType))
	if err != nil || config == nil {
		return echo.NewHTTPError(http.StatusNotFound, "No webhook configured for this type")
	}

	return c.JSON(http.StatusOK, config)
}

func (h *NotificationHandlers) DeleteWebhookConfig(c echo.Context) error {
	ctx := c.Request().Context()

	clinicID, ok := common.GetClinicIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Missing clinic context")
	}

	notificationType := c.Param("type")
	if !validNotificationType(notificationType) {
		return echo.NewHTTPError(http.StatusBadRequest, "Unknown notification type")
	}

	if err := h.notifier.DeleteWebhookConfig(ctx, clinicID, models.NotificationType(notificationType)); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to delete webhook config")
	}

	return c.NoContent(http.StatusNoContent)
}
