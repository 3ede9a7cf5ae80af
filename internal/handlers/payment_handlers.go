package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"clinicore/internal/common"
	"clinicore/internal/services"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// PaymentHandlers creates crypto charges and receives provider webhooks.
type PaymentHandlers struct {
	paymentService services.PaymentService
	cryptoPay      services.CryptoPayService
	logger         *zap.Logger
}

func NewPaymentHandlers(paymentService services.PaymentService, cryptoPay services.CryptoPayService, logger *zap.Logger) *PaymentHandlers {
	return &PaymentHandlers{
		paymentService: paymentService,
		cryptoPay:      cryptoPay,
		logger:         logger,
	}
}

// CreateCharge opens a hosted checkout for a patient payment.
func (h *PaymentHandlers) CreateCharge(c echo.Context) error {
	ctx := c.Request().Context()

	clinicID, ok := common.GetClinicIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Missing clinic context")
	}

	var req services.CreatePaymentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	req.ClinicID = clinicID

	result, err := h.paymentService.CreateCharge(ctx, &req)
	if err != nil {
		if errors.Is(err, services.ErrInvalidInput) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return echo.NewHTTPError(http.StatusBadGateway, "Payment provider unavailable")
	}

	return c.JSON(http.StatusCreated, result)
}

func (h *PaymentHandlers) Get(c echo.Context) error {
	ctx := c.Request().Context()

	clinicID, ok := common.GetClinicIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Missing clinic context")
	}

	paymentID, err := common.ValidateUUID(c.Param("id"), "payment id")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	payment, err := h.paymentService.GetByID(ctx, clinicID, paymentID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load payment")
	}
	if payment == nil {
		return echo.NewHTTPError(http.StatusNotFound, "Payment not found")
	}

	return c.JSON(http.StatusOK, payment)
}

func (h *PaymentHandlers) List(c echo.Context) error {
	ctx := c.Request().Context()

	clinicID, ok := common.GetClinicIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Missing clinic context")
	}

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))

	payments, err := h.paymentService.ListByClinic(ctx, clinicID, limit, offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to list payments")
	}

	return c.JSON(http.StatusOK, payments)
}

// Webhook receives charge lifecycle events from the payment provider. The
// signature is verified against the raw body before anything is trusted.
func (h *PaymentHandlers) Webhook(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Unreadable body")
	}

	signature := c.Request().Header.Get("X-CC-Webhook-Signature")
	event, err := h.cryptoPay.VerifyWebhook(body, signature)
	if err != nil {
		h.logger.Warn("rejected payment webhook", zap.Error(err))
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid webhook signature")
	}

	if err := h.paymentService.HandleChargeEvent(c.Request().Context(), event); err != nil {
		h.logger.Error("charge event handling failed",
			zap.String("event_type", event.Type),
			zap.String("charge_id", event.ChargeID),
			zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "Event processing failed")
	}

	return c.NoContent(http.StatusOK)
}
