package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"clinicore/internal/common"
	"clinicore/internal/services"

	"github.com/labstack/echo/v4"
)

// InvitationHandlers manages a clinic's pending staff invitations.
type InvitationHandlers struct {
	invitationService services.InvitationService
}

func NewInvitationHandlers(invitationService services.InvitationService) *InvitationHandlers {
	return &InvitationHandlers{invitationService: invitationService}
}

// Create issues a pending invitation for an email and role.
func (h *InvitationHandlers) Create(c echo.Context) error {
	ctx := c.Request().Context()

	clinicID, ok := common.GetClinicIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Missing clinic context")
	}
	userID, ok := common.GetUserIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Missing user context")
	}

	var req services.CreateInvitationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	req.ClinicID = clinicID
	req.InvitedBy = userID

	invitation, err := h.invitationService.Create(ctx, &req)
	if err != nil {
		if errors.Is(err, services.ErrInvalidInput) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to create invitation")
	}

	return c.JSON(http.StatusCreated, invitation)
}

// List returns the clinic's invitations, newest first.
func (h *InvitationHandlers) List(c echo.Context) error {
	ctx := c.Request().Context()

	clinicID, ok := common.GetClinicIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Missing clinic context")
	}

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))

	invitations, err := h.invitationService.List(ctx, clinicID, limit, offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to list invitations")
	}

	return c.JSON(http.StatusOK, invitations)
}

// Cancel withdraws a pending invitation. Consumed or already cancelled
// invitations cannot be cancelled.
func (h *InvitationHandlers) Cancel(c echo.Context) error {
	ctx := c.Request().Context()

	clinicID, ok := common.GetClinicIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Missing clinic context")
	}

	invitationID, err := common.ValidateUUID(c.Param("id"), "invitation id")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.invitationService.Cancel(ctx, clinicID, invitationID); err != nil {
		if errors.Is(err, services.ErrInvalidInput) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return echo.NewHTTPError(http.StatusNotFound, "Invitation not found or not pending")
	}

	return c.NoContent(http.StatusNoContent)
}
