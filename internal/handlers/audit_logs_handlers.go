package handlers

import (
	"net/http"
	"strconv"

	"clinicore/internal/common"
	"clinicore/internal/services"

	"github.com/labstack/echo/v4"
)

// AuditLogsHandlers exposes the clinic's audit trail.
type AuditLogsHandlers struct {
	auditService services.AuditLogsService
}

func NewAuditLogsHandlers(auditService services.AuditLogsService) *AuditLogsHandlers {
	return &AuditLogsHandlers{auditService: auditService}
}

func (h *AuditLogsHandlers) List(c echo.Context) error {
	ctx := c.Request().Context()

	clinicID, ok := common.GetClinicIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Missing clinic context")
	}

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))

	logs, err := h.auditService.ListByClinic(ctx, clinicID, limit, offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to list audit logs")
	}

	return c.JSON(http.StatusOK, logs)
}
