package handlers

import (
	"net/http"
	"time"

	"clinicore/internal/caching"
	"clinicore/internal/common"
	"clinicore/internal/repositories"

	"github.com/labstack/echo/v4"
)

// ClinicHandlers exposes the caller's own clinic record.
type ClinicHandlers struct {
	clinicRepo repositories.ClinicRepository
	cacheSvc   caching.CacheService
}

func NewClinicHandlers(clinicRepo repositories.ClinicRepository, cacheSvc caching.CacheService) *ClinicHandlers {
	return &ClinicHandlers{clinicRepo: clinicRepo, cacheSvc: cacheSvc}
}

// Get returns the authenticated caller's clinic.
func (h *ClinicHandlers) Get(c echo.Context) error {
	ctx := c.Request().Context()

	clinicID, ok := common.GetClinicIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Missing clinic context")
	}

	if cached, err := h.cacheSvc.GetClinic(ctx, clinicID); err == nil && cached != nil {
		return c.JSON(http.StatusOK, cached)
	}

	clinic, err := h.clinicRepo.GetByID(ctx, clinicID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load clinic")
	}
	if clinic == nil {
		return echo.NewHTTPError(http.StatusNotFound, "Clinic not found")
	}

	_ = h.cacheSvc.SetClinic(ctx, clinic, 10*time.Minute)

	return c.JSON(http.StatusOK, clinic)
}

// UpdateClinicRequest represents the clinic update payload
type UpdateClinicRequest struct {
	Name string `json:"name" validate:"required"`
}

// Update renames the caller's clinic.
func (h *ClinicHandlers) Update(c echo.Context) error {
	ctx := c.Request().Context()

	clinicID, ok := common.GetClinicIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Missing clinic context")
	}

	var req UpdateClinicRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	if err := common.ValidateRequiredString(req.Name, "name"); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	clinic, err := h.clinicRepo.GetByID(ctx, clinicID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load clinic")
	}
	if clinic == nil {
		return echo.NewHTTPError(http.StatusNotFound, "Clinic not found")
	}

	clinic.Name = req.Name
	if err := h.clinicRepo.Update(ctx, clinic); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to update clinic")
	}

	_ = h.cacheSvc.DeleteClinic(ctx, clinicID)

	return c.JSON(http.StatusOK, clinic)
}
