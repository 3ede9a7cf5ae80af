package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"clinicore/internal/common"
	"clinicore/internal/services"

	"github.com/labstack/echo/v4"
)

// PatientHandlers manages the clinic's patient records.
type PatientHandlers struct {
	patientService services.PatientService
}

func NewPatientHandlers(patientService services.PatientService) *PatientHandlers {
	return &PatientHandlers{patientService: patientService}
}

func (h *PatientHandlers) Create(c echo.Context) error {
	ctx := c.Request().Context()

	clinicID, ok := common.GetClinicIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Missing clinic context")
	}

	var req services.CreatePatientRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	req.ClinicID = clinicID

	patient, err := h.patientService.Create(ctx, &req)
	if err != nil {
		if errors.Is(err, services.ErrInvalidInput) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to create patient")
	}

	return c.JSON(http.StatusCreated, patient)
}

func (h *PatientHandlers) Get(c echo.Context) error {
	ctx := c.Request().Context()

	clinicID, ok := common.GetClinicIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Missing clinic context")
	}

	patientID, err := common.ValidateUUID(c.Param("id"), "patient id")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	patient, err := h.patientService.GetByID(ctx, clinicID, patientID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load patient")
	}
	if patient == nil {
		return echo.NewHTTPError(http.StatusNotFound, "Patient not found")
	}

	return c.JSON(http.StatusOK, patient)
}

// List returns patients, optionally filtered by the q= search parameter.
func (h *PatientHandlers) List(c echo.Context) error {
	ctx := c.Request().Context()

	clinicID, ok := common.GetClinicIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Missing clinic context")
	}

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))

	query := c.QueryParam("q")
	if query != "" {
		patients, err := h.patientService.Search(ctx, clinicID, query, limit, offset)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "Patient search failed")
		}
		return c.JSON(http.StatusOK, patients)
	}

	patients, err := h.patientService.List(ctx, clinicID, limit, offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to list patients")
	}

	return c.JSON(http.StatusOK, patients)
}

func (h *PatientHandlers) Update(c echo.Context) error {
	ctx := c.Request().Context()

	clinicID, ok := common.GetClinicIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Missing clinic context")
	}

	patientID, err := common.ValidateUUID(c.Param("id"), "patient id")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	patient, err := h.patientService.GetByID(ctx, clinicID, patientID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load patient")
	}
	if patient == nil {
		return echo.NewHTTPError(http.StatusNotFound, "Patient not found")
	}

	if err := c.Bind(patient); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	patient.ID = patientID
	patient.ClinicID = clinicID

	if err := h.patientService.Update(ctx, patient); err != nil {
		if errors.Is(err, services.ErrInvalidInput) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to update patient")
	}

	return c.JSON(http.StatusOK, patient)
}

func (h *PatientHandlers) Delete(c echo.Context) error {
	ctx := c.Request().Context()

	clinicID, ok := common.GetClinicIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Missing clinic context")
	}

	patientID, err := common.ValidateUUID(c.Param("id"), "patient id")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.patientService.Delete(ctx, clinicID, patientID); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to delete patient")
	}

	return c.NoContent(http.StatusNoContent)
}
