package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"clinicore/internal/common"
	"clinicore/internal/services"

	"github.com/labstack/echo/v4"
)

// AppointmentHandlers manages the clinic's appointment book.
type AppointmentHandlers struct {
	appointmentService services.AppointmentService
}

func NewAppointmentHandlers(appointmentService services.AppointmentService) *AppointmentHandlers {
	return &AppointmentHandlers{appointmentService: appointmentService}
}

func (h *AppointmentHandlers) Schedule(c echo.Context) error {
	ctx := c.Request().Context()

	clinicID, ok := common.GetClinicIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Missing clinic context")
	}

	var req services.ScheduleAppointmentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	req.ClinicID = clinicID

	appointment, err := h.appointmentService.Schedule(ctx, &req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidInput):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		case errors.Is(err, services.ErrScheduleConflict):
			return echo.NewHTTPError(http.StatusConflict, "The doctor already has an appointment in that slot")
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, "Failed to schedule appointment")
		}
	}

	return c.JSON(http.StatusCreated, appointment)
}

func (h *AppointmentHandlers) Get(c echo.Context) error {
	ctx := c.Request().Context()

	clinicID, ok := common.GetClinicIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Missing clinic context")
	}

	appointmentID, err := common.ValidateUUID(c.Param("id"), "appointment id")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	appointment, err := h.appointmentService.GetByID(ctx, clinicID, appointmentID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load appointment")
	}
	if appointment == nil {
		return echo.NewHTTPError(http.StatusNotFound, "Appointment not found")
	}

	return c.JSON(http.StatusOK, appointment)
}

// List returns clinic appointments within the from/to window. Defaults to
// the next 7 days. When doctor_id is set, only that doctor's appointments
// are returned.
func (h *AppointmentHandlers) List(c echo.Context) error {
	ctx := c.Request().Context()

	clinicID, ok := common.GetClinicIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Missing clinic context")
	}

	from := time.Now()
	to := from.AddDate(0, 0, 7)
	if v := c.QueryParam("from"); v != "" {
		parsed, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid from timestamp")
		}
		from = parsed
	}
	if v := c.QueryParam("to"); v != "" {
		parsed, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid to timestamp")
		}
		to = parsed
	}

	if doctorParam := c.QueryParam("doctor_id"); doctorParam != "" {
		doctorID, err := common.ValidateUUID(doctorParam, "doctor_id")
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		appointments, err := h.appointmentService.ListByDoctor(ctx, clinicID, doctorID, from, to)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "Failed to list appointments")
		}
		return c.JSON(http.StatusOK, appointments)
	}

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))

	appointments, err := h.appointmentService.ListByClinic(ctx, clinicID, from, to, limit, offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to list appointments")
	}

	return c.JSON(http.StatusOK, appointments)
}

// UpdateAppointmentStatusRequest represents a status transition payload
type UpdateAppointmentStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

func (h *AppointmentHandlers) UpdateStatus(c echo.Context) error {
	ctx := c.Request().Context()

	clinicID, ok := common.GetClinicIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Missing clinic context")
	}

	appointmentID, err := common.ValidateUUID(c.Param("id"), "appointment id")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	var req UpdateAppointmentStatusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if err := h.appointmentService.UpdateStatus(ctx, clinicID, appointmentID, req.Status); err != nil {
		if errors.Is(err, services.ErrInvalidInput) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		if errors.Is(err, services.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Appointment not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to update appointment")
	}

	return c.NoContent(http.StatusNoContent)
}

func (h *AppointmentHandlers) Cancel(c echo.Context) error {
	ctx := c.Request().Context()

	clinicID, ok := common.GetClinicIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Missing clinic context")
	}

	appointmentID, err := common.ValidateUUID(c.Param("id"), "appointment id")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.appointmentService.Cancel(ctx, clinicID, appointmentID); err != nil {
		if errors.Is(err, services.ErrInvalidInput) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		if errors.Is(err, services.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Appointment not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to cancel appointment")
	}

	return c.NoContent(http.StatusNoContent)
}
