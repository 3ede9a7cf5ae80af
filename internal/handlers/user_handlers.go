package handlers

import (
	"net/http"
	"strconv"

	"clinicore/internal/caching"
	"clinicore/internal/common"
	"clinicore/internal/models"
	"clinicore/internal/repositories"

	"github.com/labstack/echo/v4"
)

// UserHandlers manages the clinic's staff roster.
type UserHandlers struct {
	userRepo repositories.UserRepository
	cacheSvc caching.CacheService
}

func NewUserHandlers(userRepo repositories.UserRepository, cacheSvc caching.CacheService) *UserHandlers {
	return &UserHandlers{userRepo: userRepo, cacheSvc: cacheSvc}
}

// List returns the clinic's staff members.
func (h *UserHandlers) List(c echo.Context) error {
	ctx := c.Request().Context()

	clinicID, ok := common.GetClinicIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Missing clinic context")
	}

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	limit, offset = common.ValidatePaginationParams(limit, offset)

	users, err := h.userRepo.List(ctx, clinicID, limit, offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to list staff")
	}

	return c.JSON(http.StatusOK, users)
}

// Get returns one staff member from the caller's clinic.
func (h *UserHandlers) Get(c echo.Context) error {
	ctx := c.Request().Context()

	clinicID, ok := common.GetClinicIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Missing clinic context")
	}

	userID, err := common.ValidateUUID(c.Param("id"), "user id")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	user, err := h.userRepo.GetByID(ctx, clinicID, userID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load user")
	}
	if user == nil {
		return echo.NewHTTPError(http.StatusNotFound, "User not found")
	}

	return c.JSON(http.StatusOK, user)
}

// UpdateRoleRequest represents a staff role change payload
type UpdateRoleRequest struct {
	Role string `json:"role" validate:"required"`
}

// UpdateRole changes a staff member's role within the clinic.
func (h *UserHandlers) UpdateRole(c echo.Context) error {
	ctx := c.Request().Context()

	clinicID, ok := common.GetClinicIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Missing clinic context")
	}

	userID, err := common.ValidateUUID(c.Param("id"), "user id")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	var req UpdateRoleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	if !models.ValidRole(req.Role) {
		return echo.NewHTTPError(http.StatusBadRequest, "Unknown role")
	}

	user, err := h.userRepo.GetByID(ctx, clinicID, userID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load user")
	}
	if user == nil {
		return echo.NewHTTPError(http.StatusNotFound, "User not found")
	}
	if user.Role == models.RoleOwner {
		return echo.NewHTTPError(http.StatusForbidden, "The clinic owner's role cannot be changed")
	}

	user.Role = req.Role
	if err := h.userRepo.Update(ctx, user); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to update role")
	}

	_ = h.cacheSvc.DeleteUser(ctx, userID)

	return c.JSON(http.StatusOK, user)
}

// Remove deactivates a staff member. The owner cannot be removed.
func (h *UserHandlers) Remove(c echo.Context) error {
	ctx := c.Request().Context()

	clinicID, ok := common.GetClinicIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Missing clinic context")
	}

	userID, err := common.ValidateUUID(c.Param("id"), "user id")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	user, err := h.userRepo.GetByID(ctx, clinicID, userID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load user")
	}
	if user == nil {
		return echo.NewHTTPError(http.StatusNotFound, "User not found")
	}
	if user.Role == models.RoleOwner {
		return echo.NewHTTPError(http.StatusForbidden, "The clinic owner cannot be removed")
	}

	if err := h.userRepo.Delete(ctx, clinicID, userID); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to remove user")
	}

	_ = h.cacheSvc.DeleteUser(ctx, userID)

	return c.NoContent(http.StatusNoContent)
}
