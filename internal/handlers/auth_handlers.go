package handlers

import (
	"errors"
	"net/http"
	"time"

	"clinicore/internal/caching"
	"clinicore/internal/common"
	"clinicore/internal/models"
	"clinicore/internal/repositories"
	"clinicore/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"
)

// AuthHandlers handles signup, login and token refresh.
type AuthHandlers struct {
	authService services.AuthService
	provisioner services.ProvisionerService
	userRepo    repositories.UserRepository
	cacheSvc    caching.CacheService
}

func NewAuthHandlers(authService services.AuthService, provisioner services.ProvisionerService, userRepo repositories.UserRepository, cacheSvc caching.CacheService) *AuthHandlers {
	return &AuthHandlers{
		authService: authService,
		provisioner: provisioner,
		userRepo:    userRepo,
		cacheSvc:    cacheSvc,
	}
}

// SignupRequest represents the signup request payload
type SignupRequest struct {
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"required,min=8"`
	FirstName  string `json:"first_name" validate:"required"`
	LastName   string `json:"last_name" validate:"required"`
	ClinicName string `json:"clinic_name"`
}

// SignupResponse represents the signup response
type SignupResponse struct {
	models.TokenResponse
	ClinicID uuid.UUID `json:"clinic_id"`
	Role     string    `json:"role"`
}

// Signup creates the credential and provisions the tenant in one step.
// Invited users land in the inviting clinic with the invited role; everyone
// else becomes the owner of a brand-new clinic named by clinic_name.
func (h *AuthHandlers) Signup(c echo.Context) error {
	ctx := c.Request().Context()

	var req SignupRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if req.Email == "" || req.Password == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Email and password are required")
	}
	if len(req.Password) < 8 {
		return echo.NewHTTPError(http.StatusBadRequest, "Password must be at least 8 characters")
	}
	if req.FirstName == "" || req.LastName == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "First and last name are required")
	}

	email := common.NormalizeEmail(req.Email)
	existing, err := h.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Signup failed")
	}
	if existing != nil {
		return echo.NewHTTPError(http.StatusConflict, "An account with this email already exists")
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to process password")
	}

	result, err := h.provisioner.Provision(ctx, &services.ProvisionRequest{
		Email:        email,
		UserID:       uuid.New(),
		ClinicName:   req.ClinicName,
		PasswordHash: string(passwordHash),
		FirstName:    req.FirstName,
		LastName:     req.LastName,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidInput):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		case errors.Is(err, services.ErrInvitationConsumed):
			return echo.NewHTTPError(http.StatusConflict, "This invitation was already used. Ask your clinic to invite you again.")
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, "Account setup failed, please try again")
		}
	}

	user, err := h.userRepo.GetByEmail(ctx, email)
	if err != nil || user == nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Account setup failed, please try again")
	}

	tokenResponse, err := h.authService.GenerateTokens(ctx, user.ID, result.ClinicID, result.Role)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to generate tokens")
	}

	return c.JSON(http.StatusCreated, SignupResponse{
		TokenResponse: *tokenResponse,
		ClinicID:      result.ClinicID,
		Role:          result.Role,
	})
}

// LoginRequest represents the login request payload
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse represents the login response
type LoginResponse struct {
	models.TokenResponse
	User *models.User `json:"user"`
}

// Login verifies the password and issues internal tokens.
func (h *AuthHandlers) Login(c echo.Context) error {
	ctx := c.Request().Context()

	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	if req.Email == "" || req.Password == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Email and password are required")
	}

	email := common.NormalizeEmail(req.Email)

	limited, err := h.cacheSvc.IsRateLimited(ctx, "login:"+email, 10, 15*time.Minute)
	if err == nil && limited {
		return echo.NewHTTPError(http.StatusTooManyRequests, "Too many login attempts, try again later")
	}

	user, err := h.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Login failed")
	}
	if user == nil || user.PasswordHash == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid email or password")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid email or password")
	}

	tokenResponse, err := h.authService.GenerateTokens(ctx, user.ID, user.ClinicID, user.Role)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to generate tokens")
	}

	return c.JSON(http.StatusOK, LoginResponse{
		TokenResponse: *tokenResponse,
		User:          user,
	})
}

// RefreshRequest represents the token refresh payload
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// Refresh rotates the refresh token and returns a new token pair.
func (h *AuthHandlers) Refresh(c echo.Context) error {
	var req RefreshRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	if req.RefreshToken == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Refresh token is required")
	}

	tokenResponse, err := h.authService.RefreshToken(c.Request().Context(), req.RefreshToken)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid or expired refresh token")
	}

	return c.JSON(http.StatusOK, tokenResponse)
}

// Logout revokes the presented refresh token.
func (h *AuthHandlers) Logout(c echo.Context) error {
	var req RefreshRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	if req.RefreshToken != "" {
		_ = h.authService.RevokeRefreshToken(c.Request().Context(), req.RefreshToken)
	}
	return c.NoContent(http.StatusNoContent)
}

// Me returns the authenticated user's profile.
func (h *AuthHandlers) Me(c echo.Context) error {
	ctx := c.Request().Context()

	userID, ok := common.GetUserIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Missing user context")
	}

	user, err := h.userRepo.GetByAuthID(ctx, userID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load profile")
	}
	if user == nil {
		return echo.NewHTTPError(http.StatusNotFound, "User not found")
	}

	return c.JSON(http.StatusOK, user)
}
