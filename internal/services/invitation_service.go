package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"clinicore/internal/common"
	"clinicore/internal/models"
	"clinicore/internal/repositories"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// InvitationService manages the invitation lifecycle up to consumption.
// Consumption itself belongs to the ProvisionerService, which deletes the
// invitation inside the signup transaction.
type InvitationService interface {
	Create(ctx context.Context, req *CreateInvitationRequest) (*models.Invitation, error)
	Cancel(ctx context.Context, clinicID, invitationID uuid.UUID) error
	List(ctx context.Context, clinicID uuid.UUID, limit, offset int) ([]*models.Invitation, error)
}

type CreateInvitationRequest struct {
	ClinicID  uuid.UUID
	InvitedBy uuid.UUID
	Email     string `json:"email" validate:"required,email"`
	Role      string `json:"role" validate:"required"`
}

type invitationService struct {
	invitationRepo repositories.InvitationRepository
	clinicRepo     repositories.ClinicRepository
	userRepo       repositories.UserRepository
	notifier       NotifierService
	ttl            time.Duration
	logger         *zap.Logger
}

func NewInvitationService(
	invitationRepo repositories.InvitationRepository,
	clinicRepo repositories.ClinicRepository,
	userRepo repositories.UserRepository,
	notifier NotifierService,
	ttl time.Duration,
	logger *zap.Logger,
) InvitationService {
	if ttl <= 0 {
		ttl = 14 * 24 * time.Hour
	}
	return &invitationService{
		invitationRepo: invitationRepo,
		clinicRepo:     clinicRepo,
		userRepo:       userRepo,
		notifier:       notifier,
		ttl:            ttl,
		logger:         logger,
	}
}

func (s *invitationService) Create(ctx context.Context, req *CreateInvitationRequest) (*models.Invitation, error) {
	email := common.NormalizeEmail(req.Email)
	if email == "" {
		return nil, invalidInputf("email is required")
	}
	if !models.ValidRole(req.Role) {
		return nil, invalidInputf("unknown role %q", req.Role)
	}

	clinic, err := s.clinicRepo.GetByID(ctx, req.ClinicID)
	if err != nil {
		return nil, fmt.Errorf("failed to load clinic: %w", err)
	}
	if clinic == nil {
		return nil, fmt.Errorf("clinic %s not found", req.ClinicID)
	}

	// An address that already belongs to a staff member has nothing to
	// accept.
	if existing, err := s.userRepo.GetByEmail(ctx, email); err == nil && existing != nil {
		return nil, invalidInputf("a user with email %s already exists", email)
	}

	invitation := &models.Invitation{
		ID:         uuid.New(),
		ClinicID:   clinic.ID,
		ClinicName: clinic.Name,
		Email:      email,
		Role:       req.Role,
		Status:     models.InvitationPending,
		InvitedBy:  req.InvitedBy,
		CreatedAt:  time.Now(),
		ExpiresAt:  time.Now().Add(s.ttl),
	}

	if err := s.invitationRepo.Create(ctx, invitation); err != nil {
		return nil, fmt.Errorf("failed to create invitation: %w", err)
	}

	s.notifier.Dispatch(clinic.ID, &models.Notification{
		Type:      models.NotificationTypeInvitation,
		Recipient: email,
		Subject:   fmt.Sprintf("You have been invited to join %s", clinic.Name),
		Body:      fmt.Sprintf("You have been invited to join %s as %s. Sign up with this email address to accept.", clinic.Name, invitation.Role),
		Data: map[string]interface{}{
			"invitation_id": invitation.ID.String(),
			"role":          invitation.Role,
			"expires_at":    invitation.ExpiresAt,
		},
	})

	return invitation, nil
}

func (s *invitationService) Cancel(ctx context.Context, clinicID, invitationID uuid.UUID) error {
	invitation, err := s.invitationRepo.GetByID(ctx, clinicID, invitationID)
	if err != nil {
		return fmt.Errorf("failed to load invitation: %w", err)
	}
	if invitation.Status != models.InvitationPending {
		return errors.New("only pending invitations can be cancelled")
	}
	return s.invitationRepo.UpdateStatus(ctx, clinicID, invitationID, models.InvitationCancelled)
}

func (s *invitationService) List(ctx context.Context, clinicID uuid.UUID, limit, offset int) ([]*models.Invitation, error) {
	limit, offset = common.ValidatePaginationParams(limit, offset)
	return s.invitationRepo.ListByClinic(ctx, clinicID, limit, offset)
}
