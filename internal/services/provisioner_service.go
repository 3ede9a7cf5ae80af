package services

import (
	"context"
	"strings"
	"time"

	"clinicore/internal/common"
	"clinicore/internal/metrics"
	"clinicore/internal/models"
	"clinicore/internal/repositories"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// ProvisionerService links a freshly created account to a clinic at signup
// time. A pending invitation for the email joins the user to that clinic
// with the invitation's role; otherwise a new clinic is created and the user
// becomes its owner. All writes for one signup land in a single transaction.
type ProvisionerService interface {
	Provision(ctx context.Context, req *ProvisionRequest) (*ProvisionResult, error)
}

type ProvisionRequest struct {
	// Email is the address the credential was just created for. Invitation
	// matching is case-insensitive; the stored profile uses the lowercased
	// form.
	Email string
	// UserID is the freshly allocated auth identity.
	UserID uuid.UUID
	// ClinicName is required only when no pending invitation exists.
	ClinicName   string
	PasswordHash string
	FirstName    string
	LastName     string
}

type ProvisionResult struct {
	ClinicID uuid.UUID `json:"clinic_id"`
	Role     string    `json:"role"`
}

type provisionerService struct {
	db             repositories.TxBeginner
	userRepo       repositories.UserRepository
	clinicRepo     repositories.ClinicRepository
	invitationRepo repositories.InvitationRepository
	logger         *zap.Logger
	now            func() time.Time
}

func NewProvisionerService(
	db repositories.TxBeginner,
	userRepo repositories.UserRepository,
	clinicRepo repositories.ClinicRepository,
	invitationRepo repositories.InvitationRepository,
	logger *zap.Logger,
) ProvisionerService {
	return &provisionerService{
		db:             db,
		userRepo:       userRepo,
		clinicRepo:     clinicRepo,
		invitationRepo: invitationRepo,
		logger:         logger,
		now:            time.Now,
	}
}

func (s *provisionerService) Provision(ctx context.Context, req *ProvisionRequest) (*ProvisionResult, error) {
	if req.UserID == uuid.Nil {
		return nil, invalidInputf("user id is required")
	}
	email := common.NormalizeEmail(req.Email)
	if email == "" {
		return nil, invalidInputf("email is required")
	}

	// Retry of an already provisioned signup: the profile exists and is
	// correctly linked, so there is nothing left to do.
	if existing, err := s.userRepo.GetByAuthID(ctx, req.UserID); err == nil && existing != nil {
		return &ProvisionResult{ClinicID: existing.ClinicID, Role: existing.Role}, nil
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, provisionFailed(err)
	}
	defer tx.Rollback(ctx)

	result, err := s.provisionInTx(ctx, tx, req, email)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, provisionFailed(err)
	}

	if result.Role == models.RoleOwner {
		metrics.RecordProvision("owner")
	} else {
		metrics.RecordProvision("invited")
		metrics.InvitationsConsumedTotal.Inc()
	}

	s.logger.Info("provisioned user",
		zap.String("user_id", req.UserID.String()),
		zap.String("clinic_id", result.ClinicID.String()),
		zap.String("role", result.Role),
	)
	return result, nil
}

func (s *provisionerService) provisionInTx(ctx context.Context, tx pgx.Tx, req *ProvisionRequest, email string) (*ProvisionResult, error) {
	invitations := s.invitationRepo.WithTx(tx)
	users := s.userRepo.WithTx(tx)

	invitation, err := invitations.FindOldestPending(ctx, email, s.now())
	if err != nil {
		return nil, provisionFailed(err)
	}

	var clinicID uuid.UUID
	var role string

	if invitation != nil {
		// Consume the invitation and join its clinic. The conditional delete
		// is the read-verify-write guard: if a concurrent signup got here
		// first the delete touches zero rows and this attempt loses.
		deleted, err := invitations.DeletePending(ctx, invitation.ID)
		if err != nil {
			return nil, provisionFailed(err)
		}
		if !deleted {
			return nil, ErrInvitationConsumed
		}
		clinicID = invitation.ClinicID
		role = invitation.Role
	} else {
		if strings.TrimSpace(req.ClinicName) == "" {
			return nil, invalidInputf("clinic name is required when signing up without an invitation")
		}
		clinic := &models.Clinic{
			ID:      uuid.New(),
			Name:    strings.TrimSpace(req.ClinicName),
			OwnerID: req.UserID,
			Status:  "active",
		}
		if err := s.clinicRepo.WithTx(tx).Create(ctx, clinic); err != nil {
			return nil, provisionFailed(err)
		}
		clinicID = clinic.ID
		role = models.RoleOwner
	}

	user := &models.User{
		ID:           req.UserID,
		ClinicID:     clinicID,
		Email:        email,
		PasswordHash: req.PasswordHash,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Role:         role,
		Status:       "active",
	}
	if err := users.Upsert(ctx, user); err != nil {
		return nil, provisionFailed(err)
	}

	return &ProvisionResult{ClinicID: clinicID, Role: role}, nil
}
