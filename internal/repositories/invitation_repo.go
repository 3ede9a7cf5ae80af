package repositories

import (
	"context"
	"errors"
	"time"

	"clinicore/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type InvitationRepository interface {
	Create(ctx context.Context, invitation *models.Invitation) error
	GetByID(ctx context.Context, clinicID, id uuid.UUID) (*models.Invitation, error)
	// FindOldestPending returns the oldest pending, unexpired invitation for
	// the given lowercased email, or nil when none exists. When run inside a
	// transaction the row is locked until commit, which is what makes
	// invitation consumption race-safe.
	FindOldestPending(ctx context.Context, email string, now time.Time) (*models.Invitation, error)
	// DeletePending removes the invitation only if it is still pending and
	// reports whether a row was actually deleted. A false return means a
	// concurrent transaction consumed or cancelled it first.
	DeletePending(ctx context.Context, id uuid.UUID) (bool, error)
	UpdateStatus(ctx context.Context, clinicID, id uuid.UUID, status string) error
	ListByClinic(ctx context.Context, clinicID uuid.UUID, limit, offset int) ([]*models.Invitation, error)
	// ExpirePending flips every pending invitation past its expiry to
	// expired and returns how many rows changed.
	ExpirePending(ctx context.Context, now time.Time) (int64, error)
	WithTx(tx DBTX) InvitationRepository
}

type invitationRepo struct {
	db DBTX
}

func NewInvitationRepo(db DBTX) InvitationRepository {
	return &invitationRepo{db: db}
}

func (r *invitationRepo) WithTx(tx DBTX) InvitationRepository {
	return &invitationRepo{db: tx}
}

func (r *invitationRepo) Create(ctx context.Context, invitation *models.Invitation) error {
	query := `
		INSERT INTO invitations (id, clinic_id, clinic_name, email, role, status, invited_by, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), $8)
	`
	_, err := r.db.Exec(ctx, query, invitation.ID, invitation.ClinicID, invitation.ClinicName, invitation.Email, invitation.Role, invitation.Status, invitation.InvitedBy, invitation.ExpiresAt)
	return err
}

func (r *invitationRepo) GetByID(ctx context.Context, clinicID, id uuid.UUID) (*models.Invitation, error) {
	invitation := &models.Invitation{}
	query := `
		SELECT id, clinic_id, clinic_name, email, role, status, invited_by, created_at, expires_at
		FROM invitations
		WHERE clinic_id = $1 AND id = $2
	`
	err := r.db.QueryRow(ctx, query, clinicID, id).Scan(&invitation.ID, &invitation.ClinicID, &invitation.ClinicName, &invitation.Email, &invitation.Role, &invitation.Status, &invitation.InvitedBy, &invitation.CreatedAt, &invitation.ExpiresAt)
	if err != nil {
		return nil, err
	}
	return invitation, nil
}

func (r *invitationRepo) FindOldestPending(ctx context.Context, email string, now time.Time) (*models.Invitation, error) {
	invitation := &models.Invitation{}
	// Oldest created_at wins when the same email holds several pending
	// invitations. FOR UPDATE makes a racing signup block here until the
	// winner commits, after which this query sees the row already gone.
	query := `
		SELECT id, clinic_id, clinic_name, email, role, status, invited_by, created_at, expires_at
		FROM invitations
		WHERE email = $1 AND status = 'pending' AND expires_at > $2
		ORDER BY created_at ASC
		LIMIT 1
		FOR UPDATE
	`
	err := r.db.QueryRow(ctx, query, email, now).Scan(&invitation.ID, &invitation.ClinicID, &invitation.ClinicName, &invitation.Email, &invitation.Role, &invitation.Status, &invitation.InvitedBy, &invitation.CreatedAt, &invitation.ExpiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return invitation, nil
}

func (r *invitationRepo) DeletePending(ctx context.Context, id uuid.UUID) (bool, error) {
	query := `DELETE FROM invitations WHERE id = $1 AND status = 'pending'`
	tag, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *invitationRepo) UpdateStatus(ctx context.Context, clinicID, id uuid.UUID, status string) error {
	query := `UPDATE invitations SET status = $1 WHERE clinic_id = $2 AND id = $3`
	_, err := r.db.Exec(ctx, query, status, clinicID, id)
	return err
}

func (r *invitationRepo) ListByClinic(ctx context.Context, clinicID uuid.UUID, limit, offset int) ([]*models.Invitation, error) {
	query := `
		SELECT id, clinic_id, clinic_name, email, role, status, invited_by, created_at, expires_at
		FROM invitations
		WHERE clinic_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.Query(ctx, query, clinicID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var invitations []*models.Invitation
	for rows.Next() {
		invitation := &models.Invitation{}
		if err := rows.Scan(&invitation.ID, &invitation.ClinicID, &invitation.ClinicName, &invitation.Email, &invitation.Role, &invitation.Status, &invitation.InvitedBy, &invitation.CreatedAt, &invitation.ExpiresAt); err != nil {
			return nil, err
		}
		invitations = append(invitations, invitation)
	}
	return invitations, rows.Err()
}

func (r *invitationRepo) ExpirePending(ctx context.Context, now time.Time) (int64, error) {
	query := `UPDATE invitations SET status = 'expired' WHERE status = 'pending' AND expires_at <= $1`
	tag, err := r.db.Exec(ctx, query, now)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
