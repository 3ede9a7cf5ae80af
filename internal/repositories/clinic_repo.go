package repositories

import (
	"context"
	"errors"

	"clinicore/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type ClinicRepository interface {
	Create(ctx context.Context, clinic *models.Clinic) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Clinic, error)
	Update(ctx context.Context, clinic *models.Clinic) error
	List(ctx context.Context, limit, offset int) ([]*models.Clinic, error)
	WithTx(tx DBTX) ClinicRepository
}

type clinicRepo struct {
	db DBTX
}

func NewClinicRepo(db DBTX) ClinicRepository {
	return &clinicRepo{db: db}
}

// WithTx returns a copy of the repository bound to tx so its writes join the
// caller's transaction.
func (r *clinicRepo) WithTx(tx DBTX) ClinicRepository {
	return &clinicRepo{db: tx}
}

func (r *clinicRepo) Create(ctx context.Context, clinic *models.Clinic) error {
	query := `
		INSERT INTO clinics (id, name, owner_id, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
	`
	_, err := r.db.Exec(ctx, query, clinic.ID, clinic.Name, clinic.OwnerID, clinic.Status)
	return err
}

func (r *clinicRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Clinic, error) {
	clinic := &models.Clinic{}
	query := `
		SELECT id, name, owner_id, status, created_at, updated_at
		FROM clinics
		WHERE id = $1
	`
	err := r.db.QueryRow(ctx, query, id).Scan(&clinic.ID, &clinic.Name, &clinic.OwnerID, &clinic.Status, &clinic.CreatedAt, &clinic.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return clinic, nil
}

func (r *clinicRepo) Update(ctx context.Context, clinic *models.Clinic) error {
	query := `
		UPDATE clinics
		SET name = $1, status = $2, updated_at = NOW()
		WHERE id = $3
	`
	_, err := r.db.Exec(ctx, query, clinic.Name, clinic.Status, clinic.ID)
	return err
}

func (r *clinicRepo) List(ctx context.Context, limit, offset int) ([]*models.Clinic, error) {
	query := `
		SELECT id, name, owner_id, status, created_at, updated_at
		FROM clinics
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`
	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var clinics []*models.Clinic
	for rows.Next() {
		clinic := &models.Clinic{}
		if err := rows.Scan(&clinic.ID, &clinic.Name, &clinic.OwnerID, &clinic.Status, &clinic.CreatedAt, &clinic.UpdatedAt); err != nil {
			return nil, err
		}
		clinics = append(clinics, clinic)
	}
	return clinics, rows.Err()
}
