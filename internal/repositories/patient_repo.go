package repositories

import (
	"context"
	"errors"

	"clinicore/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type PatientRepository interface {
	Create(ctx context.Context, patient *models.Patient) error
	GetByID(ctx context.Context, clinicID, id uuid.UUID) (*models.Patient, error)
	Update(ctx context.Context, patient *models.Patient) error
	Delete(ctx context.Context, clinicID, id uuid.UUID) error
	List(ctx context.Context, clinicID uuid.UUID, limit, offset int) ([]*models.Patient, error)
	Search(ctx context.Context, clinicID uuid.UUID, query string, limit, offset int) ([]*models.Patient, error)
}

type patientRepo struct {
	db DBTX
}

func NewPatientRepo(db DBTX) PatientRepository {
	return &patientRepo{db: db}
}

func (r *patientRepo) Create(ctx context.Context, patient *models.Patient) error {
	query := `
		INSERT INTO patients (id, clinic_id, first_name, last_name, email, phone, date_of_birth, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
	`
	_, err := r.db.Exec(ctx, query, patient.ID, patient.ClinicID, patient.FirstName, patient.LastName, patient.Email, patient.Phone, patient.DateOfBirth, patient.Notes)
	return err
}

func (r *patientRepo) GetByID(ctx context.Context, clinicID, id uuid.UUID) (*models.Patient, error) {
	patient := &models.Patient{}
	query := `
		SELECT id, clinic_id, first_name, last_name, email, phone, date_of_birth, notes, created_at, updated_at
		FROM patients
		WHERE clinic_id = $1 AND id = $2
	`
	err := r.db.QueryRow(ctx, query, clinicID, id).Scan(&patient.ID, &patient.ClinicID, &patient.FirstName, &patient.LastName, &patient.Email, &patient.Phone, &patient.DateOfBirth, &patient.Notes, &patient.CreatedAt, &patient.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return patient, nil
}

func (r *patientRepo) Update(ctx context.Context, patient *models.Patient) error {
	query := `
		UPDATE patients
		SET first_name = $1, last_name = $2, email = $3, phone = $4, date_of_birth = $5, notes = $6, updated_at = NOW()
		WHERE clinic_id = $7 AND id = $8
	`
	_, err := r.db.Exec(ctx, query, patient.FirstName, patient.LastName, patient.Email, patient.Phone, patient.DateOfBirth, patient.Notes, patient.ClinicID, patient.ID)
	return err
}

func (r *patientRepo) Delete(ctx context.Context, clinicID, id uuid.UUID) error {
	query := `DELETE FROM patients WHERE clinic_id = $1 AND id = $2`
	_, err := r.db.Exec(ctx, query, clinicID, id)
	return err
}

func (r *patientRepo) List(ctx context.Context, clinicID uuid.UUID, limit, offset int) ([]*models.Patient, error) {
	query := `
		SELECT id, clinic_id, first_name, last_name, email, phone, date_of_birth, notes, created_at, updated_at
		FROM patients
		WHERE clinic_id = $1
		ORDER BY last_name ASC, first_name ASC
		LIMIT $2 OFFSET $3
	`
	return r.queryPatients(ctx, query, clinicID, limit, offset)
}

func (r *patientRepo) Search(ctx context.Context, clinicID uuid.UUID, search string, limit, offset int) ([]*models.Patient, error) {
	query := `
		SELECT id, clinic_id, first_name, last_name, email, phone, date_of_birth, notes, created_at, updated_at
		FROM patients
		WHERE clinic_id = $1 AND (first_name ILIKE '%' || $2 || '%' OR last_name ILIKE '%' || $2 || '%')
		ORDER BY last_name ASC, first_name ASC
		LIMIT $3 OFFSET $4
	`
	return r.queryPatients(ctx, query, clinicID, search, limit, offset)
}

func (r *patientRepo) queryPatients(ctx context.Context, query string, args ...any) ([]*models.Patient, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var patients []*models.Patient
	for rows.Next() {
		patient := &models.Patient{}
		if err := rows.Scan(&patient.ID, &patient.ClinicID, &patient.FirstName, &patient.LastName, &patient.Email, &patient.Phone, &patient.DateOfBirth, &patient.Notes, &patient.CreatedAt, &patient.UpdatedAt); err != nil {
			return nil, err
		}
		patients = append(patients, patient)
	}
	return patients, rows.Err()
}
