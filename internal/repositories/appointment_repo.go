package repositories

import (
	"context"
	"errors"
	"time"

	"clinicore/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type AppointmentRepository interface {
	Create(ctx context.Context, appointment *models.Appointment) error
	GetByID(ctx context.Context, clinicID, id uuid.UUID) (*models.Appointment, error)
	Update(ctx context.Context, appointment *models.Appointment) error
	Delete(ctx context.Context, clinicID, id uuid.UUID) error
	ListByClinic(ctx context.Context, clinicID uuid.UUID, from, to time.Time, limit, offset int) ([]*models.Appointment, error)
	ListByDoctor(ctx context.Context, clinicID, doctorID uuid.UUID, from, to time.Time) ([]*models.Appointment, error)
	// CountOverlapping reports how many non-cancelled appointments for the
	// doctor overlap the [startsAt, endsAt) window.
	CountOverlapping(ctx context.Context, clinicID, doctorID uuid.UUID, startsAt, endsAt time.Time) (int, error)
}

type appointmentRepo struct {
	db DBTX
}

func NewAppointmentRepo(db DBTX) AppointmentRepository {
	return &appointmentRepo{db: db}
}

func (r *appointmentRepo) Create(ctx context.Context, appointment *models.Appointment) error {
	query := `
		INSERT INTO appointments (id, clinic_id, patient_id, doctor_id, starts_at, ends_at, status, reason, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
	`
	_, err := r.db.Exec(ctx, query, appointment.ID, appointment.ClinicID, appointment.PatientID, appointment.DoctorID, appointment.StartsAt, appointment.EndsAt, appointment.Status, appointment.Reason)
	return err
}

func (r *appointmentRepo) GetByID(ctx context.Context, clinicID, id uuid.UUID) (*models.Appointment, error) {
	appointment := &models.Appointment{}
	query := `
		SELECT id, clinic_id, patient_id, doctor_id, starts_at, ends_at, status, reason, created_at, updated_at
		FROM appointments
		WHERE clinic_id = $1 AND id = $2
	`
	err := r.db.QueryRow(ctx, query, clinicID, id).Scan(&appointment.ID, &appointment.ClinicID, &appointment.PatientID, &appointment.DoctorID, &appointment.StartsAt, &appointment.EndsAt, &appointment.Status, &appointment.Reason, &appointment.CreatedAt, &appointment.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return appointment, nil
}

func (r *appointmentRepo) Update(ctx context.Context, appointment *models.Appointment) error {
	query := `
		UPDATE appointments
		SET patient_id = $1, doctor_id = $2, starts_at = $3, ends_at = $4, status = $5, reason = $6, updated_at = NOW()
		WHERE clinic_id = $7 AND id = $8
	`
	_, err := r.db.Exec(ctx, query, appointment.PatientID, appointment.DoctorID, appointment.StartsAt, appointment.EndsAt, appointment.Status, appointment.Reason, appointment.ClinicID, appointment.ID)
	return err
}

func (r *appointmentRepo) Delete(ctx context.Context, clinicID, id uuid.UUID) error {
	query := `DELETE FROM appointments WHERE clinic_id = $1 AND id = $2`
	_, err := r.db.Exec(ctx, query, clinicID, id)
	return err
}

func (r *appointmentRepo) ListByClinic(ctx context.Context, clinicID uuid.UUID, from, to time.Time, limit, offset int) ([]*models.Appointment, error) {
	query := `
		SELECT id, clinic_id, patient_id, doctor_id, starts_at, ends_at, status, reason, created_at, updated_at
		FROM appointments
		WHERE clinic_id = $1 AND starts_at >= $2 AND starts_at < $3
		ORDER BY starts_at ASC
		LIMIT $4 OFFSET $5
	`
	return r.queryAppointments(ctx, query, clinicID, from, to, limit, offset)
}

func (r *appointmentRepo) ListByDoctor(ctx context.Context, clinicID, doctorID uuid.UUID, from, to time.Time) ([]*models.Appointment, error) {
	query := `
		SELECT id, clinic_id, patient_id, doctor_id, starts_at, ends_at, status, reason, created_at, updated_at
		FROM appointments
		WHERE clinic_id = $1 AND doctor_id = $2 AND starts_at >= $3 AND starts_at < $4
		ORDER BY starts_at ASC
	`
	return r.queryAppointments(ctx, query, clinicID, doctorID, from, to)
}

func (r *appointmentRepo) CountOverlapping(ctx context.Context, clinicID, doctorID uuid.UUID, startsAt, endsAt time.Time) (int, error) {
	var count int
	query := `
		SELECT COUNT(*)
		FROM appointments
		WHERE clinic_id = $1 AND doctor_id = $2 AND status != 'cancelled'
		  AND starts_at < $4 AND ends_at > $3
	`
	err := r.db.QueryRow(ctx, query, clinicID, doctorID, startsAt, endsAt).Scan(&count)
	return count, err
}

func (r *appointmentRepo) queryAppointments(ctx context.Context, query string, args ...any) ([]*models.Appointment, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var appointments []*models.Appointment
	for rows.Next() {
		appointment := &models.Appointment{}
		if err := rows.Scan(&appointment.ID, &appointment.ClinicID, &appointment.PatientID, &appointment.DoctorID, &appointment.StartsAt, &appointment.EndsAt, &appointment.Status, &appointment.Reason, &appointment.CreatedAt, &appointment.UpdatedAt); err != nil {
			return nil, err
		}
		appointments = append(appointments, appointment)
	}
	return appointments, rows.Err()
}
