package repositories

import (
	"context"
	"errors"
	"time"

	"clinicore/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type PaymentRepository interface {
	Create(ctx context.Context, payment *models.Payment) error
	GetByID(ctx context.Context, clinicID, id uuid.UUID) (*models.Payment, error)
	GetByProviderChargeID(ctx context.Context, chargeID string) (*models.Payment, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string, confirmedAt *time.Time) error
	ListByClinic(ctx context.Context, clinicID uuid.UUID, limit, offset int) ([]*models.Payment, error)
	// SumConfirmed totals confirmed payments for the clinic in the window,
	// feeding the daily revenue alert.
	SumConfirmed(ctx context.Context, clinicID uuid.UUID, from, to time.Time) (float64, error)
}

type paymentRepo struct {
	db DBTX
}

func NewPaymentRepo(db DBTX) PaymentRepository {
	return &paymentRepo{db: db}
}

func (r *paymentRepo) Create(ctx context.Context, payment *models.Payment) error {
	query := `
		INSERT INTO payments (id, clinic_id, patient_id, provider_charge_id, amount, currency, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
	`
	_, err := r.db.Exec(ctx, query, payment.ID, payment.ClinicID, payment.PatientID, payment.ProviderChargeID, payment.Amount, payment.Currency, payment.Status)
	return err
}

func (r *paymentRepo) GetByID(ctx context.Context, clinicID, id uuid.UUID) (*models.Payment, error) {
	payment := &models.Payment{}
	query := `
		SELECT id, clinic_id, patient_id, provider_charge_id, amount, currency, status, confirmed_at, created_at, updated_at
		FROM payments
		WHERE clinic_id = $1 AND id = $2
	`
	err := r.db.QueryRow(ctx, query, clinicID, id).Scan(&payment.ID, &payment.ClinicID, &payment.PatientID, &payment.ProviderChargeID, &payment.Amount, &payment.Currency, &payment.Status, &payment.ConfirmedAt, &payment.CreatedAt, &payment.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return payment, nil
}

func (r *paymentRepo) GetByProviderChargeID(ctx context.Context, chargeID string) (*models.Payment, error) {
	payment := &models.Payment{}
	query := `
		SELECT id, clinic_id, patient_id, provider_charge_id, amount, currency, status, confirmed_at, created_at, updated_at
		FROM payments
		WHERE provider_charge_id = $1
	`
	err := r.db.QueryRow(ctx, query, chargeID).Scan(&payment.ID, &payment.ClinicID, &payment.PatientID, &payment.ProviderChargeID, &payment.Amount, &payment.Currency, &payment.Status, &payment.ConfirmedAt, &payment.CreatedAt, &payment.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return payment, nil
}

func (r *paymentRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status string, confirmedAt *time.Time) error {
	query := `UPDATE payments SET status = $1, confirmed_at = $2, updated_at = NOW() WHERE id = $3`
	_, err := r.db.Exec(ctx, query, status, confirmedAt, id)
	return err
}

func (r *paymentRepo) ListByClinic(ctx context.Context, clinicID uuid.UUID, limit, offset int) ([]*models.Payment, error) {
	query := `
		SELECT id, clinic_id, patient_id, provider_charge_id, amount, currency, status, confirmed_at, created_at, updated_at
		FROM payments
		WHERE clinic_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.Query(ctx, query, clinicID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payments []*models.Payment
	for rows.Next() {
		payment := &models.Payment{}
		if err := rows.Scan(&payment.ID, &payment.ClinicID, &payment.PatientID, &payment.ProviderChargeID, &payment.Amount, &payment.Currency, &payment.Status, &payment.ConfirmedAt, &payment.CreatedAt, &payment.UpdatedAt); err != nil {
			return nil, err
		}
		payments = append(payments, payment)
	}
	return payments, rows.Err()
}

func (r *paymentRepo) SumConfirmed(ctx context.Context, clinicID uuid.UUID, from, to time.Time) (float64, error) {
	var total float64
	query := `
		SELECT COALESCE(SUM(amount), 0)
		FROM payments
		WHERE clinic_id = $1 AND status = 'confirmed' AND confirmed_at >= $2 AND confirmed_at < $3
	`
	err := r.db.QueryRow(ctx, query, clinicID, from, to).Scan(&total)
	return total, err
}
