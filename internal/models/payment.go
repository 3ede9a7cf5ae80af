package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	PaymentPending   = "pending"
	PaymentConfirmed = "confirmed"
	PaymentFailed    = "failed"
	PaymentExpired   = "expired"
)

// Payment tracks a crypto charge raised against the payment provider for a
// patient's bill. ProviderChargeID links it to the provider's record and is
// the key webhook events resolve against.
type Payment struct {
	ID               uuid.UUID  `json:"id" db:"id"`
	ClinicID         uuid.UUID  `json:"clinic_id" db:"clinic_id"`
	PatientID        uuid.UUID  `json:"patient_id" db:"patient_id"`
	ProviderChargeID *string    `json:"provider_charge_id" db:"provider_charge_id"`
	Amount           float64    `json:"amount" db:"amount"`
	Currency         string     `json:"currency" db:"currency"`
	Status           string     `json:"status" db:"status"`
	ConfirmedAt      *time.Time `json:"confirmed_at,omitempty" db:"confirmed_at"`
	CreatedAt        time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at" db:"updated_at"`
}
