package models

import (
	"time"

	"github.com/google/uuid"
)

// Invitation statuses. A consumed invitation has no status: consumption
// deletes the row so it can never be claimed twice.
const (
	InvitationPending   = "pending"
	InvitationCancelled = "cancelled"
	InvitationExpired   = "expired"
)

// Invitation is a pending offer for an email address to join a clinic with a
// specific role. Email is stored lowercased and is the lookup key at signup.
type Invitation struct {
	ID         uuid.UUID `json:"id" db:"id"`
	ClinicID   uuid.UUID `json:"clinic_id" db:"clinic_id"`
	ClinicName string    `json:"clinic_name" db:"clinic_name"`
	Email      string    `json:"email" db:"email"`
	Role       string    `json:"role" db:"role"`
	Status     string    `json:"status" db:"status"`
	InvitedBy  uuid.UUID `json:"invited_by" db:"invited_by"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	ExpiresAt  time.Time `json:"expires_at" db:"expires_at"`
}

// IsExpired reports whether the invitation has passed its expiry, regardless
// of whether the sweeper has flipped its status yet.
func (i *Invitation) IsExpired(now time.Time) bool {
	return now.After(i.ExpiresAt)
}
