package models

import (
	"time"

	"github.com/google/uuid"
)

// Staff roles. Role is fixed at provisioning time: invitation consumers get
// the invitation's role, clinic creators become owner.
const (
	RoleOwner   = "owner"
	RoleManager = "manager"
	RoleDoctor  = "doctor"
	RoleNurse   = "nurse"
	RoleAdmin   = "admin"
	RoleCashier = "cashier"
)

// ValidRole reports whether role is one of the staff roles an invitation may
// carry.
func ValidRole(role string) bool {
	switch role {
	case RoleOwner, RoleManager, RoleDoctor, RoleNurse, RoleAdmin, RoleCashier:
		return true
	}
	return false
}

type User struct {
	ID           uuid.UUID `json:"id" db:"id"`
	ClinicID     uuid.UUID `json:"clinic_id" db:"clinic_id"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"` // Never serialize in JSON
	FirstName    string    `json:"first_name" db:"first_name"`
	LastName     string    `json:"last_name" db:"last_name"`
	Role         string    `json:"role" db:"role"`
	Status       string    `json:"status" db:"status"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}
