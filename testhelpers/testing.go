package testhelpers

import (
	"context"
	"os"
	"testing"
	"time"

	"clinicore/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TestDB holds the database connection for integration tests.
type TestDB struct {
	Pool    *pgxpool.Pool
	Cleanup func() error
}

// SetupTestDB connects to the integration test database. Tests calling it
// are skipped unless TEST_DATABASE_URL is set.
func SetupTestDB(t *testing.T, connString string) *TestDB {
	t.Helper()

	if connString == "" {
		connString = os.Getenv("TEST_DATABASE_URL")
		if connString == "" {
			t.Skip("TEST_DATABASE_URL not set; skipping integration test")
		}
	}

	pool, err := pgxpool.New(context.Background(), connString)
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	return &TestDB{
		Pool: pool,
		Cleanup: func() error {
			pool.Close()
			return nil
		},
	}
}

// SetupTestClinic inserts a clinic row for testing.
func SetupTestClinic(t *testing.T, db *TestDB) uuid.UUID {
	t.Helper()

	clinicID := uuid.New()
	ownerID := uuid.New()
	query := `
		INSERT INTO clinics (id, name, owner_id, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
	`
	_, err := db.Pool.Exec(context.Background(), query, clinicID, "Test Clinic", ownerID, "active")
	if err != nil {
		t.Fatalf("Failed to create test clinic: %v", err)
	}

	return clinicID
}

// SetupTestInvitation inserts a pending invitation for the given email.
func SetupTestInvitation(t *testing.T, db *TestDB, clinicID uuid.UUID, email, role string) uuid.UUID {
	t.Helper()

	invitationID := uuid.New()
	query := `
		INSERT INTO invitations (id, clinic_id, clinic_name, email, role, status, invited_by, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), $8)
	`
	_, err := db.Pool.Exec(context.Background(), query,
		invitationID, clinicID, "Test Clinic", email, role, models.InvitationPending, uuid.New(), time.Now().Add(14*24*time.Hour))
	if err != nil {
		t.Fatalf("Failed to create test invitation: %v", err)
	}

	return invitationID
}

// CleanupClinic deletes a clinic and its dependent rows.
func CleanupClinic(t *testing.T, db *TestDB, clinicID uuid.UUID) {
	t.Helper()

	ctx := context.Background()
	for _, table := range []string{"invitations", "users", "clinics"} {
		query := "DELETE FROM " + table + " WHERE clinic_id = $1"
		if table == "clinics" {
			query = "DELETE FROM clinics WHERE id = $1"
		}
		if _, err := db.Pool.Exec(ctx, query, clinicID); err != nil {
			t.Logf("cleanup of %s failed: %v", table, err)
		}
	}
}
