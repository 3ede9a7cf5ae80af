package repositories

import (
	"context"
	"testing"
	"time"

	"clinicore/internal/models"
	"clinicore/testhelpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Exercises the locking consumption path against a real database. Skipped
// unless TEST_DATABASE_URL is set.
func TestInvitationConsumption_Integration(t *testing.T) {
	db := testhelpers.SetupTestDB(t, "")
	defer db.Cleanup()

	ctx := context.Background()
	clinicID := testhelpers.SetupTestClinic(t, db)
	defer testhelpers.CleanupClinic(t, db, clinicID)

	email := "integration@x.com"
	invitationID := testhelpers.SetupTestInvitation(t, db, clinicID, email, models.RoleDoctor)

	repo := NewInvitationRepo(db.Pool)

	found, err := repo.FindOldestPending(ctx, email, time.Now())
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, invitationID, found.ID)

	deleted, err := repo.DeletePending(ctx, found.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	// Second delete sees no pending row.
	deleted, err = repo.DeletePending(ctx, found.ID)
	require.NoError(t, err)
	assert.False(t, deleted)

	gone, err := repo.FindOldestPending(ctx, email, time.Now())
	require.NoError(t, err)
	assert.Nil(t, gone)
}
