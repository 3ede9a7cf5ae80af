package repositories

import (
	"context"
	"testing"
	"time"

	"clinicore/internal/models"

	"github.com/google/uuid"
	pgx "github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
)

type InvitationRepoTestSuite struct {
	suite.Suite
	mock     pgxmock.PgxPoolIface
	repo     InvitationRepository
	clinicID uuid.UUID
	ctx      context.Context
}

func (suite *InvitationRepoTestSuite) SetupTest() {
	mock, err := pgxmock.NewPool()
	assert.NoError(suite.T(), err)
	suite.mock = mock

	suite.repo = NewInvitationRepo(mock)
	suite.clinicID = uuid.New()
	suite.ctx = context.Background()
}

func (suite *InvitationRepoTestSuite) TearDownTest() {
	assert.NoError(suite.T(), suite.mock.ExpectationsWereMet())
	suite.mock.Close()
}

func TestInvitationRepoTestSuite(t *testing.T) {
	suite.Run(t, new(InvitationRepoTestSuite))
}

func (suite *InvitationRepoTestSuite) invitationRows(invitation *models.Invitation) *pgxmock.Rows {
	return pgxmock.NewRows([]string{"id", "clinic_id", "clinic_name", "email", "role", "status", "invited_by", "created_at", "expires_at"}).
		AddRow(invitation.ID, invitation.ClinicID, invitation.ClinicName, invitation.Email, invitation.Role, invitation.Status, invitation.InvitedBy, invitation.CreatedAt, invitation.ExpiresAt)
}

func (suite *InvitationRepoTestSuite) TestFindOldestPending_Found() {
	now := time.Now()
	invitation := &models.Invitation{
		ID:         uuid.New(),
		ClinicID:   suite.clinicID,
		ClinicName: "Sunrise Clinic",
		Email:      "a@x.com",
		Role:       models.RoleDoctor,
		Status:     models.InvitationPending,
		InvitedBy:  uuid.New(),
		CreatedAt:  now.Add(-time.Hour),
		ExpiresAt:  now.Add(13 * 24 * time.Hour),
	}

	suite.mock.ExpectQuery(`FROM invitations\s+WHERE email = \$1 AND status = 'pending' AND expires_at > \$2\s+ORDER BY created_at ASC\s+LIMIT 1\s+FOR UPDATE`).
		WithArgs("a@x.com", now).
		WillReturnRows(suite.invitationRows(invitation))

	got, err := suite.repo.FindOldestPending(suite.ctx, "a@x.com", now)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), invitation.ID, got.ID)
	assert.Equal(suite.T(), models.RoleDoctor, got.Role)
}

func (suite *InvitationRepoTestSuite) TestFindOldestPending_NoneReturnsNil() {
	now := time.Now()
	suite.mock.ExpectQuery(`SELECT id, clinic_id, clinic_name, email, role, status, invited_by, created_at, expires_at`).
		WithArgs("nobody@x.com", now).
		WillReturnError(pgx.ErrNoRows)

	got, err := suite.repo.FindOldestPending(suite.ctx, "nobody@x.com", now)
	assert.NoError(suite.T(), err)
	assert.Nil(suite.T(), got)
}

func (suite *InvitationRepoTestSuite) TestDeletePending_Deleted() {
	invitationID := uuid.New()
	suite.mock.ExpectExec(`DELETE FROM invitations WHERE id = \$1 AND status = 'pending'`).
		WithArgs(invitationID).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	deleted, err := suite.repo.DeletePending(suite.ctx, invitationID)
	assert.NoError(suite.T(), err)
	assert.True(suite.T(), deleted)
}

func (suite *InvitationRepoTestSuite) TestDeletePending_AlreadyGone() {
	invitationID := uuid.New()
	suite.mock.ExpectExec(`DELETE FROM invitations WHERE id = \$1 AND status = 'pending'`).
		WithArgs(invitationID).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	deleted, err := suite.repo.DeletePending(suite.ctx, invitationID)
	assert.NoError(suite.T(), err)
	assert.False(suite.T(), deleted)
}

func (suite *InvitationRepoTestSuite) TestExpirePending() {
	now := time.Now()
	suite.mock.ExpectExec(`UPDATE invitations SET status = 'expired' WHERE status = 'pending' AND expires_at <= \$1`).
		WithArgs(now).
		WillReturnResult(pgxmock.NewResult("UPDATE", 3))

	count, err := suite.repo.ExpirePending(suite.ctx, now)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), int64(3), count)
}

func (suite *InvitationRepoTestSuite) TestCreate() {
	invitation := &models.Invitation{
		ID:         uuid.New(),
		ClinicID:   suite.clinicID,
		ClinicName: "Sunrise Clinic",
		Email:      "b@x.com",
		Role:       models.RoleNurse,
		Status:     models.InvitationPending,
		InvitedBy:  uuid.New(),
		ExpiresAt:  time.Now().Add(14 * 24 * time.Hour),
	}

	suite.mock.ExpectExec(`INSERT INTO invitations`).
		WithArgs(invitation.ID, invitation.ClinicID, invitation.ClinicName, invitation.Email, invitation.Role, invitation.Status, invitation.InvitedBy, invitation.ExpiresAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	assert.NoError(suite.T(), suite.repo.Create(suite.ctx, invitation))
}
