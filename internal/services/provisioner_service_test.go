package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"clinicore/internal/models"

	"github.com/google/uuid"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
)

type ProvisionerServiceTestSuite struct {
	suite.Suite
	db             pgxmock.PgxPoolIface
	userRepo       *MockUserRepository
	clinicRepo     *MockClinicRepository
	invitationRepo *MockInvitationRepository
	service        ProvisionerService
	ctx            context.Context
}

func (suite *ProvisionerServiceTestSuite) SetupTest() {
	db, err := pgxmock.NewPool()
	assert.NoError(suite.T(), err)
	suite.db = db

	suite.userRepo = &MockUserRepository{}
	suite.clinicRepo = &MockClinicRepository{}
	suite.invitationRepo = &MockInvitationRepository{}
	suite.service = NewProvisionerService(db, suite.userRepo, suite.clinicRepo, suite.invitationRepo, zap.NewNop())
	suite.ctx = context.Background()
}

func (suite *ProvisionerServiceTestSuite) TearDownTest() {
	suite.db.Close()
	suite.userRepo.AssertExpectations(suite.T())
	suite.clinicRepo.AssertExpectations(suite.T())
	suite.invitationRepo.AssertExpectations(suite.T())
}

func TestProvisionerServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ProvisionerServiceTestSuite))
}

func (suite *ProvisionerServiceTestSuite) TestProvision_ConsumesInvitation() {
	userID := uuid.New()
	clinicID := uuid.New()
	invitationID := uuid.New()

	invitation := &models.Invitation{
		ID:       invitationID,
		ClinicID: clinicID,
		Email:    "a@x.com",
		Role:     models.RoleDoctor,
		Status:   models.InvitationPending,
	}

	suite.userRepo.On("GetByAuthID", suite.ctx, userID).Return(nil, nil)
	suite.db.ExpectBegin()
	suite.invitationRepo.On("FindOldestPending", mock.Anything, "a@x.com", mock.AnythingOfType("time.Time")).Return(invitation, nil)
	suite.invitationRepo.On("DeletePending", mock.Anything, invitationID).Return(true, nil)
	suite.userRepo.On("Upsert", mock.Anything, mock.AnythingOfType("*models.User")).Return(nil).Run(func(args mock.Arguments) {
		user := args.Get(1).(*models.User)
		assert.Equal(suite.T(), userID, user.ID)
		assert.Equal(suite.T(), clinicID, user.ClinicID)
		assert.Equal(suite.T(), models.RoleDoctor, user.Role)
		assert.Equal(suite.T(), "a@x.com", user.Email)
	})
	suite.db.ExpectCommit()

	result, err := suite.service.Provision(suite.ctx, &ProvisionRequest{
		Email:  "A@X.com",
		UserID: userID,
	})

	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), clinicID, result.ClinicID)
	assert.Equal(suite.T(), models.RoleDoctor, result.Role)
	assert.NoError(suite.T(), suite.db.ExpectationsWereMet())
}

func (suite *ProvisionerServiceTestSuite) TestProvision_CreatesClinicWithoutInvitation() {
	userID := uuid.New()

	suite.userRepo.On("GetByAuthID", suite.ctx, userID).Return(nil, nil)
	suite.db.ExpectBegin()
	suite.invitationRepo.On("FindOldestPending", mock.Anything, "owner@sunrise.example", mock.AnythingOfType("time.Time")).Return(nil, nil)
	suite.clinicRepo.On("Create", mock.Anything, mock.AnythingOfType("*models.Clinic")).Return(nil).Run(func(args mock.Arguments) {
		clinic := args.Get(1).(*models.Clinic)
		assert.Equal(suite.T(), "Sunrise Clinic", clinic.Name)
		assert.Equal(suite.T(), userID, clinic.OwnerID)
		assert.NotEqual(suite.T(), uuid.Nil, clinic.ID)
	})
	suite.userRepo.On("Upsert", mock.Anything, mock.AnythingOfType("*models.User")).Return(nil).Run(func(args mock.Arguments) {
		user := args.Get(1).(*models.User)
		assert.Equal(suite.T(), models.RoleOwner, user.Role)
	})
	suite.db.ExpectCommit()

	result, err := suite.service.Provision(suite.ctx, &ProvisionRequest{
		Email:      "owner@sunrise.example",
		UserID:     userID,
		ClinicName: "  Sunrise Clinic  ",
	})

	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), models.RoleOwner, result.Role)
	assert.NoError(suite.T(), suite.db.ExpectationsWereMet())
}

func (suite *ProvisionerServiceTestSuite) TestProvision_BlankClinicNameFails() {
	userID := uuid.New()

	suite.userRepo.On("GetByAuthID", suite.ctx, userID).Return(nil, nil)
	suite.db.ExpectBegin()
	suite.invitationRepo.On("FindOldestPending", mock.Anything, "new@x.com", mock.AnythingOfType("time.Time")).Return(nil, nil)
	suite.db.ExpectRollback()

	result, err := suite.service.Provision(suite.ctx, &ProvisionRequest{
		Email:      "new@x.com",
		UserID:     userID,
		ClinicName: "   ",
	})

	assert.Nil(suite.T(), result)
	assert.ErrorIs(suite.T(), err, ErrInvalidInput)
	suite.clinicRepo.AssertNotCalled(suite.T(), "Create")
	suite.userRepo.AssertNotCalled(suite.T(), "Upsert")
	assert.NoError(suite.T(), suite.db.ExpectationsWereMet())
}

func (suite *ProvisionerServiceTestSuite) TestProvision_RetryIsIdempotent() {
	userID := uuid.New()
	clinicID := uuid.New()

	existing := &models.User{
		ID:       userID,
		ClinicID: clinicID,
		Role:     models.RoleNurse,
	}
	suite.userRepo.On("GetByAuthID", suite.ctx, userID).Return(existing, nil)

	result, err := suite.service.Provision(suite.ctx, &ProvisionRequest{
		Email:  "retry@x.com",
		UserID: userID,
	})

	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), clinicID, result.ClinicID)
	assert.Equal(suite.T(), models.RoleNurse, result.Role)
	// No transaction at all on the retry path.
	assert.NoError(suite.T(), suite.db.ExpectationsWereMet())
}

func (suite *ProvisionerServiceTestSuite) TestProvision_RaceLoserFails() {
	userID := uuid.New()
	invitationID := uuid.New()

	invitation := &models.Invitation{
		ID:       invitationID,
		ClinicID: uuid.New(),
		Email:    "a@x.com",
		Role:     models.RoleDoctor,
		Status:   models.InvitationPending,
	}

	suite.userRepo.On("GetByAuthID", suite.ctx, userID).Return(nil, nil)
	suite.db.ExpectBegin()
	suite.invitationRepo.On("FindOldestPending", mock.Anything, "a@x.com", mock.AnythingOfType("time.Time")).Return(invitation, nil)
	// A concurrent signup consumed the invitation between the read and the
	// delete.
	suite.invitationRepo.On("DeletePending", mock.Anything, invitationID).Return(false, nil)
	suite.db.ExpectRollback()

	result, err := suite.service.Provision(suite.ctx, &ProvisionRequest{
		Email:  "a@x.com",
		UserID: userID,
	})

	assert.Nil(suite.T(), result)
	assert.ErrorIs(suite.T(), err, ErrInvitationConsumed)
	suite.userRepo.AssertNotCalled(suite.T(), "Upsert")
	assert.NoError(suite.T(), suite.db.ExpectationsWereMet())
}

func (suite *ProvisionerServiceTestSuite) TestProvision_CommitFailure() {
	userID := uuid.New()

	suite.userRepo.On("GetByAuthID", suite.ctx, userID).Return(nil, nil)
	suite.db.ExpectBegin()
	suite.invitationRepo.On("FindOldestPending", mock.Anything, "c@x.com", mock.AnythingOfType("time.Time")).Return(nil, nil)
	suite.clinicRepo.On("Create", mock.Anything, mock.AnythingOfType("*models.Clinic")).Return(nil)
	suite.userRepo.On("Upsert", mock.Anything, mock.AnythingOfType("*models.User")).Return(nil)
	suite.db.ExpectCommit().WillReturnError(errors.New("connection reset"))

	result, err := suite.service.Provision(suite.ctx, &ProvisionRequest{
		Email:      "c@x.com",
		UserID:     userID,
		ClinicName: "Cedar Clinic",
	})

	assert.Nil(suite.T(), result)
	assert.ErrorIs(suite.T(), err, ErrProvisionFailed)
	assert.NoError(suite.T(), suite.db.ExpectationsWereMet())
}

func (suite *ProvisionerServiceTestSuite) TestProvision_MissingUserID() {
	result, err := suite.service.Provision(suite.ctx, &ProvisionRequest{
		Email: "a@x.com",
	})

	assert.Nil(suite.T(), result)
	assert.ErrorIs(suite.T(), err, ErrInvalidInput)
}

func (suite *ProvisionerServiceTestSuite) TestProvision_MissingEmail() {
	result, err := suite.service.Provision(suite.ctx, &ProvisionRequest{
		UserID: uuid.New(),
	})

	assert.Nil(suite.T(), result)
	assert.ErrorIs(suite.T(), err, ErrInvalidInput)
}

// A second pending invitation for the same email must not be considered once
// the oldest is matched; the repository's ordering guarantees that, so the
// service only ever sees one row.
func (suite *ProvisionerServiceTestSuite) TestProvision_OldestInvitationWins() {
	userID := uuid.New()
	oldestClinic := uuid.New()
	invitationID := uuid.New()

	oldest := &models.Invitation{
		ID:        invitationID,
		ClinicID:  oldestClinic,
		Email:     "dup@x.com",
		Role:      models.RoleManager,
		Status:    models.InvitationPending,
		CreatedAt: time.Now().Add(-48 * time.Hour),
	}

	suite.userRepo.On("GetByAuthID", suite.ctx, userID).Return(nil, nil)
	suite.db.ExpectBegin()
	suite.invitationRepo.On("FindOldestPending", mock.Anything, "dup@x.com", mock.AnythingOfType("time.Time")).Return(oldest, nil)
	suite.invitationRepo.On("DeletePending", mock.Anything, invitationID).Return(true, nil)
	suite.userRepo.On("Upsert", mock.Anything, mock.AnythingOfType("*models.User")).Return(nil)
	suite.db.ExpectCommit()

	result, err := suite.service.Provision(suite.ctx, &ProvisionRequest{
		Email:  "dup@x.com",
		UserID: userID,
	})

	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), oldestClinic, result.ClinicID)
	assert.Equal(suite.T(), models.RoleManager, result.Role)
	assert.NoError(suite.T(), suite.db.ExpectationsWereMet())
}

func (suite *ProvisionerServiceTestSuite) TestErrorsAreDistinguishable() {
	assert.False(suite.T(), errors.Is(ErrInvalidInput, ErrProvisionFailed))
	assert.False(suite.T(), errors.Is(ErrInvitationConsumed, ErrProvisionFailed))
	assert.True(suite.T(), errors.Is(invalidInputf("x"), ErrInvalidInput))
	assert.True(suite.T(), errors.Is(provisionFailed(errors.New("y")), ErrProvisionFailed))
}
