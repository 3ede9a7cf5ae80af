package services

import (
	"context"
	"testing"
	"time"

	"clinicore/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
)

type InvitationServiceTestSuite struct {
	suite.Suite
	invitationRepo *MockInvitationRepository
	clinicRepo     *MockClinicRepository
	userRepo       *MockUserRepository
	notifier       *MockNotifierService
	service        InvitationService
	clinicID       uuid.UUID
	inviterID      uuid.UUID
	ctx            context.Context
}

func (suite *InvitationServiceTestSuite) SetupTest() {
	suite.invitationRepo = &MockInvitationRepository{}
	suite.clinicRepo = &MockClinicRepository{}
	suite.userRepo = &MockUserRepository{}
	suite.notifier = &MockNotifierService{}
	suite.service = NewInvitationService(
		suite.invitationRepo, suite.clinicRepo, suite.userRepo, suite.notifier,
		14*24*time.Hour, zap.NewNop())
	suite.clinicID = uuid.New()
	suite.inviterID = uuid.New()
	suite.ctx = context.Background()
}

func (suite *InvitationServiceTestSuite) TearDownTest() {
	suite.invitationRepo.AssertExpectations(suite.T())
	suite.clinicRepo.AssertExpectations(suite.T())
	suite.userRepo.AssertExpectations(suite.T())
	suite.notifier.AssertExpectations(suite.T())
}

func TestInvitationServiceTestSuite(t *testing.T) {
	suite.Run(t, new(InvitationServiceTestSuite))
}

func (suite *InvitationServiceTestSuite) clinic() *models.Clinic {
	return &models.Clinic{
		ID:     suite.clinicID,
		Name:   "Sunrise Clinic",
		Status: "active",
	}
}

func (suite *InvitationServiceTestSuite) TestCreate_Success() {
	suite.clinicRepo.On("GetByID", suite.ctx, suite.clinicID).Return(suite.clinic(), nil)
	suite.userRepo.On("GetByEmail", suite.ctx, "new.doctor@x.com").Return(nil, nil)
	suite.invitationRepo.On("Create", suite.ctx, mock.AnythingOfType("*models.Invitation")).Return(nil)
	suite.notifier.On("Dispatch", suite.clinicID, mock.AnythingOfType("*models.Notification")).Return()

	before := time.Now()
	invitation, err := suite.service.Create(suite.ctx, &CreateInvitationRequest{
		ClinicID:  suite.clinicID,
		InvitedBy: suite.inviterID,
		Email:     "New.Doctor@X.com",
		Role:      models.RoleDoctor,
	})

	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), "new.doctor@x.com", invitation.Email)
	assert.Equal(suite.T(), models.InvitationPending, invitation.Status)
	assert.Equal(suite.T(), "Sunrise Clinic", invitation.ClinicName)
	assert.WithinDuration(suite.T(), before.Add(14*24*time.Hour), invitation.ExpiresAt, time.Minute)
}

func (suite *InvitationServiceTestSuite) TestCreate_UnknownRole() {
	invitation, err := suite.service.Create(suite.ctx, &CreateInvitationRequest{
		ClinicID:  suite.clinicID,
		InvitedBy: suite.inviterID,
		Email:     "a@x.com",
		Role:      "wizard",
	})

	assert.Nil(suite.T(), invitation)
	assert.ErrorIs(suite.T(), err, ErrInvalidInput)
}

func (suite *InvitationServiceTestSuite) TestCreate_ExistingStaffEmail() {
	suite.clinicRepo.On("GetByID", suite.ctx, suite.clinicID).Return(suite.clinic(), nil)
	suite.userRepo.On("GetByEmail", suite.ctx, "taken@x.com").Return(&models.User{ID: uuid.New()}, nil)

	invitation, err := suite.service.Create(suite.ctx, &CreateInvitationRequest{
		ClinicID:  suite.clinicID,
		InvitedBy: suite.inviterID,
		Email:     "taken@x.com",
		Role:      models.RoleNurse,
	})

	assert.Nil(suite.T(), invitation)
	assert.ErrorIs(suite.T(), err, ErrInvalidInput)
	suite.invitationRepo.AssertNotCalled(suite.T(), "Create")
}

func (suite *InvitationServiceTestSuite) TestCancel_Pending() {
	invitationID := uuid.New()
	suite.invitationRepo.On("GetByID", suite.ctx, suite.clinicID, invitationID).Return(&models.Invitation{
		ID:       invitationID,
		ClinicID: suite.clinicID,
		Status:   models.InvitationPending,
	}, nil)
	suite.invitationRepo.On("UpdateStatus", suite.ctx, suite.clinicID, invitationID, models.InvitationCancelled).Return(nil)

	err := suite.service.Cancel(suite.ctx, suite.clinicID, invitationID)
	assert.NoError(suite.T(), err)
}

func (suite *InvitationServiceTestSuite) TestCancel_AlreadyCancelled() {
	invitationID := uuid.New()
	suite.invitationRepo.On("GetByID", suite.ctx, suite.clinicID, invitationID).Return(&models.Invitation{
		ID:       invitationID,
		ClinicID: suite.clinicID,
		Status:   models.InvitationCancelled,
	}, nil)

	err := suite.service.Cancel(suite.ctx, suite.clinicID, invitationID)
	assert.Error(suite.T(), err)
	suite.invitationRepo.AssertNotCalled(suite.T(), "UpdateStatus")
}

func (suite *InvitationServiceTestSuite) TestList_ClampsPagination() {
	suite.invitationRepo.On("ListByClinic", suite.ctx, suite.clinicID, 50, 0).Return([]*models.Invitation{}, nil)

	invitations, err := suite.service.List(suite.ctx, suite.clinicID, -5, -10)
	assert.NoError(suite.T(), err)
	assert.Empty(suite.T(), invitations)
}
