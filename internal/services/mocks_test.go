package services

import (
	"context"
	"os"
	"testing"
	"time"

	"clinicore/internal/metrics"
	"clinicore/internal/models"
	"clinicore/internal/repositories"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

func TestMain(m *testing.M) {
	metrics.Init("clinicore_test")
	os.Exit(m.Run())
}

type MockInvitationRepository struct {
	mock.Mock
}

func (m *MockInvitationRepository) Create(ctx context.Context, invitation *models.Invitation) error {
	args := m.Called(ctx, invitation)
	return args.Error(0)
}

func (m *MockInvitationRepository) GetByID(ctx context.Context, clinicID, id uuid.UUID) (*models.Invitation, error) {
	args := m.Called(ctx, clinicID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Invitation), args.Error(1)
}

func (m *MockInvitationRepository) FindOldestPending(ctx context.Context, email string, now time.Time) (*models.Invitation, error) {
	args := m.Called(ctx, email, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Invitation), args.Error(1)
}

func (m *MockInvitationRepository) DeletePending(ctx context.Context, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockInvitationRepository) UpdateStatus(ctx context.Context, clinicID, id uuid.UUID, status string) error {
	args := m.Called(ctx, clinicID, id, status)
	return args.Error(0)
}

func (m *MockInvitationRepository) ListByClinic(ctx context.Context, clinicID uuid.UUID, limit, offset int) ([]*models.Invitation, error) {
	args := m.Called(ctx, clinicID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Invitation), args.Error(1)
}

func (m *MockInvitationRepository) ExpirePending(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockInvitationRepository) WithTx(tx repositories.DBTX) repositories.InvitationRepository {
	return m
}

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Upsert(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByID(ctx context.Context, clinicID, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, clinicID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByAuthID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) Update(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) Delete(ctx context.Context, clinicID, id uuid.UUID) error {
	args := m.Called(ctx, clinicID, id)
	return args.Error(0)
}

func (m *MockUserRepository) List(ctx context.Context, clinicID uuid.UUID, limit, offset int) ([]*models.User, error) {
	args := m.Called(ctx, clinicID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.User), args.Error(1)
}

func (m *MockUserRepository) WithTx(tx repositories.DBTX) repositories.UserRepository {
	return m
}

type MockClinicRepository struct {
	mock.Mock
}

func (m *MockClinicRepository) Create(ctx context.Context, clinic *models.Clinic) error {
	args := m.Called(ctx, clinic)
	return args.Error(0)
}

func (m *MockClinicRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Clinic, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Clinic), args.Error(1)
}

func (m *MockClinicRepository) Update(ctx context.Context, clinic *models.Clinic) error {
	args := m.Called(ctx, clinic)
	return args.Error(0)
}

func (m *MockClinicRepository) List(ctx context.Context, limit, offset int) ([]*models.Clinic, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Clinic), args.Error(1)
}

func (m *MockClinicRepository) WithTx(tx repositories.DBTX) repositories.ClinicRepository {
	return m
}

type MockNotifierService struct {
	mock.Mock
}

func (m *MockNotifierService) Dispatch(clinicID uuid.UUID, notification *models.Notification) {
	m.Called(clinicID, notification)
}

func (m *MockNotifierService) Send(ctx context.Context, clinicID uuid.UUID, notification *models.Notification) error {
	args := m.Called(ctx, clinicID, notification)
	return args.Error(0)
}

func (m *MockNotifierService) SetWebhookConfig(ctx context.Context, clinicID uuid.UUID, notificationType models.NotificationType, config *models.WebhookConfig) error {
	args := m.Called(ctx, clinicID, notificationType, config)
	return args.Error(0)
}

func (m *MockNotifierService) GetWebhookConfig(ctx context.Context, clinicID uuid.UUID, notificationType models.NotificationType) (*models.WebhookConfig, error) {
	args := m.Called(ctx, clinicID, notificationType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.WebhookConfig), args.Error(1)
}

func (m *MockNotifierService) DeleteWebhookConfig(ctx context.Context, clinicID uuid.UUID, notificationType models.NotificationType) error {
	args := m.Called(ctx, clinicID, notificationType)
	return args.Error(0)
}

type MockCacheService struct {
	mock.Mock
}

func (m *MockCacheService) GetClinic(ctx context.Context, clinicID uuid.UUID) (*models.Clinic, error) {
	args := m.Called(ctx, clinicID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Clinic), args.Error(1)
}

func (m *MockCacheService) SetClinic(ctx context.Context, clinic *models.Clinic, ttl time.Duration) error {
	args := m.Called(ctx, clinic, ttl)
	return args.Error(0)
}

func (m *MockCacheService) DeleteClinic(ctx context.Context, clinicID uuid.UUID) error {
	args := m.Called(ctx, clinicID)
	return args.Error(0)
}

func (m *MockCacheService) GetUser(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockCacheService) SetUser(ctx context.Context, user *models.User, ttl time.Duration) error {
	args := m.Called(ctx, user, ttl)
	return args.Error(0)
}

func (m *MockCacheService) DeleteUser(ctx context.Context, userID uuid.UUID) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *MockCacheService) IsRateLimited(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	args := m.Called(ctx, key, limit, window)
	return args.Bool(0), args.Error(1)
}

func (m *MockCacheService) SetString(ctx context.Context, key string, value string, ttl time.Duration) error {
	args := m.Called(ctx, key, value, ttl)
	return args.Error(0)
}

func (m *MockCacheService) GetString(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

func (m *MockCacheService) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}
