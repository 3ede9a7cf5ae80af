package services

import (
	"context"
	"errors"

	"clinicore/internal/common"
	"clinicore/internal/models"
	"clinicore/internal/repositories"

	"github.com/google/uuid"
)

type AuditLogsService interface {
	LogActivity(ctx context.Context, clinicID uuid.UUID, userID *uuid.UUID, action, entityType string, entityID *uuid.UUID, details *string) error
	ListByClinic(ctx context.Context, clinicID uuid.UUID, limit, offset int) ([]*models.AuditLog, error)
}

type auditLogsService struct {
	auditLogsRepo repositories.AuditLogsRepository
}

func NewAuditLogsService(auditLogsRepo repositories.AuditLogsRepository) AuditLogsService {
	return &auditLogsService{auditLogsRepo: auditLogsRepo}
}

func (s *auditLogsService) LogActivity(ctx context.Context, clinicID uuid.UUID, userID *uuid.UUID, action, entityType string, entityID *uuid.UUID, details *string) error {
	if action == "" {
		return errors.New("action is required")
	}
	if entityType == "" {
		return errors.New("entity_type is required")
	}

	entry := &models.AuditLog{
		ID:         uuid.New(),
		ClinicID:   clinicID,
		UserID:     userID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Details:    details,
	}
	return s.auditLogsRepo.Create(ctx, entry)
}

func (s *auditLogsService) ListByClinic(ctx context.Context, clinicID uuid.UUID, limit, offset int) ([]*models.AuditLog, error) {
	limit, offset = common.ValidatePaginationParams(limit, offset)
	return s.auditLogsRepo.ListByClinic(ctx, clinicID, limit, offset)
}
