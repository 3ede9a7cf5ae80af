package services

import (
	"context"
	"strings"
	"time"

	"clinicore/internal/common"
	"clinicore/internal/models"
	"clinicore/internal/repositories"

	"github.com/google/uuid"
)

type PatientService interface {
	Create(ctx context.Context, req *CreatePatientRequest) (*models.Patient, error)
	GetByID(ctx context.Context, clinicID, id uuid.UUID) (*models.Patient, error)
	Update(ctx context.Context, patient *models.Patient) error
	Delete(ctx context.Context, clinicID, id uuid.UUID) error
	List(ctx context.Context, clinicID uuid.UUID, limit, offset int) ([]*models.Patient, error)
	Search(ctx context.Context, clinicID uuid.UUID, query string, limit, offset int) ([]*models.Patient, error)
}

type CreatePatientRequest struct {
	ClinicID    uuid.UUID
	FirstName   string  `json:"first_name" validate:"required"`
	LastName    string  `json:"last_name" validate:"required"`
	Email       *string `json:"email"`
	Phone       *string `json:"phone"`
	DateOfBirth *string `json:"date_of_birth"` // YYYY-MM-DD
	Notes       *string `json:"notes"`
}

type patientService struct {
	patientRepo repositories.PatientRepository
}

func NewPatientService(patientRepo repositories.PatientRepository) PatientService {
	return &patientService{patientRepo: patientRepo}
}

func (s *patientService) Create(ctx context.Context, req *CreatePatientRequest) (*models.Patient, error) {
	if err := common.ValidateRequiredString(req.FirstName, "first_name"); err != nil {
		return nil, invalidInputf("%v", err)
	}
	if err := common.ValidateRequiredString(req.LastName, "last_name"); err != nil {
		return nil, invalidInputf("%v", err)
	}

	patient := &models.Patient{
		ID:        uuid.New(),
		ClinicID:  req.ClinicID,
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
		Email:     req.Email,
		Phone:     req.Phone,
		Notes:     req.Notes,
	}

	if req.DateOfBirth != nil && *req.DateOfBirth != "" {
		dob, err := parseDate(*req.DateOfBirth)
		if err != nil {
			return nil, invalidInputf("date_of_birth must be in YYYY-MM-DD format")
		}
		patient.DateOfBirth = &dob
	}

	if err := s.patientRepo.Create(ctx, patient); err != nil {
		return nil, err
	}
	return patient, nil
}

func (s *patientService) GetByID(ctx context.Context, clinicID, id uuid.UUID) (*models.Patient, error) {
	return s.patientRepo.GetByID(ctx, clinicID, id)
}

func (s *patientService) Update(ctx context.Context, patient *models.Patient) error {
	if err := common.ValidateRequiredString(patient.FirstName, "first_name"); err != nil {
		return invalidInputf("%v", err)
	}
	if err := common.ValidateRequiredString(patient.LastName, "last_name"); err != nil {
		return invalidInputf("%v", err)
	}
	return s.patientRepo.Update(ctx, patient)
}

func (s *patientService) Delete(ctx context.Context, clinicID, id uuid.UUID) error {
	return s.patientRepo.Delete(ctx, clinicID, id)
}

func (s *patientService) List(ctx context.Context, clinicID uuid.UUID, limit, offset int) ([]*models.Patient, error) {
	limit, offset = common.ValidatePaginationParams(limit, offset)
	return s.patientRepo.List(ctx, clinicID, limit, offset)
}

func (s *patientService) Search(ctx context.Context, clinicID uuid.UUID, query string, limit, offset int) ([]*models.Patient, error) {
	limit, offset = common.ValidatePaginationParams(limit, offset)
	return s.patientRepo.Search(ctx, clinicID, strings.TrimSpace(query), limit, offset)
}

func parseDate(value string) (time.Time, error) {
	return time.Parse("2006-01-02", value)
}
