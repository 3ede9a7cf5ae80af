package services

import (
	"context"
	"errors"
	"time"

	"clinicore/internal/caching"
	"clinicore/internal/common"
	"clinicore/internal/models"
	"clinicore/internal/repositories"

	"github.com/google/uuid"
)

var ErrScheduleConflict = errors.New("doctor already has an appointment in this slot")

type AppointmentService interface {
	Schedule(ctx context.Context, req *ScheduleAppointmentRequest) (*models.Appointment, error)
	GetByID(ctx context.Context, clinicID, id uuid.UUID) (*models.Appointment, error)
	UpdateStatus(ctx context.Context, clinicID, id uuid.UUID, status string) error
	Cancel(ctx context.Context, clinicID, id uuid.UUID) error
	ListByClinic(ctx context.Context, clinicID uuid.UUID, from, to time.Time, limit, offset int) ([]*models.Appointment, error)
	ListByDoctor(ctx context.Context, clinicID, doctorID uuid.UUID, from, to time.Time) ([]*models.Appointment, error)
}

type ScheduleAppointmentRequest struct {
	ClinicID  uuid.UUID
	PatientID uuid.UUID `json:"patient_id"`
	DoctorID  uuid.UUID `json:"doctor_id"`
	StartsAt  time.Time `json:"starts_at"`
	EndsAt    time.Time `json:"ends_at"`
	Reason    *string   `json:"reason"`
}

type appointmentService struct {
	appointmentRepo repositories.AppointmentRepository
	feed            *caching.Feed
}

func NewAppointmentService(appointmentRepo repositories.AppointmentRepository, feed *caching.Feed) AppointmentService {
	return &appointmentService{appointmentRepo: appointmentRepo, feed: feed}
}

func (s *appointmentService) Schedule(ctx context.Context, req *ScheduleAppointmentRequest) (*models.Appointment, error) {
	if req.PatientID == uuid.Nil || req.DoctorID == uuid.Nil {
		return nil, invalidInputf("patient_id and doctor_id are required")
	}
	if !req.EndsAt.After(req.StartsAt) {
		return nil, invalidInputf("ends_at must be after starts_at")
	}

	overlapping, err := s.appointmentRepo.CountOverlapping(ctx, req.ClinicID, req.DoctorID, req.StartsAt, req.EndsAt)
	if err != nil {
		return nil, err
	}
	if overlapping > 0 {
		return nil, ErrScheduleConflict
	}

	appointment := &models.Appointment{
		ID:        uuid.New(),
		ClinicID:  req.ClinicID,
		PatientID: req.PatientID,
		DoctorID:  req.DoctorID,
		StartsAt:  req.StartsAt,
		EndsAt:    req.EndsAt,
		Status:    models.AppointmentScheduled,
		Reason:    req.Reason,
	}

	if err := s.appointmentRepo.Create(ctx, appointment); err != nil {
		return nil, err
	}

	s.feed.Publish(ctx, caching.FeedEvent{
		Kind:      "appointment.created",
		EntityID:  appointment.ID,
		ClinicID:  appointment.ClinicID,
		Timestamp: time.Now(),
	})

	return appointment, nil
}

func (s *appointmentService) GetByID(ctx context.Context, clinicID, id uuid.UUID) (*models.Appointment, error) {
	return s.appointmentRepo.GetByID(ctx, clinicID, id)
}

func (s *appointmentService) UpdateStatus(ctx context.Context, clinicID, id uuid.UUID, status string) error {
	switch status {
	case models.AppointmentScheduled, models.AppointmentCompleted, models.AppointmentCancelled, models.AppointmentNoShow:
	default:
		return invalidInputf("unknown appointment status %q", status)
	}

	appointment, err := s.appointmentRepo.GetByID(ctx, clinicID, id)
	if err != nil {
		return err
	}
	if appointment == nil {
		return ErrNotFound
	}
	appointment.Status = status
	if err := s.appointmentRepo.Update(ctx, appointment); err != nil {
		return err
	}

	s.feed.Publish(ctx, caching.FeedEvent{
		Kind:      "appointment.updated",
		EntityID:  appointment.ID,
		ClinicID:  appointment.ClinicID,
		Timestamp: time.Now(),
	})
	return nil
}

func (s *appointmentService) Cancel(ctx context.Context, clinicID, id uuid.UUID) error {
	return s.UpdateStatus(ctx, clinicID, id, models.AppointmentCancelled)
}

func (s *appointmentService) ListByClinic(ctx context.Context, clinicID uuid.UUID, from, to time.Time, limit, offset int) ([]*models.Appointment, error) {
	limit, offset = common.ValidatePaginationParams(limit, offset)
	return s.appointmentRepo.ListByClinic(ctx, clinicID, from, to, limit, offset)
}

func (s *appointmentService) ListByDoctor(ctx context.Context, clinicID, doctorID uuid.UUID, from, to time.Time) ([]*models.Appointment, error) {
	return s.appointmentRepo.ListByDoctor(ctx, clinicID, doctorID, from, to)
}
