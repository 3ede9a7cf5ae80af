package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"clinicore/internal/metrics"
	"clinicore/internal/models"
	"clinicore/internal/repositories"
	"clinicore/internal/services"

	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"
)

// Scheduler runs the recurring background jobs: sweeping expired
// invitations and sending the daily revenue digest.
type Scheduler struct {
	scheduler      gocron.Scheduler
	invitationRepo repositories.InvitationRepository
	clinicRepo     repositories.ClinicRepository
	paymentService services.PaymentService
	notifier       services.NotifierService
	logger         *zap.Logger
	jobs           map[string]gocron.Job
	mu             sync.RWMutex
}

func NewScheduler(
	invitationRepo repositories.InvitationRepository,
	clinicRepo repositories.ClinicRepository,
	paymentService services.PaymentService,
	notifier services.NotifierService,
	logger *zap.Logger,
) (*Scheduler, error) {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	s := &Scheduler{
		scheduler:      scheduler,
		invitationRepo: invitationRepo,
		clinicRepo:     clinicRepo,
		paymentService: paymentService,
		notifier:       notifier,
		logger:         logger,
		jobs:           make(map[string]gocron.Job),
	}

	if err := s.registerJobs(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Scheduler) Start() {
	s.logger.Info("starting background job scheduler")
	s.scheduler.Start()
}

func (s *Scheduler) Stop() error {
	s.logger.Info("stopping background job scheduler")
	return s.scheduler.Shutdown()
}

func (s *Scheduler) registerJobs() error {
	sweepJob, err := s.scheduler.NewJob(
		gocron.DurationJob(15*time.Minute),
		gocron.NewTask(s.sweepExpiredInvitations, context.Background()),
		gocron.WithName("invitation-expiry-sweep"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("failed to create invitation sweep job: %w", err)
	}
	s.jobs["invitation-sweep"] = sweepJob

	revenueJob, err := s.scheduler.NewJob(
		gocron.DailyJob(1, gocron.NewAtTimes(gocron.NewAtTime(6, 0, 0))),
		gocron.NewTask(s.sendRevenueDigests, context.Background()),
		gocron.WithName("daily-revenue-digest"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("failed to create revenue digest job: %w", err)
	}
	s.jobs["revenue-digest"] = revenueJob

	return nil
}

// sweepExpiredInvitations marks overdue pending invitations as expired so
// they stop appearing in clinic listings. Expired invitations are already
// unmatchable at signup; the sweep keeps the table tidy.
func (s *Scheduler) sweepExpiredInvitations(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	count, err := s.invitationRepo.ExpirePending(ctx, time.Now())
	if err != nil {
		s.logger.Error("invitation expiry sweep failed", zap.Error(err))
		return
	}
	if count > 0 {
		metrics.InvitationsExpiredTotal.Add(float64(count))
		s.logger.Info("swept expired invitations", zap.Int64("count", count))
	}
}

// sendRevenueDigests sends each clinic a summary of the last day's
// confirmed payments.
func (s *Scheduler) sendRevenueDigests(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	const pageSize = 100
	offset := 0
	for {
		clinics, err := s.clinicRepo.List(ctx, pageSize, offset)
		if err != nil {
			s.logger.Error("failed to list clinics for revenue digest", zap.Error(err))
			return
		}
		if len(clinics) == 0 {
			return
		}

		since := time.Now().AddDate(0, 0, -1)
		for _, clinic := range clinics {
			total, err := s.paymentService.RevenueSince(ctx, clinic.ID, since)
			if err != nil {
				s.logger.Warn("revenue digest skipped",
					zap.String("clinic_id", clinic.ID.String()),
					zap.Error(err))
				continue
			}
			if total == 0 {
				continue
			}

			s.notifier.Dispatch(clinic.ID, &models.Notification{
				Type:      models.NotificationTypeRevenueAlert,
				Subject:   "Daily revenue summary",
				Body:      fmt.Sprintf("Confirmed payments in the last 24 hours: %.2f", total),
				Data:      map[string]interface{}{"total": total},
				CreatedAt: time.Now(),
			})
		}

		if len(clinics) < pageSize {
			return
		}
		offset += pageSize
	}
}
