package services

import (
	"context"
	"fmt"
	"time"

	"clinicore/internal/caching"
	"clinicore/internal/common"
	"clinicore/internal/metrics"
	"clinicore/internal/models"
	"clinicore/internal/repositories"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PaymentService raises crypto charges for patient bills and applies the
// provider's webhook events back onto local payment records.
type PaymentService interface {
	CreateCharge(ctx context.Context, req *CreatePaymentRequest) (*PaymentWithCheckout, error)
	HandleChargeEvent(ctx context.Context, event *ChargeEvent) error
	GetByID(ctx context.Context, clinicID, paymentID uuid.UUID) (*models.Payment, error)
	ListByClinic(ctx context.Context, clinicID uuid.UUID, limit, offset int) ([]*models.Payment, error)
	// RevenueSince totals confirmed payments for the clinic from the given
	// time until now.
	RevenueSince(ctx context.Context, clinicID uuid.UUID, since time.Time) (float64, error)
}

type CreatePaymentRequest struct {
	ClinicID    uuid.UUID
	PatientID   uuid.UUID `json:"patient_id"`
	Amount      float64   `json:"amount"`
	Currency    string    `json:"currency"`
	Description string    `json:"description"`
}

type PaymentWithCheckout struct {
	Payment     *models.Payment `json:"payment"`
	CheckoutURL string          `json:"checkout_url"`
}

type paymentService struct {
	paymentRepo repositories.PaymentRepository
	provider    CryptoPayService
	notifier    NotifierService
	feed        *caching.Feed
	logger      *zap.Logger
}

func NewPaymentService(
	paymentRepo repositories.PaymentRepository,
	provider CryptoPayService,
	notifier NotifierService,
	feed *caching.Feed,
	logger *zap.Logger,
) PaymentService {
	return &paymentService{
		paymentRepo: paymentRepo,
		provider:    provider,
		notifier:    notifier,
		feed:        feed,
		logger:      logger,
	}
}

func (s *paymentService) CreateCharge(ctx context.Context, req *CreatePaymentRequest) (*PaymentWithCheckout, error) {
	if req.Amount <= 0 {
		return nil, invalidInputf("amount must be positive")
	}
	currency := req.Currency
	if currency == "" {
		currency = "USD"
	}

	payment := &models.Payment{
		ID:        uuid.New(),
		ClinicID:  req.ClinicID,
		PatientID: req.PatientID,
		Amount:    req.Amount,
		Currency:  currency,
		Status:    models.PaymentPending,
	}

	charge, err := s.provider.CreateCharge(ctx, &CreateChargeRequest{
		Name:        "Clinic bill",
		Description: req.Description,
		Amount:      req.Amount,
		Currency:    currency,
		ReferenceID: payment.ID.String(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create provider charge: %w", err)
	}

	payment.ProviderChargeID = &charge.ID
	if err := s.paymentRepo.Create(ctx, payment); err != nil {
		return nil, fmt.Errorf("failed to record payment: %w", err)
	}

	return &PaymentWithCheckout{Payment: payment, CheckoutURL: charge.HostedURL}, nil
}

func (s *paymentService) HandleChargeEvent(ctx context.Context, event *ChargeEvent) error {
	metrics.RecordChargeEvent(event.Type)

	payment, err := s.paymentRepo.GetByProviderChargeID(ctx, event.ChargeID)
	if err != nil {
		return fmt.Errorf("failed to look up payment for charge %s: %w", event.ChargeID, err)
	}
	if payment == nil {
		// Unknown charge; possibly raised outside this deployment. Ack and
		// move on so the provider stops retrying.
		s.logger.Warn("webhook for unknown charge", zap.String("charge_id", event.ChargeID))
		return nil
	}

	var status string
	var confirmedAt *time.Time
	switch event.Type {
	case "charge:confirmed":
		status = models.PaymentConfirmed
		now := time.Now()
		confirmedAt = &now
	case "charge:failed":
		status = models.PaymentFailed
	case "charge:expired":
		status = models.PaymentExpired
	default:
		return nil // ignore lifecycle events we don't track
	}

	if err := s.paymentRepo.UpdateStatus(ctx, payment.ID, status, confirmedAt); err != nil {
		return fmt.Errorf("failed to update payment status: %w", err)
	}

	if status == models.PaymentConfirmed {
		s.notifier.Dispatch(payment.ClinicID, &models.Notification{
			Type:    models.NotificationTypePaymentAlert,
			Subject: "Payment received",
			Body:    fmt.Sprintf("Payment of %.2f %s was confirmed.", payment.Amount, payment.Currency),
			Data: map[string]interface{}{
				"payment_id": payment.ID.String(),
				"amount":     payment.Amount,
				"currency":   payment.Currency,
			},
		})
		s.feed.Publish(ctx, caching.FeedEvent{
			Kind:      "payment.confirmed",
			EntityID:  payment.ID,
			ClinicID:  payment.ClinicID,
			Timestamp: time.Now(),
		})
	}

	return nil
}

func (s *paymentService) GetByID(ctx context.Context, clinicID, paymentID uuid.UUID) (*models.Payment, error) {
	return s.paymentRepo.GetByID(ctx, clinicID, paymentID)
}

func (s *paymentService) ListByClinic(ctx context.Context, clinicID uuid.UUID, limit, offset int) ([]*models.Payment, error) {
	limit, offset = common.ValidatePaginationParams(limit, offset)
	return s.paymentRepo.ListByClinic(ctx, clinicID, limit, offset)
}

func (s *paymentService) RevenueSince(ctx context.Context, clinicID uuid.UUID, since time.Time) (float64, error) {
	return s.paymentRepo.SumConfirmed(ctx, clinicID, since, time.Now())
}
