package services

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"clinicore/internal/caching"
	"clinicore/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// NotifierService delivers notifications for a clinic. Primary channel is
// the clinic's configured webhook endpoint for the notification type; when
// none is configured or the POST fails, delivery falls back to the direct
// message API. Both paths are best-effort: Dispatch never blocks the caller
// on delivery.
type NotifierService interface {
	// Dispatch sends the notification asynchronously.
	Dispatch(clinicID uuid.UUID, notification *models.Notification)
	// Send performs one synchronous delivery attempt with fallback.
	Send(ctx context.Context, clinicID uuid.UUID, notification *models.Notification) error

	SetWebhookConfig(ctx context.Context, clinicID uuid.UUID, notificationType models.NotificationType, config *models.WebhookConfig) error
	GetWebhookConfig(ctx context.Context, clinicID uuid.UUID, notificationType models.NotificationType) (*models.WebhookConfig, error)
	DeleteWebhookConfig(ctx context.Context, clinicID uuid.UUID, notificationType models.NotificationType) error
}

// NotifierConfig carries the dispatcher's own settings: the webhook signing
// secret and the direct-message fallback endpoint.
type NotifierConfig struct {
	WebhookSecret string
	DirectAPIURL  string
	DirectAPIKey  string
	Timeout       time.Duration
}

type notifierService struct {
	cacheSvc   caching.CacheService
	httpClient *http.Client
	config     NotifierConfig
	logger     *zap.Logger
}

func NewNotifierService(cacheSvc caching.CacheService, config NotifierConfig, logger *zap.Logger) NotifierService {
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &notifierService{
		cacheSvc:   cacheSvc,
		httpClient: &http.Client{Timeout: timeout},
		config:     config,
		logger:     logger,
	}
}

func (s *notifierService) Dispatch(clinicID uuid.UUID, notification *models.Notification) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := s.Send(ctx, clinicID, notification); err != nil {
			s.logger.Warn("notification delivery failed",
				zap.String("clinic_id", clinicID.String()),
				zap.String("type", string(notification.Type)),
				zap.Error(err),
			)
		}
	}()
}

func (s *notifierService) Send(ctx context.Context, clinicID uuid.UUID, notification *models.Notification) error {
	if notification.CreatedAt.IsZero() {
		notification.CreatedAt = time.Now()
	}

	config, err := s.GetWebhookConfig(ctx, clinicID, notification.Type)
	if err == nil && config != nil && config.IsActive {
		if err := s.sendWebhook(ctx, clinicID, config.URL, notification); err == nil {
			return nil
		} else {
			s.logger.Warn("webhook delivery failed, falling back to direct API",
				zap.String("clinic_id", clinicID.String()),
				zap.Error(err),
			)
		}
	}

	return s.sendDirect(ctx, clinicID, notification)
}

func (s *notifierService) sendWebhook(ctx context.Context, clinicID uuid.UUID, url string, notification *models.Notification) error {
	payload := map[string]interface{}{
		"type":      notification.Type,
		"clinic_id": clinicID.String(),
		"subject":   notification.Subject,
		"body":      notification.Body,
		"data":      notification.Data,
		"timestamp": notification.CreatedAt,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Clinicore-Signature", signPayload(s.config.WebhookSecret, body))

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("webhook request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}

// sendDirect pushes through the tightly coupled direct-message API, the
// fallback for clinics without a reachable webhook.
func (s *notifierService) sendDirect(ctx context.Context, clinicID uuid.UUID, notification *models.Notification) error {
	if s.config.DirectAPIURL == "" {
		return fmt.Errorf("no webhook configured and no direct API available")
	}

	payload := map[string]interface{}{
		"clinic_id": clinicID.String(),
		"recipient": notification.Recipient,
		"subject":   notification.Subject,
		"body":      notification.Body,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal direct message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.config.DirectAPIURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create direct message request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.config.DirectAPIKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("direct message request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("direct message API returned status %d", resp.StatusCode)
	}
	return nil
}

func (s *notifierService) SetWebhookConfig(ctx context.Context, clinicID uuid.UUID, notificationType models.NotificationType, config *models.WebhookConfig) error {
	config.UpdatedAt = time.Now()
	data, err := json.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal webhook config: %w", err)
	}
	return s.cacheSvc.SetString(ctx, webhookConfigKey(clinicID, notificationType), string(data), 0)
}

func (s *notifierService) GetWebhookConfig(ctx context.Context, clinicID uuid.UUID, notificationType models.NotificationType) (*models.WebhookConfig, error) {
	data, err := s.cacheSvc.GetString(ctx, webhookConfigKey(clinicID, notificationType))
	if err != nil {
		return nil, fmt.Errorf("webhook config not found")
	}

	var config models.WebhookConfig
	if err := json.Unmarshal([]byte(data), &config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal webhook config: %w", err)
	}
	return &config, nil
}

func (s *notifierService) DeleteWebhookConfig(ctx context.Context, clinicID uuid.UUID, notificationType models.NotificationType) error {
	return s.cacheSvc.Delete(ctx, webhookConfigKey(clinicID, notificationType))
}

func webhookConfigKey(clinicID uuid.UUID, notificationType models.NotificationType) string {
	return fmt.Sprintf("webhook_config:%s:%s", clinicID.String(), notificationType)
}

func signPayload(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
