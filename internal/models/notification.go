package models

import "time"

type NotificationType string

const (
	NotificationTypeInvitation   NotificationType = "invitation"
	NotificationTypePaymentAlert NotificationType = "payment_alert"
	NotificationTypeRevenueAlert NotificationType = "revenue_alert"
)

// Notification is a single outbound event handed to the dispatcher. Delivery
// is best-effort: primary channel is the tenant's configured webhook, with a
// fallback to the direct-message API.
type Notification struct {
	Type      NotificationType       `json:"type"`
	Recipient string                 `json:"recipient,omitempty"`
	Subject   string                 `json:"subject"`
	Body      string                 `json:"body"`
	Data      map[string]interface{} `json:"data,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
}

// WebhookConfig is the per-tenant, per-type webhook endpoint registration.
type WebhookConfig struct {
	URL       string    `json:"url"`
	IsActive  bool      `json:"is_active"`
	UpdatedAt time.Time `json:"updated_at"`
}
