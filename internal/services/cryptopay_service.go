package services

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// CryptoPayService wraps the hosted crypto-payment provider's charge API.
// The provider's wire format is its own concern; this service only knows how
// to create charges and verify incoming webhook events.
type CryptoPayService interface {
	CreateCharge(ctx context.Context, req *CreateChargeRequest) (*ChargeResponse, error)
	GetCharge(ctx context.Context, chargeID string) (*ChargeResponse, error)
	// VerifyWebhook checks the HMAC signature on a raw webhook body and
	// decodes the event.
	VerifyWebhook(rawBody []byte, signature string) (*ChargeEvent, error)
}

type CreateChargeRequest struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
	Currency    string  `json:"currency"`
	ReferenceID string  `json:"reference_id"`
}

type ChargeResponse struct {
	ID         string    `json:"id"`
	Status     string    `json:"status"`
	HostedURL  string    `json:"hosted_url"`
	CreatedAt  time.Time `json:"created_at"`
	ExpiresAt  time.Time `json:"expires_at"`
}

type ChargeEvent struct {
	ID       string `json:"id"`
	Type     string `json:"type"` // charge:confirmed, charge:failed, charge:expired
	ChargeID string `json:"charge_id"`
}

type cryptoPayService struct {
	apiKey        string
	webhookSecret string
	baseURL       string
	httpClient    *http.Client
}

func NewCryptoPayService(apiKey, webhookSecret, baseURL string) CryptoPayService {
	return &cryptoPayService{
		apiKey:        apiKey,
		webhookSecret: webhookSecret,
		baseURL:       baseURL,
		httpClient:    &http.Client{Timeout: 30 * time.Second},
	}
}

func (s *cryptoPayService) CreateCharge(ctx context.Context, req *CreateChargeRequest) (*ChargeResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal charge request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/charges", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create charge request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-CC-Api-Key", s.apiKey)

	resp, err := s.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("charge request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("payment provider returned status %d", resp.StatusCode)
	}

	return decodeCharge(resp.Body)
}

func (s *cryptoPayService) GetCharge(ctx context.Context, chargeID string) (*ChargeResponse, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/charges/"+chargeID, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create charge lookup: %w", err)
	}
	httpReq.Header.Set("X-CC-Api-Key", s.apiKey)

	resp, err := s.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("charge lookup failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("payment provider returned status %d", resp.StatusCode)
	}

	return decodeCharge(resp.Body)
}

func (s *cryptoPayService) VerifyWebhook(rawBody []byte, signature string) (*ChargeEvent, error) {
	mac := hmac.New(sha256.New, []byte(s.webhookSecret))
	mac.Write(rawBody)
	expected := hex.EncodeToString(mac.Sum(nil))

	// Constant time comparison to prevent timing attacks.
	if !hmac.Equal([]byte(signature), []byte(expected)) {
		return nil, fmt.Errorf("invalid webhook signature")
	}

	var event ChargeEvent
	if err := json.Unmarshal(rawBody, &event); err != nil {
		return nil, fmt.Errorf("failed to decode webhook event: %w", err)
	}
	return &event, nil
}

func decodeCharge(r io.Reader) (*ChargeResponse, error) {
	var wrapper struct {
		Data ChargeResponse `json:"data"`
	}
	if err := json.NewDecoder(r).Decode(&wrapper); err != nil {
		return nil, fmt.Errorf("failed to decode charge response: %w", err)
	}
	return &wrapper.Data, nil
}
