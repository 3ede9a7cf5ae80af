package services

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func signBody(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestCryptoPayCreateCharge(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/charges", r.URL.Path)
		assert.Equal(t, "test-api-key", r.Header.Get("X-CC-Api-Key"))

		var req CreateChargeRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, 120.50, req.Amount)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": map[string]interface{}{
				"id":         "charge-123",
				"status":     "NEW",
				"hosted_url": "https://commerce.example.com/charges/charge-123",
			},
		})
	}))
	defer server.Close()

	service := NewCryptoPayService("test-api-key", "whsec", server.URL)
	charge, err := service.CreateCharge(context.Background(), &CreateChargeRequest{
		Name:     "Consultation",
		Amount:   120.50,
		Currency: "USD",
	})

	assert.NoError(t, err)
	assert.Equal(t, "charge-123", charge.ID)
	assert.Equal(t, "https://commerce.example.com/charges/charge-123", charge.HostedURL)
}

func TestCryptoPayCreateCharge_ProviderError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	service := NewCryptoPayService("bad-key", "whsec", server.URL)
	charge, err := service.CreateCharge(context.Background(), &CreateChargeRequest{Amount: 10})

	assert.Nil(t, charge)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestCryptoPayVerifyWebhook(t *testing.T) {
	service := NewCryptoPayService("key", "whsec", "https://unused.example.com")

	body := []byte(`{"id":"evt-1","type":"charge:confirmed","charge_id":"charge-123"}`)

	event, err := service.VerifyWebhook(body, signBody("whsec", body))
	assert.NoError(t, err)
	assert.Equal(t, "charge:confirmed", event.Type)
	assert.Equal(t, "charge-123", event.ChargeID)
}

func TestCryptoPayVerifyWebhook_BadSignature(t *testing.T) {
	service := NewCryptoPayService("key", "whsec", "https://unused.example.com")

	body := []byte(`{"id":"evt-1","type":"charge:confirmed","charge_id":"charge-123"}`)

	event, err := service.VerifyWebhook(body, signBody("wrong-secret", body))
	assert.Nil(t, event)
	assert.Error(t, err)
}
