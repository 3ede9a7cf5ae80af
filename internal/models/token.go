package models

import "time"

// TokenResponse is the payload returned to clients after login, signup or
// refresh.
type TokenResponse struct {
	AccessToken  string    `json:"access_token"`
	TokenType    string    `json:"token_type"`
	ExpiresIn    int       `json:"expires_in"`
	RefreshToken string    `json:"refresh_token"`
	UserID       string    `json:"user_id"`
	ClinicID     string    `json:"clinic_id"`
	IssuedAt     time.Time `json:"issued_at"`
}
