package core

import (
	"strings"
	"time"
)

// KYCStatus is the verification state of a user.
type KYCStatus string

const (
	KYCPending  KYCStatus = "pending"
	KYCApproved KYCStatus = "approved"
	KYCRejected KYCStatus = "rejected"
)

// Session binds an opaque session identifier to an authenticated wallet
type Session struct {
	ID            string    // Opaque identifier carried by the session cookie
	WalletAddress string    // Lower-cased hex wallet address
	CreatedAt     time.Time // When the session was issued
	ExpiresAt     time.Time // After this instant the session no longer resolves
}

// Expired reports whether the session is no longer valid at t.
func (s Session) Expired(t time.Time) bool {
	return !t.Before(s.ExpiresAt)
}

// Identity is the resolved caller of an authenticated request.
type Identity struct {
	SessionID     string
	WalletAddress string
}

// User is the onboarding record kept for every wallet.
type User struct {
	WalletAddress       string    `json:"walletAddress"`
	KYCStatus           KYCStatus `json:"kycStatus"`
	OnboardingCompleted bool      `json:"onboardingCompleted"`
	CreatedAt           time.Time `json:"createdAt"`
	UpdatedAt           time.Time `json:"updatedAt"`
}

// KYCForm is the mock identity form submitted during onboarding.
type KYCForm struct {
	Name    string `json:"name" binding:"required"`
	Email   string `json:"email" binding:"required,email"`
	Country string `json:"country" binding:"required"`
}

// Validate returns a field -> reason map of problems, nil when the form is valid.
func (f KYCForm) Validate() map[string]any {
	return FieldIssues(validate.Struct(f))
}

// NormalizeAddress validates a hex wallet address and returns it lower-cased.
func NormalizeAddress(address string) (string, error) {
	if err := validate.Var(address, "required,eth_addr"); err != nil {
		return "", ErrInvalidAddress
	}
	return strings.ToLower(address), nil
}
