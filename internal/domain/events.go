/**
 * @description
 * Event payloads published to the verification_events exchange when a wizard
 * reaches its confirmed state. Downstream services (notifications, the admin
 * review queue) consume these.
 */
package domain

import "time"

// Routing keys for the verification_events topic exchange.
const (
	EventBankAccountVerified = "bank_account.verified"
	EventKycSubmitted        = "kyc.submitted"
)

// BankAccountVerifiedEvent is published after a bank-account wizard confirms.
type BankAccountVerifiedEvent struct {
	UserID        string    `json:"user_id"`
	AccountID     string    `json:"account_id"`
	BankName      string    `json:"bank_name"`
	BankCode      string    `json:"bank_code"`
	IsDefault     bool      `json:"is_default"`
	AlreadyExists bool      `json:"already_exists"`
	VerifiedAt    time.Time `json:"verified_at"`
}

// KycSubmittedEvent is published after a KYC batch is accepted for review.
// Only the document type goes on the wire; ID numbers stay off the bus.
type KycSubmittedEvent struct {
	UserID        string       `json:"user_id"`
	DocumentType  DocumentType `json:"document_type"`
	DocumentCount int          `json:"document_count"`
	SubmittedAt   time.Time    `json:"submitted_at"`
}
