/**
 * @description
 * This file defines the core domain models for bank accounts within the 4Zee
 * verification service: the bank directory entry, the payout bank account as
 * the client sees it, and the outcome of a verify-and-save round-trip.
 *
 * @notes
 * - These internal models are decoupled from the platform API's wire
 *   representation, allowing our service to evolve independently.
 * - AccountName is always the server-resolved holder name; the client never
 *   supplies it.
 */
package domain

import "time"

// Bank is a single entry in the bank directory (name plus NIP code).
type Bank struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// BankAccount represents a payout bank account belonging to a user.
// Exactly one account in a user's list may have IsDefault set.
type BankAccount struct {
	ID            string    `json:"id"`
	AccountName   string    `json:"account_name"`
	AccountNumber string    `json:"account_number"`
	BankName      string    `json:"bank_name"`
	BankCode      string    `json:"bank_code"`
	IsDefault     bool      `json:"is_default"`
	IsVerified    bool      `json:"is_verified"`
	CreatedAt     time.Time `json:"created_at,omitempty"`
}

// VerificationOutcome is the canonical record returned by the platform after
// a successful verify-and-save call. AlreadyExists signals that the platform
// matched an account already on file instead of creating a new one.
type VerificationOutcome struct {
	Account       BankAccount `json:"account"`
	AlreadyExists bool        `json:"already_exists"`
}
