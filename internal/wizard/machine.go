/**
 * @description
 * This file implements the step state machine shared by the two verification
 * wizards (bank account, KYC): input sanitization, the per-step canProceed
 * gate, and the pure advance/retreat transitions.
 *
 * Key features:
 * - canProceed is dispatched over the closed step set exhaustively, so a new
 *   step cannot be added without a gate.
 * - Advance from the last collection step never transitions locally; it tells
 *   the caller to run the terminal verification round-trip instead. A failed
 *   round-trip therefore leaves the step and inputs untouched.
 * - Retreat from the first step cancels the session. Retreat never discards
 *   inputs already entered at later steps.
 *
 * @dependencies
 * - strings: For input sanitization.
 * - The service's internal domain package for session and error models.
 */
package wizard

import (
	"strings"

	"github.com/4zee/verification-service/internal/domain"
)

const (
	// AccountNumberLength is the NUBAN length; input is truncated here.
	AccountNumberLength = 10
	// MinIDNumberLength is the minimum sanitized ID number length.
	MinIDNumberLength = 5
)

// SanitizeAccountNumber strips non-digit characters and truncates the result
// at the NUBAN length, matching the as-typed behavior of the account field.
func SanitizeAccountNumber(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r < '0' || r > '9' {
			continue
		}
		b.WriteRune(r)
		if b.Len() == AccountNumberLength {
			break
		}
	}
	return b.String()
}

// SanitizeIDNumber strips every character outside [A-Za-z0-9-].
func SanitizeIDNumber(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		switch {
		case r >= '0' && r <= '9', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '-':
			b.WriteRune(r)
		}
	}
	return b.String()
}

// CanProceed checks the current step's gate. It returns nil when every
// required input for the step is present and passes local format validation,
// and an input-kind error describing the first missing piece otherwise.
func CanProceed(s *domain.WizardSession) error {
	step := s.CurrentStep()
	switch step {
	case domain.StepSelectBank:
		return checkBankSelected(s)
	case domain.StepEnterNumber:
		return checkAccountNumber(s)
	case domain.StepIDDetails:
		return checkIDDetails(s)
	case domain.StepUploadDocuments:
		return checkPrimaryUpload(s)
	case domain.StepReview:
		// The review gate re-validates everything, not just the carry-over.
		if err := checkIDDetails(s); err != nil {
			return err
		}
		return checkPrimaryUpload(s)
	}
	return domain.NewError(domain.ErrInput, "Unknown wizard step.")
}

func checkBankSelected(s *domain.WizardSession) error {
	if s.Inputs.Bank == nil || s.Inputs.Bank.Code == "" {
		return domain.NewError(domain.ErrInput, "Select a bank to continue.")
	}
	return nil
}

func checkAccountNumber(s *domain.WizardSession) error {
	if len(s.Inputs.AccountNumber) != AccountNumberLength {
		return domain.NewError(domain.ErrInput, "Account number must be exactly 10 digits.")
	}
	return nil
}

func checkIDDetails(s *domain.WizardSession) error {
	if !domain.KnownDocumentType(s.Inputs.DocumentType) {
		return domain.NewError(domain.ErrInput, "Select a document type to continue.")
	}
	if len(SanitizeIDNumber(s.Inputs.IDNumber)) < MinIDNumberLength {
		return domain.NewError(domain.ErrInput, "ID number must be at least 5 characters.")
	}
	return nil
}

func checkPrimaryUpload(s *domain.WizardSession) error {
	// Proof of address is optional and never gates advancement.
	if s.Inputs.Uploads[domain.SlotPrimaryDocument] == nil {
		return domain.NewError(domain.ErrInput, "Upload your ID document to continue.")
	}
	return nil
}

// Advance applies a forward transition. When the session is on its last
// collection step it reports needsVerification instead of moving, leaving
// the state machine unchanged so a failed round-trip preserves the step.
// A failed gate is a no-op error; the step does not change.
func Advance(s *domain.WizardSession) (needsVerification bool, err error) {
	if err := CanProceed(s); err != nil {
		return false, err
	}
	if s.StepIndex == len(domain.FlowSteps(s.Flow))-1 {
		return true, nil
	}
	s.StepIndex++
	return false, nil
}

// Retreat moves back one step, preserving all inputs. From the first step it
// reports cancellation instead; the caller discards the session.
func Retreat(s *domain.WizardSession) (cancelled bool) {
	if s.StepIndex == 0 {
		return true
	}
	s.StepIndex--
	return false
}
