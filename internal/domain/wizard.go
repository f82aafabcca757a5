/**
 * @description
 * This file defines the wizard session model: the finite step sets for the
 * two verification flows (bank account, KYC), the session lifecycle states,
 * and the per-step input containers.
 *
 * @notes
 * - Steps are a closed enum per flow and are always dispatched over
 *   exhaustively; adding or removing a step is a compile-visible change.
 * - Sessions are ephemeral. They live in memory for the lifetime of the
 *   wizard and are discarded on cancel, confirm, or TTL expiry. They are
 *   never persisted.
 */
package domain

import "time"

// FlowKind selects which verification flow a wizard session runs.
type FlowKind string

const (
	FlowBankAccount FlowKind = "bank_account"
	FlowKyc         FlowKind = "kyc"
)

// Step is one named stage of a wizard flow.
type Step string

const (
	// Bank-account flow collection steps.
	StepSelectBank  Step = "select-bank"
	StepEnterNumber Step = "enter-number"

	// KYC flow collection steps.
	StepIDDetails       Step = "id-details"
	StepUploadDocuments Step = "upload-documents"
	StepReview          Step = "review"
)

// WizardState is the lifecycle state of a session.
type WizardState string

const (
	// StateCollecting means the session is gathering step inputs.
	StateCollecting WizardState = "collecting"
	// StateVerifying means the terminal network call is in flight.
	StateVerifying WizardState = "verifying"
	// StateConfirmed is terminal for the session; Reset starts a fresh one.
	StateConfirmed WizardState = "confirmed"
	// StateCancelled means the user exited before confirmation.
	StateCancelled WizardState = "cancelled"
)

// UploadSlot names a file position within the KYC upload step.
type UploadSlot string

const (
	// SlotPrimaryDocument is the required ID document upload.
	SlotPrimaryDocument UploadSlot = "primary_document"
	// SlotProofOfAddress is optional and never gates advancement.
	SlotProofOfAddress UploadSlot = "proof_of_address"
)

// UploadResult is the stable handle returned once a file is confirmed stored
// remotely. Both fields are required by the later submission call.
type UploadResult struct {
	URL      string `json:"url"`
	FileName string `json:"file_name"`
}

// StepInputs holds everything collected across a session's steps. Fields are
// editable by retreating to an earlier step; retreat never clears them.
type StepInputs struct {
	// Bank flow.
	Bank          *Bank  `json:"bank,omitempty"`
	AccountNumber string `json:"account_number,omitempty"`

	// KYC flow.
	DocumentType DocumentType                 `json:"document_type,omitempty"`
	IDNumber     string                       `json:"id_number,omitempty"`
	Uploads      map[UploadSlot]*UploadResult `json:"uploads,omitempty"`
}

// WizardSession is the ephemeral state of one running wizard.
type WizardSession struct {
	ID        string      `json:"id"`
	UserID    string      `json:"user_id"`
	Flow      FlowKind    `json:"flow"`
	State     WizardState `json:"state"`
	StepIndex int         `json:"step_index"`
	Inputs    StepInputs  `json:"inputs"`

	// Outcome is populated only after verification succeeds.
	Outcome *VerificationOutcome `json:"outcome,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FlowSteps returns the ordered collection steps for a flow. The bank flow's
// confirmation screen is the confirmed terminal state, not a collection step.
func FlowSteps(flow FlowKind) []Step {
	switch flow {
	case FlowBankAccount:
		return []Step{StepSelectBank, StepEnterNumber}
	case FlowKyc:
		return []Step{StepIDDetails, StepUploadDocuments, StepReview}
	}
	return nil
}

// CurrentStep resolves the session's step index against its flow order.
func (s *WizardSession) CurrentStep() Step {
	steps := FlowSteps(s.Flow)
	if s.StepIndex < 0 || s.StepIndex >= len(steps) {
		return ""
	}
	return steps[s.StepIndex]
}
