/**
 * @description
 * This file contains the core business logic for the verification service,
 * implemented as a `VerificationService`. It orchestrates the wizard state
 * machine, the upload adapter, the platform verification client, and the
 * optimistic reconciliation of each user's bank-account list.
 *
 * @notes
 * - This service layer keeps the API handlers (controllers) thin and focused
 *   on HTTP concerns, while the wizard semantics remain independent.
 * - Session lifecycle: collecting -> verifying -> confirmed, with cancel
 *   from any collecting step. A failed verification returns the session to
 *   collecting on the same step with all inputs intact.
 */
package app

import (
	"context"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/4zee/verification-service/internal/domain"
	"github.com/4zee/verification-service/internal/store"
	"github.com/4zee/verification-service/internal/wizard"
	"github.com/4zee/verification-service/pkg/storageclient"
)

const verificationEventsExchange = "verification_events"

// PlatformAPI is the slice of the 4Zee core platform the wizard consumes.
type PlatformAPI interface {
	VerifyAndSaveBankAccount(ctx context.Context, userID string, req domain.VerifyBankAccountRequest) (*domain.VerificationOutcome, error)
	SubmitKycDocuments(ctx context.Context, userID string, docs []domain.KycDocument) (domain.KycStatus, error)
	GetKycStatus(ctx context.Context, userID string) (domain.KycStatus, error)
	ListBanks(ctx context.Context) ([]domain.Bank, error)
	ListBankAccounts(ctx context.Context, userID string) ([]domain.BankAccount, error)
	SetDefaultBankAccount(ctx context.Context, userID, accountID string) error
	DeleteBankAccount(ctx context.Context, userID, accountID string) error
}

// Uploader stores files remotely and returns their stable handles.
type Uploader interface {
	Upload(ctx context.Context, category, fileName, contentType string, file io.Reader) (*domain.UploadResult, error)
}

// EventPublisher publishes events to the message broker.
type EventPublisher interface {
	Publish(ctx context.Context, exchange, routingKey string, body interface{}) error
}

// userAccounts is one user's locally held bank-account list between
// authoritative fetches. The wizard's optimistic updates land here; any
// completed full fetch replaces it wholesale (last-fetch-wins).
type userAccounts struct {
	mu       sync.Mutex
	accounts []domain.BankAccount
	loaded   bool
}

// VerificationService provides the wizard and list operations.
type VerificationService struct {
	platform  PlatformAPI
	uploader  Uploader
	publisher EventPublisher
	bankRepo  store.BankRepository

	sessions   *sessionRegistry
	sessionTTL time.Duration

	listMu sync.Mutex
	lists  map[string]*userAccounts

	cacheWarmingMutex sync.Mutex // Prevents multiple cache warming operations
}

// NewVerificationService creates a new instance of VerificationService.
func NewVerificationService(platform PlatformAPI, uploader Uploader, publisher EventPublisher, bankRepo store.BankRepository, sessionTTL time.Duration) *VerificationService {
	return &VerificationService{
		platform:   platform,
		uploader:   uploader,
		publisher:  publisher,
		bankRepo:   bankRepo,
		sessions:   newSessionRegistry(),
		sessionTTL: sessionTTL,
		lists:      make(map[string]*userAccounts),
	}
}

// --- Wizard session lifecycle ---

// StartWizard opens a fresh session for the given flow.
func (s *VerificationService) StartWizard(ctx context.Context, userID string, flow domain.FlowKind) (*domain.WizardSession, error) {
	if len(domain.FlowSteps(flow)) == 0 {
		return nil, domain.NewError(domain.ErrInput, "Unknown wizard flow.")
	}

	now := time.Now()
	session := &domain.WizardSession{
		ID:        uuid.NewString(),
		UserID:    userID,
		Flow:      flow,
		State:     domain.StateCollecting,
		StepIndex: 0,
		Inputs:    domain.StepInputs{Uploads: make(map[domain.UploadSlot]*domain.UploadResult)},
		CreatedAt: now,
		UpdatedAt: now,
	}

	entry := s.sessions.add(session)
	entry.mu.Lock()
	defer entry.mu.Unlock()
	return entry.snapshot(), nil
}

// GetSession returns a snapshot of an open session.
func (s *VerificationService) GetSession(userID, sessionID string) (*domain.WizardSession, error) {
	entry, err := s.sessions.get(sessionID, userID)
	if err != nil {
		return nil, err
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	return entry.snapshot(), nil
}

// StepInput is a patch for the current step's collected data. Only the
// fields relevant to the step are read.
type StepInput struct {
	BankCode      string              `json:"bank_code"`
	AccountNumber string              `json:"account_number"`
	DocumentType  domain.DocumentType `json:"document_type"`
	IDNumber      string              `json:"id_number"`
}

// SetStepInput records input for the session's current step, applying the
// same sanitization the source fields apply as the user types.
func (s *VerificationService) SetStepInput(ctx context.Context, userID, sessionID string, input StepInput) (*domain.WizardSession, error) {
	entry, err := s.sessions.get(sessionID, userID)
	if err != nil {
		return nil, err
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	if err := s.requireCollecting(entry); err != nil {
		return nil, err
	}

	session := entry.session
	switch session.CurrentStep() {
	case domain.StepSelectBank:
		bank, err := s.resolveBank(ctx, input.BankCode)
		if err != nil {
			return nil, err
		}
		session.Inputs.Bank = bank
	case domain.StepEnterNumber:
		session.Inputs.AccountNumber = wizard.SanitizeAccountNumber(input.AccountNumber)
	case domain.StepIDDetails:
		if input.DocumentType != "" && !domain.KnownDocumentType(input.DocumentType) {
			return nil, domain.NewError(domain.ErrInput, "Unknown document type.")
		}
		if input.DocumentType != "" {
			session.Inputs.DocumentType = input.DocumentType
		}
		session.Inputs.IDNumber = wizard.SanitizeIDNumber(input.IDNumber)
	default:
		return nil, domain.NewError(domain.ErrInput, "The current step takes no text input.")
	}

	entry.touch()
	return entry.snapshot(), nil
}

// AttachUpload stores a file for a KYC upload slot and records the handle on
// the session. On failure the slot is left empty so the client never shows a
// ready state for a file that is not stored remotely.
func (s *VerificationService) AttachUpload(ctx context.Context, userID, sessionID string, slot domain.UploadSlot, fileName, contentType string, file io.Reader) (*domain.WizardSession, error) {
	if slot != domain.SlotPrimaryDocument && slot != domain.SlotProofOfAddress {
		return nil, domain.NewError(domain.ErrInput, "Unknown upload slot.")
	}

	entry, err := s.sessions.get(sessionID, userID)
	if err != nil {
		return nil, err
	}

	// Claim the slot under the lock; the upload itself runs outside it.
	entry.mu.Lock()
	if err := s.requireCollecting(entry); err != nil {
		entry.mu.Unlock()
		return nil, err
	}
	if entry.session.Flow != domain.FlowKyc || entry.session.CurrentStep() != domain.StepUploadDocuments {
		entry.mu.Unlock()
		return nil, domain.NewError(domain.ErrInput, "Uploads are only accepted at the document upload step.")
	}
	if entry.uploading[slot] {
		entry.mu.Unlock()
		return nil, domain.NewError(domain.ErrConflict, "An upload for this slot is already in progress.")
	}
	entry.uploading[slot] = true
	entry.mu.Unlock()

	result, uploadErr := s.uploader.Upload(ctx, storageclient.CategoryKycDocument, fileName, contentType, file)

	entry.mu.Lock()
	defer entry.mu.Unlock()
	entry.uploading[slot] = false

	if uploadErr != nil {
		// Roll back any previous handle for the slot; the user retries the
		// pick-and-upload action from scratch.
		delete(entry.session.Inputs.Uploads, slot)
		entry.touch()
		return nil, uploadErr
	}

	entry.session.Inputs.Uploads[slot] = result
	entry.touch()
	return entry.snapshot(), nil
}

// Advance moves the session forward. From the last collection step it runs
// the flow's terminal verification round-trip; on failure the session stays
// on the same step with inputs intact so retry is just advancing again.
func (s *VerificationService) Advance(ctx context.Context, userID, sessionID string) (*domain.WizardSession, error) {
	entry, err := s.sessions.get(sessionID, userID)
	if err != nil {
		return nil, err
	}

	entry.mu.Lock()
	if err := s.requireCollecting(entry); err != nil {
		entry.mu.Unlock()
		return nil, err
	}

	needsVerification, err := wizard.Advance(entry.session)
	if err != nil {
		entry.mu.Unlock()
		return nil, err
	}
	if !needsVerification {
		entry.touch()
		snap := entry.snapshot()
		entry.mu.Unlock()
		return snap, nil
	}

	// Terminal step: hold the verifying guard for the round-trip.
	entry.session.State = domain.StateVerifying
	entry.verifying = true
	flow := entry.session.Flow
	inputs := entry.session.Inputs
	entry.mu.Unlock()

	var outcome *domain.VerificationOutcome
	var verifyErr error
	switch flow {
	case domain.FlowBankAccount:
		outcome, verifyErr = s.verifyBankAccount(ctx, userID, inputs)
	case domain.FlowKyc:
		verifyErr = s.submitKyc(ctx, userID, inputs)
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	entry.verifying = false

	if verifyErr != nil {
		// Same step, same inputs; the error is surfaced and retry-eligible.
		entry.session.State = domain.StateCollecting
		entry.touch()
		return nil, verifyErr
	}

	entry.session.State = domain.StateConfirmed
	entry.session.Outcome = outcome
	entry.touch()

	if flow == domain.FlowBankAccount && outcome != nil {
		s.applyOutcome(userID, *outcome)
		s.publishEvent(domain.EventBankAccountVerified, domain.BankAccountVerifiedEvent{
			UserID:        userID,
			AccountID:     outcome.Account.ID,
			BankName:      outcome.Account.BankName,
			BankCode:      outcome.Account.BankCode,
			IsDefault:     outcome.Account.IsDefault,
			AlreadyExists: outcome.AlreadyExists,
			VerifiedAt:    time.Now(),
		})
		// Reconcile the optimistic update against the authoritative list.
		go s.refreshAccounts(context.Background(), userID)
	}
	if flow == domain.FlowKyc {
		s.publishEvent(domain.EventKycSubmitted, domain.KycSubmittedEvent{
			UserID:        userID,
			DocumentType:  inputs.DocumentType,
			DocumentCount: len(s.kycBatch(inputs)),
			SubmittedAt:   time.Now(),
		})
	}

	return entry.snapshot(), nil
}

// Retreat moves back one step keeping inputs; from the first step it cancels
// the session entirely.
func (s *VerificationService) Retreat(userID, sessionID string) (*domain.WizardSession, error) {
	entry, err := s.sessions.get(sessionID, userID)
	if err != nil {
		return nil, err
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	if err := s.requireCollecting(entry); err != nil {
		return nil, err
	}

	if cancelled := wizard.Retreat(entry.session); cancelled {
		entry.session.State = domain.StateCancelled
		snap := entry.snapshot()
		s.sessions.remove(sessionID)
		return snap, nil
	}

	entry.touch()
	return entry.snapshot(), nil
}

// Cancel discards the session. There is no compensating server-side action:
// nothing partial exists remotely before the terminal call. A cancel while
// verification is in flight is refused.
func (s *VerificationService) Cancel(userID, sessionID string) error {
	entry, err := s.sessions.get(sessionID, userID)
	if err != nil {
		return err
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	if entry.verifying {
		return domain.NewError(domain.ErrConflict, "Verification is in progress. Please wait for it to finish.")
	}

	entry.session.State = domain.StateCancelled
	s.sessions.remove(sessionID)
	return nil
}

// Reset reuses a confirmed (or still collecting) session for another run,
// e.g. "add another account" without leaving the screen.
func (s *VerificationService) Reset(userID, sessionID string) (*domain.WizardSession, error) {
	entry, err := s.sessions.get(sessionID, userID)
	if err != nil {
		return nil, err
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	if entry.verifying {
		return nil, domain.NewError(domain.ErrConflict, "Verification is in progress. Please wait for it to finish.")
	}

	entry.session.State = domain.StateCollecting
	entry.session.StepIndex = 0
	entry.session.Inputs = domain.StepInputs{Uploads: make(map[domain.UploadSlot]*domain.UploadResult)}
	entry.session.Outcome = nil
	entry.touch()
	return entry.snapshot(), nil
}

// SweepSessions discards sessions idle past the configured TTL.
func (s *VerificationService) SweepSessions() {
	s.sessions.sweep(s.sessionTTL)
}

// requireCollecting rejects mutations while the session is not collecting.
// Callers must hold the entry lock.
func (s *VerificationService) requireCollecting(entry *sessionEntry) error {
	switch entry.session.State {
	case domain.StateCollecting:
		return nil
	case domain.StateVerifying:
		return domain.NewError(domain.ErrConflict, "Verification is in progress. Please wait for it to finish.")
	default:
		return domain.NewError(domain.ErrConflict, "This wizard session has ended. Start a new one.")
	}
}

// --- Terminal round-trips ---

func (s *VerificationService) verifyBankAccount(ctx context.Context, userID string, inputs domain.StepInputs) (*domain.VerificationOutcome, error) {
	req := domain.VerifyBankAccountRequest{
		AccountNumber: inputs.AccountNumber,
		BankCode:      inputs.Bank.Code,
		BankName:      inputs.Bank.Name,
	}
	outcome, err := s.platform.VerifyAndSaveBankAccount(ctx, userID, req)
	if err != nil {
		return nil, err
	}
	return outcome, nil
}

func (s *VerificationService) submitKyc(ctx context.Context, userID string, inputs domain.StepInputs) error {
	_, err := s.platform.SubmitKycDocuments(ctx, userID, s.kycBatch(inputs))
	return err
}

// kycBatch assembles the document records for the atomic submission call.
// The optional proof of address rides along when present.
func (s *VerificationService) kycBatch(inputs domain.StepInputs) []domain.KycDocument {
	docs := make([]domain.KycDocument, 0, 2)
	if primary := inputs.Uploads[domain.SlotPrimaryDocument]; primary != nil {
		docs = append(docs, domain.KycDocument{
			Type:     inputs.DocumentType,
			IDNumber: inputs.IDNumber,
			FileURL:  primary.URL,
			FileName: primary.FileName,
		})
	}
	if proof := inputs.Uploads[domain.SlotProofOfAddress]; proof != nil {
		docs = append(docs, domain.KycDocument{
			Type:     domain.DocumentTypeProofOfAddress,
			IDNumber: inputs.IDNumber,
			FileURL:  proof.URL,
			FileName: proof.FileName,
		})
	}
	return docs
}

func (s *VerificationService) publishEvent(routingKey string, body interface{}) {
	if s.publisher == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.publisher.Publish(ctx, verificationEventsExchange, routingKey, body); err != nil {
		// The platform record is the source of truth; a lost event is
		// recoverable downstream, so the wizard outcome stands.
		log.Printf("Warning: failed to publish %s event: %v", routingKey, err)
	}
}

// --- Bank-account list state ---

func (s *VerificationService) userList(userID string) *userAccounts {
	s.listMu.Lock()
	defer s.listMu.Unlock()
	list, ok := s.lists[userID]
	if !ok {
		list = &userAccounts{}
		s.lists[userID] = list
	}
	return list
}

// applyOutcome merges a verification outcome into the user's list
// optimistically, ahead of the authoritative refetch.
func (s *VerificationService) applyOutcome(userID string, outcome domain.VerificationOutcome) {
	list := s.userList(userID)
	list.mu.Lock()
	defer list.mu.Unlock()
	list.accounts = wizard.Reconcile(list.accounts, outcome)
	list.loaded = true
}

// refreshAccounts replaces the local list with the authoritative one. A
// failed fetch preserves the existing list rather than clearing it.
func (s *VerificationService) refreshAccounts(ctx context.Context, userID string) ([]domain.BankAccount, error) {
	accounts, err := s.platform.ListBankAccounts(ctx, userID)
	list := s.userList(userID)
	list.mu.Lock()
	defer list.mu.Unlock()

	if err != nil {
		if list.loaded {
			log.Printf("Warning: account list refresh failed for user %s, keeping local list: %v", userID, err)
			copied := make([]domain.BankAccount, len(list.accounts))
			copy(copied, list.accounts)
			return copied, nil
		}
		return nil, err
	}

	list.accounts = accounts
	list.loaded = true
	copied := make([]domain.BankAccount, len(accounts))
	copy(copied, accounts)
	return copied, nil
}

// GetBankAccounts returns the user's account list, fetching the
// authoritative state from the platform.
func (s *VerificationService) GetBankAccounts(ctx context.Context, userID string) ([]domain.BankAccount, error) {
	return s.refreshAccounts(ctx, userID)
}

// SetDefaultBankAccount makes accountID the payout default: remote call
// first, then the local exclusive-default swap.
func (s *VerificationService) SetDefaultBankAccount(ctx context.Context, userID, accountID string) error {
	if err := s.platform.SetDefaultBankAccount(ctx, userID, accountID); err != nil {
		return err
	}

	list := s.userList(userID)
	list.mu.Lock()
	defer list.mu.Unlock()
	list.accounts = wizard.SetDefault(list.accounts, accountID)
	return nil
}

// DeleteBankAccount removes an account. Deleting the current default is
// refused locally before any round-trip; it is a known-invalid operation.
func (s *VerificationService) DeleteBankAccount(ctx context.Context, userID, accountID string) error {
	list := s.userList(userID)

	list.mu.Lock()
	loaded := list.loaded
	list.mu.Unlock()
	if !loaded {
		if _, err := s.refreshAccounts(ctx, userID); err != nil {
			return err
		}
	}

	list.mu.Lock()
	for _, acc := range list.accounts {
		if acc.ID == accountID && acc.IsDefault {
			list.mu.Unlock()
			return domain.NewError(domain.ErrInput, "You cannot delete your default payout account. Set another account as default first.")
		}
	}
	list.mu.Unlock()

	if err := s.platform.DeleteBankAccount(ctx, userID, accountID); err != nil {
		return err
	}

	list.mu.Lock()
	defer list.mu.Unlock()
	list.accounts = wizard.Remove(list.accounts, accountID)
	return nil
}

// GetKycStatus reports the review state of the user's submission.
func (s *VerificationService) GetKycStatus(ctx context.Context, userID string) (domain.KycStatus, error) {
	return s.platform.GetKycStatus(ctx, userID)
}

// --- Bank directory ---

// resolveBank validates a bank code against the directory so the session
// always carries the directory's name for it.
func (s *VerificationService) resolveBank(ctx context.Context, code string) (*domain.Bank, error) {
	if code == "" {
		return nil, domain.NewError(domain.ErrInput, "Select a bank to continue.")
	}
	banks, err := s.ListBanks(ctx)
	if err != nil {
		return nil, err
	}
	for _, bank := range banks {
		if bank.Code == code {
			b := bank
			return &b, nil
		}
	}
	return nil, domain.NewError(domain.ErrInput, "Unknown bank selection.")
}

// ListBanks retrieves the bank directory, serving from the Postgres cache
// when possible and warming it in the background as it nears expiry.
func (s *VerificationService) ListBanks(ctx context.Context) ([]domain.Bank, error) {
	if s.bankRepo != nil {
		cached, err := s.bankRepo.GetCachedBanks(ctx)
		if err == nil && len(cached) > 0 {
			go s.checkAndWarmCache()
			return cached, nil
		}
	}

	banks, err := s.platform.ListBanks(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch bank directory: %w", err)
	}

	if s.bankRepo != nil {
		go func() {
			cacheCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if cacheErr := s.bankRepo.CacheBanks(cacheCtx, banks); cacheErr != nil {
				log.Printf("Warning: failed to cache banks: %v", cacheErr)
			}
		}()
	}

	return banks, nil
}

// ClearExpiredBankCache removes lapsed directory snapshots. Wired to the
// periodic scheduler.
func (s *VerificationService) ClearExpiredBankCache(ctx context.Context) error {
	if s.bankRepo == nil {
		return nil
	}
	return s.bankRepo.ClearExpiredBanks(ctx)
}

// checkAndWarmCache refreshes the cache in the background when it is close
// to expiring, so wizard opens rarely pay the directory fetch.
func (s *VerificationService) checkAndWarmCache() {
	if s.bankRepo == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	expiringSoon, err := s.bankRepo.IsCacheExpiringSoon(ctx, time.Hour)
	if err != nil || !expiringSoon {
		return
	}

	if !s.cacheWarmingMutex.TryLock() {
		return
	}
	defer s.cacheWarmingMutex.Unlock()

	banks, err := s.platform.ListBanks(ctx)
	if err != nil {
		log.Printf("Warning: failed to warm bank cache: %v", err)
		return
	}
	if len(banks) == 0 {
		log.Printf("Warning: received empty bank directory while warming cache")
		return
	}

	if err := s.bankRepo.CacheBanks(ctx, banks); err != nil {
		log.Printf("Warning: failed to store warmed bank cache: %v", err)
		return
	}
	log.Printf("Warmed bank cache with %d banks", len(banks))
}
