package app

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/4zee/verification-service/internal/domain"
)

// fakePlatform is a hand-rolled PlatformAPI for orchestration tests.
type fakePlatform struct {
	mu sync.Mutex

	banks    []domain.Bank
	accounts []domain.BankAccount
	listErr  error

	verifyOutcome *domain.VerificationOutcome
	verifyErr     error
	verifyCalls   int
	verifyStarted chan struct{}
	verifyRelease chan struct{}

	submitted [][]domain.KycDocument
	submitErr error

	deleteCalls     int
	deleteErr       error
	setDefaultCalls int
	setDefaultErr   error

	kycStatus domain.KycStatus
}

func (f *fakePlatform) VerifyAndSaveBankAccount(ctx context.Context, userID string, req domain.VerifyBankAccountRequest) (*domain.VerificationOutcome, error) {
	f.mu.Lock()
	f.verifyCalls++
	started := f.verifyStarted
	release := f.verifyRelease
	outcome, err := f.verifyOutcome, f.verifyErr
	f.mu.Unlock()

	if started != nil {
		started <- struct{}{}
	}
	if release != nil {
		<-release
	}
	return outcome, err
}

func (f *fakePlatform) SubmitKycDocuments(ctx context.Context, userID string, docs []domain.KycDocument) (domain.KycStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.submitErr != nil {
		return "", f.submitErr
	}
	f.submitted = append(f.submitted, docs)
	return domain.KycStatusPending, nil
}

func (f *fakePlatform) GetKycStatus(ctx context.Context, userID string) (domain.KycStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.kycStatus, nil
}

func (f *fakePlatform) ListBanks(ctx context.Context) ([]domain.Bank, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.banks, nil
}

func (f *fakePlatform) ListBankAccounts(ctx context.Context, userID string) ([]domain.BankAccount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]domain.BankAccount, len(f.accounts))
	copy(out, f.accounts)
	return out, nil
}

func (f *fakePlatform) SetDefaultBankAccount(ctx context.Context, userID, accountID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.setDefaultCalls++
	return f.setDefaultErr
}

func (f *fakePlatform) DeleteBankAccount(ctx context.Context, userID, accountID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleteCalls++
	return f.deleteErr
}

// fakeUploader returns a canned result or error.
type fakeUploader struct {
	mu     sync.Mutex
	result *domain.UploadResult
	err    error
	calls  int
}

func (f *fakeUploader) Upload(ctx context.Context, category, fileName, contentType string, file io.Reader) (*domain.UploadResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

// fakePublisher records published routing keys.
type fakePublisher struct {
	mu   sync.Mutex
	keys []string
}

func (f *fakePublisher) Publish(ctx context.Context, exchange, routingKey string, body interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.keys = append(f.keys, routingKey)
	return nil
}

func (f *fakePublisher) published() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.keys))
	copy(out, f.keys)
	return out
}

func zenithDirectory() []domain.Bank {
	return []domain.Bank{
		{Code: "044", Name: "Access Bank"},
		{Code: "057", Name: "Zenith Bank"},
	}
}

func newTestService(platform *fakePlatform, uploader *fakeUploader, publisher *fakePublisher) *VerificationService {
	var pub EventPublisher
	if publisher != nil {
		pub = publisher
	}
	var up Uploader
	if uploader != nil {
		up = uploader
	}
	return NewVerificationService(platform, up, pub, nil, 30*time.Minute)
}

func TestBankWizardEndToEnd(t *testing.T) {
	outcome := &domain.VerificationOutcome{
		Account: domain.BankAccount{
			ID:            "acc1",
			AccountName:   "JOHN DOE",
			AccountNumber: "0123456789",
			BankName:      "Zenith Bank",
			BankCode:      "057",
			IsDefault:     true,
			IsVerified:    true,
		},
	}
	platform := &fakePlatform{
		banks:         zenithDirectory(),
		verifyOutcome: outcome,
		accounts:      []domain.BankAccount{outcome.Account},
	}
	publisher := &fakePublisher{}
	svc := newTestService(platform, nil, publisher)
	ctx := context.Background()

	session, err := svc.StartWizard(ctx, "user-1", domain.FlowBankAccount)
	if err != nil {
		t.Fatalf("unexpected error starting wizard: %v", err)
	}
	if session.CurrentStep() != domain.StepSelectBank {
		t.Fatalf("expected first step %q, got %q", domain.StepSelectBank, session.CurrentStep())
	}

	if _, err := svc.SetStepInput(ctx, "user-1", session.ID, StepInput{BankCode: "057"}); err != nil {
		t.Fatalf("unexpected error selecting bank: %v", err)
	}
	if _, err := svc.Advance(ctx, "user-1", session.ID); err != nil {
		t.Fatalf("unexpected error advancing to number entry: %v", err)
	}
	if _, err := svc.SetStepInput(ctx, "user-1", session.ID, StepInput{AccountNumber: "0123456789"}); err != nil {
		t.Fatalf("unexpected error entering account number: %v", err)
	}

	final, err := svc.Advance(ctx, "user-1", session.ID)
	if err != nil {
		t.Fatalf("unexpected error on terminal advance: %v", err)
	}
	if final.State != domain.StateConfirmed {
		t.Fatalf("expected state %q, got %q", domain.StateConfirmed, final.State)
	}
	if final.Outcome == nil || final.Outcome.Account.ID != "acc1" {
		t.Fatalf("expected outcome for acc1, got %+v", final.Outcome)
	}
	if final.Outcome.Account.AccountName != "JOHN DOE" {
		t.Fatalf("expected server-derived account name, got %q", final.Outcome.Account.AccountName)
	}

	accounts, err := svc.GetBankAccounts(ctx, "user-1")
	if err != nil {
		t.Fatalf("unexpected error listing accounts: %v", err)
	}
	if len(accounts) != 1 || accounts[0].ID != "acc1" || !accounts[0].IsDefault {
		t.Fatalf("expected host list [acc1 default], got %+v", accounts)
	}

	keys := publisher.published()
	if len(keys) != 1 || keys[0] != domain.EventBankAccountVerified {
		t.Fatalf("expected %q event, got %v", domain.EventBankAccountVerified, keys)
	}
}

func TestVerificationFailurePreservesStepAndInputs(t *testing.T) {
	platform := &fakePlatform{
		banks:     zenithDirectory(),
		verifyErr: domain.NewError(domain.ErrProviderRejected, "Account not resolvable."),
	}
	svc := newTestService(platform, nil, nil)
	ctx := context.Background()

	session, err := svc.StartWizard(ctx, "user-1", domain.FlowBankAccount)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.SetStepInput(ctx, "user-1", session.ID, StepInput{BankCode: "057"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.Advance(ctx, "user-1", session.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.SetStepInput(ctx, "user-1", session.ID, StepInput{AccountNumber: "0123456789"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := svc.Advance(ctx, "user-1", session.ID); err == nil {
		t.Fatal("expected terminal advance to fail")
	} else if domain.KindOf(err) != domain.ErrProviderRejected {
		t.Fatalf("expected provider rejection, got kind %q", domain.KindOf(err))
	}

	after, err := svc.GetSession("user-1", session.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if after.State != domain.StateCollecting {
		t.Fatalf("expected state back to collecting, got %q", after.State)
	}
	if after.CurrentStep() != domain.StepEnterNumber {
		t.Fatalf("expected step preserved, got %q", after.CurrentStep())
	}
	if after.Inputs.AccountNumber != "0123456789" {
		t.Fatalf("expected inputs preserved, got %q", after.Inputs.AccountNumber)
	}

	// Retry is just advancing again once the provider accepts.
	platform.mu.Lock()
	platform.verifyErr = nil
	platform.verifyOutcome = &domain.VerificationOutcome{
		Account: domain.BankAccount{ID: "acc1", AccountNumber: "0123456789", BankCode: "057"},
	}
	platform.mu.Unlock()

	final, err := svc.Advance(ctx, "user-1", session.ID)
	if err != nil {
		t.Fatalf("unexpected error on retry: %v", err)
	}
	if final.State != domain.StateConfirmed {
		t.Fatalf("expected confirmation on retry, got %q", final.State)
	}
}

func TestKycWizardEndToEnd(t *testing.T) {
	platform := &fakePlatform{kycStatus: domain.KycStatusPending}
	uploader := &fakeUploader{
		result: &domain.UploadResult{URL: "https://files.4zee.app/id.jpg", FileName: "id.jpg"},
	}
	publisher := &fakePublisher{}
	svc := newTestService(platform, uploader, publisher)
	ctx := context.Background()

	session, err := svc.StartWizard(ctx, "user-1", domain.FlowKyc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := svc.SetStepInput(ctx, "user-1", session.ID, StepInput{
		DocumentType: domain.DocumentTypeNationalID,
		IDNumber:     "A12-34X",
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.Advance(ctx, "user-1", session.ID); err != nil {
		t.Fatalf("unexpected error advancing to uploads: %v", err)
	}

	snap, err := svc.AttachUpload(ctx, "user-1", session.ID, domain.SlotPrimaryDocument, "id.jpg", "image/jpeg", strings.NewReader("jpeg-bytes"))
	if err != nil {
		t.Fatalf("unexpected error uploading: %v", err)
	}
	if snap.Inputs.Uploads[domain.SlotPrimaryDocument] == nil {
		t.Fatal("expected primary upload recorded on the session")
	}

	if _, err := svc.Advance(ctx, "user-1", session.ID); err != nil {
		t.Fatalf("unexpected error advancing to review: %v", err)
	}

	final, err := svc.Advance(ctx, "user-1", session.ID)
	if err != nil {
		t.Fatalf("unexpected error on submission: %v", err)
	}
	if final.State != domain.StateConfirmed {
		t.Fatalf("expected state %q, got %q", domain.StateConfirmed, final.State)
	}

	platform.mu.Lock()
	submitted := platform.submitted
	platform.mu.Unlock()
	if len(submitted) != 1 {
		t.Fatalf("expected exactly one batch submission, got %d", len(submitted))
	}
	batch := submitted[0]
	if len(batch) != 1 {
		t.Fatalf("expected one document in the batch, got %d", len(batch))
	}
	doc := batch[0]
	if doc.Type != domain.DocumentTypeNationalID || doc.IDNumber != "A12-34X" ||
		doc.FileURL != "https://files.4zee.app/id.jpg" || doc.FileName != "id.jpg" {
		t.Fatalf("unexpected submitted document: %+v", doc)
	}

	status, err := svc.GetKycStatus(ctx, "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if status != domain.KycStatusPending {
		t.Fatalf("expected status %q, got %q", domain.KycStatusPending, status)
	}

	keys := publisher.published()
	if len(keys) != 1 || keys[0] != domain.EventKycSubmitted {
		t.Fatalf("expected %q event, got %v", domain.EventKycSubmitted, keys)
	}
}

func TestDeleteDefaultAccountIsRefusedLocally(t *testing.T) {
	platform := &fakePlatform{
		accounts: []domain.BankAccount{
			{ID: "A", IsDefault: true},
			{ID: "B"},
		},
	}
	svc := newTestService(platform, nil, nil)
	ctx := context.Background()

	if _, err := svc.GetBankAccounts(ctx, "user-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err := svc.DeleteBankAccount(ctx, "user-1", "A")
	if err == nil {
		t.Fatal("expected deleting the default account to be refused")
	}
	if domain.KindOf(err) != domain.ErrInput {
		t.Fatalf("expected input error, got kind %q", domain.KindOf(err))
	}

	platform.mu.Lock()
	deleteCalls := platform.deleteCalls
	platform.mu.Unlock()
	if deleteCalls != 0 {
		t.Fatalf("expected no remote delete call, got %d", deleteCalls)
	}

	accounts, err := svc.GetBankAccounts(ctx, "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(accounts) != 2 {
		t.Fatalf("expected list unchanged, got %+v", accounts)
	}
}

func TestDeleteNonDefaultAccount(t *testing.T) {
	platform := &fakePlatform{
		accounts: []domain.BankAccount{
			{ID: "A", IsDefault: true},
			{ID: "B"},
		},
	}
	svc := newTestService(platform, nil, nil)
	ctx := context.Background()

	if err := svc.DeleteBankAccount(ctx, "user-1", "B"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	platform.mu.Lock()
	deleteCalls := platform.deleteCalls
	platform.mu.Unlock()
	if deleteCalls != 1 {
		t.Fatalf("expected one remote delete call, got %d", deleteCalls)
	}
}

func TestSetDefaultSwapsRemoteFirstThenLocally(t *testing.T) {
	platform := &fakePlatform{
		accounts: []domain.BankAccount{
			{ID: "A", IsDefault: true},
			{ID: "B"},
		},
	}
	svc := newTestService(platform, nil, nil)
	ctx := context.Background()

	if _, err := svc.GetBankAccounts(ctx, "user-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := svc.SetDefaultBankAccount(ctx, "user-1", "B"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	platform.mu.Lock()
	calls := platform.setDefaultCalls
	// Keep the fake's authoritative list stale on purpose; the local swap
	// must already be visible through the preserved list on a failed refresh.
	platform.listErr = errors.New("platform down")
	platform.mu.Unlock()
	if calls != 1 {
		t.Fatalf("expected one remote set-default call, got %d", calls)
	}

	accounts, err := svc.GetBankAccounts(ctx, "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, acc := range accounts {
		want := acc.ID == "B"
		if acc.IsDefault != want {
			t.Fatalf("entry %s: expected default=%t, got %t", acc.ID, want, acc.IsDefault)
		}
	}
}

func TestFailedRefreshPreservesExistingList(t *testing.T) {
	platform := &fakePlatform{
		accounts: []domain.BankAccount{{ID: "A", IsDefault: true}},
	}
	svc := newTestService(platform, nil, nil)
	ctx := context.Background()

	if _, err := svc.GetBankAccounts(ctx, "user-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	platform.mu.Lock()
	platform.listErr = errors.New("platform down")
	platform.mu.Unlock()

	accounts, err := svc.GetBankAccounts(ctx, "user-1")
	if err != nil {
		t.Fatalf("a transient refresh failure must not surface once a list exists: %v", err)
	}
	if len(accounts) != 1 || accounts[0].ID != "A" {
		t.Fatalf("expected preserved list, got %+v", accounts)
	}
}

func TestUploadFailureClearsSlot(t *testing.T) {
	platform := &fakePlatform{}
	uploader := &fakeUploader{
		result: &domain.UploadResult{URL: "https://files.4zee.app/id.jpg", FileName: "id.jpg"},
	}
	svc := newTestService(platform, uploader, nil)
	ctx := context.Background()

	session, err := svc.StartWizard(ctx, "user-1", domain.FlowKyc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.SetStepInput(ctx, "user-1", session.ID, StepInput{
		DocumentType: domain.DocumentTypeNationalID,
		IDNumber:     "A12-34X",
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.Advance(ctx, "user-1", session.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := svc.AttachUpload(ctx, "user-1", session.ID, domain.SlotPrimaryDocument, "id.jpg", "image/jpeg", strings.NewReader("x")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// A failed re-upload must roll the slot back; no stale ready state.
	uploader.mu.Lock()
	uploader.err = domain.NewError(domain.ErrUpload, "Upload failed. Please try again.")
	uploader.mu.Unlock()

	if _, err := svc.AttachUpload(ctx, "user-1", session.ID, domain.SlotPrimaryDocument, "id2.jpg", "image/jpeg", strings.NewReader("x")); err == nil {
		t.Fatal("expected upload to fail")
	}

	after, err := svc.GetSession("user-1", session.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if after.Inputs.Uploads[domain.SlotPrimaryDocument] != nil {
		t.Fatal("expected the slot cleared after a failed upload")
	}
}

func TestUploadRejectedOutsideUploadStep(t *testing.T) {
	platform := &fakePlatform{banks: zenithDirectory()}
	uploader := &fakeUploader{result: &domain.UploadResult{URL: "u", FileName: "f"}}
	svc := newTestService(platform, uploader, nil)
	ctx := context.Background()

	session, err := svc.StartWizard(ctx, "user-1", domain.FlowBankAccount)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := svc.AttachUpload(ctx, "user-1", session.ID, domain.SlotPrimaryDocument, "id.jpg", "image/jpeg", strings.NewReader("x")); err == nil {
		t.Fatal("expected upload on the bank flow to be rejected")
	} else if domain.KindOf(err) != domain.ErrInput {
		t.Fatalf("expected input error, got kind %q", domain.KindOf(err))
	}
}

func TestCancelWhileVerifyingIsRefused(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	platform := &fakePlatform{
		banks:         zenithDirectory(),
		verifyOutcome: &domain.VerificationOutcome{Account: domain.BankAccount{ID: "acc1"}},
		verifyStarted: started,
		verifyRelease: release,
	}
	svc := newTestService(platform, nil, nil)
	ctx := context.Background()

	session, err := svc.StartWizard(ctx, "user-1", domain.FlowBankAccount)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.SetStepInput(ctx, "user-1", session.ID, StepInput{BankCode: "057"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.Advance(ctx, "user-1", session.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.SetStepInput(ctx, "user-1", session.ID, StepInput{AccountNumber: "0123456789"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	done := make(chan error, 1)
	go func() {
		_, err := svc.Advance(ctx, "user-1", session.ID)
		done <- err
	}()

	<-started

	if err := svc.Cancel("user-1", session.ID); err == nil {
		t.Fatal("expected cancel during verification to be refused")
	} else if domain.KindOf(err) != domain.ErrConflict {
		t.Fatalf("expected conflict error, got kind %q", domain.KindOf(err))
	}

	// A second advance while one is in flight is refused, not queued.
	if _, err := svc.Advance(ctx, "user-1", session.ID); err == nil {
		t.Fatal("expected concurrent advance to be refused")
	} else if domain.KindOf(err) != domain.ErrConflict {
		t.Fatalf("expected conflict error, got kind %q", domain.KindOf(err))
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("unexpected error finishing verification: %v", err)
	}

	after, err := svc.GetSession("user-1", session.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if after.State != domain.StateConfirmed {
		t.Fatalf("expected state %q, got %q", domain.StateConfirmed, after.State)
	}
}

func TestRetreatFromFirstStepCancelsSession(t *testing.T) {
	platform := &fakePlatform{banks: zenithDirectory()}
	svc := newTestService(platform, nil, nil)
	ctx := context.Background()

	session, err := svc.StartWizard(ctx, "user-1", domain.FlowBankAccount)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	snap, err := svc.Retreat("user-1", session.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap.State != domain.StateCancelled {
		t.Fatalf("expected state %q, got %q", domain.StateCancelled, snap.State)
	}

	if _, err := svc.GetSession("user-1", session.ID); err == nil {
		t.Fatal("expected the cancelled session to be gone")
	}
}

func TestResetProducesFreshSession(t *testing.T) {
	platform := &fakePlatform{
		banks:         zenithDirectory(),
		verifyOutcome: &domain.VerificationOutcome{Account: domain.BankAccount{ID: "acc1", IsDefault: true}},
	}
	svc := newTestService(platform, nil, nil)
	ctx := context.Background()

	session, err := svc.StartWizard(ctx, "user-1", domain.FlowBankAccount)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.SetStepInput(ctx, "user-1", session.ID, StepInput{BankCode: "057"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.Advance(ctx, "user-1", session.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.SetStepInput(ctx, "user-1", session.ID, StepInput{AccountNumber: "0123456789"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.Advance(ctx, "user-1", session.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	fresh, err := svc.Reset("user-1", session.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fresh.State != domain.StateCollecting || fresh.StepIndex != 0 {
		t.Fatalf("expected a fresh collecting session, got state=%q step=%d", fresh.State, fresh.StepIndex)
	}
	if fresh.Inputs.Bank != nil || fresh.Inputs.AccountNumber != "" || fresh.Outcome != nil {
		t.Fatal("expected inputs and outcome cleared on reset")
	}
	if fresh.ID != session.ID {
		t.Fatalf("expected reset to reuse the session id, got %q", fresh.ID)
	}
}

func TestSessionOwnershipIsEnforced(t *testing.T) {
	platform := &fakePlatform{banks: zenithDirectory()}
	svc := newTestService(platform, nil, nil)
	ctx := context.Background()

	session, err := svc.StartWizard(ctx, "user-1", domain.FlowBankAccount)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := svc.GetSession("user-2", session.ID); err == nil {
		t.Fatal("expected another user's session to be invisible")
	} else if domain.KindOf(err) != domain.ErrNotFound {
		t.Fatalf("expected not-found error, got kind %q", domain.KindOf(err))
	}
}

func TestUnknownBankSelectionIsRejected(t *testing.T) {
	platform := &fakePlatform{banks: zenithDirectory()}
	svc := newTestService(platform, nil, nil)
	ctx := context.Background()

	session, err := svc.StartWizard(ctx, "user-1", domain.FlowBankAccount)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := svc.SetStepInput(ctx, "user-1", session.ID, StepInput{BankCode: "999"}); err == nil {
		t.Fatal("expected an unknown bank code to be rejected")
	} else if domain.KindOf(err) != domain.ErrInput {
		t.Fatalf("expected input error, got kind %q", domain.KindOf(err))
	}
}

func TestAccountNumberIsSanitizedOnInput(t *testing.T) {
	platform := &fakePlatform{banks: zenithDirectory()}
	svc := newTestService(platform, nil, nil)
	ctx := context.Background()

	session, err := svc.StartWizard(ctx, "user-1", domain.FlowBankAccount)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.SetStepInput(ctx, "user-1", session.ID, StepInput{BankCode: "057"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.Advance(ctx, "user-1", session.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	snap, err := svc.SetStepInput(ctx, "user-1", session.ID, StepInput{AccountNumber: "12a3-4!567890"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap.Inputs.AccountNumber != "1234567890" {
		t.Fatalf("expected sanitized account number, got %q", snap.Inputs.AccountNumber)
	}
}
