/**
 * @description
 * This file defines the HTTP handlers for the verification service's API
 * endpoints. Handlers are responsible for parsing requests, calling the
 * appropriate service method, and writing the response.
 *
 * @dependencies
 * - Standard Go libraries for HTTP, JSON, etc.
 * - Chi router for URL parameter handling.
 * - The service's internal packages for app logic and middleware.
 */
package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/4zee/verification-service/internal/app"
	"github.com/4zee/verification-service/internal/domain"
	"github.com/4zee/verification-service/pkg/middleware"
)

// WizardHandler holds the dependencies for wizard session handlers.
type WizardHandler struct {
	service       *app.VerificationService
	maxUploadSize int64
}

// NewWizardHandler creates a new WizardHandler.
func NewWizardHandler(service *app.VerificationService, maxUploadSize int64) *WizardHandler {
	return &WizardHandler{service: service, maxUploadSize: maxUploadSize}
}

// StartWizardRequest defines the expected JSON body for opening a session.
type StartWizardRequest struct {
	Flow domain.FlowKind `json:"flow"`
}

// StartWizard opens a new wizard session for the authenticated user.
func (h *WizardHandler) StartWizard(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserIDFromContext(r.Context())
	if userID == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req StartWizardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	session, err := h.service.StartWizard(r.Context(), userID, req.Flow)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, session)
}

// GetSession returns a snapshot of an open session.
func (h *WizardHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserIDFromContext(r.Context())
	if userID == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	session, err := h.service.GetSession(userID, chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, session)
}

// SetInput records input for the session's current step.
func (h *WizardHandler) SetInput(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserIDFromContext(r.Context())
	if userID == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var input app.StepInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	session, err := h.service.SetStepInput(r.Context(), userID, chi.URLParam(r, "id"), input)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, session)
}

// Upload accepts a multipart file for a KYC upload slot.
func (h *WizardHandler) Upload(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserIDFromContext(r.Context())
	if userID == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		writeDomainError(w, domain.NewError(domain.ErrUpload, "The selected file is too large."))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "A file field is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	slot := domain.UploadSlot(r.FormValue("slot"))
	contentType := header.Header.Get("Content-Type")

	session, err := h.service.AttachUpload(r.Context(), userID, chi.URLParam(r, "id"), slot, header.Filename, contentType, file)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, session)
}

// Advance moves the session forward, running the terminal verification when
// the session is on its last collection step.
func (h *WizardHandler) Advance(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserIDFromContext(r.Context())
	if userID == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	session, err := h.service.Advance(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, session)
}

// Retreat moves the session back one step, cancelling from the first.
func (h *WizardHandler) Retreat(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserIDFromContext(r.Context())
	if userID == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	session, err := h.service.Retreat(userID, chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, session)
}

// Reset reuses a session for another run of the same flow.
func (h *WizardHandler) Reset(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserIDFromContext(r.Context())
	if userID == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	session, err := h.service.Reset(userID, chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, session)
}

// Cancel discards the session.
func (h *WizardHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserIDFromContext(r.Context())
	if userID == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	if err := h.service.Cancel(userID, chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// AccountHandler holds the dependencies for bank-account list handlers.
type AccountHandler struct {
	service *app.VerificationService
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(service *app.VerificationService) *AccountHandler {
	return &AccountHandler{service: service}
}

// ListAccounts returns the user's payout accounts.
func (h *AccountHandler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserIDFromContext(r.Context())
	if userID == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	accounts, err := h.service.GetBankAccounts(r.Context(), userID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, accounts)
}

// SetDefault marks an account as the payout default.
func (h *AccountHandler) SetDefault(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserIDFromContext(r.Context())
	if userID == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	if err := h.service.SetDefaultBankAccount(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// DeleteAccount removes a non-default account.
func (h *AccountHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserIDFromContext(r.Context())
	if userID == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	if err := h.service.DeleteBankAccount(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// BankHandler holds the dependencies for bank directory handlers.
type BankHandler struct {
	service *app.VerificationService
}

// NewBankHandler creates a new BankHandler.
func NewBankHandler(service *app.VerificationService) *BankHandler {
	return &BankHandler{service: service}
}

// ListBanks returns the bank directory.
func (h *BankHandler) ListBanks(w http.ResponseWriter, r *http.Request) {
	banks, err := h.service.ListBanks(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, banks)
}

// KycHandler holds the dependencies for KYC status handlers.
type KycHandler struct {
	service *app.VerificationService
}

// NewKycHandler creates a new KycHandler.
func NewKycHandler(service *app.VerificationService) *KycHandler {
	return &KycHandler{service: service}
}

// Status reports the review state of the user's submission.
func (h *KycHandler) Status(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserIDFromContext(r.Context())
	if userID == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	status, err := h.service.GetKycStatus(r.Context(), userID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]domain.KycStatus{"status": status})
}

// errorBody is the JSON error envelope returned to mobile clients.
type errorBody struct {
	Error struct {
		Code    domain.ErrorKind `json:"code"`
		Message string           `json:"message"`
	} `json:"error"`
}

// writeDomainError maps the error taxonomy onto HTTP statuses. Every kind is
// presentable; nothing propagates as an opaque 500.
func writeDomainError(w http.ResponseWriter, err error) {
	kind := domain.KindOf(err)

	status := http.StatusBadGateway
	switch kind {
	case domain.ErrInput:
		status = http.StatusBadRequest
	case domain.ErrValidation, domain.ErrProviderRejected:
		status = http.StatusUnprocessableEntity
	case domain.ErrConflict:
		status = http.StatusConflict
	case domain.ErrNotFound:
		status = http.StatusNotFound
	case domain.ErrUpload, domain.ErrNetwork:
		status = http.StatusBadGateway
	}

	var body errorBody
	body.Error.Code = kind
	body.Error.Message = domain.MessageOf(err)
	writeJSON(w, status, body)
}

// writeJSON is a helper to write JSON responses.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// If encoding fails, we can't send a JSON error, so just log it.
		http.Error(w, `{"error":"Failed to encode response"}`, http.StatusInternalServerError)
	}
}
