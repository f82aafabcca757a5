/**
 * @description
 * This package provides a client for the 4Zee core platform API. It
 * encapsulates the logic for making authenticated HTTP requests to the
 * platform's verification, KYC, and account-management endpoints.
 *
 * Key features:
 * - Manages the API base URL and service key.
 * - Provides methods for the operations the wizard consumes (verify-and-save,
 *   KYC batch submission, bank directory, account list and management).
 * - Classifies failures into the domain error taxonomy so the wizard can
 *   distinguish validation rejections, provider rejections, and transient
 *   network errors. All three remain retry-eligible for the caller.
 *
 * @dependencies
 * - bytes, context, encoding/json, fmt, io, net/http, time: Standard Go libraries.
 * - The service's internal domain package for request/response models.
 */
package platformclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/4zee/verification-service/internal/domain"
)

// userIDHeader carries the acting user's identity on server-to-server calls.
const userIDHeader = "X-4Zee-User-Id"

// Client is a client for the 4Zee platform API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a new platform API client.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// VerifyAndSaveBankAccount asks the platform to resolve and persist a payout
// account. The holder name in the outcome is always server-derived.
func (c *Client) VerifyAndSaveBankAccount(ctx context.Context, userID string, req domain.VerifyBankAccountRequest) (*domain.VerificationOutcome, error) {
	url := fmt.Sprintf("%s/api/v1/bank-accounts/verify", c.baseURL)
	var resp domain.VerifyBankAccountResponse

	if err := c.do(ctx, http.MethodPost, url, userID, req, &resp); err != nil {
		return nil, err
	}

	d := resp.Data
	return &domain.VerificationOutcome{
		Account: domain.BankAccount{
			ID:            d.ID,
			AccountName:   d.AccountName,
			AccountNumber: d.AccountNumber,
			BankName:      d.BankName,
			BankCode:      d.BankCode,
			IsDefault:     d.IsDefault,
			IsVerified:    d.IsVerified,
		},
		AlreadyExists: d.AlreadyExists,
	}, nil
}

// SubmitKycDocuments submits a document batch for review. The batch is
// atomic: the platform accepts or rejects it as a unit.
func (c *Client) SubmitKycDocuments(ctx context.Context, userID string, docs []domain.KycDocument) (domain.KycStatus, error) {
	url := fmt.Sprintf("%s/api/v1/kyc/submissions", c.baseURL)
	var resp domain.SubmitKycResponse

	if err := c.do(ctx, http.MethodPost, url, userID, domain.SubmitKycRequest{Documents: docs}, &resp); err != nil {
		return "", err
	}
	if resp.Data.Status == "" {
		return domain.KycStatusPending, nil
	}
	return resp.Data.Status, nil
}

// GetKycStatus fetches the review state of the user's submission.
func (c *Client) GetKycStatus(ctx context.Context, userID string) (domain.KycStatus, error) {
	url := fmt.Sprintf("%s/api/v1/kyc/status", c.baseURL)
	var resp domain.KycStatusResponse

	if err := c.do(ctx, http.MethodGet, url, userID, nil, &resp); err != nil {
		return "", err
	}
	return resp.Data.Status, nil
}

// ListBanks fetches the ordered bank directory.
func (c *Client) ListBanks(ctx context.Context) ([]domain.Bank, error) {
	url := fmt.Sprintf("%s/api/v1/banks", c.baseURL)
	var resp domain.ListBanksResponse

	if err := c.do(ctx, http.MethodGet, url, "", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// ListBankAccounts fetches the authoritative account list for a user.
func (c *Client) ListBankAccounts(ctx context.Context, userID string) ([]domain.BankAccount, error) {
	url := fmt.Sprintf("%s/api/v1/bank-accounts", c.baseURL)
	var resp domain.ListBankAccountsResponse

	if err := c.do(ctx, http.MethodGet, url, userID, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// SetDefaultBankAccount marks an account as the payout default.
func (c *Client) SetDefaultBankAccount(ctx context.Context, userID, accountID string) error {
	url := fmt.Sprintf("%s/api/v1/bank-accounts/%s/default", c.baseURL, accountID)
	return c.do(ctx, http.MethodPost, url, userID, nil, nil)
}

// DeleteBankAccount removes a non-default account.
func (c *Client) DeleteBankAccount(ctx context.Context, userID, accountID string) error {
	url := fmt.Sprintf("%s/api/v1/bank-accounts/%s", c.baseURL, accountID)
	return c.do(ctx, http.MethodDelete, url, userID, nil, nil)
}

// do is a helper function to make HTTP requests to the platform API.
func (c *Client) do(ctx context.Context, method, url, userID string, body, target interface{}) error {
	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create http request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-4Zee-Service-Key", c.apiKey)
	if userID != "" {
		req.Header.Set(userIDHeader, userID)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.WrapError(domain.ErrNetwork, "Could not reach the verification service. Please try again.", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Printf("Platform API returned status %d for %s %s", resp.StatusCode, method, url)
		return classifyError(resp.StatusCode, respBody)
	}

	if target != nil {
		if err := json.Unmarshal(respBody, target); err != nil {
			return fmt.Errorf("failed to unmarshal response body: %w", err)
		}
	}

	return nil
}

// classifyError maps a non-2xx platform response to the domain taxonomy,
// preferring the platform's human-readable message when one is present.
func classifyError(status int, body []byte) error {
	var payload domain.PlatformErrorResponse
	_ = json.Unmarshal(body, &payload)

	message := payload.Error.Message
	kind := kindForStatus(status, payload.Error.Code)

	if message == "" {
		switch kind {
		case domain.ErrProviderRejected:
			message = "We could not verify those details. Please check and try again."
		case domain.ErrValidation:
			message = "The submitted details were rejected. Please review and try again."
		case domain.ErrNotFound:
			message = "The requested record was not found."
		default:
			message = "Something went wrong. Please try again."
		}
	}

	return domain.WrapError(kind, message, fmt.Errorf("platform API error: status %d, body: %s", status, body))
}

func kindForStatus(status int, code string) domain.ErrorKind {
	switch code {
	case "account_not_resolvable", "provider_rejected", "document_rejected":
		return domain.ErrProviderRejected
	}
	switch {
	case status == http.StatusNotFound:
		return domain.ErrNotFound
	case status == http.StatusBadRequest, status == http.StatusUnprocessableEntity, status == http.StatusConflict:
		return domain.ErrValidation
	case status == http.StatusFailedDependency, status == http.StatusBadGateway:
		return domain.ErrProviderRejected
	default:
		return domain.ErrNetwork
	}
}
