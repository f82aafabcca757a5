/**
 * @description
 * This file defines the Go structs that map to the JSON payloads of the 4Zee
 * core platform API: bank verification, KYC submission, bank directory and
 * account management endpoints.
 *
 * @notes
 * - These structs are used by the platform API client to serialize requests
 *   and deserialize responses. Internal models stay decoupled from them.
 */
package domain

// --- Bank verification ---

// VerifyBankAccountRequest is the payload for verify-and-save. The account
// holder name is intentionally absent: the platform resolves it.
type VerifyBankAccountRequest struct {
	AccountNumber string `json:"account_number"`
	BankCode      string `json:"bank_code"`
	BankName      string `json:"bank_name"`
}

// VerifyBankAccountResponse is the platform's canonical record for the
// verified account.
type VerifyBankAccountResponse struct {
	Data struct {
		ID            string `json:"id"`
		AccountName   string `json:"account_name"`
		AccountNumber string `json:"account_number"`
		BankName      string `json:"bank_name"`
		BankCode      string `json:"bank_code"`
		IsDefault     bool   `json:"is_default"`
		IsVerified    bool   `json:"is_verified"`
		AlreadyExists bool   `json:"already_exists"`
	} `json:"data"`
}

// --- KYC submission ---

// SubmitKycRequest carries the document batch. Submission is atomic: the
// platform accepts or rejects the batch as a unit.
type SubmitKycRequest struct {
	Documents []KycDocument `json:"documents"`
}

// SubmitKycResponse acknowledges that the batch was accepted for review.
type SubmitKycResponse struct {
	Data struct {
		Status KycStatus `json:"status"`
	} `json:"data"`
}

// KycStatusResponse reports the review state of a user's submission.
type KycStatusResponse struct {
	Data struct {
		Status KycStatus `json:"status"`
	} `json:"data"`
}

// --- Bank directory and account management ---

// ListBanksResponse is the ordered bank directory.
type ListBanksResponse struct {
	Data []Bank `json:"data"`
}

// ListBankAccountsResponse is the authoritative account list for a user.
type ListBankAccountsResponse struct {
	Data []BankAccount `json:"data"`
}

// PlatformErrorResponse is the structured error payload the platform returns
// on non-2xx statuses. Message, when present, is human-readable.
type PlatformErrorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}
