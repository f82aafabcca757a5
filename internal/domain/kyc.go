/**
 * @description
 * Domain models for the KYC document submission flow: supported document
 * types, the document record sent to the platform for review, and the
 * review status reported back to the client.
 */
package domain

// DocumentType identifies the kind of identity document being submitted.
type DocumentType string

const (
	DocumentTypeNationalID     DocumentType = "NATIONAL_ID"
	DocumentTypePassport       DocumentType = "PASSPORT"
	DocumentTypeDriversLicense DocumentType = "DRIVERS_LICENSE"
	DocumentTypeVotersCard     DocumentType = "VOTERS_CARD"
	DocumentTypeProofOfAddress DocumentType = "PROOF_OF_ADDRESS"
)

// KnownDocumentType reports whether t is one of the supported identity
// document types a user may select at the wizard's ID-details step.
func KnownDocumentType(t DocumentType) bool {
	switch t {
	case DocumentTypeNationalID, DocumentTypePassport, DocumentTypeDriversLicense, DocumentTypeVotersCard:
		return true
	}
	return false
}

// KycDocument is one record of the batch sent to the platform for review.
// FileURL and FileName both come from the upload result; the platform matches
// by filename for display, so a URL alone is insufficient.
type KycDocument struct {
	Type     DocumentType `json:"type"`
	IDNumber string       `json:"id_number"`
	FileURL  string       `json:"file_url"`
	FileName string       `json:"file_name"`
}

// KycStatus is the review state of a user's submission.
type KycStatus string

const (
	KycStatusNotSubmitted KycStatus = "NOT_SUBMITTED"
	KycStatusPending      KycStatus = "PENDING"
	KycStatusApproved     KycStatus = "APPROVED"
	KycStatusRejected     KycStatus = "REJECTED"
)
