/**
 * @description
 * This file implements the optimistic reconciliation of a verification
 * outcome into a user's bank-account list. The wizard applies the outcome
 * locally for responsive UI; the authoritative list from the platform
 * replaces it wholesale on the next full fetch (last-fetch-wins).
 */
package wizard

import "github.com/4zee/verification-service/internal/domain"

// Reconcile merges a verification outcome into an account list.
//
// Rules:
//   - When the outcome reports alreadyExists, or an entry with the same id is
//     present, that entry's fields are replaced in place. A locally known
//     CreatedAt is preserved when the outcome carries none. No append.
//   - Otherwise the outcome's account is appended.
//   - When the resulting entry is the default, every other entry's default
//     flag is cleared in the same pass. Default is exclusive.
//
// The input slice is not mutated; callers swap in the returned list.
func Reconcile(existing []domain.BankAccount, outcome domain.VerificationOutcome) []domain.BankAccount {
	updated := outcome.Account

	out := make([]domain.BankAccount, 0, len(existing)+1)
	replaced := false
	for _, acc := range existing {
		if acc.ID == updated.ID {
			if updated.CreatedAt.IsZero() {
				updated.CreatedAt = acc.CreatedAt
			}
			out = append(out, updated)
			replaced = true
			continue
		}
		out = append(out, acc)
	}
	if !replaced {
		out = append(out, updated)
	}

	if updated.IsDefault {
		for i := range out {
			if out[i].ID != updated.ID {
				out[i].IsDefault = false
			}
		}
	}
	return out
}

// SetDefault returns a copy of the list with the default flag moved to id.
// Callers apply this only after the platform accepted the change.
func SetDefault(existing []domain.BankAccount, id string) []domain.BankAccount {
	out := make([]domain.BankAccount, len(existing))
	copy(out, existing)
	for i := range out {
		out[i].IsDefault = out[i].ID == id
	}
	return out
}

// Remove returns a copy of the list without the entry id.
func Remove(existing []domain.BankAccount, id string) []domain.BankAccount {
	out := make([]domain.BankAccount, 0, len(existing))
	for _, acc := range existing {
		if acc.ID != id {
			out = append(out, acc)
		}
	}
	return out
}
