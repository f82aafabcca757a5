/**
 * @description
 * This file defines the interfaces for the data access layer (repositories).
 * Defining interfaces allows for dependency injection and easy mocking in tests,
 * promoting a loosely coupled architecture.
 *
 * @notes
 * - Wizard sessions are deliberately absent here: they are ephemeral and never
 *   persisted. The only durable state this service keeps is the bank
 *   directory cache.
 */
package store

import (
	"context"
	"time"

	"github.com/4zee/verification-service/internal/domain"
)

// BankRepository defines the contract for caching the bank directory.
type BankRepository interface {
	CacheBanks(ctx context.Context, banks []domain.Bank) error
	GetCachedBanks(ctx context.Context) ([]domain.Bank, error)
	IsCacheExpiringSoon(ctx context.Context, within time.Duration) (bool, error)
	ClearExpiredBanks(ctx context.Context) error
}
