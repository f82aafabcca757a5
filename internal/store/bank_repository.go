/**
 * @description
 * This file implements the data access layer for the bank directory cache.
 * The directory rarely changes, so it is cached in PostgreSQL with a 24 hour
 * TTL to avoid hitting the platform API on every wizard open.
 *
 * @dependencies
 * - context: For managing request-scoped deadlines and cancellations.
 * - log: For logging database errors.
 * - github.com/jackc/pgx/v5/pgxpool: The PostgreSQL driver.
 * - The service's internal domain package for the Bank model.
 */
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/4zee/verification-service/internal/domain"
)

const bankCacheTTL = 24 * time.Hour

// ErrCacheMiss is returned when no unexpired directory snapshot exists.
var ErrCacheMiss = errors.New("no valid cached banks found")

// PostgresBankRepository is the PostgreSQL implementation of BankRepository.
type PostgresBankRepository struct {
	db *pgxpool.Pool
}

// NewPostgresBankRepository creates a new instance of PostgresBankRepository.
func NewPostgresBankRepository(db *pgxpool.Pool) *PostgresBankRepository {
	return &PostgresBankRepository{db: db}
}

// CacheBanks stores a fresh directory snapshot, replacing any previous one.
// An empty directory is never cached; the platform returning nothing is
// treated as a fetch problem, not a truth about the directory.
func (r *PostgresBankRepository) CacheBanks(ctx context.Context, banks []domain.Bank) error {
	if len(banks) == 0 {
		log.Printf("Warning: refusing to cache an empty bank directory")
		return nil
	}

	banksJSON, err := json.Marshal(banks)
	if err != nil {
		return fmt.Errorf("failed to marshal banks: %w", err)
	}

	if _, err := r.db.Exec(ctx, `DELETE FROM cached_banks`); err != nil {
		log.Printf("Warning: failed to delete existing cached banks: %v", err)
	}

	now := time.Now()
	_, err = r.db.Exec(ctx, `
		INSERT INTO cached_banks (banks_data, cached_at, expires_at)
		VALUES ($1, $2, $3)
	`, banksJSON, now, now.Add(bankCacheTTL))
	if err != nil {
		return fmt.Errorf("failed to cache banks: %w", err)
	}

	log.Printf("Cached %d banks for %s", len(banks), bankCacheTTL)
	return nil
}

// GetCachedBanks retrieves the latest unexpired directory snapshot.
func (r *PostgresBankRepository) GetCachedBanks(ctx context.Context) ([]domain.Bank, error) {
	var banksJSON []byte
	var expiresAt time.Time

	err := r.db.QueryRow(ctx, `
		SELECT banks_data, expires_at
		FROM cached_banks
		WHERE expires_at > NOW()
		ORDER BY cached_at DESC
		LIMIT 1
	`).Scan(&banksJSON, &expiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("failed to get cached banks: %w", err)
	}

	var banks []domain.Bank
	if err := json.Unmarshal(banksJSON, &banks); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached banks: %w", err)
	}

	return banks, nil
}

// IsCacheExpiringSoon reports whether the current snapshot expires within
// the given window. Used to warm the cache before it lapses.
func (r *PostgresBankRepository) IsCacheExpiringSoon(ctx context.Context, within time.Duration) (bool, error) {
	var expiresAt time.Time

	err := r.db.QueryRow(ctx, `
		SELECT expires_at
		FROM cached_banks
		WHERE expires_at > NOW()
		ORDER BY cached_at DESC
		LIMIT 1
	`).Scan(&expiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, ErrCacheMiss
		}
		return false, fmt.Errorf("failed to check cache expiry: %w", err)
	}

	return time.Until(expiresAt) < within, nil
}

// ClearExpiredBanks removes lapsed snapshots. Run periodically.
func (r *PostgresBankRepository) ClearExpiredBanks(ctx context.Context) error {
	result, err := r.db.Exec(ctx, `DELETE FROM cached_banks WHERE expires_at <= NOW()`)
	if err != nil {
		return fmt.Errorf("failed to clear expired banks: %w", err)
	}

	if rows := result.RowsAffected(); rows > 0 {
		log.Printf("Cleared %d expired bank cache entries", rows)
	}
	return nil
}
