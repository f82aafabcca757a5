/**
 * @description
 * This file implements the in-memory wizard session registry. Sessions are
 * ephemeral by contract: they exist only while a wizard is open, are owned by
 * exactly one user, and are discarded on cancel, confirmation close, or TTL
 * expiry. Nothing here touches durable storage.
 *
 * Key features:
 * - Per-session locking so every mutation is serialized, mirroring the
 *   single-UI-thread ownership of the source flows.
 * - In-flight guards (verifying, per-slot uploading) so a session runs at
 *   most one network operation at a time; concurrent attempts are refused,
 *   never queued.
 * - A sweep pass that drops sessions idle past their TTL.
 */
package app

import (
	"log"
	"sync"
	"time"

	"github.com/4zee/verification-service/internal/domain"
)

// sessionEntry wraps a session with its lock and in-flight guards.
type sessionEntry struct {
	mu        sync.Mutex
	session   *domain.WizardSession
	verifying bool
	uploading map[domain.UploadSlot]bool
	touchedAt time.Time
}

func (e *sessionEntry) touch() {
	e.touchedAt = time.Now()
	e.session.UpdatedAt = e.touchedAt
}

// snapshot returns a copy safe to serialize outside the entry lock.
func (e *sessionEntry) snapshot() *domain.WizardSession {
	s := *e.session
	if e.session.Inputs.Uploads != nil {
		uploads := make(map[domain.UploadSlot]*domain.UploadResult, len(e.session.Inputs.Uploads))
		for slot, res := range e.session.Inputs.Uploads {
			if res != nil {
				r := *res
				uploads[slot] = &r
			}
		}
		s.Inputs.Uploads = uploads
	}
	if e.session.Inputs.Bank != nil {
		b := *e.session.Inputs.Bank
		s.Inputs.Bank = &b
	}
	if e.session.Outcome != nil {
		o := *e.session.Outcome
		s.Outcome = &o
	}
	return &s
}

// sessionRegistry holds every open wizard session.
type sessionRegistry struct {
	mu      sync.Mutex
	entries map[string]*sessionEntry
}

func newSessionRegistry() *sessionRegistry {
	return &sessionRegistry{entries: make(map[string]*sessionEntry)}
}

func (r *sessionRegistry) add(session *domain.WizardSession) *sessionEntry {
	entry := &sessionEntry{
		session:   session,
		uploading: make(map[domain.UploadSlot]bool),
		touchedAt: time.Now(),
	}
	r.mu.Lock()
	r.entries[session.ID] = entry
	r.mu.Unlock()
	return entry
}

// get returns the entry for id when it exists and belongs to userID.
func (r *sessionRegistry) get(id, userID string) (*sessionEntry, error) {
	r.mu.Lock()
	entry, ok := r.entries[id]
	r.mu.Unlock()
	if !ok || entry.session.UserID != userID {
		// Ownership mismatches read as not-found so session ids leak nothing.
		return nil, domain.NewError(domain.ErrNotFound, "Wizard session not found.")
	}
	return entry, nil
}

func (r *sessionRegistry) remove(id string) {
	r.mu.Lock()
	delete(r.entries, id)
	r.mu.Unlock()
}

// sweep discards sessions idle past ttl. Sessions mid-verification are left
// alone; the in-flight call will settle them.
func (r *sessionRegistry) sweep(ttl time.Duration) {
	cutoff := time.Now().Add(-ttl)

	r.mu.Lock()
	stale := make([]*sessionEntry, 0)
	for _, entry := range r.entries {
		stale = append(stale, entry)
	}
	r.mu.Unlock()

	swept := 0
	for _, entry := range stale {
		entry.mu.Lock()
		expired := !entry.verifying && entry.touchedAt.Before(cutoff)
		if expired {
			entry.session.State = domain.StateCancelled
		}
		id := entry.session.ID
		entry.mu.Unlock()

		if expired {
			r.remove(id)
			swept++
		}
	}

	if swept > 0 {
		log.Printf("Swept %d expired wizard sessions", swept)
	}
}
