// Package store holds the live portal snapshot and its mutation API. All
// writes funnel through a single path: take the lock, apply the change to the
// raw snapshot, re-derive the whole snapshot, persist, publish. Mutations
// never patch derived state in place, so every cross-entity invariant is
// re-established on every write, and a failed mutation leaves the published
// snapshot untouched.
package store

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/fixitnow/portal-backend/internal/derive"
	"github.com/fixitnow/portal-backend/internal/domain"
)

// Adapter persists the snapshot blob. Load returns nil when nothing has been
// saved yet.
type Adapter interface {
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, payload []byte) error
}

// Store is the in-memory engine instance. Safe for concurrent use.
type Store struct {
	mu      sync.RWMutex
	snap    domain.Snapshot
	adapter Adapter
	log     zerolog.Logger

	// now is a clock seam for tests.
	now func() time.Time
}

// Open loads the persisted snapshot through the adapter, hydrates it against
// the registered provider accounts, and returns a ready Store. A load failure
// is not fatal: the engine starts from the derived empty snapshot and logs
// what happened.
func Open(ctx context.Context, adapter Adapter, providerAccounts []domain.Account, log zerolog.Logger) (*Store, error) {
	payload, err := adapter.Load(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("snapshot load failed; starting from empty state")
		payload = nil
	}
	s := &Store{
		snap:    derive.Hydrate(payload, providerAccounts),
		adapter: adapter,
		log:     log,
		now:     time.Now,
	}
	return s, nil
}

// New returns a Store around an already-derived snapshot. Intended for tests
// and for callers that manage hydration themselves.
func New(snap domain.Snapshot, adapter Adapter, log zerolog.Logger) *Store {
	return &Store{
		snap:    derive.Derive(snap),
		adapter: adapter,
		log:     log,
		now:     time.Now,
	}
}

// Snapshot returns a deep copy of the current derived snapshot. Callers may
// mutate the copy freely.
func (s *Store) Snapshot() domain.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneSnapshot(s.snap)
}

// mutate runs one write: the mutation receives a private copy of the current
// snapshot, and only if it succeeds is the copy re-derived, published, and
// persisted. Persistence failures are logged but do not roll back the
// in-memory state; the next successful save catches up.
func (s *Store) mutate(ctx context.Context, op string, fn func(*domain.Snapshot) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	working := cloneSnapshot(s.snap)
	if err := fn(&working); err != nil {
		s.log.Debug().Str("op", op).Err(err).Msg("mutation rejected")
		return err
	}

	s.snap = derive.DeriveAt(working, s.now())
	s.persist(ctx, op)
	return nil
}

// persist writes the current snapshot through the adapter. Caller holds the
// lock.
func (s *Store) persist(ctx context.Context, op string) {
	if s.adapter == nil {
		return
	}
	payload, err := json.Marshal(s.snap)
	if err != nil {
		s.log.Error().Str("op", op).Err(err).Msg("snapshot encode failed")
		return
	}
	if err := s.adapter.Save(ctx, payload); err != nil {
		s.log.Warn().Str("op", op).Err(err).Msg("snapshot save failed; in-memory state kept")
		return
	}
	s.log.Debug().Str("op", op).Msg("snapshot persisted")
}

// cloneSnapshot deep-copies a snapshot through its JSON form. The tolerant
// field types guarantee the round trip cannot fail.
func cloneSnapshot(in domain.Snapshot) domain.Snapshot {
	payload, err := json.Marshal(in)
	if err != nil {
		return domain.Snapshot{}
	}
	var out domain.Snapshot
	if err := json.Unmarshal(payload, &out); err != nil {
		return domain.Snapshot{}
	}
	return out
}

// resolveProviderEmail picks the provider a settings mutation targets: the
// given email when present, otherwise the first provider in the queue.
func resolveProviderEmail(s *domain.Snapshot, email string) (string, bool) {
	if trimmed := strings.TrimSpace(email); trimmed != "" {
		normalized := strings.ToLower(trimmed)
		for _, p := range s.ProviderQueue {
			if p.Email == normalized {
				return normalized, true
			}
		}
		return "", false
	}
	if len(s.ProviderQueue) > 0 {
		return s.ProviderQueue[0].Email, true
	}
	return "", false
}

// findProviderByRef locates a provider by id, exact case-insensitive name, or
// email. Admin screens address providers this way.
func findProviderByRef(s *domain.Snapshot, ref string) (int, bool) {
	trimmed := strings.TrimSpace(ref)
	if trimmed == "" {
		return 0, false
	}
	lowered := strings.ToLower(trimmed)
	for i, p := range s.ProviderQueue {
		if p.ID == trimmed || strings.ToLower(p.Name) == lowered || p.Email == lowered {
			return i, true
		}
	}
	return 0, false
}
