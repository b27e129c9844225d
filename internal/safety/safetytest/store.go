package safetytest

import (
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/dusk-indust/safeguard/internal/safety"
)

// Store is a concurrency-safe in-memory store for the compliance records a
// Fake serves: breaches, consents and audit entries. Breaches are kept in a
// map keyed by ID with a separate slice maintaining insertion order.
type Store struct {
	mu        sync.RWMutex
	breaches  map[string]*safety.BreachRecord
	breachIDs []string // insertion-order breach IDs
	consents  []safety.ConsentRecord
	audit     []safety.AuditLogEntry
}

// NewStore returns an initialized Store ready for use.
func NewStore() *Store {
	return &Store{
		breaches: make(map[string]*safety.BreachRecord),
	}
}

// CreateBreach stores a new breach, assigning an ID when none is set.
func (s *Store) CreateBreach(b safety.BreachRecord) (safety.BreachRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	if _, exists := s.breaches[b.ID]; exists {
		return safety.BreachRecord{}, fmt.Errorf("breach %q already exists", b.ID)
	}
	s.breaches[b.ID] = &b
	s.breachIDs = append(s.breachIDs, b.ID)
	return copyBreach(&b), nil
}

// GetBreach returns a copy of the breach with the given ID.
func (s *Store) GetBreach(id string) (safety.BreachRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.breaches[id]
	if !ok {
		return safety.BreachRecord{}, false
	}
	return copyBreach(b), true
}

// UpdateBreach applies fn to the stored breach under a write lock and returns
// a copy of the result.
func (s *Store) UpdateBreach(id string, fn func(*safety.BreachRecord)) (safety.BreachRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.breaches[id]
	if !ok {
		return safety.BreachRecord{}, false
	}
	fn(b)
	return copyBreach(b), true
}

// ListBreaches returns breaches in insertion order. A non-empty status keeps
// only matching breaches; limit <= 0 means no limit.
func (s *Store) ListBreaches(status safety.BreachStatus, limit int) []safety.BreachRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []safety.BreachRecord{}
	for _, id := range s.breachIDs {
		b := s.breaches[id]
		if status != "" && b.Status != status {
			continue
		}
		out = append(out, copyBreach(b))
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

// PutConsent appends a consent record.
func (s *Store) PutConsent(c safety.ConsentRecord) safety.ConsentRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	s.consents = append(s.consents, c)
	return c
}

// WithdrawConsent marks every granted record of the given type withdrawn and
// returns the most recent one.
func (s *Store) WithdrawConsent(t safety.ConsentType, at string) (safety.ConsentRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var last *safety.ConsentRecord
	for i := range s.consents {
		c := &s.consents[i]
		if c.ConsentType != t || c.Status != safety.ConsentGranted {
			continue
		}
		c.Status = safety.ConsentWithdrawn
		c.WithdrawnAt = at
		last = c
	}
	if last == nil {
		return safety.ConsentRecord{}, false
	}
	return *last, true
}

// Consents returns consent records, optionally narrowed to one type.
func (s *Store) Consents(t safety.ConsentType) []safety.ConsentRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []safety.ConsentRecord{}
	for _, c := range s.consents {
		if t != "" && c.ConsentType != t {
			continue
		}
		out = append(out, c)
	}
	return out
}

// AppendAudit records an audit entry.
func (s *Store) AppendAudit(e safety.AuditLogEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	s.audit = append(s.audit, e)
}

// Audit returns audit entries newest first, optionally narrowed to one action.
func (s *Store) Audit(action string, limit int) []safety.AuditLogEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []safety.AuditLogEntry{}
	for i := len(s.audit) - 1; i >= 0; i-- {
		e := s.audit[i]
		if action != "" && e.Action != action {
			continue
		}
		out = append(out, e)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

// Erase drops consents and audit entries and reports how many records went.
// Breaches are operator records and survive account erasure.
func (s *Store) Erase() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.consents) + len(s.audit)
	s.consents = nil
	s.audit = nil
	return n
}

// copyBreach returns a copy of src with independent slices.
func copyBreach(src *safety.BreachRecord) safety.BreachRecord {
	dst := *src
	dst.AffectedUserIDs = slices.Clone(src.AffectedUserIDs)
	dst.DataCategories = slices.Clone(src.DataCategories)
	return dst
}
