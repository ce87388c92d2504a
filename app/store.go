package app

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"ayursense/domain/dosha"
	"ayursense/internal/errors"
)

// Consultation statuses.
const (
	StatusActive    = "active"
	StatusCompleted = "completed"
)

// Consultation is one assessment session: modality results accumulate
// against it until it is finalized.
type Consultation struct {
	ID         string                          `json:"consultation_id"`
	Status     string                          `json:"status"`
	CreatedAt  time.Time                       `json:"created_at"`
	UpdatedAt  time.Time                       `json:"updated_at"`
	Results    map[string]dosha.ModalityResult `json:"results"`
	Assessment *Assessment                     `json:"assessment,omitempty"`
}

// newConsultationID produces IDs like CONS-3F2A9C1B.
func newConsultationID() string {
	return "CONS-" + strings.ToUpper(uuid.NewString()[:8])
}

// clone returns a snapshot safe to read outside the store lock. Modality
// results and assessments are written once and never mutated in place, so
// copying the struct and the results map is sufficient.
func (c *Consultation) clone() *Consultation {
	out := *c
	out.Results = make(map[string]dosha.ModalityResult, len(c.Results))
	for m, r := range c.Results {
		out.Results[m] = r
	}
	return &out
}

// ConsultationStore is an in-memory session store. Consultations are
// independently owned; no data is shared across them.
type ConsultationStore struct {
	mu    sync.RWMutex
	items map[string]*Consultation
}

// NewConsultationStore creates an empty store.
func NewConsultationStore() *ConsultationStore {
	return &ConsultationStore{items: make(map[string]*Consultation)}
}

// Create registers a new active consultation and returns it.
func (s *ConsultationStore) Create() *Consultation {
	now := time.Now().UTC()
	c := &Consultation{
		ID:        newConsultationID(),
		Status:    StatusActive,
		CreatedAt: now,
		UpdatedAt: now,
		Results:   make(map[string]dosha.ModalityResult),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[c.ID] = c
	return c.clone()
}

// Get returns a snapshot of the consultation with the given ID. Callers
// may read or encode it without holding the store lock.
func (s *ConsultationStore) Get(id string) (*Consultation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.items[id]
	if !ok {
		return nil, errors.NotFound("consultation " + id)
	}
	return c.clone(), nil
}

// Update applies fn to the consultation under the store lock and returns a
// snapshot of the updated state.
func (s *ConsultationStore) Update(id string, fn func(*Consultation) error) (*Consultation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.items[id]
	if !ok {
		return nil, errors.NotFound("consultation " + id)
	}
	if err := fn(c); err != nil {
		return nil, err
	}
	c.UpdatedAt = time.Now().UTC()
	return c.clone(), nil
}
