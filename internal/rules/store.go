// Package rules keeps the ordered list of alert rule definitions.
package rules

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/STTM-NSU/portfolio-alerts/internal/model"
)

var NotFoundError = errors.New("rule not found")

// Store is the rule list the evaluator reads. Rules come back ordered by id;
// Add assigns the next id, Save overwrites every field.
type Store interface {
	List(ctx context.Context) ([]model.Rule, error)
	Get(ctx context.Context, id int64) (model.Rule, error)
	Add(ctx context.Context, r model.Rule) (model.Rule, error)
	Save(ctx context.Context, r model.Rule) error
	Delete(ctx context.Context, id int64) error
	Reset(ctx context.Context) error
}

// Seed adds rules to s only when s holds none, so restarts don't duplicate
// the configured defaults.
func Seed(ctx context.Context, s Store, seed []model.Rule) (int, error) {
	if len(seed) == 0 {
		return 0, nil
	}

	existing, err := s.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: can't list rules", err)
	}
	if len(existing) > 0 {
		return 0, nil
	}

	for _, r := range seed {
		if _, err := s.Add(ctx, r); err != nil {
			return 0, fmt.Errorf("%w: can't seed rule %q", err, r.Name)
		}
	}
	return len(seed), nil
}

type MemoryStore struct {
	mu     sync.RWMutex
	rules  []model.Rule
	nextID int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{nextID: 1}
}

func (s *MemoryStore) List(_ context.Context) ([]model.Rule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Rule, 0, len(s.rules))
	for _, r := range s.rules {
		out = append(out, clone(r))
	}
	return out, nil
}

func (s *MemoryStore) Get(_ context.Context, id int64) (model.Rule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.find(id)
	if i < 0 {
		return model.Rule{}, NotFoundError
	}
	return clone(s.rules[i]), nil
}

func (s *MemoryStore) Add(_ context.Context, r model.Rule) (model.Rule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r = clone(r)
	r.ID = s.nextID
	s.nextID++
	s.rules = append(s.rules, r)
	return clone(r), nil
}

func (s *MemoryStore) Save(_ context.Context, r model.Rule) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.find(r.ID)
	if i < 0 {
		return NotFoundError
	}
	s.rules[i] = clone(r)
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.find(id)
	if i < 0 {
		return NotFoundError
	}
	s.rules = slices.Delete(s.rules, i, i+1)
	return nil
}

func (s *MemoryStore) Reset(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.rules = nil
	s.nextID = 1
	return nil
}

func (s *MemoryStore) find(id int64) int {
	return slices.IndexFunc(s.rules, func(r model.Rule) bool { return r.ID == id })
}

func clone(r model.Rule) model.Rule {
	r.AppliedTo = slices.Clone(r.AppliedTo)
	r.CommonIn = slices.Clone(r.CommonIn)
	return r
}
