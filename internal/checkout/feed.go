package checkout

import (
	"sync"

	"github.com/naveenspark/plangate/pkg/domain"
)

// PlanFeed orders overlapping plan fetches. Each fetch takes a sequence
// number from Begin; only the completion carrying the latest number issued
// is applied, so a slow earlier response can never overwrite a newer one.
type PlanFeed struct {
	mu     sync.Mutex
	issued uint64
	plans  []domain.Plan
	loaded bool
}

// Begin issues the sequence number for a new fetch.
func (f *PlanFeed) Begin() uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.issued++
	return f.issued
}

// Complete applies plans if seq is still the latest fetch and reports whether
// it did.
func (f *PlanFeed) Complete(seq uint64, plans []domain.Plan) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if seq != f.issued {
		return false
	}
	f.plans = plans
	f.loaded = true
	return true
}

// Latest reports whether seq is still the most recently issued fetch.
func (f *PlanFeed) Latest(seq uint64) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return seq == f.issued
}

// Plans returns the most recently applied listing.
func (f *PlanFeed) Plans() ([]domain.Plan, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.plans, f.loaded
}
