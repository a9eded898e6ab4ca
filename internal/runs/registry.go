package runs

import (
	"errors"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/comment-insight/backend/internal/metrics"
)

var ErrRunNotFound = errors.New("run not found")

// Registry holds completed runs for later querying. The least recently used
// run is evicted once the registry is full, and every run expires after ttl.
type Registry struct {
	cache *expirable.LRU[string, *Run]
}

func NewRegistry(maxRuns int, ttl time.Duration) *Registry {
	if maxRuns <= 0 {
		maxRuns = 32
	}
	r := &Registry{}
	r.cache = expirable.NewLRU[string, *Run](maxRuns, func(string, *Run) {
		metrics.ActiveRuns.Dec()
	}, ttl)
	return r
}

// Put stores a run under its ID. Removal, eviction and expiry all go through
// the eviction callback, which keeps the active-runs gauge in step.
func (r *Registry) Put(run *Run) {
	r.cache.Add(run.ID, run)
	metrics.ActiveRuns.Inc()
}

func (r *Registry) Get(id string) (*Run, error) {
	run, ok := r.cache.Get(id)
	if !ok {
		return nil, ErrRunNotFound
	}
	return run, nil
}

func (r *Registry) Delete(id string) error {
	if !r.cache.Remove(id) {
		return ErrRunNotFound
	}
	return nil
}

func (r *Registry) Len() int {
	return r.cache.Len()
}
