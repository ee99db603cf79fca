package gateway

import (
	"fmt"
	"sync"

	"github.com/fatflowers/paygate/internal/models"
	"github.com/fatflowers/paygate/pkg/types"
)

// Entry guards one active payment. Hold Lock while reading or changing Tx;
// Removed reports whether the entry was evicted while the caller waited.
type Entry struct {
	mu      sync.Mutex
	tx      *models.PaymentTransaction
	removed bool
}

func (e *Entry) Lock()   { e.mu.Lock() }
func (e *Entry) Unlock() { e.mu.Unlock() }

// Tx is the live record. The caller must hold the lock.
func (e *Entry) Tx() *models.PaymentTransaction { return e.tx }

// Removed must be called with the lock held.
func (e *Entry) Removed() bool { return e.removed }

// View returns a detached copy.
func (e *Entry) View() *models.PaymentTransaction {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tx.Clone()
}

// Registry holds the payments that are still in flight or recently finished.
type Registry interface {
	Add(tx *models.PaymentTransaction) error
	Get(id string) (*Entry, bool)
	// FindByAuthority resolves the id a provider callback refers to.
	FindByAuthority(g types.GatewayType, authority string) (string, bool)
	// Remove evicts id. The caller must hold the entry's lock.
	Remove(id string)
	Entries() []*Entry
	Len() int
}

type memoryRegistry struct {
	mu          sync.RWMutex
	entries     map[string]*Entry
	byAuthority map[string]string
}

func NewMemoryRegistry() Registry {
	return &memoryRegistry{
		entries:     make(map[string]*Entry),
		byAuthority: make(map[string]string),
	}
}

func authorityKey(g types.GatewayType, authority string) string {
	return string(g) + "|" + authority
}

func (r *memoryRegistry) Add(tx *models.PaymentTransaction) error {
	if tx == nil || tx.ID == "" {
		return fmt.Errorf("transaction without id")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.entries[tx.ID]; exists {
		return fmt.Errorf("transaction %s already registered", tx.ID)
	}
	r.entries[tx.ID] = &Entry{tx: tx}
	if tx.Authority != "" {
		r.byAuthority[authorityKey(tx.PaymentMethod, tx.Authority)] = tx.ID
	}
	return nil
}

func (r *memoryRegistry) Get(id string) (*Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[id]
	return e, ok
}

func (r *memoryRegistry) FindByAuthority(g types.GatewayType, authority string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byAuthority[authorityKey(g, authority)]
	return id, ok
}

func (r *memoryRegistry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[id]
	if !ok {
		return
	}
	e.removed = true
	delete(r.entries, id)
	if e.tx.Authority != "" {
		delete(r.byAuthority, authorityKey(e.tx.PaymentMethod, e.tx.Authority))
	}
}

func (r *memoryRegistry) Entries() []*Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Entry, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e)
	}
	return out
}

func (r *memoryRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}
