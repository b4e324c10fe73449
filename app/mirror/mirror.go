// Package mirror holds a replica-local view of product stock that is kept
// approximately in sync by change events. It is never authoritative: reads
// that must be correct go to the record store.
package mirror

import (
	"sort"
	"sync"
	"time"

	"inventory-sync-service/app/domain"
	"inventory-sync-service/pkg/metrics"
)

type Mirror struct {
	mu       sync.RWMutex
	entries  map[int64]domain.MirrorEntry
	watchers map[int]chan domain.ChangeEvent
	nextID   int
	now      func() time.Time
}

func New() *Mirror {
	return &Mirror{
		entries:  make(map[int64]domain.MirrorEntry),
		watchers: make(map[int]chan domain.ChangeEvent),
		now:      time.Now,
	}
}

// Apply records ev using last-write-wins by arrival order. It reports
// whether the visible stock changed; re-applying the current value is a
// no-op, so duplicates are harmless.
func (m *Mirror) Apply(ev domain.ChangeEvent) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.entries[ev.ProductID]
	if ok && entry.Stock == ev.Stock {
		return false
	}

	entry.ProductID = ev.ProductID
	entry.Stock = ev.Stock
	entry.Applied++
	entry.UpdatedAt = m.now()
	m.entries[ev.ProductID] = entry
	metrics.MirrorProducts.Set(float64(len(m.entries)))

	m.notify(ev)
	return true
}

func (m *Mirror) Get(productID int64) (domain.MirrorEntry, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	entry, ok := m.entries[productID]
	return entry, ok
}

// Snapshot returns every entry ordered by product id.
func (m *Mirror) Snapshot() []domain.MirrorEntry {
	m.mu.RLock()
	entries := make([]domain.MirrorEntry, 0, len(m.entries))
	for _, entry := range m.entries {
		entries = append(entries, entry)
	}
	m.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].ProductID < entries[j].ProductID
	})
	return entries
}

// Seed applies the store's current values and returns how many entries
// changed.
func (m *Mirror) Seed(products []domain.Product) int {
	changed := 0
	for _, p := range products {
		if m.Apply(domain.ChangeEvent{ProductID: p.ID, Stock: p.Stock}) {
			changed++
		}
	}
	return changed
}

// Watch streams every visible change to the caller until cancel is called.
// A watcher that falls more than buffer events behind misses events.
func (m *Mirror) Watch(buffer int) (<-chan domain.ChangeEvent, func()) {
	if buffer <= 0 {
		buffer = 1
	}

	m.mu.Lock()
	id := m.nextID
	m.nextID++
	ch := make(chan domain.ChangeEvent, buffer)
	m.watchers[id] = ch
	m.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.watchers, id)
			m.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

// notify must be called with mu held.
func (m *Mirror) notify(ev domain.ChangeEvent) {
	for _, ch := range m.watchers {
		select {
		case ch <- ev:
		default:
		}
	}
}
