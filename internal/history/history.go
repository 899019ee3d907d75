// Package history holds the bounded most-recent-first ring of
// completed-test records (spec §4.9), grounded on vaultaire's
// internal/cache LRU eviction discipline but simplified to prepend/
// truncate since history never needs random-access promotion.
package history

import (
	"sync"

	"github.com/FairForge/loadforge/internal/loadmodel"
)

// MaxRecords is the upper bound on retained history entries.
const MaxRecords = 100

// Ring is a most-recent-first bounded sequence of completed-test
// records.
type Ring struct {
	mu      sync.Mutex
	records []loadmodel.HistoryRecord
}

// New returns an empty Ring.
func New() *Ring {
	return &Ring{}
}

// Append prepends r to the ring. If the ring exceeds MaxRecords, the
// oldest (tail) record is dropped.
func (h *Ring) Append(r loadmodel.HistoryRecord) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.records = append([]loadmodel.HistoryRecord{r}, h.records...)
	if len(h.records) > MaxRecords {
		h.records = h.records[:MaxRecords]
	}
}

// All returns an independent, most-recent-first copy of every record.
func (h *Ring) All() []loadmodel.HistoryRecord {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]loadmodel.HistoryRecord(nil), h.records...)
}

// Get performs a linear lookup by id. The bool is false if id is not
// present.
func (h *Ring) Get(id string) (loadmodel.HistoryRecord, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, r := range h.records {
		if r.ID == id {
			return r, true
		}
	}
	return loadmodel.HistoryRecord{}, false
}

// GetMany returns every record whose id is in ids, in history order
// (most-recent-first), not in the order ids were supplied.
func (h *Ring) GetMany(ids []string) []loadmodel.HistoryRecord {
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	var out []loadmodel.HistoryRecord
	for _, r := range h.records {
		if want[r.ID] {
			out = append(out, r)
		}
	}
	return out
}
