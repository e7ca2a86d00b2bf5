package feed

import (
	"sort"
	"sync"
	"time"

	"github.com/kamikazebr/parkspot/pkg/models"
)

// Delta lists the spot ids that changed between two snapshots
type Delta struct {
	Added    []string
	Modified []string
	Removed  []string
}

// Empty reports whether the snapshot matched the previous one
func (d Delta) Empty() bool {
	return len(d.Added) == 0 && len(d.Modified) == 0 && len(d.Removed) == 0
}

// View is the in-memory copy of the spot collection held by one
// subscription. Every snapshot replaces it wholesale.
type View struct {
	mu       sync.RWMutex
	byID     map[string]models.ParkingSpot
	readTime time.Time
	applied  bool
}

func NewView() *View {
	return &View{byID: make(map[string]models.ParkingSpot)}
}

// Apply replaces the view with spots and returns what changed. A snapshot
// read before the one already applied is ignored and Apply returns false.
func (v *View) Apply(spots []models.ParkingSpot, readTime time.Time) (Delta, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.applied && readTime.Before(v.readTime) {
		return Delta{}, false
	}

	next := make(map[string]models.ParkingSpot, len(spots))
	var delta Delta
	for _, s := range spots {
		next[s.ID] = s
		prev, ok := v.byID[s.ID]
		switch {
		case !ok:
			delta.Added = append(delta.Added, s.ID)
		case prev != s:
			delta.Modified = append(delta.Modified, s.ID)
		}
	}
	for id := range v.byID {
		if _, ok := next[id]; !ok {
			delta.Removed = append(delta.Removed, id)
		}
	}
	sort.Strings(delta.Added)
	sort.Strings(delta.Modified)
	sort.Strings(delta.Removed)

	v.byID = next
	v.readTime = readTime
	v.applied = true
	return delta, true
}

// Spots returns a copy of the current collection ordered by id
func (v *View) Spots() []models.ParkingSpot {
	v.mu.RLock()
	defer v.mu.RUnlock()

	out := make([]models.ParkingSpot, 0, len(v.byID))
	for _, s := range v.byID {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (v *View) Get(id string) (models.ParkingSpot, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	s, ok := v.byID[id]
	return s, ok
}

func (v *View) Len() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.byID)
}

// ReadTime is the read time of the last applied snapshot
func (v *View) ReadTime() time.Time {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.readTime
}
