package match

import "time"

// QueueEntry is one waiting player. Re-joining while waiting overwrites
// the entry in place with a fresh timestamp.
type QueueEntry struct {
	ID         string
	Name       string
	Rating     int
	EnqueuedAt time.Time
}

// bestCandidate picks the waiting entry minimizing the absolute rating
// difference to r. Ties go to the earliest EnqueuedAt so long waiters are
// not starved by map iteration order.
func bestCandidate(queue map[string]*QueueEntry, selfID string, r int) *QueueEntry {
	var best *QueueEntry
	bestDiff := 0
	for _, e := range queue {
		if e.ID == selfID {
			continue
		}
		d := e.Rating - r
		if d < 0 {
			d = -d
		}
		if best == nil || d < bestDiff || (d == bestDiff && e.EnqueuedAt.Before(best.EnqueuedAt)) {
			best, bestDiff = e, d
		}
	}
	return best
}
