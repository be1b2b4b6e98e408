package highlight

import (
	"time"

	"github.com/google/uuid"

	"narralign/segment"
)

// None is reported between words and outside the playing range.
const None = -1

// Tracker maps elapsed playback time of one sentence range onto the word
// currently sounding. It is a passive per-frame consumer: the caller's
// frame loop calls Step; there is no goroutine to leak. Starting a new
// tracker retires the old one by identity — a stale tracker's steps are
// simply never taken.
type Tracker struct {
	ID uuid.UUID

	store      segment.Store
	rangeStart int
	rangeEnd   int
	base       float64
	total      float64
	tolerance  float64
	startedAt  time.Time
}

// Start begins tracking the inclusive word index range [rangeStart,
// rangeEnd], with playback assumed to have started at startedAt.
func Start(store segment.Store, rangeStart, rangeEnd int, tolerance float64, startedAt time.Time) *Tracker {
	return &Tracker{
		ID:         uuid.New(),
		store:      store,
		rangeStart: rangeStart,
		rangeEnd:   rangeEnd,
		base:       store[rangeStart].Start,
		total:      store.RangeDuration(rangeStart, rangeEnd),
		tolerance:  tolerance,
		startedAt:  startedAt,
	}
}

// Step computes the live word index for one frame. done turns true once
// elapsed time exceeds the range's duration; after that the caller drops
// the tracker.
func (t *Tracker) Step(now time.Time) (index int, done bool) {
	elapsed := now.Sub(t.startedAt).Seconds()
	if elapsed > t.total {
		return None, true
	}
	pos := t.base + elapsed

	for i := t.rangeStart; i <= t.rangeEnd; i++ {
		seg := t.store[i]
		if pos >= seg.Start && pos <= seg.End+t.tolerance {
			return i, false
		}
	}
	return None, false
}
