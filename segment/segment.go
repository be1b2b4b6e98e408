package segment

import "narralign/script"

type (
	// Segment is one word's aligned time range within the narration,
	// in seconds.
	Segment struct {
		Word  string
		Start float64
		End   float64
	}

	// Store is the ordered ground-truth segmentation. All mutating
	// methods return a new Store; callers replace their value, which
	// keeps every intermediate state checkable in isolation.
	Store []Segment
)

// MinDuration is the floor for a segment's length. A mark or nudge that
// would produce something shorter gets clamped, never rejected.
const MinDuration = 0.05

// Edge selects which boundary of a segment a nudge moves.
type Edge int

const (
	EdgeStart Edge = iota
	EdgeEnd
)

// Append adds a freshly marked segment. Start is clamped to >= 0 and the
// segment is forced to at least MinDuration.
func (s Store) Append(word string, start, end float64) Store {
	if start < 0 {
		start = 0
	}
	if end < start+MinDuration {
		end = start + MinDuration
	}
	out := s.clone(1)
	return append(out, Segment{Word: word, Start: start, End: end})
}

// CloseLast retroactively corrects the most recent segment's end, the
// half of the mark trick that fixes the previous word's boundary. The
// end never drops below the segment's own start plus MinDuration.
func (s Store) CloseLast(end float64) Store {
	if len(s) == 0 {
		return s
	}
	out := s.clone(0)
	last := &out[len(out)-1]
	if end < last.Start+MinDuration {
		end = last.Start + MinDuration
	}
	last.End = end
	return out
}

// DropLast removes the newest segment. Used by undo.
func (s Store) DropLast() Store {
	if len(s) == 0 {
		return s
	}
	return s.clone(0)[:len(s)-1]
}

// Nudge moves one boundary of the segment at idx by delta seconds,
// clamping so the segment keeps MinDuration and never starts before 0.
func (s Store) Nudge(idx int, edge Edge, delta float64) Store {
	if idx < 0 || idx >= len(s) {
		return s
	}
	out := s.clone(0)
	seg := &out[idx]
	switch edge {
	case EdgeStart:
		seg.Start += delta
		if seg.Start < 0 {
			seg.Start = 0
		}
		if seg.Start > seg.End-MinDuration {
			seg.Start = seg.End - MinDuration
		}
		if seg.Start < 0 {
			seg.Start = 0
			seg.End = MinDuration
		}
	case EdgeEnd:
		seg.End += delta
		if seg.End < seg.Start+MinDuration {
			seg.End = seg.Start + MinDuration
		}
	}
	return out
}

// Uniform spreads the word sequence evenly across the narration. This is
// the fallback segmentation a reset produces when no real alignment
// signal exists.
func Uniform(words []script.Word, duration float64) Store {
	if len(words) == 0 || duration <= 0 {
		return nil
	}
	per := duration / float64(len(words))
	out := make(Store, len(words))
	for i, w := range words {
		out[i] = Segment{
			Word:  w.Normalized,
			Start: float64(i) * per,
			End:   float64(i+1) * per,
		}
	}
	return out
}

// RangeDuration is the total span from the first to the last segment of
// the inclusive index range.
func (s Store) RangeDuration(first, last int) float64 {
	if first < 0 || last >= len(s) || last < first {
		return 0
	}
	return s[last].End - s[first].Start
}

func (s Store) clone(extra int) Store {
	out := make(Store, len(s), len(s)+extra)
	copy(out, s)
	return out
}
