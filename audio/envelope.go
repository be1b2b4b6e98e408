package audio

import "github.com/gopxl/beep"

// envelope shapes a fixed-length streamer with a linear fade-in, a unity
// sustain and a linear fade-out ending exactly at the last sample. A raw
// sample-accurate slice clicks at both edges; the envelope is what makes
// word playback clean.
//
// Release switches the envelope into a short fade-to-silence ramp so a
// superseded playback never overlaps audibly with its replacement.
type envelope struct {
	s       beep.Streamer
	length  int
	fadeIn  int
	fadeOut int
	release int

	pos          int
	released     bool
	releasedAt   int
	releasedGain float64
	drained      bool
}

func newEnvelope(s beep.Streamer, length, fadeIn, fadeOut, release int) *envelope {
	if fadeIn > length/2 {
		fadeIn = length / 2
	}
	if fadeOut > length/2 {
		fadeOut = length / 2
	}
	return &envelope{s: s, length: length, fadeIn: fadeIn, fadeOut: fadeOut, release: release}
}

// gainAt is the shaped gain for one sample position, before any release
// ramp is applied.
func (e *envelope) gainAt(pos int) float64 {
	switch {
	case pos < 0 || pos >= e.length:
		return 0
	case e.fadeIn > 0 && pos < e.fadeIn:
		return float64(pos) / float64(e.fadeIn)
	case e.fadeOut > 0 && pos >= e.length-e.fadeOut:
		return float64(e.length-pos) / float64(e.fadeOut)
	}
	return 1
}

// Release begins the pre-emption fade at the current position. Must be
// called with the speaker locked.
func (e *envelope) Release() {
	if e.released || e.drained {
		return
	}
	e.released = true
	e.releasedAt = e.pos
	e.releasedGain = e.gainAt(e.pos)
}

func (e *envelope) Stream(samples [][2]float64) (int, bool) {
	if e.drained {
		return 0, false
	}

	n, ok := e.s.Stream(samples)
	for i := 0; i < n; i++ {
		g := e.gainAt(e.pos)
		if e.released {
			rel := e.pos - e.releasedAt
			if rel >= e.release {
				e.drained = true
				n = i
				return n, n > 0
			}
			ramp := 1 - float64(rel)/float64(e.release)
			g = e.releasedGain * ramp
		}
		samples[i][0] *= g
		samples[i][1] *= g
		e.pos++
	}
	if !ok || e.pos >= e.length {
		e.drained = true
	}
	return n, n > 0
}

func (e *envelope) Err() error {
	return e.s.Err()
}
