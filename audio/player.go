package audio

import (
	"github.com/google/uuid"
	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"
)

// Playback fade constants, in seconds.
const (
	fadeInLen  = 0.02
	fadeOutLen = 0.05
	// minAudible is the duration floor for degenerate ranges.
	minAudible = 0.01
)

type (
	// Handle is one in-flight rendered segment. Its ID is the identity
	// frame loops compare against so a superseded playback can't
	// overwrite fresh state.
	Handle struct {
		ID  uuid.UUID
		env *envelope
	}

	// Player renders arbitrary sample ranges of the narration with
	// click-free fades. At most one handle is audible at a time;
	// starting a new range releases the previous one.
	Player struct {
		track       *Track
		preemptFade float64
		current     *Handle
	}
)

func NewPlayer(preemptFade float64) *Player {
	return &Player{preemptFade: preemptFade}
}

// SetTrack swaps the narration. In-flight playback on the old track is
// silenced; its schedule is meaningless against the new samples.
func (p *Player) SetTrack(t *Track) {
	p.Stop()
	p.track = t
}

// PlayRange plays [start, end+padding] seconds of the narration under a
// fade envelope. onEnded fires only on natural completion of this exact
// handle, from the speaker goroutine.
func (p *Player) PlayRange(start, end, padding float64, onEnded func(id uuid.UUID)) (*Handle, error) {
	if p.track == nil {
		return nil, ErrNoTrack
	}
	if start < 0 {
		start = 0
	}
	if end < start {
		end = start
	}
	if end-start+padding <= 0 {
		end = start + minAudible
		padding = 0
	}

	t := p.track
	from := t.clampSample(t.sample(start))
	to := t.clampSample(t.sample(end + padding))
	if to-from < t.sample(minAudible) {
		to = t.clampSample(from + t.sample(minAudible))
	}

	length := to - from
	env := newEnvelope(
		t.buf.Streamer(from, to),
		length,
		t.sample(fadeInLen),
		t.sample(fadeOutLen),
		t.sample(p.preemptFade),
	)
	h := &Handle{ID: uuid.New(), env: env}

	speaker.Lock()
	if p.current != nil {
		p.current.env.Release()
	}
	p.current = h
	speaker.Unlock()

	speaker.Play(beep.Seq(env, beep.Callback(func() {
		// Runs with the speaker locked; identity check keeps a
		// released handle from clearing its successor's state.
		if p.current != h {
			return
		}
		p.current = nil
		if !env.released && onEnded != nil {
			onEnded(h.ID)
		}
	})))
	return h, nil
}

// Stop releases the current handle, if any.
func (p *Player) Stop() {
	speaker.Lock()
	if p.current != nil {
		p.current.env.Release()
		p.current = nil
	}
	speaker.Unlock()
}

// Current reports the identity of the handle now sounding, or false.
func (p *Player) Current() (uuid.UUID, bool) {
	speaker.Lock()
	h := p.current
	speaker.Unlock()
	if h == nil {
		return uuid.UUID{}, false
	}
	return h.ID, true
}
