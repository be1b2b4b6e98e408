package align

import (
	"errors"
	"fmt"

	"narralign/script"
	"narralign/segment"
)

// ErrNoNarration is returned when a session is started without a loaded
// narration track.
var ErrNoNarration = errors.New("no narration track loaded")

type (
	// Transport is the slice of the narration track the session drives:
	// a playback cursor, a rate control, and start/stop. The concrete
	// implementation lives in the audio package.
	Transport interface {
		Pos() float64
		Seek(seconds float64) error
		SetRate(ratio float64)
		Play(from float64) error
		SetPaused(paused bool)
		Stop()
	}

	Config struct {
		ReactionCompensation float64
		GuardBand            float64
		DefaultSegmentLength float64
		PracticeRate         float64
	}

	State int

	// Session turns live mark signals during slowed playback into store
	// entries. It is a strict sequential state machine; marks can never
	// arrive out of order or concurrently.
	Session struct {
		cfg    Config
		t      Transport
		words  []script.Word
		state  State
		cursor int
		store  segment.Store
	}
)

const (
	Idle State = iota
	Armed
	Marking
	Paused
	Completed
	Cancelled
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Armed:
		return "armed"
	case Marking:
		return "marking"
	case Paused:
		return "paused"
	case Completed:
		return "completed"
	case Cancelled:
		return "cancelled"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

func NewSession(cfg Config, words []script.Word, t Transport) *Session {
	return &Session{cfg: cfg, words: words, t: t}
}

// SetTransport swaps the narration track. Any alignment in progress is
// invalidated because its timestamps belong to the old track.
func (s *Session) SetTransport(t Transport) {
	if s.state == Armed || s.state == Marking || s.state == Paused {
		s.Cancel()
	}
	s.t = t
	s.state = Idle
}

// Start resets the store and cursor, rewinds the narration, slows it to
// the practice rate and begins playback.
func (s *Session) Start() error {
	if s.t == nil {
		return ErrNoNarration
	}
	if len(s.words) == 0 {
		return errors.New("empty word sequence")
	}
	s.store = nil
	s.cursor = 0
	s.t.SetRate(s.cfg.PracticeRate)
	if err := s.t.Play(0); err != nil {
		return fmt.Errorf("starting alignment playback: %w", err)
	}
	s.state = Armed
	return nil
}

// Mark records the boundary for the word at the cursor. The raw playback
// position is shifted back by the reaction compensation, and the
// previous segment's placeholder end is corrected to just before this
// word's onset.
func (s *Session) Mark() error {
	if s.state != Armed && s.state != Marking {
		return fmt.Errorf("mark while %s", s.state)
	}

	compensated := s.t.Pos() - s.cfg.ReactionCompensation
	if compensated < 0 {
		compensated = 0
	}

	if s.cursor > 0 {
		s.store = s.store.CloseLast(compensated - s.cfg.GuardBand)
	}
	word := s.words[s.cursor]
	s.store = s.store.Append(word.Normalized, compensated, compensated+s.cfg.DefaultSegmentLength)
	s.cursor++

	if s.cursor == len(s.words) {
		s.t.Stop()
		s.t.SetRate(1)
		s.state = Completed
		return nil
	}
	s.state = Marking
	return nil
}

// PauseOrResume toggles narration playback without touching the store or
// the cursor.
func (s *Session) PauseOrResume() {
	switch s.state {
	case Armed, Marking:
		s.t.SetPaused(true)
		s.state = Paused
	case Paused:
		s.t.SetPaused(false)
		if s.cursor == 0 {
			s.state = Armed
		} else {
			s.state = Marking
		}
	}
}

// Undo removes the newest segment and seeks back to the previous
// segment's start so the mark can be redone. No-op at cursor 0.
func (s *Session) Undo() error {
	if s.cursor == 0 {
		return nil
	}
	if s.state != Armed && s.state != Marking && s.state != Paused {
		return fmt.Errorf("undo while %s", s.state)
	}

	s.cursor--
	s.store = s.store.DropLast()

	var redoFrom float64
	if len(s.store) > 0 {
		redoFrom = s.store[len(s.store)-1].Start
	}
	if err := s.t.Seek(redoFrom); err != nil {
		return fmt.Errorf("seeking for redo: %w", err)
	}
	if s.cursor == 0 && s.state != Paused {
		s.state = Armed
	}
	return nil
}

// Cancel stops playback and restores the normal rate. The partial store
// is kept; discarding it is the caller's decision.
func (s *Session) Cancel() {
	if s.t != nil {
		s.t.Stop()
		s.t.SetRate(1)
	}
	s.state = Cancelled
}

func (s *Session) State() State         { return s.state }
func (s *Session) Cursor() int          { return s.cursor }
func (s *Session) Store() segment.Store { return s.store }

// Active reports whether a live alignment owns the narration cursor.
func (s *Session) Active() bool {
	return s.state == Armed || s.state == Marking || s.state == Paused
}
