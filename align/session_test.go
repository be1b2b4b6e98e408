package align

import (
	"errors"
	"math"
	"testing"

	"narralign/script"
)

// fakeTransport records what the session does to the narration cursor.
type fakeTransport struct {
	pos     float64
	rate    float64
	playing bool
	paused  bool
	seeks   []float64
}

func (f *fakeTransport) Pos() float64 { return f.pos }

func (f *fakeTransport) Seek(seconds float64) error {
	f.pos = seconds
	f.seeks = append(f.seeks, seconds)
	return nil
}

func (f *fakeTransport) SetRate(ratio float64) { f.rate = ratio }

func (f *fakeTransport) Play(from float64) error {
	f.pos = from
	f.playing = true
	return nil
}

func (f *fakeTransport) SetPaused(paused bool) { f.paused = paused }
func (f *fakeTransport) Stop()                 { f.playing = false }

func testConfig() Config {
	return Config{
		ReactionCompensation: 0.1,
		GuardBand:            0.02,
		DefaultSegmentLength: 0.5,
		PracticeRate:         0.75,
	}
}

func newTestSession(t *testing.T, text string) (*Session, *fakeTransport) {
	t.Helper()
	tr := &fakeTransport{}
	return NewSession(testConfig(), script.Parse(text).Words, tr), tr
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestStartWithoutNarration(t *testing.T) {
	s := NewSession(testConfig(), script.Parse("Hello world.").Words, nil)
	if err := s.Start(); !errors.Is(err, ErrNoNarration) {
		t.Fatalf("expected ErrNoNarration, got %v", err)
	}
	if s.State() != Idle {
		t.Fatalf("expected session to stay idle, got %s", s.State())
	}
}

func TestStartArmsPlaybackAtPracticeRate(t *testing.T) {
	s, tr := newTestSession(t, "Hello world.")
	if err := s.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	if s.State() != Armed || s.Cursor() != 0 || len(s.Store()) != 0 {
		t.Fatalf("unexpected armed state: %s cursor=%d store=%d", s.State(), s.Cursor(), len(s.Store()))
	}
	if !tr.playing || tr.pos != 0 || tr.rate != 0.75 {
		t.Fatalf("transport not armed: %+v", tr)
	}
}

// Marks arriving at raw positions 0.30s and 1.00s, compensated by 0.1s,
// must produce hello=[0.20, 0.88] (end corrected back by the guard
// band) and world=[0.90, 1.40] (placeholder end).
func TestMarkCompensatesAndCorrectsPreviousEnd(t *testing.T) {
	s, tr := newTestSession(t, "Hello world.")
	if err := s.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}

	tr.pos = 0.30
	if err := s.Mark(); err != nil {
		t.Fatalf("first mark: %v", err)
	}
	tr.pos = 1.00
	if err := s.Mark(); err != nil {
		t.Fatalf("second mark: %v", err)
	}

	store := s.Store()
	if len(store) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(store))
	}
	if store[0].Word != "hello" || !almostEqual(store[0].Start, 0.20) || !almostEqual(store[0].End, 0.88) {
		t.Fatalf("segment 0 = %+v, want hello [0.20, 0.88]", store[0])
	}
	if store[1].Word != "world" || !almostEqual(store[1].Start, 0.90) || !almostEqual(store[1].End, 1.40) {
		t.Fatalf("segment 1 = %+v, want world [0.90, 1.40]", store[1])
	}
}

func TestMarkClampsCompensationNearZero(t *testing.T) {
	s, tr := newTestSession(t, "Hello world.")
	if err := s.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	tr.pos = 0.04
	if err := s.Mark(); err != nil {
		t.Fatalf("mark: %v", err)
	}
	if got := s.Store()[0].Start; got != 0 {
		t.Fatalf("expected start clamped to 0, got %v", got)
	}
}

func TestFinalMarkCompletesAndRestoresRate(t *testing.T) {
	s, tr := newTestSession(t, "Hello world.")
	if err := s.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	tr.pos = 0.30
	if err := s.Mark(); err != nil {
		t.Fatalf("first mark: %v", err)
	}
	tr.pos = 1.00
	if err := s.Mark(); err != nil {
		t.Fatalf("second mark: %v", err)
	}

	if s.State() != Completed {
		t.Fatalf("expected completed, got %s", s.State())
	}
	if s.Cursor() != 2 || len(s.Store()) != 2 {
		t.Fatalf("completed session must have cursor == store length == word count")
	}
	if tr.playing || tr.rate != 1 {
		t.Fatalf("transport not restored: %+v", tr)
	}
}

func TestCursorTracksStoreLength(t *testing.T) {
	s, tr := newTestSession(t, "One two three four five.")
	if err := s.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}

	for i, pos := range []float64{0.5, 1.0, 1.5} {
		tr.pos = pos
		if err := s.Mark(); err != nil {
			t.Fatalf("mark %d: %v", i, err)
		}
		if s.Cursor() != len(s.Store()) {
			t.Fatalf("after mark %d: cursor %d != store length %d", i, s.Cursor(), len(s.Store()))
		}
	}
	if err := s.Undo(); err != nil {
		t.Fatalf("undo: %v", err)
	}
	if s.Cursor() != len(s.Store()) {
		t.Fatalf("after undo: cursor %d != store length %d", s.Cursor(), len(s.Store()))
	}
}

func TestUndoInvertsMark(t *testing.T) {
	s, tr := newTestSession(t, "One two three.")
	if err := s.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	tr.pos = 0.5
	if err := s.Mark(); err != nil {
		t.Fatalf("mark: %v", err)
	}

	cursorBefore, lenBefore := s.Cursor(), len(s.Store())
	tr.pos = 1.0
	if err := s.Mark(); err != nil {
		t.Fatalf("mark: %v", err)
	}
	if err := s.Undo(); err != nil {
		t.Fatalf("undo: %v", err)
	}

	if s.Cursor() != cursorBefore || len(s.Store()) != lenBefore {
		t.Fatalf("undo did not invert mark: cursor %d/%d, len %d/%d",
			s.Cursor(), cursorBefore, len(s.Store()), lenBefore)
	}
}

func TestUndoSeeksToRedoPoint(t *testing.T) {
	s, tr := newTestSession(t, "One two three.")
	if err := s.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	tr.pos = 0.5
	if err := s.Mark(); err != nil {
		t.Fatalf("mark: %v", err)
	}
	tr.pos = 1.0
	if err := s.Mark(); err != nil {
		t.Fatalf("mark: %v", err)
	}

	if err := s.Undo(); err != nil {
		t.Fatalf("undo: %v", err)
	}
	// Back at the surviving segment's start for a redo.
	if got := tr.seeks[len(tr.seeks)-1]; !almostEqual(got, 0.4) {
		t.Fatalf("expected seek to 0.4, got %v", got)
	}

	if err := s.Undo(); err != nil {
		t.Fatalf("undo: %v", err)
	}
	if got := tr.seeks[len(tr.seeks)-1]; got != 0 {
		t.Fatalf("expected seek to 0 with empty store, got %v", got)
	}
}

func TestUndoAtCursorZeroIsNoop(t *testing.T) {
	s, tr := newTestSession(t, "Hello world.")
	if err := s.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := s.Undo(); err != nil {
		t.Fatalf("undo at zero must be a no-op, got %v", err)
	}
	if len(tr.seeks) != 0 {
		t.Fatalf("no-op undo must not seek")
	}
}

func TestPauseResume(t *testing.T) {
	s, tr := newTestSession(t, "Hello world.")
	if err := s.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}

	s.PauseOrResume()
	if s.State() != Paused || !tr.paused {
		t.Fatalf("expected paused, got %s", s.State())
	}
	if err := s.Mark(); err == nil {
		t.Fatalf("mark while paused must be rejected")
	}

	s.PauseOrResume()
	if s.State() != Armed || tr.paused {
		t.Fatalf("expected armed after resume at cursor 0, got %s", s.State())
	}
}

func TestCancelKeepsPartialStore(t *testing.T) {
	s, tr := newTestSession(t, "One two three.")
	if err := s.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	tr.pos = 0.5
	if err := s.Mark(); err != nil {
		t.Fatalf("mark: %v", err)
	}

	s.Cancel()
	if s.State() != Cancelled {
		t.Fatalf("expected cancelled, got %s", s.State())
	}
	if tr.playing || tr.rate != 1 {
		t.Fatalf("transport not released: %+v", tr)
	}
	if len(s.Store()) != 1 {
		t.Fatalf("partial store must survive cancel, got %d segments", len(s.Store()))
	}
}

func TestSetTransportInvalidatesLiveSession(t *testing.T) {
	s, tr := newTestSession(t, "Hello world.")
	if err := s.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	tr.pos = 0.5
	if err := s.Mark(); err != nil {
		t.Fatalf("mark: %v", err)
	}

	s.SetTransport(&fakeTransport{})
	if s.State() != Idle {
		t.Fatalf("expected idle after transport swap, got %s", s.State())
	}
	if tr.playing {
		t.Fatalf("old transport still playing")
	}
}
