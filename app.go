package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"narralign/align"
	"narralign/audio"
	"narralign/config"
	"narralign/highlight"
	"narralign/script"
	"narralign/segment"
	"narralign/store"
)

// segmentPlayer is the slice of the audio player the app drives. The
// concrete implementation is audio.Player.
type segmentPlayer interface {
	SetTrack(t *audio.Track)
	PlayRange(start, end, padding float64, onEnded func(id uuid.UUID)) (*audio.Handle, error)
	Stop()
	Current() (uuid.UUID, bool)
}

// App owns the engine wiring: the narration track, the alignment
// session, the segment player and the current highlight tracker. The
// store is held by value; every mutation replaces it wholesale.
type App struct {
	cfg  config.Config
	scr  script.Script
	repo store.SQLiteRepo

	track   *audio.Track
	session *align.Session
	player  segmentPlayer
	store   segment.Store

	tracker *highlight.Tracker

	// notifyEnded is called from the speaker goroutine when a playback
	// handle finishes naturally. The UI layer points it at its message
	// pump.
	notifyEnded func(id uuid.UUID)
}

func NewApp(cfg config.Config, scr script.Script, repo store.SQLiteRepo) *App {
	a := &App{
		cfg:    cfg,
		scr:    scr,
		repo:   repo,
		player: audio.NewPlayer(cfg.PreemptFade),
	}
	a.session = align.NewSession(align.Config{
		ReactionCompensation: cfg.ReactionCompensation,
		GuardBand:            cfg.GuardBand,
		DefaultSegmentLength: cfg.DefaultSegmentLength,
		PracticeRate:         cfg.PracticeRate,
	}, scr.Words, nil)
	return a
}

// LoadNarration decodes a narration blob and swaps it in. On decode
// failure the previous track stays untouched. The blob is persisted
// best-effort; the session works without persistence.
func (a *App) LoadNarration(name string, data []byte) error {
	track, err := audio.Decode(data, name)
	if err != nil {
		return err
	}
	if err := track.InitSpeaker(); err != nil {
		return err
	}

	a.track = track
	a.player.SetTrack(track)
	a.session.SetTransport(track)
	a.tracker = nil

	if err := a.repo.SaveNarration(context.Background(), name, data); err != nil {
		config.Log.WithError(err).Warn("narration not persisted; continuing in-memory")
	}
	return nil
}

// RemoveNarration drops the stored blob and the live track. All
// scheduled playback dies with it.
func (a *App) RemoveNarration() error {
	a.player.Stop()
	if a.track != nil {
		a.track.Stop()
	}
	a.track = nil
	a.player.SetTrack(nil)
	a.session.SetTransport(nil)
	a.tracker = nil
	return a.repo.DeleteNarration(context.Background())
}

// StartAlignment begins a fresh marking session over the whole script.
func (a *App) StartAlignment() error {
	if a.track == nil {
		return align.ErrNoNarration
	}
	a.player.Stop()
	a.tracker = nil
	return a.session.Start()
}

// Mark records the next word boundary. On the final word the session
// completes and the finished store becomes authoritative and is
// persisted.
func (a *App) Mark() error {
	if err := a.session.Mark(); err != nil {
		return err
	}
	if a.session.State() == align.Completed {
		a.store = a.session.Store()
		a.persist()
	}
	return nil
}

func (a *App) PauseOrResume() {
	a.session.PauseOrResume()
}

func (a *App) Undo() error {
	return a.session.Undo()
}

// CancelAlignment abandons the session; the partial segmentation is
// discarded and the previous store stays authoritative.
func (a *App) CancelAlignment() {
	a.session.Cancel()
}

// ResetUniform replaces the store with an evenly spaced fallback
// segmentation carrying no real alignment signal.
func (a *App) ResetUniform() error {
	if a.track == nil {
		return align.ErrNoNarration
	}
	a.store = segment.Uniform(a.scr.Words, a.track.Duration())
	a.persist()
	return nil
}

// PlayWord plays one word's segment and tracks its highlight.
func (a *App) PlayWord(sentence, word int) error {
	idx, ok := a.scr.GlobalIndex(sentence, word)
	if !ok {
		return fmt.Errorf("no word %d in sentence %d", word, sentence)
	}
	return a.playRange(idx, idx)
}

// PlaySentence plays a sentence's full segment range.
func (a *App) PlaySentence(sentence int) error {
	r, ok := a.scr.SentenceRange(sentence)
	if !ok {
		return fmt.Errorf("no sentence %d", sentence)
	}
	return a.playRange(r.Start, r.End)
}

func (a *App) playRange(first, last int) error {
	if first < 0 || last >= len(a.store) {
		return fmt.Errorf("words %d..%d not aligned yet", first, last)
	}

	_, err := a.player.PlayRange(a.store[first].Start, a.store[last].End, 0, a.handleEnded)
	if err != nil {
		return err
	}
	// Cancel-before-start: the old tracker is dropped here, so a frame
	// step of a superseded playback can never run again.
	a.tracker = highlight.Start(a.store, first, last, a.cfg.HighlightTolerance, time.Now())
	return nil
}

func (a *App) handleEnded(id uuid.UUID) {
	if a.notifyEnded != nil {
		a.notifyEnded(id)
	}
}

// NudgeBoundary moves one boundary of one segment by delta seconds and
// immediately replays the adjusted segment so the change can be heard.
func (a *App) NudgeBoundary(idx int, edge segment.Edge, delta float64) error {
	if idx < 0 || idx >= len(a.store) {
		return fmt.Errorf("no segment %d to nudge", idx)
	}
	a.store = a.store.Nudge(idx, edge, delta)
	a.persist()
	return a.playRange(idx, idx)
}

// StepHighlight advances the current highlight loop by one frame,
// reporting the live word index or highlight.None.
func (a *App) StepHighlight(now time.Time) int {
	if a.tracker == nil {
		return highlight.None
	}
	idx, done := a.tracker.Step(now)
	if done {
		a.tracker = nil
		return highlight.None
	}
	return idx
}

// PlaybackEnded clears the highlight when the finished handle is still
// the current one. A stale handle's completion is ignored.
func (a *App) PlaybackEnded(id uuid.UUID) {
	if cur, ok := a.player.Current(); ok && cur != id {
		return
	}
	a.tracker = nil
}

// ExportDocument serializes the store for download.
func (a *App) ExportDocument() ([]byte, error) {
	return a.store.MarshalDocument()
}

// ImportDocument validates and swaps in a previously exported store. A
// malformed document changes nothing.
func (a *App) ImportDocument(data []byte) error {
	s, err := segment.UnmarshalDocument(data)
	if err != nil {
		return err
	}
	a.store = s
	a.persist()
	return nil
}

// currentStore is what the renderer draws: the live session's partial
// store while marking, otherwise the authoritative one.
func (a *App) currentStore() segment.Store {
	if a.session.Active() {
		return a.session.Store()
	}
	return a.store
}

func (a *App) persist() {
	if err := a.repo.SaveAlignment(context.Background(), a.store); err != nil {
		config.Log.WithError(err).Warn("alignment not persisted; in-memory store stays authoritative")
	}
}

// restore loads the persisted alignment, if any.
func (a *App) restore() {
	s, err := a.repo.LoadAlignment(context.Background())
	if errors.Is(err, store.ErrNotFound) {
		return
	}
	if err != nil {
		config.Log.WithError(err).Warn("could not restore alignment")
		return
	}
	a.store = s
}
