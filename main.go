package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"narralign/config"
	"narralign/script"
	"narralign/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	config.InitLogger(cfg.LogPath)

	scriptText, err := os.ReadFile(cfg.ScriptPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "reading script %s: %v\n", cfg.ScriptPath, err)
		os.Exit(1)
	}
	scr := script.Parse(string(scriptText))
	if scr.WordCount() == 0 {
		fmt.Fprintf(os.Stderr, "script %s has no words\n", cfg.ScriptPath)
		os.Exit(1)
	}

	db, err := store.InitDB(cfg.DBPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer db.Close()

	app := NewApp(cfg, scr, store.NewSQLiteRepo(db))
	app.restore()
	loadInitialNarration(app, cfg)

	p := tea.NewProgram(newModel(app), tea.WithAltScreen())
	app.notifyEnded = func(id uuid.UUID) {
		p.Send(endedMsg(id))
	}

	if _, err := p.Run(); err != nil {
		config.Log.WithError(err).Error("ui exited")
		os.Exit(1)
	}
}

// loadInitialNarration prefers the persisted blob, then the bundled
// default asset. Running with no narration at all is allowed; playback
// requests will just prompt for one.
func loadInitialNarration(app *App, cfg config.Config) {
	name, hash, data, err := app.repo.LoadNarration(context.Background())
	if err == nil {
		if err := app.LoadNarration(name, data); err == nil {
			if got := app.track.Hash(); got != hash {
				config.Log.WithField("stored", hash).WithField("decoded", got).
					Warn("restored narration hash mismatch; blob may be corrupted")
			}
			config.Log.WithField("narration", name).Info("narration restored")
			return
		}
		config.Log.WithError(err).Warn("stored narration undecodable; trying default asset")
	} else if !errors.Is(err, store.ErrNotFound) {
		config.Log.WithError(err).Warn("could not load stored narration")
	}

	data, err = os.ReadFile(cfg.DefaultAudio)
	if err != nil {
		config.Log.Info("no narration available; load one to begin")
		return
	}
	if err := app.LoadNarration(filepath.Base(cfg.DefaultAudio), data); err != nil {
		config.Log.WithError(err).Warn("default narration undecodable")
	}
}
