package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"narralign/align"
	"narralign/highlight"
	"narralign/segment"
	"narralign/wave"
)

const (
	exportPath = "alignment.json"
	// nudgeStep is the fixed fine-tuning delta, in seconds.
	nudgeStep = 0.02
)

type (
	// frameMsg is the cooperative per-frame callback; all real-time
	// behavior hangs off it.
	frameMsg time.Time

	// endedMsg arrives when a playback handle finishes naturally.
	endedMsg uuid.UUID
)

type model struct {
	app      *App
	renderer wave.Renderer
	fps      int

	selected int
	live     int
	status   string
	err      error
}

var (
	wordStyle     = lipgloss.NewStyle()
	selectedStyle = lipgloss.NewStyle().Underline(true)
	liveStyle     = lipgloss.NewStyle().Reverse(true).Bold(true)
	statusStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	errStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

func newModel(app *App) model {
	fps := app.cfg.FrameRate
	if fps <= 0 {
		fps = 30
	}
	return model{
		app:      app,
		renderer: wave.NewRenderer(80, 9, app.cfg.WaveWindow),
		fps:      fps,
		live:     highlight.None,
	}
}

func (m model) frame() tea.Cmd {
	return tea.Tick(time.Second/time.Duration(m.fps), func(t time.Time) tea.Msg {
		return frameMsg(t)
	})
}

func (m model) Init() tea.Cmd {
	return m.frame()
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.renderer.Width = msg.Width
		return m, nil

	case frameMsg:
		m.live = m.app.StepHighlight(time.Time(msg))
		return m, m.frame()

	case endedMsg:
		m.app.PlaybackEnded(uuid.UUID(msg))
		m.live = highlight.None
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.err = nil

	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "a":
		m.err = m.app.StartAlignment()
		m.status = "aligning: press space at each word onset"
	case " ":
		if m.app.session.Active() {
			m.err = m.app.Mark()
			if m.app.session.State() == align.Completed {
				m.status = "alignment complete"
			}
		}
	case "p":
		m.app.PauseOrResume()
	case "u":
		m.err = m.app.Undo()
	case "esc":
		m.app.CancelAlignment()
		m.status = "alignment cancelled"
	case "r":
		m.err = m.app.ResetUniform()
		m.status = "reset to uniform segmentation"
	case "left":
		if m.selected > 0 {
			m.selected--
		}
	case "right":
		if m.selected < m.app.scr.WordCount()-1 {
			m.selected++
		}
	case "w":
		m.err = m.playSelectedWord()
	case "s":
		if sentence, ok := m.app.scr.SentenceOf(m.selected); ok {
			m.err = m.app.PlaySentence(sentence)
		}
	case "[":
		m.err = m.app.NudgeBoundary(m.selected, segment.EdgeStart, -nudgeStep)
	case "]":
		m.err = m.app.NudgeBoundary(m.selected, segment.EdgeStart, nudgeStep)
	case ",":
		m.err = m.app.NudgeBoundary(m.selected, segment.EdgeEnd, -nudgeStep)
	case ".":
		m.err = m.app.NudgeBoundary(m.selected, segment.EdgeEnd, nudgeStep)
	case "e":
		m.err = m.exportDocument()
	case "i":
		m.err = m.importDocument()
	case "x":
		m.err = m.app.RemoveNarration()
		m.status = "narration removed"
	}
	return m, nil
}

func (m model) playSelectedWord() error {
	sentence, ok := m.app.scr.SentenceOf(m.selected)
	if !ok {
		return fmt.Errorf("word %d is in no sentence", m.selected)
	}
	r, _ := m.app.scr.SentenceRange(sentence)
	return m.app.PlayWord(sentence, m.selected-r.Start)
}

func (m model) exportDocument() error {
	data, err := m.app.ExportDocument()
	if err != nil {
		return err
	}
	if err := os.WriteFile(exportPath, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", exportPath, err)
	}
	return nil
}

func (m model) importDocument() error {
	data, err := os.ReadFile(exportPath)
	if err != nil {
		return fmt.Errorf("reading %s: %w", exportPath, err)
	}
	return m.app.ImportDocument(data)
}

func (m model) View() string {
	var b strings.Builder

	if m.app.track != nil {
		b.WriteString(m.renderer.Render(
			m.app.track.Mono(),
			m.app.track.SampleRate(),
			m.app.currentStore(),
			m.app.track.Pos(),
			m.app.track.Duration(),
		))
	} else {
		b.WriteString(statusStyle.Render("no narration loaded"))
	}
	b.WriteString("\n\n")
	b.WriteString(m.scriptLine())
	b.WriteString("\n\n")

	if m.err != nil {
		b.WriteString(errStyle.Render(m.err.Error()))
	} else {
		b.WriteString(statusStyle.Render(m.statusLine()))
	}
	b.WriteString("\n")
	b.WriteString(statusStyle.Render("a align · space mark · p pause · u undo · esc cancel · w word · s sentence · [/]/,/. nudge · e export · i import · x remove narration · q quit"))
	return b.String()
}

func (m model) scriptLine() string {
	words := make([]string, 0, m.app.scr.WordCount())
	for _, w := range m.app.scr.Words {
		style := wordStyle
		switch w.Index {
		case m.live:
			style = liveStyle
		case m.selected:
			style = selectedStyle
		}
		words = append(words, style.Render(w.Surface))
	}
	return strings.Join(words, " ")
}

func (m model) statusLine() string {
	s := m.app.session
	if s.Active() {
		return fmt.Sprintf("%s · word %d/%d · %s", s.State(), s.Cursor(), m.app.scr.WordCount(), m.status)
	}
	return m.status
}
