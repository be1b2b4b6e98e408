package wave

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"narralign/segment"
)

// Renderer draws a fixed-duration window of the narration's amplitude
// envelope around the playback position, with segment boundaries and a
// playhead on top. It is a pure consumer: it reads the mono samples, the
// store and the position, and mutates nothing.
type Renderer struct {
	Width  int
	Height int
	// Window is the visible span in seconds.
	Window float64

	waveStyle     lipgloss.Style
	boundaryStyle lipgloss.Style
	playheadStyle lipgloss.Style
	labelStyle    lipgloss.Style
}

// MinMax is one pixel column's decimated amplitude extent.
type MinMax struct {
	Min float64
	Max float64
}

func NewRenderer(width, height int, window float64) Renderer {
	return Renderer{
		Width:         width,
		Height:        height,
		Window:        window,
		waveStyle:     lipgloss.NewStyle().Foreground(lipgloss.Color("39")),
		boundaryStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("220")),
		playheadStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		labelStyle:    lipgloss.NewStyle().Foreground(lipgloss.Color("220")).Bold(true),
	}
}

// WindowStart centers the window on pos as closely as possible without
// starting before time zero.
func WindowStart(pos, window, duration float64) float64 {
	start := pos - window/2
	if start < 0 {
		start = 0
	}
	if duration > window && start > duration-window {
		start = duration - window
	}
	return start
}

// Columns decimates the sample sub-range each pixel column covers down
// to its min and max value. Plotting single samples at this density
// aliases; the min-to-max stroke is what produces the familiar envelope
// shape.
func Columns(mono []float64, sampleRate int, winStart, window float64, width int) []MinMax {
	cols := make([]MinMax, width)
	perCol := window / float64(width)
	for c := range cols {
		from := int((winStart + float64(c)*perCol) * float64(sampleRate))
		to := int((winStart + float64(c+1)*perCol) * float64(sampleRate))
		if from < 0 {
			from = 0
		}
		if to > len(mono) {
			to = len(mono)
		}
		if from >= to {
			continue
		}
		mm := MinMax{Min: mono[from], Max: mono[from]}
		for _, v := range mono[from:to] {
			if v < mm.Min {
				mm.Min = v
			}
			if v > mm.Max {
				mm.Max = v
			}
		}
		cols[c] = mm
	}
	return cols
}

// Render draws one frame of the waveform view.
func (r Renderer) Render(mono []float64, sampleRate int, store segment.Store, pos, duration float64) string {
	winStart := WindowStart(pos, r.Window, duration)
	cols := Columns(mono, sampleRate, winStart, r.Window, r.Width)

	type cell struct {
		ch    rune
		style *lipgloss.Style
	}
	grid := make([][]cell, r.Height)
	for y := range grid {
		grid[y] = make([]cell, r.Width)
		for x := range grid[y] {
			grid[y][x] = cell{ch: ' '}
		}
	}

	// Amplitude strokes.
	for x, mm := range cols {
		top := r.row(mm.Max)
		bottom := r.row(mm.Min)
		for y := top; y <= bottom; y++ {
			grid[y][x] = cell{ch: '│', style: &r.waveStyle}
		}
	}

	// Dashed boundary markers with word labels.
	for _, seg := range store {
		x, ok := r.col(seg.Start, winStart)
		if !ok {
			continue
		}
		for y := 0; y < r.Height; y++ {
			if y%2 == 0 {
				grid[y][x] = cell{ch: '┊', style: &r.boundaryStyle}
			}
		}
		// Column offset counts runes, not bytes.
		off := 0
		for _, ch := range seg.Word {
			lx := x + 1 + off
			if lx >= r.Width {
				break
			}
			grid[0][lx] = cell{ch: ch, style: &r.labelStyle}
			off++
		}
	}

	// Solid playhead.
	if x, ok := r.col(pos, winStart); ok {
		for y := 0; y < r.Height; y++ {
			grid[y][x] = cell{ch: '┃', style: &r.playheadStyle}
		}
	}

	var b strings.Builder
	for y, row := range grid {
		if y > 0 {
			b.WriteByte('\n')
		}
		for _, c := range row {
			if c.style != nil {
				b.WriteString(c.style.Render(string(c.ch)))
			} else {
				b.WriteRune(c.ch)
			}
		}
	}
	return b.String()
}

func (r Renderer) row(v float64) int {
	if v > 1 {
		v = 1
	}
	if v < -1 {
		v = -1
	}
	y := int((1 - v) / 2 * float64(r.Height-1))
	if y < 0 {
		y = 0
	}
	if y > r.Height-1 {
		y = r.Height - 1
	}
	return y
}

// col maps a narration time to a pixel column inside the window.
func (r Renderer) col(sec, winStart float64) (int, bool) {
	if sec < winStart || sec >= winStart+r.Window {
		return 0, false
	}
	x := int((sec - winStart) / r.Window * float64(r.Width))
	if x >= r.Width {
		x = r.Width - 1
	}
	return x, true
}
