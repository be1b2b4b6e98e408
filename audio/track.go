package audio

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/mp3"
	"github.com/gopxl/beep/speaker"
	"github.com/gopxl/beep/wav"

	"narralign/b3"
)

// ErrNoTrack is returned by playback requests made before a narration
// has been loaded.
var ErrNoTrack = errors.New("no narration track loaded")

// Track is the decoded narration: the full sample buffer, a mono
// amplitude copy for visualization, and one playback transport with a
// seekable cursor and a settable rate. At most one Track exists per
// session; replacing it invalidates everything scheduled on the old one.
type Track struct {
	buf    *beep.Buffer
	mono   []float64
	format beep.Format
	hash   string

	seeker    beep.StreamSeeker
	ctrl      *beep.Ctrl
	resampler *beep.Resampler
	rate      float64
}

// Decode turns a narration blob into a Track. The decoder is picked from
// the file name extension; an undecodable blob is an error and the
// caller keeps whatever track it already had.
func Decode(data []byte, name string) (*Track, error) {
	rc := io.NopCloser(bytes.NewReader(data))

	var (
		streamer beep.StreamSeekCloser
		format   beep.Format
		err      error
	)
	switch strings.ToLower(filepath.Ext(name)) {
	case ".wav":
		streamer, format, err = wav.Decode(rc)
	default:
		streamer, format, err = mp3.Decode(rc)
	}
	if err != nil {
		return nil, fmt.Errorf("decoding narration %q: %w", name, err)
	}
	defer streamer.Close()

	buf := beep.NewBuffer(format)
	buf.Append(streamer)

	hash, err := b3.HashBytes(data)
	if err != nil {
		return nil, fmt.Errorf("hashing narration: %w", err)
	}

	t := &Track{
		buf:    buf,
		format: format,
		hash:   hash,
		rate:   1,
	}
	t.mono = mixdown(buf)
	return t, nil
}

func mixdown(buf *beep.Buffer) []float64 {
	mono := make([]float64, 0, buf.Len())
	s := buf.Streamer(0, buf.Len())
	frame := make([][2]float64, 512)
	for {
		n, ok := s.Stream(frame)
		for i := 0; i < n; i++ {
			mono = append(mono, (frame[i][0]+frame[i][1])/2)
		}
		if !ok {
			return mono
		}
	}
}

// InitSpeaker sizes the output device for this track's sample rate.
func (t *Track) InitSpeaker() error {
	if err := speaker.Init(t.format.SampleRate, t.format.SampleRate.N(time.Second/10)); err != nil {
		return fmt.Errorf("initializing speaker: %w", err)
	}
	return nil
}

func (t *Track) Hash() string      { return t.hash }
func (t *Track) SampleRate() int   { return int(t.format.SampleRate) }
func (t *Track) Len() int          { return t.buf.Len() }
func (t *Track) Mono() []float64   { return t.mono }
func (t *Track) Duration() float64 { return t.format.SampleRate.D(t.buf.Len()).Seconds() }

func (t *Track) sample(sec float64) int {
	return t.format.SampleRate.N(time.Duration(sec * float64(time.Second)))
}

func (t *Track) seconds(n int) float64 {
	return t.format.SampleRate.D(n).Seconds()
}

func (t *Track) clampSample(n int) int {
	if n < 0 {
		return 0
	}
	if n > t.buf.Len() {
		return t.buf.Len()
	}
	return n
}

// Play starts the alignment transport at the given position, at the
// rate last set with SetRate. Any previous transport playback is
// stopped first.
func (t *Track) Play(from float64) error {
	t.Stop()

	seeker := t.buf.Streamer(0, t.buf.Len())
	if err := seeker.Seek(t.clampSample(t.sample(from))); err != nil {
		return fmt.Errorf("seeking narration to %.3fs: %w", from, err)
	}

	ctrl := &beep.Ctrl{Streamer: seeker}
	resampler := beep.ResampleRatio(4, t.rate, ctrl)

	t.seeker = seeker
	t.ctrl = ctrl
	t.resampler = resampler

	speaker.Play(resampler)
	return nil
}

// Pos reads the transport cursor in seconds. Safe to call every frame.
func (t *Track) Pos() float64 {
	if t.seeker == nil {
		return 0
	}
	speaker.Lock()
	p := t.seeker.Position()
	speaker.Unlock()
	return t.seconds(p)
}

// Seek moves the transport cursor, playing or not.
func (t *Track) Seek(seconds float64) error {
	if t.seeker == nil {
		return nil
	}
	speaker.Lock()
	err := t.seeker.Seek(t.clampSample(t.sample(seconds)))
	speaker.Unlock()
	if err != nil {
		return fmt.Errorf("seeking narration to %.3fs: %w", seconds, err)
	}
	return nil
}

// SetRate adjusts playback speed. The transport cursor still advances in
// narration time because the resampler sits above the position counter.
func (t *Track) SetRate(ratio float64) {
	t.rate = ratio
	if t.resampler != nil {
		speaker.Lock()
		t.resampler.SetRatio(ratio)
		speaker.Unlock()
	}
}

// SetPaused freezes or resumes the transport.
func (t *Track) SetPaused(paused bool) {
	if t.ctrl == nil {
		return
	}
	speaker.Lock()
	t.ctrl.Paused = paused
	speaker.Unlock()
}

// Stop detaches the transport from the mixer. The cursor keeps its last
// position for reading.
func (t *Track) Stop() {
	if t.ctrl == nil {
		return
	}
	speaker.Lock()
	t.ctrl.Streamer = nil
	speaker.Unlock()
	t.ctrl = nil
	t.resampler = nil
}
