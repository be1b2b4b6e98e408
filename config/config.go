package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds every tunable of the alignment engine. All values have
// working defaults so a missing .env is not an error.
type Config struct {
	// ReactionCompensation is subtracted from every mark timestamp to
	// counter human input lag, in seconds.
	ReactionCompensation float64
	// GuardBand keeps a segment's corrected end from bleeding into the
	// next word's onset, in seconds.
	GuardBand float64
	// DefaultSegmentLength is the placeholder length given to a freshly
	// marked segment until the next mark corrects it, in seconds.
	DefaultSegmentLength float64
	// PracticeRate is the slowed playback rate used while marking.
	PracticeRate float64
	// PreemptFade is how long a superseded playback takes to go silent.
	PreemptFade float64
	// HighlightTolerance widens each segment's end during highlight
	// lookup so transitions feel continuous, in seconds.
	HighlightTolerance float64
	// WaveWindow is the visible waveform span, in seconds.
	WaveWindow float64
	// FrameRate is the cooperative loop's ticks per second.
	FrameRate int

	DBPath       string
	ScriptPath   string
	DefaultAudio string
	LogPath      string
}

func Default() Config {
	return Config{
		ReactionCompensation: 0.1,
		GuardBand:            0.02,
		DefaultSegmentLength: 0.5,
		PracticeRate:         0.75,
		PreemptFade:          0.05,
		HighlightTolerance:   0.02,
		WaveWindow:           4.0,
		FrameRate:            30,
		DBPath:               "./narralign.db",
		ScriptPath:           "./script.txt",
		DefaultAudio:         "./narration.mp3",
		LogPath:              "./narralign.log",
	}
}

// Load reads .env when present and overlays environment variables on the
// defaults. Unparseable values are reported, not silently dropped.
func Load() (Config, error) {
	_ = godotenv.Load()

	c := Default()
	var err error
	if err = overlayFloat("NARRALIGN_COMPENSATION", &c.ReactionCompensation); err != nil {
		return c, err
	}
	if err = overlayFloat("NARRALIGN_GUARD_BAND", &c.GuardBand); err != nil {
		return c, err
	}
	if err = overlayFloat("NARRALIGN_SEGMENT_LENGTH", &c.DefaultSegmentLength); err != nil {
		return c, err
	}
	if err = overlayFloat("NARRALIGN_PRACTICE_RATE", &c.PracticeRate); err != nil {
		return c, err
	}
	if err = overlayFloat("NARRALIGN_PREEMPT_FADE", &c.PreemptFade); err != nil {
		return c, err
	}
	if err = overlayFloat("NARRALIGN_HIGHLIGHT_TOLERANCE", &c.HighlightTolerance); err != nil {
		return c, err
	}
	if err = overlayFloat("NARRALIGN_WAVE_WINDOW", &c.WaveWindow); err != nil {
		return c, err
	}
	if err = overlayInt("NARRALIGN_FRAME_RATE", &c.FrameRate); err != nil {
		return c, err
	}
	overlayString("NARRALIGN_DB", &c.DBPath)
	overlayString("NARRALIGN_SCRIPT", &c.ScriptPath)
	overlayString("NARRALIGN_AUDIO", &c.DefaultAudio)
	overlayString("NARRALIGN_LOG", &c.LogPath)

	return c, nil
}

func overlayFloat(key string, dst *float64) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fmt.Errorf("parsing %s: %w", key, err)
	}
	*dst = f
	return nil
}

func overlayInt(key string, dst *int) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("parsing %s: %w", key, err)
	}
	*dst = n
	return nil
}

func overlayString(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}
