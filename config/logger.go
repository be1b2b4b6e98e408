package config

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

var Log *logrus.Logger

// InitLogger routes logs to the given file so they don't fight the
// terminal UI for the screen. Falls back to stderr when the file can't
// be opened.
func InitLogger(path string) {
	Log = logrus.New()
	Log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	Log.SetLevel(logrus.InfoLevel)

	var out io.Writer = os.Stderr
	if path != "" {
		if f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644); err == nil {
			out = f
		}
	}
	Log.SetOutput(out)
}
