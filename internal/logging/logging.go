package logging

import (
	"io"
	"os"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

// root is the shared logger all component entries derive from. Components
// never configure logrus themselves; Setup is called once from main (and
// again on config reload).
var (
	mu   sync.Mutex
	root = newRoot()
)

func newRoot() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetLevel(logrus.InfoLevel)
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	return l
}

// Setup configures the global log level. Unknown levels fall back to info.
func Setup(level string) {
	mu.Lock()
	defer mu.Unlock()
	root.SetLevel(ParseLevel(level))
}

// SetOutput redirects all loggers to w. Used by tests to capture output.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	root.SetOutput(w)
}

// ParseLevel converts a config string into a logrus level, defaulting to info.
func ParseLevel(s string) logrus.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return logrus.TraceLevel
	case "debug":
		return logrus.DebugLevel
	case "info", "":
		return logrus.InfoLevel
	case "warn", "warning":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}

// NewLogger returns an entry tagged with the component name.
func NewLogger(component string) *logrus.Entry {
	mu.Lock()
	defer mu.Unlock()
	return root.WithField("component", component)
}
