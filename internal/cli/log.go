package cli

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/ivm/pkg/version"
)

// Log levels accepted by New and SetLogLevel. The --verbose flag selects
// LogDebug.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// newLogger returns the logger shared by all ivm commands. It writes to w,
// which is stderr outside of tests, so that stdout only carries what commands
// such as "ivm show" and "ivm run" print. Timestamps appear at debug level
// only:
//
//	14:32:01.45 DEBU acquired lock path=/home/alice/.local/share/ivm/ivm.lock
//	14:32:01.46 INFO Downloading version 0.8.0
func newLogger(w io.Writer, level log.Level) *log.Logger {
	l := log.NewWithOptions(w, log.Options{TimeFormat: "15:04:05.00"})
	setLevel(l, level)
	return l
}

func setLevel(l *log.Logger, level log.Level) {
	l.SetLevel(level)
	l.SetReportTimestamp(level <= log.DebugLevel)
}

// installTimer measures an install from the first manifest lookup until the
// build finished.
type installTimer struct {
	logger *log.Logger
	start  time.Time
}

func startInstallTimer(l *log.Logger) *installTimer {
	return &installTimer{logger: l, start: time.Now()}
}

// done logs that v is installed, with the elapsed time rounded to
// milliseconds:
//
//	INFO Version 0.8.0 has been installed (1m2.345s)
func (t *installTimer) done(v version.Version) {
	t.logger.Infof("Version %s has been installed (%s)", v, time.Since(t.start).Round(time.Millisecond))
}
