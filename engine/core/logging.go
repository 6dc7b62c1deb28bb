package core

import (
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

var once sync.Once

type logger struct {
	*log.Logger
}

var singleton *logger

func getLogger() *logger {
	if singleton == nil {
		once.Do(
			func() {
				l := log.NewWithOptions(os.Stderr, log.Options{
					ReportCaller:    true,
					ReportTimestamp: true,
					TimeFormat:      time.RFC3339,
					Prefix:          "Loop 🔁 ",
				})
				l.SetLevel(log.InfoLevel)
				// Skip the wrapper frame so the caller column points at the call site.
				l.SetCallerOffset(1)
				singleton = &logger{l}
			})
	}
	return singleton
}

// Logger returns the engine logger.
func Logger() *log.Logger {
	return getLogger().Logger
}

// SubLogger returns a logger tagged with the given subsystem name, meant to be
// called directly rather than through the Log helpers.
func SubLogger(system string) *log.Logger {
	l := getLogger().With("system", system)
	l.SetCallerOffset(0)
	return l
}

// SetLogLevel changes the engine log level. Unknown names fall back to info.
func SetLogLevel(level string) {
	lvl, err := log.ParseLevel(strings.ToLower(level))
	if err != nil {
		getLogger().Warnf("unknown log level %q, using info", level)
		lvl = log.InfoLevel
	}
	getLogger().SetLevel(lvl)
}

func LogDebug(msg string, args ...interface{}) {
	getLogger().Debugf(msg, args...)
}

func LogInfo(msg string, args ...interface{}) {
	getLogger().Infof(msg, args...)
}

func LogWarn(msg string, args ...interface{}) {
	getLogger().Warnf(msg, args...)
}

func LogError(msg string, args ...interface{}) {
	getLogger().Errorf(msg, args...)
}

func LogFatal(msg string, args ...interface{}) {
	getLogger().Fatalf(msg, args...)
}
