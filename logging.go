package pio

import (
	"os"

	"github.com/charmbracelet/log"
)

// logger is package-level so every component can report the warning
// and diagnostic conditions enumerated for decode and execution without
// threading a logger through every call. A host program that wants its
// own handling can replace it with SetLogger.
var logger = log.NewWithOptions(os.Stderr, log.Options{
	Prefix: "pio",
	Level:  log.WarnLevel,
})

// SetLogger replaces the package logger, e.g. to raise verbosity to
// log.DebugLevel for debug messages such as a blocked WRITE, or to redirect
// output somewhere other than stderr.
func SetLogger(l *log.Logger) {
	if l != nil {
		logger = l
	}
}

// Logger returns the current package logger.
func Logger() *log.Logger {
	return logger
}
