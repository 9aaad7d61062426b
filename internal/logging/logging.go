// Package logging provides the one structured logger every component
// of deckmanagerd writes through.
package logging

import (
	"os"

	"github.com/sirupsen/logrus"
)

var base = newLogger()

func newLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	l.SetLevel(logrus.InfoLevel)
	return l
}

// SetVerbose raises the log level to debug.
func SetVerbose(verbose bool) {
	if verbose {
		base.SetLevel(logrus.DebugLevel)
	} else {
		base.SetLevel(logrus.InfoLevel)
	}
}

// For returns a logger tagged with the given component name, the way every
// subsystem in this daemon identifies its log lines.
func For(component string) *logrus.Entry {
	return base.WithField("component", component)
}
