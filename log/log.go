package log

import (
	"os"
	"strconv"

	"github.com/sirupsen/logrus"
)

var debug bool

// Logger is a global interface for auris loggers
type Logger interface {
	Debug(...interface{})
	Info(...interface{})
}

func init() {
	var err error
	debug, err = strconv.ParseBool(os.Getenv("AURIS_DEBUG"))
	if err != nil {
		debug = false
	}
}

// GetLogger returns a new logger instance
func GetLogger() *logrus.Logger {
	l := logrus.New()
	if debug {
		l.SetLevel(logrus.DebugLevel)
	}
	return l
}

// WithComponent derives an entry carrying the identity of a pipeline
// component, so that logs of chained stages can be told apart.
func WithComponent(l *logrus.Logger, component, uid string) *logrus.Entry {
	return l.WithFields(logrus.Fields{
		"component": component,
		"uid":       uid,
	})
}
