package log

import (
	"io"

	"github.com/sirupsen/logrus"
)

// New builds the process logger writing to out at the given level.
// An unparsable level falls back to info and is reported on the logger itself.
func New(levelStr string, out io.Writer) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(out)
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, TimestampFormat: "15:04:05.000"})
	log.SetLevel(logrus.InfoLevel)

	level, err := logrus.ParseLevel(levelStr)
	if err != nil {
		log.Warnf("Invalid log level '%s', using default 'info'. Error: %v", levelStr, err)
	} else {
		log.SetLevel(level)
		log.Debugf("Log level set to: %s", level.String())
	}

	return log
}

// Discard returns a logger that drops everything. Used by tests and library callers that pass no logger.
func Discard() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}
