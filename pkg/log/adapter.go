package log

import "github.com/sirupsen/logrus"

// BadgerLogrusAdapter implements badger.Logger on top of a logrus FieldLogger.
// Badger's info output (table flushes, compactions) is demoted to debug.
type BadgerLogrusAdapter struct {
	log logrus.FieldLogger
}

// NewBadgerLogrusAdapter creates a new adapter
func NewBadgerLogrusAdapter(log logrus.FieldLogger) *BadgerLogrusAdapter {
	return &BadgerLogrusAdapter{log: log.WithField("component", "badgerdb")}
}

// Errorf logs an error message
func (l *BadgerLogrusAdapter) Errorf(f string, v ...interface{}) { l.log.Errorf(f, v...) }

// Warningf logs a warning message
func (l *BadgerLogrusAdapter) Warningf(f string, v ...interface{}) { l.log.Warnf(f, v...) }

// Infof logs at debug level
func (l *BadgerLogrusAdapter) Infof(f string, v ...interface{}) { l.log.Debugf(f, v...) }

// Debugf logs a debug message
func (l *BadgerLogrusAdapter) Debugf(f string, v ...interface{}) { l.log.Debugf(f, v...) }
