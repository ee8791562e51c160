package storage

import "github.com/sirupsen/logrus"

// badgerLogrusAdapter implements the badger.Logger interface using logrus
type badgerLogrusAdapter struct {
	*logrus.Entry // Embed logrus Entry
}

// newBadgerLogrusAdapter creates a new adapter
func newBadgerLogrusAdapter(entry *logrus.Entry) *badgerLogrusAdapter {
	return &badgerLogrusAdapter{entry}
}

// Errorf logs an error message
func (l *badgerLogrusAdapter) Errorf(f string, v ...interface{}) { l.Entry.Errorf(f, v...) }

// Warningf logs a warning message
func (l *badgerLogrusAdapter) Warningf(f string, v ...interface{}) { l.Entry.Warningf(f, v...) }

// Infof logs an info message
func (l *badgerLogrusAdapter) Infof(f string, v ...interface{}) { l.Entry.Infof(f, v...) }

// Debugf logs a debug message
func (l *badgerLogrusAdapter) Debugf(f string, v ...interface{}) { l.Entry.Debugf(f, v...) }
