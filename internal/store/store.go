// Package store is the typed query layer over the relational backend. Every
// mutation is followed by a change event on the realtime topics.
package store

import (
	"bug_tracker/internal/realtime"
	"context"
	"errors"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned when the addressed row does not exist
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned when a unique value is already taken
	ErrDuplicate = errors.New("already exists")
	// ErrInvalidReference is returned when a foreign key names a missing row
	ErrInvalidReference = errors.New("referenced row does not exist")
)

// Store wraps a GORM handle and the realtime publisher
type Store struct {
	db  *gorm.DB
	pub realtime.Publisher
}

// New returns a store over db. pub may be nil, in which case no change
// events are emitted.
func New(db *gorm.DB, pub realtime.Publisher) *Store {
	return &Store{db: db, pub: pub}
}

// DB exposes the underlying handle for migrations and tooling
func (s *Store) DB() *gorm.DB {
	return s.db
}

// notify publishes a change event. The row is already committed, so a
// failed publish is logged rather than returned.
func (s *Store) notify(ctx context.Context, topic string, eventType realtime.EventType, table string, newRow, oldRow any) {
	if s.pub == nil {
		return
	}
	ev, err := realtime.NewChange(eventType, table, newRow, oldRow)
	if err == nil {
		err = s.pub.Publish(ctx, topic, ev)
	}
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"topic": topic,
			"event": eventType,
			"table": table,
			"error": err.Error(),
		}).Warn("Failed to publish change event")
	}
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
