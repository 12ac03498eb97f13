// Package store defines the backing store for notifications and their read and
// dismiss state. The orchestration engine only ever sees snapshots taken from it.
package store

import (
	"context"
	"errors"

	"notification-orchestrator/internal/models"
)

var (
	// ErrNotFound is returned when no notification has the requested id.
	ErrNotFound = errors.New("notification not found")
	// ErrDuplicate is returned when appending an id that is already in the log.
	ErrDuplicate = errors.New("notification already exists")
)

// Repository is an append-only notification log with mutable read/dismiss flags.
type Repository interface {
	Append(ctx context.Context, n models.Notification) error
	Get(ctx context.Context, id string) (models.Notification, error)
	// Snapshot returns copies of every notification in append order.
	Snapshot(ctx context.Context) ([]models.Notification, error)
	MarkRead(ctx context.Context, id string) error
	MarkAllRead(ctx context.Context) error
	Dismiss(ctx context.Context, id string) error
	Close()
}
