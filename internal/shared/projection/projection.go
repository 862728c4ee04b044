// Package projection pairs an aggregate with the timestamps its store assigned.
package projection

import "time"

// Metadata carries store-assigned timestamps.
type Metadata struct {
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Stamped returns metadata for a record first written at now.
func Stamped(now time.Time) Metadata {
	return Metadata{CreatedAt: now, UpdatedAt: now}
}

// Touch moves UpdatedAt to now, leaving CreatedAt untouched.
func (m Metadata) Touch(now time.Time) Metadata {
	m.UpdatedAt = now
	return m
}

// Projection is an aggregate as read back from storage.
type Projection[T any] struct {
	Entity   T
	Metadata Metadata
}

// New wraps entity with its metadata.
func New[T any](entity T, meta Metadata) *Projection[T] {
	return &Projection[T]{Entity: entity, Metadata: meta}
}

// NewestFirst orders a before b when a was created later; ties fall back to less(b, a).
func NewestFirst[T any](a, b *Projection[T], less func(x, y T) bool) bool {
	if a.Metadata.CreatedAt.Equal(b.Metadata.CreatedAt) {
		return less(b.Entity, a.Entity)
	}
	return a.Metadata.CreatedAt.After(b.Metadata.CreatedAt)
}
