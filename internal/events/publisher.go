// Package events fans panel state changes out to live browsers and the
// archive stream.
package events

import (
	"context"
	"errors"
	"time"

	"terracurve/internal/models"

	"github.com/google/uuid"
)

// Publisher delivers an event to one sink.
type Publisher interface {
	Publish(ctx context.Context, e models.Event) error
}

// New builds an event with a fresh ID and the current time.
func New(eventType, profile string, day *int, message string) models.Event {
	return models.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Profile:   profile,
		Day:       day,
		Message:   message,
		Timestamp: time.Now().UTC(),
	}
}

// Day returns a pointer for Event.Day.
func Day(d int) *int {
	return &d
}

// Multi publishes to every sink and joins their errors.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, e models.Event) error {
	var errs []error
	for _, p := range m {
		if p == nil {
			continue
		}
		if err := p.Publish(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Nop discards events.
type Nop struct{}

func (Nop) Publish(context.Context, models.Event) error { return nil }
