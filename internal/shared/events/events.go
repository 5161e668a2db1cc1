// Package events names the change notifications trail and point of interest
// writes emit after they commit.
package events

import "context"

type Kind string

const (
	TrailCreated Kind = "trail.created"
	TrailUpdated Kind = "trail.updated"
	TrailDeleted Kind = "trail.deleted"
	POICreated   Kind = "poi.created"
	POIUpdated   Kind = "poi.updated"
	POIDeleted   Kind = "poi.deleted"
)

type Event struct {
	Kind    Kind   `json:"type"`
	TrailID string `json:"trailId"`
	ID      string `json:"id"`
}

// Notifier receives events once the change is durable. Implementations must
// not fail the write that triggered them.
type Notifier interface {
	Notify(ctx context.Context, ev Event)
}

// Nop discards events.
type Nop struct{}

func (Nop) Notify(context.Context, Event) {}

// Multi fans an event out to several notifiers in order.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, ev Event) {
	for _, n := range m {
		n.Notify(ctx, ev)
	}
}
