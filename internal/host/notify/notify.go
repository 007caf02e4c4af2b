// Package notify relays host-side events (journal digests, insight
// alerts) to chat platforms. It is strictly outbound; nothing in Hearth
// listens for chat commands.
package notify

import (
	"context"
	"log"
)

// Severity levels for events. Adapters map these to platform colors.
const (
	SeverityInfo    = "info"
	SeverityWarning = "warning"
	SeverityError   = "error"
	SeveritySuccess = "success"
)

// Event is one notification: a headline, optional detail, and a
// severity hint.
type Event struct {
	Title    string
	Body     string
	Severity string
}

// Adapter delivers events to a single chat platform.
type Adapter interface {
	Send(ctx context.Context, ev Event) error
	Close() error
}

// Notifier fans an event out to every configured adapter. Delivery is
// best effort; one platform failing never blocks the others.
type Notifier struct {
	adapters []Adapter
}

// New creates a Notifier over the given adapters. Zero adapters is
// valid and makes every Send a no-op.
func New(adapters ...Adapter) *Notifier {
	return &Notifier{adapters: adapters}
}

// Send delivers ev to all adapters, logging per-adapter failures.
func (n *Notifier) Send(ctx context.Context, ev Event) {
	for _, a := range n.adapters {
		if err := a.Send(ctx, ev); err != nil {
			log.Printf("notify: send %q: %v", ev.Title, err)
		}
	}
}

// Close shuts down all adapters, returning the first error seen.
func (n *Notifier) Close() error {
	var first error
	for _, a := range n.adapters {
		if err := a.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
