// Package insight keeps the capped log of observations agents feed back
// to the supervisor during steady state.
package insight

import "github.com/zulandar/hearth/internal/bus"

// DefaultCap is the number of insights retained before eviction.
const DefaultCap = 50

// Category classifies an observation.
type Category int

const (
	Spark Category = iota
	Connection
	Resource
	Feeling
)

func (c Category) String() string {
	switch c {
	case Spark:
		return "spark"
	case Connection:
		return "connection"
	case Resource:
		return "resource"
	case Feeling:
		return "feeling"
	default:
		return "unknown"
	}
}

// FromFeedback maps a bus feedback kind to an insight category.
func FromFeedback(k bus.FeedbackKind) Category {
	switch k {
	case bus.FeedbackConnection:
		return Connection
	case bus.FeedbackResource:
		return Resource
	case bus.FeedbackFeeling:
		return Feeling
	default:
		return Spark
	}
}

// Insight is one categorized observation.
type Insight struct {
	Category Category
	Content  string
	Origin   bus.AgentID
	Tick     uint64
}

// Log is a fixed-capacity ring of insights. Pushing past capacity
// silently evicts the oldest entry; this is a ring, not a history.
type Log struct {
	entries []Insight
	start   int
	count   int
}

// NewLog creates a log with the given capacity; cap <= 0 selects
// DefaultCap.
func NewLog(capacity int) *Log {
	if capacity <= 0 {
		capacity = DefaultCap
	}
	return &Log{entries: make([]Insight, capacity)}
}

// Push appends an insight, evicting the oldest entry when full. O(1).
func (l *Log) Push(in Insight) {
	idx := (l.start + l.count) % len(l.entries)
	l.entries[idx] = in
	if l.count < len(l.entries) {
		l.count++
	} else {
		l.start = (l.start + 1) % len(l.entries)
	}
}

// List returns the retained insights newest-first.
func (l *Log) List() []Insight {
	out := make([]Insight, l.count)
	for i := 0; i < l.count; i++ {
		out[i] = l.entries[(l.start+l.count-1-i)%len(l.entries)]
	}
	return out
}

// Len reports the number of retained insights.
func (l *Log) Len() int { return l.count }

// Cap reports the log capacity.
func (l *Log) Cap() int { return len(l.entries) }
