package bus

// DefaultQueueCap is the per-agent inbound queue capacity.
const DefaultQueueCap = 64

// Queue is a bounded FIFO inbound queue for one agent. Senders run inside
// the same cooperative tick and cannot wait, so Push never blocks and
// never fails loudly: when the queue is full the newest arrival is
// dropped and a counter bumped for observability.
type Queue struct {
	items   []Message
	cap     int
	dropped uint64
}

// NewQueue creates a queue with the given capacity; cap <= 0 selects
// DefaultQueueCap.
func NewQueue(capacity int) *Queue {
	if capacity <= 0 {
		capacity = DefaultQueueCap
	}
	return &Queue{items: make([]Message, 0, capacity), cap: capacity}
}

// Push enqueues m, or drops it if the queue is full.
func (q *Queue) Push(m Message) {
	if len(q.items) >= q.cap {
		q.dropped++
		return
	}
	q.items = append(q.items, m)
}

// Drain returns all queued messages oldest-first and empties the queue.
func (q *Queue) Drain() []Message {
	if len(q.items) == 0 {
		return nil
	}
	out := q.items
	q.items = make([]Message, 0, q.cap)
	return out
}

// Len reports the number of queued messages.
func (q *Queue) Len() int { return len(q.items) }

// Dropped reports how many arrivals were discarded on overflow.
func (q *Queue) Dropped() uint64 { return q.dropped }

// Sequencer hands out per-sender monotonic sequence numbers.
type Sequencer struct {
	next map[AgentID]uint64
}

// NewSequencer creates an empty sequencer.
func NewSequencer() *Sequencer {
	return &Sequencer{next: make(map[AgentID]uint64)}
}

// Next returns the next sequence number for sender, starting at 1.
func (s *Sequencer) Next(sender AgentID) uint64 {
	s.next[sender]++
	return s.next[sender]
}
