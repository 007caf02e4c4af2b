// Package supervisor owns the agent roster and drives it: the boot-phase
// state machine, the per-tick dispatch loop, ambition state, and the host
// link framing. Everything is single-threaded and cooperative; the caller
// invokes Tick once per loop iteration and nothing inside ever blocks.
package supervisor

import "github.com/zulandar/hearth/internal/bus"

// Agent is the minimal contract a role must satisfy. Everything else in
// the capability set is an optional interface with a no-op default: a
// concrete role implements only what it needs.
type Agent interface {
	// Name is the role identity. Registering two agents with the same
	// name is a construction-time error.
	Name() string

	// Tick runs one cooperative turn. It must not block.
	Tick(ctx *Context)
}

// Awakener is implemented by agents that participate in the boot
// readiness handshake. Awaken is polled each boot tick until it reports
// ready or the boot timeout elapses; it must be cheap and idempotent.
type Awakener interface {
	Awaken() bool
}

// MessageHandler receives inbound envelopes before the agent's Tick.
type MessageHandler interface {
	Handle(ctx *Context, m bus.Message)
}

// EnvironmentPreparer is polled during the environment-setup phase, same
// contract as Awakener: return true when the agent's domain is organized.
type EnvironmentPreparer interface {
	OnEnvironmentSetup(ctx *Context) bool
}

// Journaler contributes first-person journal entries when the supervisor
// streams a journal batch to the host. Returning ok=false means the agent
// has nothing to say right now.
type Journaler interface {
	JournalEntry(tick uint64) (entry string, ok bool)
}

// Context is handed to an agent for one turn. Emitted messages become
// visible to recipients on the next tick, never the current one.
type Context struct {
	// ID is the agent's own slot, for addressing replies.
	ID bus.AgentID
	// Tick is the current tick number.
	Tick uint64
	// Day is the current day key from the host, or "day-0" before the
	// first DAY frame.
	Day string
	// Ambition is a copy of the current shared ambition, possibly empty.
	Ambition string

	outbox []bus.Message
}

// Emit queues an envelope for delivery starting next tick. The sequence
// number is assigned by the supervisor during routing.
func (c *Context) Emit(m bus.Message) {
	m.Sender = c.ID
	c.outbox = append(c.outbox, m)
}

// Send queues a unicast message of the given kind.
func (c *Context) Send(recipient bus.AgentID, kind bus.Kind) {
	c.Emit(bus.To(c.ID, recipient, kind))
}

// Feedback queues an observation for the supervisor's insight log.
func (c *Context) Feedback(kind bus.FeedbackKind, content string) {
	c.Emit(bus.FeedbackFrom(c.ID, kind, content))
}

// Drain returns and clears the emitted messages. The supervisor drains
// every context after a turn; tests can use it on a bare context.
func (c *Context) Drain() []bus.Message {
	out := c.outbox
	c.outbox = nil
	return out
}
