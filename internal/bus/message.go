// Package bus provides the typed envelopes and bounded inbound queues
// agents communicate through. Agents never hold references to each other;
// every exchange is an envelope routed by the supervisor.
package bus

// AgentID is an opaque index into the supervisor's slot table. Agents
// hold only their own ID, for addressing replies.
type AgentID int

// Broadcast is the recipient value meaning "every agent except the sender".
var Broadcast *AgentID

// Kind discriminates message payloads. The set is closed: new behavior
// is added by extending this enum, not by open-ended subtyping.
type Kind int

const (
	KindPing Kind = iota
	KindPong
	KindSystemEvent
	KindFeedback
	KindEnvironmentSetup
)

func (k Kind) String() string {
	switch k {
	case KindPing:
		return "ping"
	case KindPong:
		return "pong"
	case KindSystemEvent:
		return "system-event"
	case KindFeedback:
		return "feedback"
	case KindEnvironmentSetup:
		return "environment-setup"
	default:
		return "unknown"
	}
}

// EventKind identifies system-level events broadcast by the supervisor.
type EventKind int

const (
	EventHeartbeat EventKind = iota
	EventMorningAmbition
	EventEveningReport
	EventDayRollover
)

func (e EventKind) String() string {
	switch e {
	case EventHeartbeat:
		return "heartbeat"
	case EventMorningAmbition:
		return "morning-ambition"
	case EventEveningReport:
		return "evening-report"
	case EventDayRollover:
		return "day-rollover"
	default:
		return "unknown"
	}
}

// FeedbackKind categorizes observations agents send back to the
// supervisor's insight log.
type FeedbackKind int

const (
	FeedbackSpark FeedbackKind = iota
	FeedbackConnection
	FeedbackResource
	FeedbackFeeling
)

func (f FeedbackKind) String() string {
	switch f {
	case FeedbackSpark:
		return "spark"
	case FeedbackConnection:
		return "connection"
	case FeedbackResource:
		return "resource"
	case FeedbackFeeling:
		return "feeling"
	default:
		return "unknown"
	}
}

// Message is one envelope between agents. Recipient nil means broadcast
// to every registered agent except the sender. Seq is monotonic per
// sender and exists for ordering assertions, not deduplication.
type Message struct {
	Sender    AgentID
	Recipient *AgentID
	Seq       uint64
	Kind      Kind

	// Payloads by kind. Only the fields for the message's Kind are
	// meaningful; the rest stay zero.
	Event    EventKind    // KindSystemEvent
	Feedback FeedbackKind // KindFeedback
	Content  string       // KindSystemEvent (heartbeat ambition, day key), KindFeedback
}

// To builds a unicast envelope.
func To(sender, recipient AgentID, kind Kind) Message {
	r := recipient
	return Message{Sender: sender, Recipient: &r, Kind: kind}
}

// BroadcastFrom builds a broadcast envelope.
func BroadcastFrom(sender AgentID, kind Kind) Message {
	return Message{Sender: sender, Kind: kind}
}

// Ping builds a ping to recipient.
func Ping(sender, recipient AgentID) Message {
	return To(sender, recipient, KindPing)
}

// Pong builds the reply to a ping.
func Pong(sender, recipient AgentID) Message {
	return To(sender, recipient, KindPong)
}

// SystemEvent builds a broadcast system event with optional content.
func SystemEvent(sender AgentID, event EventKind, content string) Message {
	m := BroadcastFrom(sender, KindSystemEvent)
	m.Event = event
	m.Content = content
	return m
}

// FeedbackFrom builds a feedback observation addressed to the supervisor.
func FeedbackFrom(sender AgentID, kind FeedbackKind, content string) Message {
	m := BroadcastFrom(sender, KindFeedback)
	m.Feedback = kind
	m.Content = content
	return m
}

// IsBroadcast reports whether the envelope targets all other agents.
func (m Message) IsBroadcast() bool { return m.Recipient == nil }
