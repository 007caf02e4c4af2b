package supervisor

import (
	"errors"
	"fmt"
	"log"
	"math"

	"github.com/zulandar/hearth/internal/bus"
	"github.com/zulandar/hearth/internal/insight"
	"github.com/zulandar/hearth/internal/wire"
)

// ErrDuplicateName reports two agents claiming the same role identity, a
// construction-time programming error.
var ErrDuplicateName = errors.New("supervisor: agent name already registered")

// SupervisorID is the reserved slot for the supervisor itself; registered
// agents start at 1.
const SupervisorID bus.AgentID = 0

// InitialDayKey is the day key used before the host sends its first DAY
// frame. The runtime has no clock of its own; day boundaries always come
// from the host.
const InitialDayKey = "day-0"

// Phase is the boot-phase state machine. HardwareInit is an external
// precondition and never appears here; the supervisor is constructed
// after it.
type Phase int

const (
	PhaseAwakening Phase = iota
	PhaseEnvironmentSetup
	PhaseSteadyState
)

func (p Phase) String() string {
	switch p {
	case PhaseAwakening:
		return "agent-awakening"
	case PhaseEnvironmentSetup:
		return "environment-setup"
	case PhaseSteadyState:
		return "steady-state"
	default:
		return "unknown"
	}
}

// Opts holds supervisor construction parameters. Zero values select the
// defaults below.
type Opts struct {
	BootTimeoutTicks     uint64 // per boot phase; default 256
	HeartbeatTicks       uint64 // ambition heartbeat period; default 100
	JournalTicks         uint64 // journal batch period; default 1000
	MorningTicks         uint64 // morning-ambition rhythm; default 5000
	EveningTicks         uint64 // evening-report rhythm; default 5000 (offset half a period)
	ResponseTimeoutTicks uint64 // host response deadline; default 512
	QueueCap             int    // per-agent inbound queue; default bus.DefaultQueueCap
	InsightCap           int    // insight log capacity; default insight.DefaultCap
}

func (o *Opts) applyDefaults() {
	if o.BootTimeoutTicks == 0 {
		o.BootTimeoutTicks = 256
	}
	if o.HeartbeatTicks == 0 {
		o.HeartbeatTicks = 100
	}
	if o.JournalTicks == 0 {
		o.JournalTicks = 1000
	}
	if o.MorningTicks == 0 {
		o.MorningTicks = 5000
	}
	if o.EveningTicks == 0 {
		o.EveningTicks = 5000
	}
	if o.ResponseTimeoutTicks == 0 {
		o.ResponseTimeoutTicks = 512
	}
}

type slot struct {
	agent    Agent
	queue    *bus.Queue
	ready    bool
	envReady bool
}

// AmbitionState is the single shared goal and its per-day history. It is
// exclusively owned by the supervisor; agents only ever see copies
// carried on heartbeat events.
type AmbitionState struct {
	Current string
	History []AmbitionEntry
}

// AmbitionEntry is one (day, ambition) history record.
type AmbitionEntry struct {
	DayKey string
	Text   string
}

type pendingWait struct {
	tag      string
	key      string // request discriminator so same-tag waits resolve independently
	deadline uint64
	fallback func()
}

// Supervisor owns the slot table, the ambition state, the insight log,
// and the outbound frame buffer. It is not safe for concurrent use; the
// cooperative model has exactly one caller.
type Supervisor struct {
	opts  Opts
	phase Phase
	tick  uint64

	slots []slot
	names map[string]bool
	seq   *bus.Sequencer

	// pending holds messages emitted during the current tick; they are
	// routed into inbound queues at the start of the next tick.
	pending []bus.Message

	ambition AmbitionState
	insights *insight.Log
	dayKey   string

	outbound []wire.Frame
	waits    []pendingWait
	loaded   map[string]string

	bootStarted uint64
	envStarted  uint64
}

// New creates a supervisor in the AgentAwakening phase.
func New(opts Opts) *Supervisor {
	opts.applyDefaults()
	return &Supervisor{
		opts:     opts,
		phase:    PhaseAwakening,
		names:    make(map[string]bool),
		seq:      bus.NewSequencer(),
		insights: insight.NewLog(opts.InsightCap),
		dayKey:   InitialDayKey,
	}
}

// Register adds an agent to the roster and returns its ID. The roster is
// fixed once boot completes; there is no removal.
func (s *Supervisor) Register(a Agent) (bus.AgentID, error) {
	name := a.Name()
	if s.names[name] {
		return 0, fmt.Errorf("supervisor: register %q: %w", name, ErrDuplicateName)
	}
	s.names[name] = true
	s.slots = append(s.slots, slot{agent: a, queue: bus.NewQueue(s.opts.QueueCap)})
	id := bus.AgentID(len(s.slots)) // slot 0 is the supervisor
	log.Printf("supervisor: registered agent %q (id=%d)", name, id)
	return id, nil
}

// Phase reports the current boot phase.
func (s *Supervisor) Phase() Phase { return s.phase }

// CurrentTick reports the tick counter.
func (s *Supervisor) CurrentTick() uint64 { return s.tick }

// DayKey reports the current host-supplied day key.
func (s *Supervisor) DayKey() string { return s.dayKey }

// AgentCount reports the roster size.
func (s *Supervisor) AgentCount() int { return len(s.slots) }

// Insights returns a newest-first snapshot of the insight log.
func (s *Supervisor) Insights() []insight.Insight { return s.insights.List() }

// Ambition returns a copy of the ambition state.
func (s *Supervisor) Ambition() AmbitionState {
	out := AmbitionState{Current: s.ambition.Current}
	out.History = append(out.History, s.ambition.History...)
	return out
}

// DroppedCount reports the overflow drop counter for one agent's queue.
func (s *Supervisor) DroppedCount(id bus.AgentID) uint64 {
	if idx := int(id) - 1; idx >= 0 && idx < len(s.slots) {
		return s.slots[idx].queue.Dropped()
	}
	return 0
}

// BootSequence starts the awakening phase: every Awakener is polled once
// immediately; agents without the capability are ready by definition.
// The phase advances inside Tick when all flags are set or the boot
// timeout elapses.
func (s *Supervisor) BootSequence() {
	s.bootStarted = s.tick
	log.Printf("supervisor: boot sequence, %d agents awakening", len(s.slots))
	s.pollAwakening()
}

func (s *Supervisor) pollAwakening() {
	for i := range s.slots {
		if s.slots[i].ready {
			continue
		}
		if aw, ok := s.slots[i].agent.(Awakener); ok {
			s.slots[i].ready = aw.Awaken()
		} else {
			s.slots[i].ready = true
		}
	}
}

// TriggerEnvironmentSetup broadcasts the setup event and starts polling
// preparers. Called automatically when awakening completes.
func (s *Supervisor) TriggerEnvironmentSetup() {
	s.phase = PhaseEnvironmentSetup
	s.envStarted = s.tick
	s.enqueue(bus.BroadcastFrom(SupervisorID, bus.KindEnvironmentSetup))
	log.Printf("supervisor: environment setup")
	s.pollEnvironment()
}

func (s *Supervisor) pollEnvironment() {
	for i := range s.slots {
		if s.slots[i].envReady {
			continue
		}
		if p, ok := s.slots[i].agent.(EnvironmentPreparer); ok {
			ctx := s.contextFor(bus.AgentID(i + 1))
			s.slots[i].envReady = p.OnEnvironmentSetup(ctx)
			s.collect(ctx)
		} else {
			s.slots[i].envReady = true
		}
	}
}

func (s *Supervisor) allReady() bool {
	for i := range s.slots {
		if !s.slots[i].ready {
			return false
		}
	}
	return true
}

func (s *Supervisor) allEnvReady() bool {
	for i := range s.slots {
		if !s.slots[i].envReady {
			return false
		}
	}
	return true
}

// Tick runs one cooperative turn: advance boot phases, expire host
// waits, fire periodic triggers, route last tick's messages, then give
// every agent its inbox and one Tick call in registration order.
func (s *Supervisor) Tick() {
	if s.tick < math.MaxUint64 {
		s.tick++
	}

	s.expireWaits()

	switch s.phase {
	case PhaseAwakening:
		s.pollAwakening()
		if s.allReady() {
			s.TriggerEnvironmentSetup()
		} else if s.tick-s.bootStarted >= s.opts.BootTimeoutTicks {
			log.Printf("supervisor: boot timeout after %d ticks, %s", s.tick-s.bootStarted, s.stragglers())
			s.TriggerEnvironmentSetup()
		}
		return
	case PhaseEnvironmentSetup:
		s.pollEnvironment()
		if s.allEnvReady() || s.tick-s.envStarted >= s.opts.BootTimeoutTicks {
			if !s.allEnvReady() {
				log.Printf("supervisor: environment setup timeout, %s", s.stragglers())
			}
			s.phase = PhaseSteadyState
			log.Printf("supervisor: steady state, %d agents", len(s.slots))
		}
	case PhaseSteadyState:
	}

	// Route before firing timers: everything enqueued during this tick,
	// supervisor events included, becomes visible next tick.
	s.route()
	s.firePeriodic()

	for i := range s.slots {
		id := bus.AgentID(i + 1)
		ctx := s.contextFor(id)
		inbox := s.slots[i].queue.Drain()
		if h, ok := s.slots[i].agent.(MessageHandler); ok {
			for _, m := range inbox {
				h.Handle(ctx, m)
			}
		}
		s.slots[i].agent.Tick(ctx)
		s.collect(ctx)
	}
}

// stragglers names the agents still missing a readiness flag.
func (s *Supervisor) stragglers() string {
	out := "waiting on:"
	for i := range s.slots {
		if !s.slots[i].ready || (s.phase == PhaseEnvironmentSetup && !s.slots[i].envReady) {
			out += " " + s.slots[i].agent.Name()
		}
	}
	return out
}

func (s *Supervisor) contextFor(id bus.AgentID) *Context {
	return &Context{
		ID:       id,
		Tick:     s.tick,
		Day:      s.dayKey,
		Ambition: s.ambition.Current,
	}
}

func (s *Supervisor) collect(ctx *Context) {
	for _, m := range ctx.Drain() {
		s.enqueue(m)
	}
}

// enqueue buffers a message for routing at the start of the next tick
// and stamps its per-sender sequence number.
func (s *Supervisor) enqueue(m bus.Message) {
	m.Seq = s.seq.Next(m.Sender)
	s.pending = append(s.pending, m)
}

// route moves last tick's buffered messages into inbound queues.
// Feedback envelopes are absorbed into the insight log instead of being
// delivered; everything else fans out by recipient, with broadcasts
// skipping the sender.
func (s *Supervisor) route() {
	msgs := s.pending
	s.pending = nil
	for _, m := range msgs {
		if m.Kind == bus.KindFeedback {
			s.insights.Push(insight.Insight{
				Category: insight.FromFeedback(m.Feedback),
				Content:  m.Content,
				Origin:   m.Sender,
				Tick:     s.tick,
			})
			s.emitFrame(wire.New(wire.TagInsight,
				insight.FromFeedback(m.Feedback).String(), m.Content,
				fmt.Sprintf("%d", m.Sender), fmt.Sprintf("%d", s.tick)))
			continue
		}
		if m.IsBroadcast() {
			for i := range s.slots {
				if bus.AgentID(i+1) == m.Sender {
					continue
				}
				s.slots[i].queue.Push(m)
			}
			continue
		}
		if idx := int(*m.Recipient) - 1; idx >= 0 && idx < len(s.slots) {
			s.slots[idx].queue.Push(m)
		}
	}
}

// firePeriodic computes the tick-counter rhythm. There is no wall clock
// here, only modulo thresholds over the saturating counter.
func (s *Supervisor) firePeriodic() {
	if s.ambition.Current != "" && s.tick%s.opts.HeartbeatTicks == 0 {
		s.enqueue(bus.SystemEvent(SupervisorID, bus.EventHeartbeat, s.ambition.Current))
	}
	if s.tick%s.opts.MorningTicks == 0 {
		s.enqueue(bus.SystemEvent(SupervisorID, bus.EventMorningAmbition, s.dayKey))
	}
	if (s.tick+s.opts.EveningTicks/2)%s.opts.EveningTicks == 0 {
		s.enqueue(bus.SystemEvent(SupervisorID, bus.EventEveningReport, s.dayKey))
	}
	if s.tick%s.opts.JournalTicks == 0 {
		s.streamJournal()
	}
}

// streamJournal collects entries from every Journaler and emits the
// JOURNAL_START / JOURNAL / JOURNAL_DONE frame sequence.
func (s *Supervisor) streamJournal() {
	var entries []wire.Frame
	for i := range s.slots {
		j, ok := s.slots[i].agent.(Journaler)
		if !ok {
			continue
		}
		if entry, ok := j.JournalEntry(s.tick); ok {
			entries = append(entries, wire.New(wire.TagJournal,
				s.slots[i].agent.Name(), fmt.Sprintf("%d", s.tick), entry))
		}
	}
	if len(entries) == 0 {
		return
	}
	s.emitFrame(wire.New(wire.TagJournalStart, s.dayKey))
	for _, f := range entries {
		s.emitFrame(f)
	}
	s.emitFrame(wire.New(wire.TagJournalDone))
}

// SetAmbition is the only mutation path for the ambition state. It
// updates the current value, appends to history under the current day
// key, broadcasts a heartbeat, and persists through the host link.
func (s *Supervisor) SetAmbition(text string) {
	s.ambition.Current = text
	s.ambition.History = append(s.ambition.History, AmbitionEntry{DayKey: s.dayKey, Text: text})
	s.enqueue(bus.SystemEvent(SupervisorID, bus.EventHeartbeat, text))
	s.emitFrame(wire.New(wire.TagAmbitionSet, s.dayKey, text))
	log.Printf("supervisor: ambition set: %q", text)
}
