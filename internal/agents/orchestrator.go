package agents

import (
	"fmt"

	"github.com/zulandar/hearth/internal/bus"
	"github.com/zulandar/hearth/internal/supervisor"
)

// Snapshotter is the slice of the supervisor the Orchestrator watches:
// queue drop counters and persistence requests. Narrow on purpose: the
// Orchestrator observes, it never reaches into shared state.
type Snapshotter interface {
	DroppedCount(id bus.AgentID) uint64
	AgentCount() int
	RequestPersist(key, value string)
}

// Orchestrator keeps an eye on the plumbing: it pings the roster to
// confirm liveness, reports queue overflow as Resource feedback, and
// periodically asks the host to persist a health snapshot.
type Orchestrator struct {
	snap         Snapshotter
	pingInterval uint64
	snapInterval uint64
	lastDropped  uint64
	pongs        uint64
}

// OrchestratorOpts holds Orchestrator construction parameters.
type OrchestratorOpts struct {
	Snapshotter   Snapshotter
	PingTicks     uint64 // roster ping period; default 500
	SnapshotTicks uint64 // persist period; default 2000
}

// NewOrchestrator creates an Orchestrator. The Snapshotter is required.
func NewOrchestrator(opts OrchestratorOpts) (*Orchestrator, error) {
	if opts.Snapshotter == nil {
		return nil, fmt.Errorf("agents: orchestrator: snapshotter is required")
	}
	ping := opts.PingTicks
	if ping == 0 {
		ping = 500
	}
	snap := opts.SnapshotTicks
	if snap == 0 {
		snap = 2000
	}
	return &Orchestrator{snap: opts.Snapshotter, pingInterval: ping, snapInterval: snap}, nil
}

func (o *Orchestrator) Name() string { return "orchestrator" }

func (o *Orchestrator) Awaken() bool { return true }

func (o *Orchestrator) Handle(ctx *supervisor.Context, m bus.Message) {
	if m.Kind == bus.KindPong {
		o.pongs++
	}
}

func (o *Orchestrator) Tick(ctx *supervisor.Context) {
	if ctx.Tick%o.pingInterval == 0 {
		ctx.Emit(bus.BroadcastFrom(ctx.ID, bus.KindPing))
	}

	// Report new queue drops since the last sweep.
	var dropped uint64
	for id := bus.AgentID(1); int(id) <= o.snap.AgentCount(); id++ {
		dropped += o.snap.DroppedCount(id)
	}
	if dropped > o.lastDropped {
		ctx.Feedback(bus.FeedbackResource,
			fmt.Sprintf("%d messages dropped on full queues", dropped-o.lastDropped))
		o.lastDropped = dropped
	}

	if ctx.Tick%o.snapInterval == 0 {
		o.snap.RequestPersist("orchestrator/health",
			fmt.Sprintf("tick=%d pongs=%d dropped=%d", ctx.Tick, o.pongs, dropped))
	}
}

// JournalEntry summarizes what the Orchestrator has heard back.
func (o *Orchestrator) JournalEntry(tick uint64) (string, bool) {
	if o.pongs == 0 {
		return "", false
	}
	return fmt.Sprintf("Heard %d pongs from the roster; the bus is breathing.", o.pongs), true
}
