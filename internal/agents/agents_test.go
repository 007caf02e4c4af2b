package agents

import (
	"strings"
	"testing"

	"github.com/zulandar/hearth/internal/bus"
	"github.com/zulandar/hearth/internal/supervisor"
	"github.com/zulandar/hearth/internal/wire"
)

func TestGuardianAnswersPing(t *testing.T) {
	s := supervisor.New(supervisor.Opts{
		HeartbeatTicks: 1 << 40, MorningTicks: 1 << 40, EveningTicks: 1 << 40, JournalTicks: 1 << 40,
	})
	g := NewGuardian(GuardianOpts{CheckIntervalTicks: 1 << 40})
	o, err := NewOrchestrator(OrchestratorOpts{Snapshotter: s, PingTicks: 1})
	if err != nil {
		t.Fatalf("new orchestrator: %v", err)
	}
	if _, err := s.Register(g); err != nil {
		t.Fatalf("register guardian: %v", err)
	}
	if _, err := s.Register(o); err != nil {
		t.Fatalf("register orchestrator: %v", err)
	}

	s.BootSequence()
	for i := 0; i < 10; i++ {
		s.Tick()
	}

	// Orchestrator pings every tick; guardian pongs back a tick later.
	_, pongs, _, _ := g.Stats()
	if pongs == 0 {
		t.Error("guardian never ponged")
	}
	if o.pongs == 0 {
		t.Error("orchestrator never heard a pong")
	}
}

func TestGuardianJournalOnlyWhenNews(t *testing.T) {
	g := NewGuardian(GuardianOpts{})
	g.Awaken() // runs the first self-check

	entry, ok := g.JournalEntry(10)
	if !ok || !strings.Contains(entry, "Verified") {
		t.Fatalf("entry = %q, ok = %v", entry, ok)
	}
	// Nothing new since the last batch.
	if _, ok := g.JournalEntry(20); ok {
		t.Error("journal entry repeated without new checks")
	}
}

func TestCoCreatorProposesOnMorning(t *testing.T) {
	c := NewCoCreator(CoCreatorOpts{FallbackAmbition: "chart the memory tiers"})
	ctx := &supervisor.Context{ID: 2, Tick: 1}

	c.Handle(ctx, bus.SystemEvent(supervisor.SupervisorID, bus.EventMorningAmbition, "day-0"))

	// The proposal rides out as Spark feedback on the context.
	found := false
	for _, m := range ctx.Drain() {
		if m.Kind == bus.KindFeedback && strings.Contains(m.Content, "chart the memory tiers") {
			found = true
		}
	}
	if !found {
		t.Fatal("no ambition proposal emitted")
	}

	// With an ambition imprinted, mornings stay quiet.
	c.Handle(ctx, bus.SystemEvent(supervisor.SupervisorID, bus.EventHeartbeat, "ship it"))
	c.Handle(ctx, bus.SystemEvent(supervisor.SupervisorID, bus.EventMorningAmbition, "day-0"))
	for _, m := range ctx.Drain() {
		if m.Kind == bus.KindFeedback && strings.Contains(m.Content, "proposal") {
			t.Error("proposed despite an active ambition")
		}
	}
}

func TestCoCreatorDayRolloverResets(t *testing.T) {
	c := NewCoCreator(CoCreatorOpts{})
	ctx := &supervisor.Context{ID: 2, Tick: 1, Ambition: "ship it"}
	c.Tick(ctx)
	if len(c.Commitments()) != 1 {
		t.Fatalf("commitments = %d, want 1", len(c.Commitments()))
	}

	c.Handle(ctx, bus.SystemEvent(supervisor.SupervisorID, bus.EventDayRollover, "2026-08-31"))
	if len(c.Commitments()) != 0 {
		t.Errorf("commitments not cleared on rollover: %v", c.Commitments())
	}
}

func TestOrchestratorReportsDrops(t *testing.T) {
	s := supervisor.New(supervisor.Opts{
		QueueCap: 1, HeartbeatTicks: 1 << 40, MorningTicks: 1 << 40, EveningTicks: 1 << 40, JournalTicks: 1 << 40,
	})
	g := NewGuardian(GuardianOpts{CheckIntervalTicks: 1 << 40})
	o, _ := NewOrchestrator(OrchestratorOpts{Snapshotter: s, PingTicks: 1, SnapshotTicks: 4})
	s.Register(g)
	s.Register(o)
	// A chatty third agent overflows the guardian's 1-slot queue.
	s.Register(&flooder{})

	s.BootSequence()
	for i := 0; i < 12; i++ {
		s.Tick()
	}

	found := false
	for _, in := range s.Insights() {
		if strings.Contains(in.Content, "dropped on full queues") {
			found = true
		}
	}
	if !found {
		t.Error("orchestrator never reported queue drops")
	}

	// Snapshot persistence rides the outbound frame buffer.
	persisted := false
	for _, f := range s.DrainOutbound() {
		if f.Tag == wire.TagPersist && f.Fields[0] == "orchestrator/health" {
			persisted = true
		}
	}
	if !persisted {
		t.Error("no health snapshot persisted")
	}
}

// flooder spams broadcasts every tick to force queue overflow.
type flooder struct{}

func (f *flooder) Name() string { return "flooder" }
func (f *flooder) Tick(ctx *supervisor.Context) {
	for i := 0; i < 4; i++ {
		ctx.Emit(bus.BroadcastFrom(ctx.ID, bus.KindPing))
	}
}
