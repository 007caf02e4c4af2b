package hearthd

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/zulandar/hearth/internal/bus"
	"github.com/zulandar/hearth/internal/config"
	"github.com/zulandar/hearth/internal/supervisor"
)

// fakeLink is an in-memory host link. Reads block until Close so the
// reader goroutine behaves like a quiet TCP peer.
type fakeLink struct {
	wrote  bytes.Buffer
	closed chan struct{}
}

func newFakeLink() *fakeLink {
	return &fakeLink{closed: make(chan struct{})}
}

func (l *fakeLink) Read(p []byte) (int, error) {
	<-l.closed
	return 0, io.EOF
}

func (l *fakeLink) Write(p []byte) (int, error) {
	return l.wrote.Write(p)
}

func (l *fakeLink) Close() { close(l.closed) }

type nopAgent struct{ name string }

func (a *nopAgent) Name() string             { return a.name }
func (a *nopAgent) Tick(*supervisor.Context) {}

// echoAgent answers pings so link traffic has something to exercise.
type echoAgent struct {
	nopAgent
	pings int
}

func (a *echoAgent) Handle(ctx *supervisor.Context, m bus.Message) {
	if m.Kind == bus.KindPing {
		a.pings++
		ctx.Send(m.Sender, bus.KindPong)
	}
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Runtime.TickIntervalMs = 1
	cfg.Runtime.BootTimeoutTicks = 4
	return cfg
}

func TestNew_RequiresConfigAndLink(t *testing.T) {
	if _, err := New(Opts{Link: newFakeLink()}); err == nil {
		t.Error("expected error for nil config")
	}
	if _, err := New(Opts{Config: testConfig()}); err == nil {
		t.Error("expected error for nil link")
	}
}

func TestNew_RejectsDuplicateAgentNames(t *testing.T) {
	_, err := New(Opts{
		Config: testConfig(),
		Link:   newFakeLink(),
		Agents: []supervisor.Agent{&nopAgent{name: "twin"}, &nopAgent{name: "twin"}},
	})
	if err == nil {
		t.Fatal("expected duplicate name error")
	}
	if !strings.Contains(err.Error(), "twin") {
		t.Errorf("error = %q, want to name the agent", err.Error())
	}
}

func TestStep_EmitsFramesToLink(t *testing.T) {
	link := newFakeLink()
	defer link.Close()
	d, err := New(Opts{
		Config: testConfig(),
		Link:   link,
		Agents: []supervisor.Agent{&nopAgent{name: "solo"}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	d.Supervisor().Hello()
	d.Step()

	out := link.wrote.String()
	if !strings.Contains(out, "[HELLO] hearth|1\n") {
		t.Errorf("link output = %q, want HELLO frame", out)
	}
}

func TestPump_RoutesHostFrames(t *testing.T) {
	link := newFakeLink()
	defer link.Close()
	d, err := New(Opts{Config: testConfig(), Link: link})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Split across chunks to exercise line assembly.
	d.Pump([]byte("[DAY] 2026-0"))
	d.Pump([]byte("8-30\n"))

	if got := d.Supervisor().DayKey(); got != "2026-08-30" {
		t.Errorf("DayKey = %q, want %q", got, "2026-08-30")
	}
}

func TestPump_MalformedLineDoesNotStopRuntime(t *testing.T) {
	link := newFakeLink()
	defer link.Close()
	d, err := New(Opts{Config: testConfig(), Link: link})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	d.Pump([]byte("not a frame\n[DAY] 2026-09-01\n"))

	if got := d.Supervisor().DayKey(); got != "2026-09-01" {
		t.Errorf("DayKey = %q, want %q (valid frame after junk)", got, "2026-09-01")
	}
}

// signalWriter forwards status lines to a channel without blocking.
type signalWriter struct{ ch chan string }

func (w *signalWriter) Write(p []byte) (int, error) {
	select {
	case w.ch <- string(p):
	default:
	}
	return len(p), nil
}

func TestRun_ReachesSteadyStateAndStops(t *testing.T) {
	link := newFakeLink()
	defer link.Close()
	echo := &echoAgent{nopAgent: nopAgent{name: "echo"}}
	status := &signalWriter{ch: make(chan string, 16)}
	d, err := New(Opts{
		Config: testConfig(),
		Link:   link,
		Agents: []supervisor.Agent{echo},
		Out:    status,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	deadline := time.After(2 * time.Second)
	steady := false
	for !steady {
		select {
		case <-deadline:
			cancel()
			t.Fatal("never reached steady state")
		case line := <-status.ch:
			steady = strings.Contains(line, "Steady state")
		}
	}
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	out := link.wrote.String()
	if !strings.Contains(out, "[HELLO] hearth|1\n") {
		t.Errorf("link output missing HELLO greeting: %q", out)
	}
	if !strings.Contains(out, "[AMBITION_LOAD] day-0\n") {
		t.Errorf("link output missing startup ambition request: %q", out)
	}
}

func TestFlush_WriteErrorDegradesToStandalone(t *testing.T) {
	link := newFakeLink()
	defer link.Close()
	d, err := New(Opts{Config: testConfig(), Link: link})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	d.linkUp = false
	d.Supervisor().Hello()
	d.Step() // must not panic or write

	if link.wrote.Len() != 0 {
		t.Errorf("wrote %q to a down link", link.wrote.String())
	}
	// The runtime keeps ticking regardless.
	before := d.Supervisor().CurrentTick()
	d.Step()
	if d.Supervisor().CurrentTick() != before+1 {
		t.Error("tick loop stopped after link loss")
	}
}
