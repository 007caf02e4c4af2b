// Package hearthd runs the cooperative tick loop and pumps the host
// link. It is the only place in the runtime that touches a wall clock;
// everything below it counts ticks.
package hearthd

import (
	"context"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/zulandar/hearth/internal/config"
	"github.com/zulandar/hearth/internal/supervisor"
	"github.com/zulandar/hearth/internal/wire"
)

const (
	defaultTickInterval = 10 * time.Millisecond

	// ambitionHistoryDepth is how many past ambition records the runtime
	// asks the host to replay at startup.
	ambitionHistoryDepth = 7
)

// Opts holds daemon construction parameters.
type Opts struct {
	Config *config.Config    // required
	Link   io.ReadWriter     // required; the host byte stream
	Agents []supervisor.Agent // roster, registered in order
	Out    io.Writer         // human-readable status; defaults to io.Discard
}

// Daemon owns the supervisor, the inbound line assembler, and the frame
// dispatcher. One goroutine reads the link; everything else happens on
// the tick loop goroutine.
type Daemon struct {
	cfg  *config.Config
	sup  *supervisor.Supervisor
	disp *wire.Dispatcher
	asm  *wire.LineAssembler
	link io.ReadWriter
	out  io.Writer

	linkUp bool
}

// New wires a daemon from config: supervisor options come from the
// runtime section, the line assembler bound from the link section.
func New(opts Opts) (*Daemon, error) {
	if opts.Config == nil {
		return nil, fmt.Errorf("hearthd: config is required")
	}
	if opts.Link == nil {
		return nil, fmt.Errorf("hearthd: link is required")
	}
	if opts.Out == nil {
		opts.Out = io.Discard
	}

	rt := opts.Config.Runtime
	sup := supervisor.New(supervisor.Opts{
		BootTimeoutTicks:     rt.BootTimeoutTicks,
		HeartbeatTicks:       rt.HeartbeatTicks,
		JournalTicks:         rt.JournalTicks,
		MorningTicks:         rt.MorningTicks,
		EveningTicks:         rt.EveningTicks,
		ResponseTimeoutTicks: rt.ResponseTimeoutTicks,
		QueueCap:             rt.QueueCap,
		InsightCap:           rt.InsightCap,
	})
	for _, a := range opts.Agents {
		if _, err := sup.Register(a); err != nil {
			return nil, fmt.Errorf("hearthd: %w", err)
		}
	}

	disp := wire.NewDispatcher()
	if err := sup.AttachDispatcher(disp); err != nil {
		return nil, fmt.Errorf("hearthd: %w", err)
	}

	return &Daemon{
		cfg:    opts.Config,
		sup:    sup,
		disp:   disp,
		asm:    wire.NewLineAssembler(opts.Config.Link.MaxLineLen),
		link:   opts.Link,
		out:    opts.Out,
		linkUp: true,
	}, nil
}

// Supervisor exposes the underlying supervisor for inspection.
func (d *Daemon) Supervisor() *supervisor.Supervisor { return d.sup }

// Pump feeds raw link bytes through line assembly and dispatch.
// Malformed input never errors; the dispatcher counts it.
func (d *Daemon) Pump(data []byte) {
	for _, line := range d.asm.Feed(data) {
		d.disp.Dispatch(line)
	}
}

// Step runs exactly one tick and flushes any frames it produced.
func (d *Daemon) Step() {
	d.sup.Tick()
	d.flush()
}

// flush writes buffered outbound frames to the link, one per line.
// After a write failure the link is considered down and further frames
// are dropped; the tick loop itself never stops for the host.
func (d *Daemon) flush() {
	frames := d.sup.DrainOutbound()
	if !d.linkUp {
		return
	}
	for _, f := range frames {
		if _, err := io.WriteString(d.link, wire.Encode(f)+"\n"); err != nil {
			log.Printf("hearthd: link write: %v (continuing without host)", err)
			d.linkUp = false
			return
		}
	}
}

// Run drives the tick loop at the configured cadence until ctx is
// cancelled. The link reader runs on its own goroutine and hands chunks
// to the loop; a closed link degrades the runtime to standalone
// operation rather than stopping it.
func (d *Daemon) Run(ctx context.Context) error {
	interval := time.Duration(d.cfg.Runtime.TickIntervalMs) * time.Millisecond
	if interval <= 0 {
		interval = defaultTickInterval
	}

	inbound := make(chan []byte, 16)
	go d.readLoop(ctx, inbound)

	d.sup.Hello()
	d.sup.RequestAmbitionLoad(d.sup.DayKey())
	d.sup.RequestAmbitionHistory(ambitionHistoryDepth)
	d.sup.BootSequence()
	d.flush()
	fmt.Fprintf(d.out, "Hearth runtime starting (%d agents, tick every %s)...\n", d.sup.AgentCount(), interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	booted := false
	for {
		select {
		case <-ctx.Done():
			fmt.Fprintf(d.out, "Hearth runtime stopped at tick %d.\n", d.sup.CurrentTick())
			return nil
		case data, ok := <-inbound:
			if !ok {
				inbound = nil // reader finished; keep ticking
				continue
			}
			d.Pump(data)
		case <-ticker.C:
			d.Step()
			if !booted && d.sup.Phase() == supervisor.PhaseSteadyState {
				booted = true
				fmt.Fprintf(d.out, "Steady state reached at tick %d.\n", d.sup.CurrentTick())
			}
		}
	}
}

// readLoop pulls bytes off the link and hands them to the tick loop.
// It exits on read error or EOF; the runtime keeps going without it.
func (d *Daemon) readLoop(ctx context.Context, inbound chan<- []byte) {
	defer close(inbound)
	buf := make([]byte, 4096)
	for {
		n, err := d.link.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			select {
			case inbound <- chunk:
			case <-ctx.Done():
				return
			}
		}
		if err != nil {
			if err != io.EOF {
				log.Printf("hearthd: link read: %v", err)
			}
			return
		}
	}
}
