// Package bridge is the host side of the runtime link. It answers the
// runtime's frames from the store, streams history replays, batches
// journal entries, and owns the wall clock: day boundaries are computed
// here and pushed down as DAY frames.
package bridge

import (
	"context"
	"fmt"
	"io"
	"log"
	"strconv"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/zulandar/hearth/internal/host/notify"
	"github.com/zulandar/hearth/internal/host/store"
	"github.com/zulandar/hearth/internal/wire"
)

const (
	// dayKeyLayout formats the host clock into the runtime's day key.
	dayKeyLayout = "2006-01-02"
	// maxHistoryReplay caps how many ambition records one request may
	// stream, whatever the runtime asks for.
	maxHistoryReplay = 100
)

// Opts holds bridge construction parameters.
type Opts struct {
	Store    *store.Store     // required
	Notifier *notify.Notifier // optional; nil disables notifications
	DayCron  string           // 5-field cron for day rollover; default "0 0 * * *"
	// MaxLineLen bounds inbound line assembly.
	MaxLineLen int
	// Now overrides the clock for tests.
	Now func() time.Time
}

// Bridge serves one runtime over a byte-stream link.
type Bridge struct {
	st       *store.Store
	notifier *notify.Notifier
	disp     *wire.Dispatcher
	asm      *wire.LineAssembler
	dayCron  string
	now      func() time.Time

	mu   sync.Mutex // guards link; cron fires on its own goroutine
	link io.Writer

	// journal batch in flight, between JOURNAL_START and JOURNAL_DONE
	batchDay string
	batch    []store.JournalRecord
	inBatch  bool
}

// New wires a bridge over the given store.
func New(opts Opts) (*Bridge, error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("bridge: store is required")
	}
	if opts.DayCron == "" {
		opts.DayCron = "0 0 * * *"
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	b := &Bridge{
		st:       opts.Store,
		notifier: opts.Notifier,
		asm:      wire.NewLineAssembler(opts.MaxLineLen),
		dayCron:  opts.DayCron,
		now:      opts.Now,
	}
	disp := wire.NewDispatcher()
	if err := b.attach(disp); err != nil {
		return nil, err
	}
	b.disp = disp
	return b, nil
}

// DayKey returns the current day key from the host clock.
func (b *Bridge) DayKey() string {
	return b.now().UTC().Format(dayKeyLayout)
}

// emit writes one frame to the link. Safe from the cron goroutine.
func (b *Bridge) emit(f wire.Frame) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.link == nil {
		return
	}
	if _, err := io.WriteString(b.link, wire.Encode(f)+"\n"); err != nil {
		log.Printf("bridge: link write: %v", err)
	}
}

// Pump feeds raw link bytes through line assembly and dispatch.
func (b *Bridge) Pump(data []byte) {
	for _, line := range b.asm.Feed(data) {
		b.disp.Dispatch(line)
	}
}

// Serve binds the link, announces the current day, and pumps inbound
// bytes until the link closes. The cron scheduler pushing DAY frames
// runs for the duration of the call.
func (b *Bridge) Serve(link io.ReadWriter) error {
	b.mu.Lock()
	b.link = link
	b.mu.Unlock()
	defer func() {
		b.mu.Lock()
		b.link = nil
		b.mu.Unlock()
	}()

	c := cron.New()
	if _, err := c.AddFunc(b.dayCron, func() {
		b.emit(wire.New(wire.TagDay, b.DayKey()))
	}); err != nil {
		return fmt.Errorf("bridge: day cron %q: %w", b.dayCron, err)
	}
	c.Start()
	defer c.Stop()

	// The runtime boots with a placeholder day key; correct it
	// immediately rather than waiting for the first rollover.
	b.emit(wire.New(wire.TagDay, b.DayKey()))

	buf := make([]byte, 4096)
	for {
		n, err := link.Read(buf)
		if n > 0 {
			b.Pump(buf[:n])
		}
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return fmt.Errorf("bridge: link read: %w", err)
		}
	}
}

// sendEvent forwards to the notifier when one is configured.
func (b *Bridge) sendEvent(ev notify.Event) {
	if b.notifier == nil {
		return
	}
	b.notifier.Send(context.Background(), ev)
}

// attach registers the inbound tag table.
func (b *Bridge) attach(d *wire.Dispatcher) error {
	handlers := []struct {
		tag       string
		minFields int
		fn        wire.Handler
	}{
		{wire.TagHello, 2, b.onHello},
		{wire.TagPersist, 2, b.onPersist},
		{wire.TagLoad, 1, b.onLoad},
		{wire.TagAmbitionSet, 2, b.onAmbitionSet},
		{wire.TagAmbitionLoad, 1, b.onAmbitionLoad},
		{wire.TagAmbitionHistory, 1, b.onAmbitionHistory},
		{wire.TagJournalStart, 1, b.onJournalStart},
		{wire.TagJournal, 3, b.onJournal},
		{wire.TagJournalDone, 0, b.onJournalDone},
		{wire.TagInsight, 4, b.onInsight},
	}
	for _, h := range handlers {
		if err := d.Handle(h.tag, h.minFields, h.fn); err != nil {
			return err
		}
	}
	return nil
}

func (b *Bridge) onHello(f []string) {
	log.Printf("bridge: runtime connected: %s v%s", f[0], f[1])
	b.emit(wire.New(wire.TagHelloAck))
}

func (b *Bridge) onPersist(f []string) {
	if err := b.st.PutState(f[0], f[1]); err != nil {
		log.Printf("bridge: persist %q: %v", f[0], err)
	}
}

// onLoad answers with the stored value. A missing key gets no reply;
// the runtime's bounded wait falls back on its own.
func (b *Bridge) onLoad(f []string) {
	value, ok, err := b.st.GetState(f[0])
	if err != nil {
		log.Printf("bridge: load %q: %v", f[0], err)
		return
	}
	if !ok {
		return
	}
	b.emit(wire.New(wire.TagLoad, f[0], value))
}

func (b *Bridge) onAmbitionSet(f []string) {
	if err := b.st.AddAmbition(f[0], f[1]); err != nil {
		log.Printf("bridge: ambition set: %v", err)
		return
	}
	b.sendEvent(notify.Event{
		Title:    "Ambition set for " + f[0],
		Body:     f[1],
		Severity: notify.SeveritySuccess,
	})
}

func (b *Bridge) onAmbitionLoad(f []string) {
	text, ok, err := b.st.AmbitionForDay(f[0])
	if err != nil {
		log.Printf("bridge: ambition load %q: %v", f[0], err)
		return
	}
	if !ok {
		text = ""
	}
	b.emit(wire.New(wire.TagAmbitionLoad, f[0], text))
}

func (b *Bridge) onAmbitionHistory(f []string) {
	n, err := strconv.Atoi(f[0])
	if err != nil || n <= 0 {
		n = 7
	}
	if n > maxHistoryReplay {
		n = maxHistoryReplay
	}
	recs, err := b.st.AmbitionHistory(n)
	if err != nil {
		log.Printf("bridge: ambition history: %v", err)
		recs = nil
	}
	for _, rec := range recs {
		b.emit(wire.New(wire.TagAmbitionHistory, rec.DayKey, rec.Text))
	}
	b.emit(wire.New(wire.TagAmbitionDone))
}

func (b *Bridge) onJournalStart(f []string) {
	if b.inBatch {
		log.Printf("bridge: journal batch for %s superseded by %s", b.batchDay, f[0])
	}
	b.inBatch = true
	b.batchDay = f[0]
	b.batch = nil
}

func (b *Bridge) onJournal(f []string) {
	if !b.inBatch {
		// Stray entry without a start; keep it under the current day.
		b.inBatch = true
		b.batchDay = b.DayKey()
	}
	tick, _ := strconv.ParseUint(f[1], 10, 64)
	b.batch = append(b.batch, store.JournalRecord{
		DayKey:    b.batchDay,
		AgentName: f[0],
		Tick:      tick,
		Entry:     f[2],
	})
}

func (b *Bridge) onJournalDone([]string) {
	if !b.inBatch {
		return
	}
	batch, day := b.batch, b.batchDay
	b.inBatch = false
	b.batch = nil
	if err := b.st.AddJournal(batch); err != nil {
		log.Printf("bridge: journal batch: %v", err)
		return
	}
	if len(batch) > 0 {
		b.sendEvent(notify.Event{
			Title:    fmt.Sprintf("Journal for %s: %d entries", day, len(batch)),
			Body:     journalDigest(batch),
			Severity: notify.SeverityInfo,
		})
	}
}

func (b *Bridge) onInsight(f []string) {
	origin, _ := strconv.Atoi(f[2])
	tick, _ := strconv.ParseUint(f[3], 10, 64)
	rec := store.InsightRecord{
		Category: f[0],
		Content:  f[1],
		Origin:   origin,
		Tick:     tick,
	}
	if err := b.st.AddInsight(rec); err != nil {
		log.Printf("bridge: insight: %v", err)
	}
}

// journalDigest renders a batch as one line per agent entry.
func journalDigest(batch []store.JournalRecord) string {
	out := ""
	for _, rec := range batch {
		if out != "" {
			out += "\n"
		}
		out += fmt.Sprintf("%s: %s", rec.AgentName, rec.Entry)
	}
	return out
}
