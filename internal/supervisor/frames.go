package supervisor

import (
	"fmt"
	"log"

	"github.com/zulandar/hearth/internal/bus"
	"github.com/zulandar/hearth/internal/wire"
)

// Host link plumbing. Outbound frames are buffered, never written
// directly: the daemon drains the buffer between ticks and owns the
// actual I/O, so nothing here can block. Inbound frames arrive through a
// wire.Dispatcher the daemon pumps; every handler mutates supervisor
// state synchronously and trusts nothing from the host.

func (s *Supervisor) emitFrame(f wire.Frame) {
	s.outbound = append(s.outbound, f)
}

// DrainOutbound returns buffered outbound frames in emission order and
// clears the buffer.
func (s *Supervisor) DrainOutbound() []wire.Frame {
	out := s.outbound
	s.outbound = nil
	return out
}

// expectResponse records a bounded wait for a host response frame,
// keyed by (tag, key) so outstanding requests under the same tag resolve
// independently. The deadline is checked every tick; on expiry the
// fallback runs and a diagnostic is logged. The tick loop never parks
// waiting for the host.
func (s *Supervisor) expectResponse(tag, key string, fallback func()) {
	s.waits = append(s.waits, pendingWait{
		tag:      tag,
		key:      key,
		deadline: s.tick + s.opts.ResponseTimeoutTicks,
		fallback: fallback,
	})
}

func (s *Supervisor) resolveWait(tag, key string) {
	for i := range s.waits {
		if s.waits[i].tag == tag && s.waits[i].key == key {
			s.waits = append(s.waits[:i], s.waits[i+1:]...)
			return
		}
	}
}

func (s *Supervisor) expireWaits() {
	kept := s.waits[:0]
	for _, w := range s.waits {
		if s.tick >= w.deadline {
			log.Printf("supervisor: host response timeout for [%s] %q, using fallback", w.tag, w.key)
			if w.fallback != nil {
				w.fallback()
			}
			continue
		}
		kept = append(kept, w)
	}
	s.waits = kept
}

// PendingWaits reports outstanding host response waits, for observability.
func (s *Supervisor) PendingWaits() int { return len(s.waits) }

// RequestPersist asks the host to durably store a key/value pair. Fire
// and forget: persistence failures are the host's to report.
func (s *Supervisor) RequestPersist(key, value string) {
	s.emitFrame(wire.New(wire.TagPersist, key, value))
}

// RequestLoad asks the host for a stored value. If no LOAD response
// arrives within the response window, fallback is recorded instead.
func (s *Supervisor) RequestLoad(key, fallback string) {
	s.emitFrame(wire.New(wire.TagLoad, key))
	s.expectResponse(wire.TagLoad, key, func() {
		log.Printf("supervisor: load %q: fallback value substituted", key)
		s.loadedState()[key] = fallback
	})
}

// RequestAmbitionLoad asks the host for the given day's ambition. On
// timeout the ambition simply stays unset.
func (s *Supervisor) RequestAmbitionLoad(dayKey string) {
	s.emitFrame(wire.New(wire.TagAmbitionLoad, dayKey))
	s.expectResponse(wire.TagAmbitionLoad, dayKey, func() {
		log.Printf("supervisor: no ambition from host for %s", dayKey)
	})
}

// RequestAmbitionHistory asks the host to stream the last n ambition
// records.
func (s *Supervisor) RequestAmbitionHistory(n int) {
	s.emitFrame(wire.New(wire.TagAmbitionHistory, fmt.Sprintf("%d", n)))
	s.expectResponse(wire.TagAmbitionDone, "", nil)
}

func (s *Supervisor) loadedState() map[string]string {
	if s.loaded == nil {
		s.loaded = make(map[string]string)
	}
	return s.loaded
}

// LoadedState returns a host-loaded (or fallback) value for key.
func (s *Supervisor) LoadedState(key string) (string, bool) {
	v, ok := s.loadedState()[key]
	return v, ok
}

// AttachDispatcher registers the supervisor's inbound tag table. Handler
// registration conflicts are construction-time errors.
func (s *Supervisor) AttachDispatcher(d *wire.Dispatcher) error {
	handlers := []struct {
		tag       string
		minFields int
		fn        wire.Handler
	}{
		{wire.TagHelloAck, 0, func([]string) {
			log.Printf("supervisor: host link established")
		}},
		{wire.TagLoad, 2, func(f []string) {
			s.loadedState()[f[0]] = f[1]
			s.resolveWait(wire.TagLoad, f[0])
		}},
		{wire.TagAmbitionLoad, 2, func(f []string) {
			s.resolveWait(wire.TagAmbitionLoad, f[0])
			if f[1] == "" {
				return
			}
			// Replayed ambition: adopt without re-persisting.
			s.ambition.Current = f[1]
			s.ambition.History = append(s.ambition.History, AmbitionEntry{DayKey: f[0], Text: f[1]})
			s.enqueue(bus.SystemEvent(SupervisorID, bus.EventHeartbeat, f[1]))
		}},
		{wire.TagAmbitionHistory, 2, func(f []string) {
			s.ambition.History = append(s.ambition.History, AmbitionEntry{DayKey: f[0], Text: f[1]})
		}},
		{wire.TagAmbitionDone, 0, func([]string) {
			s.resolveWait(wire.TagAmbitionDone, "")
		}},
		{wire.TagDay, 1, func(f []string) {
			if f[0] == "" || f[0] == s.dayKey {
				return
			}
			s.dayKey = f[0]
			s.enqueue(bus.SystemEvent(SupervisorID, bus.EventDayRollover, f[0]))
			log.Printf("supervisor: day rollover: %s", f[0])
			// A restart mid-day boots with the placeholder day key. Once
			// the host names the real day, recover that day's persisted
			// ambition unless one is already set.
			if s.ambition.Current == "" {
				s.RequestAmbitionLoad(f[0])
			}
		}},
	}
	for _, h := range handlers {
		if err := d.Handle(h.tag, h.minFields, h.fn); err != nil {
			return err
		}
	}
	return nil
}

// Hello emits the link greeting the host acknowledges.
func (s *Supervisor) Hello() {
	s.emitFrame(wire.New(wire.TagHello, "hearth", "1"))
}
