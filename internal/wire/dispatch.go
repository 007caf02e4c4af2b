package wire

import (
	"fmt"
	"log"
)

// Handler processes one parsed frame. Handlers receive already-unescaped
// fields and must not retain the slice past the call.
type Handler func(fields []string)

type tableEntry struct {
	minFields int
	handler   Handler
}

// Dispatcher routes decoded frames to tag handlers. The host link is
// untrusted input: unknown tags are ignored for forward compatibility,
// and a known tag with too few fields is dropped and counted. Neither
// case touches any other state.
type Dispatcher struct {
	table     map[string]tableEntry
	malformed uint64
	unknown   uint64
}

// NewDispatcher creates an empty dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{table: make(map[string]tableEntry)}
}

// Handle registers a handler for tag, requiring at least minFields
// fields. Registering the same tag twice is a construction-time
// programming error and returns ErrDuplicateTag.
func (d *Dispatcher) Handle(tag string, minFields int, h Handler) error {
	if tag == "" {
		return ErrEmptyTag
	}
	if _, ok := d.table[tag]; ok {
		return fmt.Errorf("wire: tag %s: %w", tag, ErrDuplicateTag)
	}
	d.table[tag] = tableEntry{minFields: minFields, handler: h}
	return nil
}

// MustHandle is Handle for static table construction; it panics on a
// duplicate tag, which indicates a programming error, not runtime input.
func (d *Dispatcher) MustHandle(tag string, minFields int, h Handler) {
	if err := d.Handle(tag, minFields, h); err != nil {
		panic(err)
	}
}

// Dispatch decodes one line and invokes the matching handler. It never
// returns an error: protocol problems from the untrusted host are
// recovered locally by dropping the line and bumping a counter.
func (d *Dispatcher) Dispatch(line string) {
	if line == "" {
		return
	}
	f, err := Decode(line)
	if err != nil {
		d.malformed++
		log.Printf("wire: dropping malformed line: %v", err)
		return
	}
	entry, ok := d.table[f.Tag]
	if !ok {
		d.unknown++
		return
	}
	if len(f.Fields) < entry.minFields {
		d.malformed++
		log.Printf("wire: dropping [%s]: got %d fields, want at least %d",
			f.Tag, len(f.Fields), entry.minFields)
		return
	}
	entry.handler(f.Fields)
}

// MalformedCount reports lines dropped for bad framing or field counts.
func (d *Dispatcher) MalformedCount() uint64 { return d.malformed }

// UnknownCount reports lines ignored because no handler knew the tag.
func (d *Dispatcher) UnknownCount() uint64 { return d.unknown }
