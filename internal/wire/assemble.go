package wire

// DefaultMaxLineLen bounds assembler memory against a host that never
// sends a newline.
const DefaultMaxLineLen = 64 * 1024

// LineAssembler turns an incoming byte stream into complete lines. The
// link gives no delivery-size guarantees, so bytes arrive in arbitrary
// chunks; Feed buffers partial lines across calls. Carriage returns
// before the newline are stripped.
type LineAssembler struct {
	buf      []byte
	maxLen   int
	overflow bool
	dropped  uint64
}

// NewLineAssembler creates an assembler with the given maximum line
// length; maxLen <= 0 selects DefaultMaxLineLen.
func NewLineAssembler(maxLen int) *LineAssembler {
	if maxLen <= 0 {
		maxLen = DefaultMaxLineLen
	}
	return &LineAssembler{maxLen: maxLen}
}

// Feed appends bytes and returns any lines completed by this chunk, in
// arrival order. A line that exceeds the maximum length is discarded in
// its entirety once its terminating newline arrives.
func (a *LineAssembler) Feed(p []byte) []string {
	var lines []string
	for _, b := range p {
		if b == '\n' {
			if a.overflow {
				a.overflow = false
				a.dropped++
			} else {
				line := a.buf
				if n := len(line); n > 0 && line[n-1] == '\r' {
					line = line[:n-1]
				}
				lines = append(lines, string(line))
			}
			a.buf = a.buf[:0]
			continue
		}
		if a.overflow {
			continue
		}
		if len(a.buf) >= a.maxLen {
			a.overflow = true
			a.buf = a.buf[:0]
			continue
		}
		a.buf = append(a.buf, b)
	}
	return lines
}

// DroppedCount reports lines discarded for exceeding the length bound.
func (a *LineAssembler) DroppedCount() uint64 { return a.dropped }

// Pending reports whether a partial line is buffered.
func (a *LineAssembler) Pending() bool { return len(a.buf) > 0 || a.overflow }
