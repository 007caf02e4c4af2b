// Package wire implements the line-oriented frame protocol spoken on the
// host link. One frame is one ASCII line: `[TAG] field1|field2|...|fieldN`.
// A frame with no fields is just `[TAG]`. Fields are pipe-delimited, so
// literal pipes, backslashes, and newlines inside a field are escaped.
package wire

import (
	"errors"
	"strings"
)

var (
	ErrNoTag        = errors.New("wire: line has no [TAG] prefix")
	ErrEmptyTag     = errors.New("wire: empty tag")
	ErrBadEscape    = errors.New("wire: invalid escape sequence in field")
	ErrDuplicateTag = errors.New("wire: handler already registered for tag")
)

// Well-known tags exchanged with the host process. The runtime issues
// requests; the host answers with the matching response tag. Streamed
// sequences always end with an explicit *_DONE sentinel so the receiver
// never needs to know the length in advance.
const (
	TagHello           = "HELLO"
	TagHelloAck        = "HELLO_ACK"
	TagPersist         = "PERSIST"
	TagLoad            = "LOAD"
	TagAmbitionSet     = "AMBITION_SET"
	TagAmbitionLoad    = "AMBITION_LOAD"
	TagAmbitionHistory = "AMBITION_HISTORY"
	TagAmbitionDone    = "AMBITION_HISTORY_DONE"
	TagJournalStart    = "JOURNAL_START"
	TagJournal         = "JOURNAL"
	TagJournalDone     = "JOURNAL_DONE"
	TagInsight         = "INSIGHT"
	TagDay             = "DAY"
)

// Frame is one tagged, pipe-delimited line exchanged with the host.
// Frames are transient: built, encoded or dispatched, then discarded.
type Frame struct {
	Tag    string
	Fields []string
}

// New builds a frame from a tag and raw (unescaped) field values.
func New(tag string, fields ...string) Frame {
	return Frame{Tag: tag, Fields: fields}
}

// EscapeField escapes a raw field value for the wire. Literal backslash
// becomes `\\`, literal pipe becomes `\p`, and a literal newline becomes
// the two-character sequence `\n`; a raw newline would terminate the
// frame early.
func EscapeField(s string) string {
	if !strings.ContainsAny(s, "\\|\n") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + 8)
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\\':
			b.WriteString(`\\`)
		case '|':
			b.WriteString(`\p`)
		case '\n':
			b.WriteString(`\n`)
		default:
			b.WriteByte(s[i])
		}
	}
	return b.String()
}

// UnescapeField reverses EscapeField. An unknown escape sequence or a
// trailing bare backslash is a malformed field.
func UnescapeField(s string) (string, error) {
	if !strings.ContainsRune(s, '\\') {
		return s, nil
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' {
			b.WriteByte(s[i])
			continue
		}
		i++
		if i >= len(s) {
			return "", ErrBadEscape
		}
		switch s[i] {
		case '\\':
			b.WriteByte('\\')
		case 'p':
			b.WriteByte('|')
		case 'n':
			b.WriteByte('\n')
		default:
			return "", ErrBadEscape
		}
	}
	return b.String(), nil
}

// Encode renders the frame as a single line, without the trailing newline.
func Encode(f Frame) string {
	var b strings.Builder
	b.WriteByte('[')
	b.WriteString(f.Tag)
	b.WriteByte(']')
	for i, field := range f.Fields {
		if i == 0 {
			b.WriteByte(' ')
		} else {
			b.WriteByte('|')
		}
		b.WriteString(EscapeField(field))
	}
	return b.String()
}

// Decode parses one line into a frame. The line must not contain the
// trailing newline. A line of just `[TAG]` decodes to zero fields;
// `[TAG] ` (trailing space) decodes to one empty field.
func Decode(line string) (Frame, error) {
	if len(line) < 2 || line[0] != '[' {
		return Frame{}, ErrNoTag
	}
	end := strings.IndexByte(line, ']')
	if end < 0 {
		return Frame{}, ErrNoTag
	}
	tag := line[1:end]
	if tag == "" {
		return Frame{}, ErrEmptyTag
	}
	rest := line[end+1:]
	if rest == "" {
		return Frame{Tag: tag}, nil
	}
	// One space separates the tag from the field area.
	rest = strings.TrimPrefix(rest, " ")
	raw := splitFields(rest)
	fields := make([]string, len(raw))
	for i, r := range raw {
		f, err := UnescapeField(r)
		if err != nil {
			return Frame{}, err
		}
		fields[i] = f
	}
	return Frame{Tag: tag, Fields: fields}, nil
}

// splitFields splits the field area on unescaped pipes. Escaped pipes
// arrive as `\p`, so every `|` byte is a delimiter; splitting before
// unescaping keeps the two passes independent.
func splitFields(s string) []string {
	return strings.Split(s, "|")
}
