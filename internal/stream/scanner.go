// Package stream splits an incrementally arriving agent output stream into
// plain text spans and candidate artifact payloads. Artifact blocks are
// framed by a fixed delimiter pair shared with the agent-side emitter; the
// scanner makes no attempt to understand what is inside a block.
package stream

import (
	"bytes"
)

// Default delimiter literals. These are a pinned protocol constant shared
// with the agent-side emitter, chosen to be unlikely in ordinary prose.
const (
	DefaultOpenDelimiter  = "<<<ARTIFACT"
	DefaultCloseDelimiter = "ARTIFACT>>>"
)

// Delimiters configures the opening/closing literal pair for a session.
type Delimiters struct {
	Open  string
	Close string
}

// DefaultDelimiters returns the pinned protocol delimiter pair.
func DefaultDelimiters() Delimiters {
	return Delimiters{Open: DefaultOpenDelimiter, Close: DefaultCloseDelimiter}
}

// EventType discriminates scanner outputs.
type EventType int

const (
	// EventText is a span of plain agent prose, to be rendered verbatim.
	EventText EventType = iota
	// EventPayload is the raw body of a delimited block, delimiters excluded.
	// Whether it is a valid artifact is the decoder's problem.
	EventPayload
)

// Event is one ordered output of the scanner.
type Event struct {
	Type    EventType
	Text    string // set for EventText
	Payload []byte // set for EventPayload
}

type scanState int

const (
	scanPlain scanState = iota
	scanBlock
)

// Scanner is a single-pass state machine over the concatenated chunk stream.
// It never fails: malformed framing always degrades to plain text, so the
// visible transcript remains a complete rendering of everything the agent
// said. A Scanner is not safe for concurrent use; the ingestion path feeds
// it from a single goroutine.
//
// It is safe to search for the ASCII delimiter literals at the byte level
// because UTF-8 guarantees ASCII bytes never occur inside a multi-byte
// sequence (same argument as the top-level JSON candidate scanner this
// design started from).
type Scanner struct {
	delims Delimiters
	state  scanState
	buf    []byte // pending bytes for the current state
}

// NewScanner returns a scanner for one session. Zero-value delimiters fall
// back to the pinned defaults.
func NewScanner(d Delimiters) *Scanner {
	if d.Open == "" || d.Close == "" {
		d = DefaultDelimiters()
	}
	return &Scanner{delims: d}
}

// Delimiters reports the configured delimiter pair.
func (s *Scanner) Delimiters() Delimiters { return s.delims }

// Feed consumes one stream chunk and returns the ordered events it
// completes. A chunk may split a delimiter at any byte offset; the scanner
// holds back at most len(open)-1 trailing plain bytes until they are
// disambiguated, so chunk boundaries never alter the output.
func (s *Scanner) Feed(chunk string) []Event {
	if chunk == "" {
		return nil
	}
	s.buf = append(s.buf, chunk...)
	return s.drain()
}

// Close signals end of stream and flushes pending state. An unterminated
// block is never a candidate payload: it degrades to visible plain text
// with the opening delimiter re-inserted. The scanner is reset for reuse
// afterwards, though sessions do not share scanners in practice.
func (s *Scanner) Close() []Event {
	var events []Event
	switch s.state {
	case scanPlain:
		if len(s.buf) > 0 {
			events = append(events, Event{Type: EventText, Text: string(s.buf)})
		}
	case scanBlock:
		events = append(events, Event{Type: EventText, Text: s.delims.Open + string(s.buf)})
	}
	s.Reset()
	return events
}

// Reset returns the scanner to its initial state, dropping pending bytes.
func (s *Scanner) Reset() {
	s.state = scanPlain
	s.buf = nil
}

func (s *Scanner) drain() []Event {
	var events []Event
	open := []byte(s.delims.Open)
	close := []byte(s.delims.Close)

	for {
		switch s.state {
		case scanPlain:
			i := bytes.Index(s.buf, open)
			if i < 0 {
				// No opening delimiter yet. Emit everything except a
				// trailing run that could still grow into one.
				hold := suffixPrefixLen(s.buf, open)
				if emit := len(s.buf) - hold; emit > 0 {
					events = append(events, Event{Type: EventText, Text: string(s.buf[:emit])})
					s.buf = append(s.buf[:0], s.buf[emit:]...)
				}
				return events
			}
			if i > 0 {
				events = append(events, Event{Type: EventText, Text: string(s.buf[:i])})
			}
			s.buf = append(s.buf[:0], s.buf[i+len(open):]...)
			s.state = scanBlock

		case scanBlock:
			// Opening delimiters inside a block are literal bytes; blocks
			// do not nest, so only the closing literal matters here.
			j := bytes.Index(s.buf, close)
			if j < 0 {
				return events
			}
			payload := make([]byte, j)
			copy(payload, s.buf[:j])
			events = append(events, Event{Type: EventPayload, Payload: payload})
			s.buf = append(s.buf[:0], s.buf[j+len(close):]...)
			s.state = scanPlain
		}
	}
}

// suffixPrefixLen returns the length of the longest suffix of buf that is a
// proper prefix of delim. This bounds the lookback window the scanner keeps
// across chunk boundaries.
func suffixPrefixLen(buf, delim []byte) int {
	max := len(delim) - 1
	if max > len(buf) {
		max = len(buf)
	}
	for k := max; k > 0; k-- {
		if bytes.Equal(buf[len(buf)-k:], delim[:k]) {
			return k
		}
	}
	return 0
}
