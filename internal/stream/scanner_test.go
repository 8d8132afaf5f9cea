package stream

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// collect runs a full stream through a fresh scanner in one chunk per
// element and appends the Close flush.
func collect(t *testing.T, d Delimiters, chunks ...string) []Event {
	t.Helper()
	s := NewScanner(d)
	var events []Event
	for _, c := range chunks {
		events = append(events, s.Feed(c)...)
	}
	events = append(events, s.Close()...)
	return events
}

// flatten re-assembles scanner output into a comparable shape: plain text
// concatenated, payloads kept in order.
func flatten(events []Event) (text string, payloads []string) {
	var sb strings.Builder
	for _, ev := range events {
		switch ev.Type {
		case EventText:
			sb.WriteString(ev.Text)
		case EventPayload:
			payloads = append(payloads, string(ev.Payload))
		}
	}
	return sb.String(), payloads
}

func TestScanner_PlainOnly(t *testing.T) {
	events := collect(t, DefaultDelimiters(), "hello ", "world")
	text, payloads := flatten(events)
	if text != "hello world" {
		t.Errorf("text = %q, want %q", text, "hello world")
	}
	if len(payloads) != 0 {
		t.Errorf("unexpected payloads: %v", payloads)
	}
}

func TestScanner_SingleBlock(t *testing.T) {
	in := "before <<<ARTIFACT{\"type\":\"artifact\"}ARTIFACT>>> after"
	events := collect(t, DefaultDelimiters(), in)
	text, payloads := flatten(events)
	if text != "before  after" {
		t.Errorf("text = %q, want %q", text, "before  after")
	}
	if len(payloads) != 1 || payloads[0] != `{"type":"artifact"}` {
		t.Errorf("payloads = %v", payloads)
	}
}

func TestScanner_Ordering(t *testing.T) {
	in := "a<<<ARTIFACT1ARTIFACT>>>b<<<ARTIFACT2ARTIFACT>>>c"
	events := collect(t, DefaultDelimiters(), in)

	want := []Event{
		{Type: EventText, Text: "a"},
		{Type: EventPayload, Payload: []byte("1")},
		{Type: EventText, Text: "b"},
		{Type: EventPayload, Payload: []byte("2")},
		{Type: EventText, Text: "c"},
	}
	if len(events) != len(want) {
		t.Fatalf("got %d events, want %d: %+v", len(events), len(want), events)
	}
	for i, ev := range events {
		if ev.Type != want[i].Type {
			t.Errorf("event[%d].Type = %v, want %v", i, ev.Type, want[i].Type)
		}
		if ev.Type == EventText && ev.Text != want[i].Text {
			t.Errorf("event[%d].Text = %q, want %q", i, ev.Text, want[i].Text)
		}
		if ev.Type == EventPayload && string(ev.Payload) != string(want[i].Payload) {
			t.Errorf("event[%d].Payload = %q, want %q", i, ev.Payload, want[i].Payload)
		}
	}
}

func TestScanner_UnterminatedBlockDegradesToText(t *testing.T) {
	events := collect(t, DefaultDelimiters(), "hi <<<ARTIFACT{\"half\":")
	text, payloads := flatten(events)
	if len(payloads) != 0 {
		t.Fatalf("unterminated block must not yield a payload, got %v", payloads)
	}
	// The opening delimiter is re-inserted so nothing the agent said is
	// silently dropped.
	if text != "hi <<<ARTIFACT{\"half\":" {
		t.Errorf("text = %q", text)
	}
}

func TestScanner_TrailingDelimiterPrefixFlushedAtClose(t *testing.T) {
	// "<<<ART" is a prefix of the opening delimiter; at end of stream it is
	// plain text, not a swallowed partial block.
	events := collect(t, DefaultDelimiters(), "tail <<<ART")
	text, _ := flatten(events)
	if text != "tail <<<ART" {
		t.Errorf("text = %q, want %q", text, "tail <<<ART")
	}
}

func TestScanner_NestedOpenIsLiteral(t *testing.T) {
	in := "x<<<ARTIFACTbody <<<ARTIFACT still bodyARTIFACT>>>y"
	events := collect(t, DefaultDelimiters(), in)
	text, payloads := flatten(events)
	if text != "xy" {
		t.Errorf("text = %q, want %q", text, "xy")
	}
	if len(payloads) != 1 || payloads[0] != "body <<<ARTIFACT still body" {
		t.Errorf("payloads = %v", payloads)
	}
}

func TestScanner_CustomDelimiters(t *testing.T) {
	d := Delimiters{Open: "<<ART", Close: ">>"}
	in := `Hello <<ART{"type":"artifact","id":"1","component":"document","props":{"body":"Hi"}}>> bye`
	events := collect(t, d, in)
	text, payloads := flatten(events)
	if text != "Hello  bye" {
		t.Errorf("text = %q", text)
	}
	if len(payloads) != 1 || payloads[0] != `{"type":"artifact","id":"1","component":"document","props":{"body":"Hi"}}` {
		t.Errorf("payloads = %v", payloads)
	}
}

// TestScanner_ChunkingInvariance verifies the core streaming property: for
// any split of the stream into chunks, including splits in the middle of a
// delimiter, the scanner output is identical to the unsplit case.
func TestScanner_ChunkingInvariance(t *testing.T) {
	streams := []string{
		"plain text only, no blocks at all",
		"pre <<<ARTIFACT{\"a\":1}ARTIFACT>>> post",
		"<<<ARTIFACT{\"only\":\"block\"}ARTIFACT>>>",
		"a<<<ARTIFACT1ARTIFACT>>>b<<<ARTIFACT2ARTIFACT>>>",
		"unterminated <<<ARTIFACT{\"x\":",
		"almost <<<ARTIFAC but not quite",
		"empty block <<<ARTIFACTARTIFACT>>> done",
	}

	for _, in := range streams {
		whole := collect(t, DefaultDelimiters(), in)
		wantText, wantPayloads := flatten(whole)

		// Every single split point, which covers every mid-delimiter split.
		for cut := 0; cut <= len(in); cut++ {
			got := collect(t, DefaultDelimiters(), in[:cut], in[cut:])
			gotText, gotPayloads := flatten(got)
			if gotText != wantText {
				t.Fatalf("stream %q cut at %d: text = %q, want %q", in, cut, gotText, wantText)
			}
			if diff := cmp.Diff(wantPayloads, gotPayloads); diff != "" {
				t.Fatalf("stream %q cut at %d: payload mismatch (-want +got):\n%s", in, cut, diff)
			}
		}

		// Degenerate chunking: one byte at a time.
		s := NewScanner(DefaultDelimiters())
		var events []Event
		for i := 0; i < len(in); i++ {
			events = append(events, s.Feed(in[i:i+1])...)
		}
		events = append(events, s.Close()...)
		gotText, gotPayloads := flatten(events)
		if gotText != wantText || len(gotPayloads) != len(wantPayloads) {
			t.Fatalf("stream %q byte-at-a-time: text %q payloads %v, want %q %v",
				in, gotText, gotPayloads, wantText, wantPayloads)
		}
	}
}

func TestScanner_EmptyFeed(t *testing.T) {
	s := NewScanner(DefaultDelimiters())
	if events := s.Feed(""); events != nil {
		t.Errorf("empty chunk produced events: %v", events)
	}
}

func TestScanner_ResetBetweenSessions(t *testing.T) {
	s := NewScanner(DefaultDelimiters())
	s.Feed("dangling <<<ARTIFACT{")
	s.Reset()

	events := s.Feed("fresh")
	events = append(events, s.Close()...)
	text, payloads := flatten(events)
	if text != "fresh" || len(payloads) != 0 {
		t.Errorf("after reset: text %q payloads %v", text, payloads)
	}
}

func BenchmarkScannerFeed(b *testing.B) {
	var sb strings.Builder
	for i := 0; i < 200; i++ {
		sb.WriteString("some interleaved prose about the current task... ")
		sb.WriteString("<<<ARTIFACT{\"type\":\"artifact\",\"id\":\"x\",\"component\":\"document\",\"props\":{\"content\":\"hi\"}}ARTIFACT>>>")
	}
	in := sb.String()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s := NewScanner(DefaultDelimiters())
		s.Feed(in)
		s.Close()
	}
}
