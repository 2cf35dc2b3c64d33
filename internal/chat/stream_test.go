package chat

import (
	"reflect"
	"testing"
)

func TestLineBufferFeed(t *testing.T) {
	var lb LineBuffer

	lines := lb.Feed([]byte("data: {\"a\":1}\ndata: par"))
	if !reflect.DeepEqual(lines, []string{`data: {"a":1}`}) {
		t.Fatalf("unexpected lines: %v", lines)
	}
	if lb.Rest() != "data: par" {
		t.Fatalf("unexpected carry-over: %q", lb.Rest())
	}

	lines = lb.Feed([]byte("tial}\n\n"))
	if !reflect.DeepEqual(lines, []string{"data: partial}", ""}) {
		t.Fatalf("unexpected lines: %v", lines)
	}
	if lb.Rest() != "" {
		t.Fatalf("expected empty carry-over, got %q", lb.Rest())
	}
}

func TestLineBufferCRLF(t *testing.T) {
	var lb LineBuffer
	lines := lb.Feed([]byte("one\r\ntwo\r\n"))
	if !reflect.DeepEqual(lines, []string{"one", "two"}) {
		t.Fatalf("unexpected lines: %v", lines)
	}
}

func TestLineBufferNoNewline(t *testing.T) {
	var lb LineBuffer
	if lines := lb.Feed([]byte("incomplete")); lines != nil {
		t.Fatalf("expected no lines, got %v", lines)
	}
	if lb.Rest() != "incomplete" {
		t.Fatalf("unexpected carry-over: %q", lb.Rest())
	}
}

func TestHandleEventLine(t *testing.T) {
	var chunks []string
	collect := func(s string) { chunks = append(chunks, s) }

	if done := handleEventLine(`data: {"type":"chunk","content":"hi"}`, collect); done {
		t.Fatal("chunk event should not end the stream")
	}
	if done := handleEventLine(`data: {"type":"mystery","content":"x"}`, collect); done {
		t.Fatal("unknown event type should be ignored, not fatal")
	}
	if done := handleEventLine(`data: {not json`, collect); done {
		t.Fatal("malformed event should be skipped, not fatal")
	}
	if done := handleEventLine("ignored non-event line", collect); done {
		t.Fatal("non-event line should be ignored")
	}
	if done := handleEventLine("data: [DONE]", collect); !done {
		t.Fatal("done sentinel should end the stream")
	}
	if done := handleEventLine(`data: {"type":"done"}`, collect); !done {
		t.Fatal("done event should end the stream")
	}

	if !reflect.DeepEqual(chunks, []string{"hi"}) {
		t.Fatalf("unexpected chunks: %v", chunks)
	}
}
