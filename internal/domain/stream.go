package domain

// Stream event types emitted by the chat endpoint. Unrecognized types are
// skipped by consumers, not treated as errors.
const (
	StreamEventChunk = "chunk"
	StreamEventDone  = "done"
)

// StreamEvent is one parsed record from the chat response stream.
type StreamEvent struct {
	Type    string `json:"type"`
	Content string `json:"content,omitempty"`
}
