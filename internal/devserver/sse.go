package devserver

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// sseWriter writes newline-delimited event records in the platform's chat
// stream format.
type sseWriter struct {
	w http.ResponseWriter
}

func newSSEWriter(w http.ResponseWriter) *sseWriter {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	return &sseWriter{w: w}
}

func (s *sseWriter) WriteEvent(v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.writeData(string(data))
}

func (s *sseWriter) writeData(data string) error {
	if _, err := fmt.Fprintf(s.w, "data: %s\n\n", data); err != nil {
		return err
	}
	if f, ok := s.w.(http.Flusher); ok {
		f.Flush()
	}
	return nil
}

func (s *sseWriter) Close() error {
	return s.writeData("[DONE]")
}
