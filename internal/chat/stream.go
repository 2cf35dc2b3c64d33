package chat

import (
	"bytes"
	"strings"
)

// LineBuffer splits an incremental byte stream into complete lines. The
// trailing partial line is carried over to the next Feed, so event records
// split across network reads reassemble correctly.
type LineBuffer struct {
	buf []byte
}

// Feed appends chunk and returns every complete line buffered so far,
// stripped of line endings.
func (l *LineBuffer) Feed(chunk []byte) []string {
	l.buf = append(l.buf, chunk...)

	var lines []string
	for {
		i := bytes.IndexByte(l.buf, '\n')
		if i < 0 {
			return lines
		}
		line := strings.TrimSuffix(string(l.buf[:i]), "\r")
		l.buf = l.buf[i+1:]
		lines = append(lines, line)
	}
}

// Rest returns the incomplete line still buffered, if any.
func (l *LineBuffer) Rest() string {
	return string(l.buf)
}
