package diff

import (
	"bytes"

	"github.com/zeebo/xxh3"
)

// Line is one line of input. Text keeps its terminating newline, if any,
// so joining every Text reproduces the input exactly.
type Line struct {
	Number int // 1-based
	Text   []byte
	Hash   uint64
}

// Equal compares lines by hash and length.
func (l Line) Equal(o Line) bool {
	return l.Hash == o.Hash && len(l.Text) == len(o.Text)
}

// HasNewline reports whether the line is newline-terminated.
func (l Line) HasNewline() bool {
	return len(l.Text) > 0 && l.Text[len(l.Text)-1] == '\n'
}

// SplitLines splits data after each newline. A final line without a
// newline is kept as its own line; empty input has no lines.
func SplitLines(data []byte) []Line {
	if len(data) == 0 {
		return nil
	}
	lines := make([]Line, 0, bytes.Count(data, []byte{'\n'})+1)
	for len(data) > 0 {
		end := bytes.IndexByte(data, '\n') + 1
		if end == 0 {
			end = len(data)
		}
		text := data[:end:end]
		lines = append(lines, Line{
			Number: len(lines) + 1,
			Text:   text,
			Hash:   xxh3.Hash(text),
		})
		data = data[end:]
	}
	return lines
}
