package diff

import (
	"bytes"
	"fmt"
)

// Chunk is a maximal run of edits with the same Op. Ranges are 0-based and
// half-open over the old (A) and new (B) line sequences.
type Chunk struct {
	Op     Op
	AStart int
	AEnd   int
	BStart int
	BEnd   int
}

// Chunks groups an edit script into runs.
func Chunks(edits []Edit) []Chunk {
	var chunks []Chunk
	a, b := 0, 0
	for _, e := range edits {
		if len(chunks) == 0 || chunks[len(chunks)-1].Op != e.Op {
			chunks = append(chunks, Chunk{Op: e.Op, AStart: a, AEnd: a, BStart: b, BEnd: b})
		}
		c := &chunks[len(chunks)-1]
		if e.Op != Insert {
			a++
			c.AEnd = a
		}
		if e.Op != Delete {
			b++
			c.BEnd = b
		}
	}
	return chunks
}

// Apply replays edits against old and returns the new content. It fails if
// the script does not describe old.
func Apply(old []byte, edits []Edit) ([]byte, error) {
	lines := SplitLines(old)
	var out bytes.Buffer
	pos := 0
	for i, e := range edits {
		switch e.Op {
		case Equal, Delete:
			if pos >= len(lines) {
				return nil, fmt.Errorf("apply: edit %d runs past end of input", i)
			}
			if !bytes.Equal(lines[pos].Text, e.Old.Text) {
				return nil, fmt.Errorf("apply: edit %d: line %d does not match", i, pos+1)
			}
			if e.Op == Equal {
				out.Write(lines[pos].Text)
			}
			pos++
		case Insert:
			out.Write(e.New.Text)
		}
	}
	if pos != len(lines) {
		return nil, fmt.Errorf("apply: %d trailing lines not covered by edits", len(lines)-pos)
	}
	return out.Bytes(), nil
}
