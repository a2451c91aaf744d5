package diff

import "fmt"

// DefaultContext is the number of unchanged lines shown around a change.
const DefaultContext = 3

// Hunk is a contiguous slice of an edit script with surrounding context.
type Hunk struct {
	AStart int // 1-based; the line before the hunk when ACount is 0
	ACount int
	BStart int
	BCount int
	Edits  []Edit
}

// Header renders the "@@ -a,n +b,m @@" line.
func (h Hunk) Header() string {
	return fmt.Sprintf("@@ -%d,%d +%d,%d @@", h.AStart, h.ACount, h.BStart, h.BCount)
}

// Hunks groups changes with context lines of surrounding equal lines.
// Changes separated by at most 2*context equal lines share a hunk.
func Hunks(edits []Edit, context int) []Hunk {
	if context < 0 {
		context = 0
	}

	type span struct{ start, end int }
	var spans []span
	for i, e := range edits {
		if e.Op == Equal {
			continue
		}
		start := max(i-context, 0)
		end := min(i+context+1, len(edits))
		if len(spans) == 0 || start > spans[len(spans)-1].end {
			spans = append(spans, span{start, end})
			continue
		}
		if end > spans[len(spans)-1].end {
			spans[len(spans)-1].end = end
		}
	}

	hunks := make([]Hunk, 0, len(spans))
	aLine, bLine, cursor := 1, 1, 0
	for _, s := range spans {
		for ; cursor < s.start; cursor++ {
			aLine, bLine = advance(edits[cursor].Op, aLine, bLine)
		}
		h := Hunk{AStart: aLine, BStart: bLine, Edits: edits[s.start:s.end]}
		for ; cursor < s.end; cursor++ {
			op := edits[cursor].Op
			if op != Insert {
				h.ACount++
			}
			if op != Delete {
				h.BCount++
			}
			aLine, bLine = advance(op, aLine, bLine)
		}
		if h.ACount == 0 {
			h.AStart--
		}
		if h.BCount == 0 {
			h.BStart--
		}
		hunks = append(hunks, h)
	}
	return hunks
}

func advance(op Op, a, b int) (int, int) {
	switch op {
	case Equal:
		return a + 1, b + 1
	case Delete:
		return a + 1, b
	default:
		return a, b + 1
	}
}
