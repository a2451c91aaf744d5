// Package diff computes line-level edit scripts between two versions of a
// file and renders them as unified diffs.
package diff

import "bytes"

// Options tunes Diff.
type Options struct {
	Context  int // unchanged lines around each change
	SniffLen int // bytes inspected for binary content
}

// DefaultOptions returns the stock context radius and sniff window.
func DefaultOptions() Options {
	return Options{Context: DefaultContext, SniffLen: DefaultSniffLen}
}

// Result is the outcome of comparing two contents.
type Result struct {
	Binary     bool // either side is binary; no line edits are computed
	OldLines   []Line
	NewLines   []Line
	Edits      []Edit
	Hunks      []Hunk
	Insertions int
	Deletions  int

	binaryChanged bool
}

// Changed reports whether the contents differ.
func (r *Result) Changed() bool {
	if r.Binary {
		return r.binaryChanged
	}
	return r.Insertions > 0 || r.Deletions > 0
}

// Diff compares before and after. A nil side stands for an absent file and
// diffs like empty content. Binary inputs skip the line algorithm.
func Diff(before, after []byte, opts Options) *Result {
	if opts.SniffLen <= 0 {
		opts.SniffLen = DefaultSniffLen
	}
	if opts.Context < 0 {
		opts.Context = DefaultContext
	}

	if IsBinary(before, opts.SniffLen) || IsBinary(after, opts.SniffLen) {
		return &Result{Binary: true, binaryChanged: !bytes.Equal(before, after)}
	}

	r := &Result{OldLines: SplitLines(before), NewLines: SplitLines(after)}
	r.Edits = Myers(r.OldLines, r.NewLines)
	for _, e := range r.Edits {
		switch e.Op {
		case Insert:
			r.Insertions++
		case Delete:
			r.Deletions++
		}
	}
	r.Hunks = Hunks(r.Edits, opts.Context)
	return r
}
