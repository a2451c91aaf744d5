package diff

import (
	"bytes"
	"io"

	"github.com/odvcencio/rug/pkg/object"
)

const nullPath = "/dev/null"

// FilePatch describes both sides of one changed path. An absent side has an
// empty Hash and Mode and nil contents.
type FilePatch struct {
	Path    string
	OldHash object.Hash
	OldMode string
	Old     []byte
	NewHash object.Hash
	NewMode string
	New     []byte
}

// Added reports whether the file has no old side.
func (p *FilePatch) Added() bool { return p.OldHash == "" }

// Deleted reports whether the file has no new side.
func (p *FilePatch) Deleted() bool { return p.NewHash == "" }

// Style names the parts of a unified diff a Colorizer may decorate.
type Style int

const (
	StyleMeta    Style = iota // file headers
	StyleFrag                 // hunk headers
	StyleOld                  // deleted lines
	StyleNew                  // inserted lines
	StyleContext              // unchanged lines
)

// Colorizer decorates one rendered line.
type Colorizer interface {
	Paint(style Style, text string) string
}

// Plain is the Colorizer that leaves text untouched.
type Plain struct{}

// Paint returns text unchanged.
func (Plain) Paint(_ Style, text string) string { return text }

// WriteUnified renders p in Git's unified format. A nil result is computed
// with DefaultOptions; a nil colorizer renders plain text.
func WriteUnified(w io.Writer, p *FilePatch, r *Result, c Colorizer) error {
	if c == nil {
		c = Plain{}
	}
	if r == nil {
		r = Diff(p.Old, p.New, DefaultOptions())
	}
	if p.OldHash == p.NewHash && p.OldMode == p.NewMode {
		return nil
	}

	var buf bytes.Buffer
	line := func(style Style, text string) {
		buf.WriteString(c.Paint(style, text))
		buf.WriteByte('\n')
	}

	line(StyleMeta, "diff --git a/"+p.Path+" b/"+p.Path)
	switch {
	case p.Added():
		line(StyleMeta, "new file mode "+p.NewMode)
	case p.Deleted():
		line(StyleMeta, "deleted file mode "+p.OldMode)
	case p.OldMode != p.NewMode:
		line(StyleMeta, "old mode "+p.OldMode)
		line(StyleMeta, "new mode "+p.NewMode)
	}

	if p.OldHash != p.NewHash {
		index := "index " + shortHash(p.OldHash) + ".." + shortHash(p.NewHash)
		if !p.Added() && !p.Deleted() && p.OldMode == p.NewMode {
			index += " " + p.OldMode
		}
		line(StyleMeta, index)

		oldName, newName := "a/"+p.Path, "b/"+p.Path
		if p.Added() {
			oldName = nullPath
		}
		if p.Deleted() {
			newName = nullPath
		}

		if r.Binary {
			line(StyleContext, "Binary files "+oldName+" and "+newName+" differ")
		} else {
			line(StyleMeta, "--- "+oldName)
			line(StyleMeta, "+++ "+newName)
			for _, h := range r.Hunks {
				writeHunk(line, h)
			}
		}
	}

	_, err := w.Write(buf.Bytes())
	return err
}

func writeHunk(line func(Style, string), h Hunk) {
	line(StyleFrag, h.Header())
	for _, e := range h.Edits {
		var style Style
		var prefix string
		switch e.Op {
		case Equal:
			style, prefix = StyleContext, " "
		case Insert:
			style, prefix = StyleNew, "+"
		case Delete:
			style, prefix = StyleOld, "-"
		}
		l := e.Line()
		line(style, prefix+string(bytes.TrimSuffix(l.Text, []byte{'\n'})))
		if !l.HasNewline() {
			line(StyleContext, `\ No newline at end of file`)
		}
	}
}

func shortHash(h object.Hash) string {
	if h == "" {
		return object.ZeroHash.Short()
	}
	return h.Short()
}
