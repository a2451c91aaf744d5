package main

import (
	"io"
	"os"

	"github.com/odvcencio/rug/pkg/diff"
	"golang.org/x/term"
)

const (
	colorAuto   = "auto"
	colorAlways = "always"
	colorNever  = "never"
)

const (
	ansiReset  = "\x1b[m"
	ansiBold   = "\x1b[1m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiCyan   = "\x1b[36m"
	ansiYellow = "\x1b[33m"
)

// ansi paints diff output with the Git default palette.
type ansi struct{}

func (ansi) Paint(style diff.Style, text string) string {
	var code string
	switch style {
	case diff.StyleMeta:
		code = ansiBold
	case diff.StyleFrag:
		code = ansiCyan
	case diff.StyleOld:
		code = ansiRed
	case diff.StyleNew:
		code = ansiGreen
	default:
		return text
	}
	return code + text + ansiReset
}

// colorizer picks the diff colorizer for w according to --color.
func (a *app) colorizer(w io.Writer) diff.Colorizer {
	if a.useColor(w) {
		return ansi{}
	}
	return diff.Plain{}
}

func (a *app) useColor(w io.Writer) bool {
	switch a.color {
	case colorAlways:
		return true
	case colorNever:
		return false
	}
	if a.getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// paint wraps text in code when color is enabled for w.
func (a *app) paint(w io.Writer, code, text string) string {
	if !a.useColor(w) {
		return text
	}
	return code + text + ansiReset
}
