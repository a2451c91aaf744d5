package diff

import (
	"bytes"
	"strings"
	"testing"

	"github.com/odvcencio/rug/pkg/object"
)

func script(edits []Edit) string {
	var b strings.Builder
	for _, e := range edits {
		switch e.Op {
		case Equal:
			b.WriteByte(' ')
		case Insert:
			b.WriteByte('+')
		case Delete:
			b.WriteByte('-')
		}
		b.Write(bytes.TrimSuffix(e.Line().Text, []byte{'\n'}))
		b.WriteByte(' ')
	}
	return strings.TrimSpace(b.String())
}

func linesOf(s ...string) []byte {
	if len(s) == 0 {
		return nil
	}
	return []byte(strings.Join(s, "\n") + "\n")
}

func TestSplitLinesKeepsTerminators(t *testing.T) {
	lines := SplitLines([]byte("one\ntwo\nthree"))
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3", len(lines))
	}
	if string(lines[0].Text) != "one\n" || lines[0].Number != 1 {
		t.Errorf("line 1 = %q #%d", lines[0].Text, lines[0].Number)
	}
	if lines[2].HasNewline() {
		t.Error("last line should have no newline")
	}
	if SplitLines(nil) != nil {
		t.Error("empty input should have no lines")
	}
	if !lines[0].Equal(SplitLines([]byte("one\n"))[0]) {
		t.Error("identical lines should be equal")
	}
	if lines[2].Equal(SplitLines([]byte("three\n"))[0]) {
		t.Error("lines differing in terminator should not be equal")
	}
}

func TestMyersClassicExample(t *testing.T) {
	a := SplitLines(linesOf("A", "B", "C", "A", "B", "B", "A"))
	b := SplitLines(linesOf("C", "B", "A", "B", "A", "C"))
	got := script(Myers(a, b))
	want := "-A -B  C +B  A  B -B  A +C"
	if got != want {
		t.Fatalf("Myers script:\n got %q\nwant %q", got, want)
	}
}

func TestMyersDeletesBeforeInserts(t *testing.T) {
	a := SplitLines(linesOf("keep", "old", "tail"))
	b := SplitLines(linesOf("keep", "new", "tail"))
	if got, want := script(Myers(a, b)), "keep -old +new  tail"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestMyersTrivialCases(t *testing.T) {
	if edits := Myers(nil, nil); len(edits) != 0 {
		t.Errorf("empty/empty: %d edits", len(edits))
	}
	if got := script(Myers(nil, SplitLines(linesOf("x", "y")))); got != "+x +y" {
		t.Errorf("insert only: %q", got)
	}
	if got := script(Myers(SplitLines(linesOf("x", "y")), nil)); got != "-x -y" {
		t.Errorf("delete only: %q", got)
	}
	same := SplitLines(linesOf("p", "q"))
	if got := script(Myers(same, SplitLines(linesOf("p", "q")))); got != "p  q" {
		t.Errorf("identical: %q", got)
	}
}

func TestChunks(t *testing.T) {
	a := SplitLines(linesOf("1", "2", "3", "4"))
	b := SplitLines(linesOf("1", "x", "y", "4"))
	chunks := Chunks(Myers(a, b))
	want := []Chunk{
		{Op: Equal, AStart: 0, AEnd: 1, BStart: 0, BEnd: 1},
		{Op: Delete, AStart: 1, AEnd: 3, BStart: 1, BEnd: 1},
		{Op: Insert, AStart: 3, AEnd: 3, BStart: 1, BEnd: 3},
		{Op: Equal, AStart: 3, AEnd: 4, BStart: 3, BEnd: 4},
	}
	if len(chunks) != len(want) {
		t.Fatalf("got %d chunks %+v", len(chunks), chunks)
	}
	for i := range want {
		if chunks[i] != want[i] {
			t.Errorf("chunk %d = %+v, want %+v", i, chunks[i], want[i])
		}
	}
}

func TestApplyEdgeCases(t *testing.T) {
	tests := []struct {
		name      string
		old, new_ string
	}{
		{"empty to empty", "", ""},
		{"create", "", "hello\n"},
		{"delete all", "a\nb\n", ""},
		{"add trailing newline", "a\nb", "a\nb\n"},
		{"drop trailing newline", "a\nb\n", "a\nb"},
		{"middle edit", "a\nb\nc\n", "a\nB\nc\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Diff([]byte(tt.old), []byte(tt.new_), DefaultOptions())
			got, err := Apply([]byte(tt.old), r.Edits)
			if err != nil {
				t.Fatalf("Apply: %v", err)
			}
			if string(got) != tt.new_ {
				t.Fatalf("Apply = %q, want %q", got, tt.new_)
			}
		})
	}
}

func TestApplyRejectsMismatchedInput(t *testing.T) {
	r := Diff([]byte("a\nb\n"), []byte("a\nc\n"), DefaultOptions())
	if _, err := Apply([]byte("x\nb\n"), r.Edits); err == nil {
		t.Fatal("expected mismatch error")
	}
	if _, err := Apply([]byte("a\nb\nextra\n"), r.Edits); err == nil {
		t.Fatal("expected trailing-lines error")
	}
}

func numbered(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = "line " + strings.Repeat("#", i+1)
	}
	return out
}

func TestHunksSingleChange(t *testing.T) {
	old := numbered(10)
	new_ := append([]string(nil), old...)
	new_[4] = "changed"
	r := Diff(linesOf(old...), linesOf(new_...), DefaultOptions())
	if len(r.Hunks) != 1 {
		t.Fatalf("got %d hunks", len(r.Hunks))
	}
	if h := r.Hunks[0].Header(); h != "@@ -2,7 +2,7 @@" {
		t.Errorf("header = %q", h)
	}
}

func TestHunksMergeWithinTwiceContext(t *testing.T) {
	old := numbered(20)

	merged := append([]string(nil), old...)
	merged[2], merged[9] = "x", "y" // six equal lines between
	if got := len(Diff(linesOf(old...), linesOf(merged...), DefaultOptions()).Hunks); got != 1 {
		t.Errorf("gap of 6: got %d hunks, want 1", got)
	}

	split := append([]string(nil), old...)
	split[2], split[10] = "x", "y" // seven equal lines between
	r := Diff(linesOf(old...), linesOf(split...), DefaultOptions())
	if len(r.Hunks) != 2 {
		t.Fatalf("gap of 7: got %d hunks, want 2", len(r.Hunks))
	}
	if h := r.Hunks[1].Header(); h != "@@ -8,7 +8,7 @@" {
		t.Errorf("second header = %q", h)
	}
}

func TestHunksZeroLengthSides(t *testing.T) {
	r := Diff(nil, []byte("hello\n"), DefaultOptions())
	if h := r.Hunks[0].Header(); h != "@@ -0,0 +1,1 @@" {
		t.Errorf("create header = %q", h)
	}
	r = Diff(linesOf("x", "y"), nil, DefaultOptions())
	if h := r.Hunks[0].Header(); h != "@@ -1,2 +0,0 @@" {
		t.Errorf("delete header = %q", h)
	}
	if r.Insertions != 0 || r.Deletions != 2 {
		t.Errorf("counts = +%d -%d", r.Insertions, r.Deletions)
	}
	r = Diff(linesOf("a", "b", "c"), linesOf("a", "b", "X", "c"), Options{Context: 0})
	if h := r.Hunks[0].Header(); h != "@@ -2,0 +3,1 @@" {
		t.Errorf("pure insert header = %q", h)
	}
}

func TestIsBinary(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want bool
	}{
		{"text", []byte("plain text\twith tabs\r\n"), false},
		{"escape sequences", []byte("\x1b[31mred\x1b[0m\b\f\v"), false},
		{"nul", []byte("abc\x00def"), true},
		{"control", []byte("abc\x01"), true},
		{"utf8", []byte("héllo wörld"), false},
		{"empty", nil, false},
	}
	for _, tt := range tests {
		if got := IsBinary(tt.data, DefaultSniffLen); got != tt.want {
			t.Errorf("%s: IsBinary = %v, want %v", tt.name, got, tt.want)
		}
	}

	late := append(bytes.Repeat([]byte("a"), 20), 0)
	if IsBinary(late, 10) {
		t.Error("NUL beyond the sniff window should not count")
	}
}

func TestDiffBinaryShortCircuits(t *testing.T) {
	r := Diff([]byte("a\x00"), []byte("b\x00"), DefaultOptions())
	if !r.Binary || !r.Changed() || r.Edits != nil {
		t.Fatalf("binary result = %+v", r)
	}
	if Diff([]byte("a\x00"), []byte("a\x00"), DefaultOptions()).Changed() {
		t.Fatal("identical binaries should not be changed")
	}
}

func TestWriteUnifiedModified(t *testing.T) {
	oldData, newData := []byte("a\nb\nc\n"), []byte("a\nB\nc")
	p := &FilePatch{
		Path:    "f.txt",
		OldHash: object.HashObject(object.TypeBlob, oldData), OldMode: object.TreeModeFile, Old: oldData,
		NewHash: object.HashObject(object.TypeBlob, newData), NewMode: object.TreeModeFile, New: newData,
	}
	var buf bytes.Buffer
	if err := WriteUnified(&buf, p, nil, nil); err != nil {
		t.Fatalf("WriteUnified: %v", err)
	}
	want := "diff --git a/f.txt b/f.txt\n" +
		"index " + p.OldHash.Short() + ".." + p.NewHash.Short() + " 100644\n" +
		"--- a/f.txt\n" +
		"+++ b/f.txt\n" +
		"@@ -1,3 +1,3 @@\n" +
		" a\n" +
		"-b\n" +
		"-c\n" +
		"+B\n" +
		"+c\n" +
		"\\ No newline at end of file\n"
	if buf.String() != want {
		t.Fatalf("output:\n%s\nwant:\n%s", buf.String(), want)
	}
}

func TestWriteUnifiedNewAndDeleted(t *testing.T) {
	data := []byte("hello\n")
	h := object.HashObject(object.TypeBlob, data)

	var buf bytes.Buffer
	if err := WriteUnified(&buf, &FilePatch{Path: "hello.txt", NewHash: h, NewMode: "100644", New: data}, nil, nil); err != nil {
		t.Fatalf("WriteUnified: %v", err)
	}
	want := "diff --git a/hello.txt b/hello.txt\n" +
		"new file mode 100644\n" +
		"index 0000000..ce01362\n" +
		"--- /dev/null\n" +
		"+++ b/hello.txt\n" +
		"@@ -0,0 +1,1 @@\n" +
		"+hello\n"
	if buf.String() != want {
		t.Fatalf("new file:\n%s\nwant:\n%s", buf.String(), want)
	}

	buf.Reset()
	if err := WriteUnified(&buf, &FilePatch{Path: "hello.txt", OldHash: h, OldMode: "100644", Old: data}, nil, nil); err != nil {
		t.Fatalf("WriteUnified: %v", err)
	}
	if !strings.Contains(buf.String(), "deleted file mode 100644\nindex ce01362..0000000\n--- a/hello.txt\n+++ /dev/null\n@@ -1,1 +0,0 @@\n-hello\n") {
		t.Fatalf("deleted file:\n%s", buf.String())
	}
}

func TestWriteUnifiedModeOnlyAndBinary(t *testing.T) {
	data := []byte("#!/bin/sh\n")
	h := object.HashObject(object.TypeBlob, data)
	var buf bytes.Buffer
	p := &FilePatch{Path: "run.sh", OldHash: h, OldMode: "100644", Old: data, NewHash: h, NewMode: "100755", New: data}
	if err := WriteUnified(&buf, p, nil, nil); err != nil {
		t.Fatalf("WriteUnified: %v", err)
	}
	if want := "diff --git a/run.sh b/run.sh\nold mode 100644\nnew mode 100755\n"; buf.String() != want {
		t.Fatalf("mode change:\n%q\nwant\n%q", buf.String(), want)
	}

	buf.Reset()
	bin := []byte{0, 1, 2}
	p = &FilePatch{Path: "img.png", NewHash: object.HashObject(object.TypeBlob, bin), NewMode: "100644", New: bin}
	if err := WriteUnified(&buf, p, nil, nil); err != nil {
		t.Fatalf("WriteUnified: %v", err)
	}
	if !strings.HasSuffix(buf.String(), "Binary files /dev/null and b/img.png differ\n") {
		t.Fatalf("binary:\n%s", buf.String())
	}
}

type bracketColorizer struct{}

func (bracketColorizer) Paint(s Style, text string) string {
	switch s {
	case StyleNew:
		return "[+]" + text
	case StyleOld:
		return "[-]" + text
	}
	return text
}

func TestWriteUnifiedUsesColorizer(t *testing.T) {
	p := &FilePatch{
		Path:    "c",
		OldHash: object.HashObject(object.TypeBlob, []byte("x\n")), OldMode: "100644", Old: []byte("x\n"),
		NewHash: object.HashObject(object.TypeBlob, []byte("y\n")), NewMode: "100644", New: []byte("y\n"),
	}
	var buf bytes.Buffer
	if err := WriteUnified(&buf, p, nil, bracketColorizer{}); err != nil {
		t.Fatalf("WriteUnified: %v", err)
	}
	if !strings.Contains(buf.String(), "[-]-x\n[+]+y\n") {
		t.Fatalf("colorized output:\n%s", buf.String())
	}
}
