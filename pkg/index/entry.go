package index

import (
	"os"
	"path"
	"strings"
	"time"

	"github.com/odvcencio/rug/pkg/object"
)

// maxPathFlag is the largest path length the flags word can record.
const maxPathFlag = 0xfff

// Entry is one staged path.
type Entry struct {
	Path  string
	Mode  string
	Hash  object.Hash
	Stat  Stat
	Flags uint16
}

// NewEntry builds an entry for path from its current metadata.
func NewEntry(p string, h object.Hash, info os.FileInfo) *Entry {
	return &Entry{
		Path:  p,
		Mode:  ModeFromFileInfo(info),
		Hash:  h,
		Stat:  StatFromFileInfo(info),
		Flags: pathFlags(p),
	}
}

func pathFlags(p string) uint16 {
	if len(p) > maxPathFlag {
		return maxPathFlag
	}
	return uint16(len(p))
}

// StatMatch reports whether mode and size still agree with info. A mismatch
// means the file is certainly modified.
func (e *Entry) StatMatch(info os.FileInfo) bool {
	return e.Mode == ModeFromFileInfo(info) && e.Stat.Size == uint32(info.Size())
}

// TimesMatch reports whether the cached ctime and mtime equal info's.
func (e *Entry) TimesMatch(info os.FileInfo) bool {
	st := StatFromFileInfo(info)
	return e.Stat.CTimeSec == st.CTimeSec && e.Stat.CTimeNsec == st.CTimeNsec &&
		e.Stat.MTimeSec == st.MTimeSec && e.Stat.MTimeNsec == st.MTimeNsec
}

// RacilyClean reports whether the entry's mtime is not older than the index
// file that recorded it, in which case a same-second rewrite could hide
// behind matching timestamps.
func (e *Entry) RacilyClean(indexModTime time.Time) bool {
	if indexModTime.IsZero() {
		return false
	}
	sec := uint32(indexModTime.Unix())
	if e.Stat.MTimeSec != sec {
		return e.Stat.MTimeSec > sec
	}
	return e.Stat.MTimeNsec >= uint32(indexModTime.Nanosecond())
}

// parentDirs returns every ancestor directory of p, outermost first.
func parentDirs(p string) []string {
	var dirs []string
	for dir := path.Dir(p); dir != "." && dir != "/"; dir = path.Dir(dir) {
		dirs = append(dirs, dir)
	}
	for i, j := 0, len(dirs)-1; i < j; i, j = i+1, j-1 {
		dirs[i], dirs[j] = dirs[j], dirs[i]
	}
	return dirs
}

func cleanPath(p string) string {
	p = path.Clean(strings.ReplaceAll(p, "\\", "/"))
	return strings.TrimPrefix(p, "./")
}
