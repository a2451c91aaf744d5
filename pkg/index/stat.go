package index

import (
	"math"
	"os"
	"reflect"

	"github.com/odvcencio/rug/pkg/object"
)

// Stat is the filesystem metadata cached for an entry. Fields are stored as
// 32-bit words on disk and truncated the same way Git truncates them.
type Stat struct {
	CTimeSec  uint32
	CTimeNsec uint32
	MTimeSec  uint32
	MTimeNsec uint32
	Dev       uint32
	Ino       uint32
	UID       uint32
	GID       uint32
	Size      uint32
}

// StatFromFileInfo captures the cached metadata for info. Fields the
// platform does not expose through info.Sys() are left zero.
func StatFromFileInfo(info os.FileInfo) Stat {
	mtime := info.ModTime()
	st := Stat{
		MTimeSec:  uint32(mtime.Unix()),
		MTimeNsec: uint32(mtime.Nanosecond()),
		Size:      uint32(info.Size()),
	}

	sys, ok := sysStatStruct(info)
	if !ok {
		return st
	}
	if sec, nsec, ok := changeTime(sys); ok {
		st.CTimeSec = uint32(sec)
		st.CTimeNsec = uint32(nsec)
	}
	if v, ok := uintFieldByNames(sys, "Dev"); ok {
		st.Dev = uint32(v)
	}
	if v, ok := uintFieldByNames(sys, "Ino"); ok {
		st.Ino = uint32(v)
	}
	if v, ok := uintFieldByNames(sys, "Uid"); ok {
		st.UID = uint32(v)
	}
	if v, ok := uintFieldByNames(sys, "Gid"); ok {
		st.GID = uint32(v)
	}
	return st
}

// ModeFromFileInfo maps a regular file's permission bits to a tree mode.
func ModeFromFileInfo(info os.FileInfo) string {
	if info.Mode()&0o111 != 0 {
		return object.TreeModeExecutable
	}
	return object.TreeModeFile
}

func changeTime(sys reflect.Value) (int64, int64, bool) {
	for _, name := range []string{"Ctim", "Ctimespec"} {
		if ts := sys.FieldByName(name); ts.IsValid() {
			if sec, nsec, ok := timespec(ts); ok {
				return sec, nsec, true
			}
		}
	}

	sec, hasSec := intFieldByNames(sys, "Ctime")
	nsec, hasNsec := intFieldByNames(sys, "CtimeNsec", "Ctimensec")
	if hasSec && hasNsec {
		return sec, nsec, true
	}
	return 0, 0, false
}

func timespec(v reflect.Value) (int64, int64, bool) {
	if v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return 0, 0, false
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return 0, 0, false
	}

	sec, hasSec := intFieldByNames(v, "Sec", "Tv_sec")
	nsec, hasNsec := intFieldByNames(v, "Nsec", "Tv_nsec")
	if !hasSec || !hasNsec {
		return 0, 0, false
	}
	return sec, nsec, true
}

func sysStatStruct(info os.FileInfo) (reflect.Value, bool) {
	sys := info.Sys()
	if sys == nil {
		return reflect.Value{}, false
	}

	v := reflect.ValueOf(sys)
	if v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return reflect.Value{}, false
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return reflect.Value{}, false
	}
	return v, true
}

func uintFieldByNames(v reflect.Value, names ...string) (uint64, bool) {
	for _, name := range names {
		f := v.FieldByName(name)
		if !f.IsValid() {
			continue
		}
		switch f.Kind() {
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
			return f.Uint(), true
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			if i := f.Int(); i >= 0 {
				return uint64(i), true
			}
		}
	}
	return 0, false
}

func intFieldByNames(v reflect.Value, names ...string) (int64, bool) {
	for _, name := range names {
		f := v.FieldByName(name)
		if !f.IsValid() {
			continue
		}
		switch f.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			return f.Int(), true
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
			if u := f.Uint(); u <= math.MaxInt64 {
				return int64(u), true
			}
		}
	}
	return 0, false
}
