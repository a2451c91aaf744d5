package index

import (
	"bytes"
	"crypto/sha1"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strconv"

	"github.com/odvcencio/rug/pkg/object"
)

const (
	signature     = "DIRC"
	version       = 2
	headerSize    = 12
	checksumSize  = sha1.Size
	entryFixed    = 62 // ten stat words, object id, flags
	entryBlock    = 8
	modeFile      = 0o100644
	modeExecFile  = 0o100755
	minIndexBytes = headerSize + checksumSize
)

// encode serializes entries, already in path order, and appends the SHA-1
// trailer over everything before it.
func encode(entries []*Entry) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(signature)
	var word [4]byte
	binary.BigEndian.PutUint32(word[:], version)
	buf.Write(word[:])
	binary.BigEndian.PutUint32(word[:], uint32(len(entries)))
	buf.Write(word[:])

	for _, e := range entries {
		start := buf.Len()
		for _, v := range []uint32{
			e.Stat.CTimeSec, e.Stat.CTimeNsec,
			e.Stat.MTimeSec, e.Stat.MTimeNsec,
			e.Stat.Dev, e.Stat.Ino,
			encodeMode(e.Mode),
			e.Stat.UID, e.Stat.GID,
			e.Stat.Size,
		} {
			binary.BigEndian.PutUint32(word[:], v)
			buf.Write(word[:])
		}
		raw, err := e.Hash.Bytes()
		if err != nil {
			return nil, fmt.Errorf("encode %q: %w", e.Path, err)
		}
		buf.Write(raw)
		var flags [2]byte
		binary.BigEndian.PutUint16(flags[:], pathFlags(e.Path))
		buf.Write(flags[:])
		buf.WriteString(e.Path)

		// Pad with at least one NUL to the next 8-byte boundary.
		n := buf.Len() - start
		padded := (n + entryBlock) &^ (entryBlock - 1)
		buf.Write(make([]byte, padded-n))
	}

	sum := sha1.Sum(buf.Bytes())
	buf.Write(sum[:])
	return buf.Bytes(), nil
}

// decode parses an index file. file names the source in errors.
func decode(file string, data []byte) ([]*Entry, error) {
	corrupt := func(format string, args ...any) error {
		return &CorruptError{Path: file, Reason: fmt.Sprintf(format, args...)}
	}

	if len(data) < minIndexBytes {
		return nil, corrupt("file too short (%d bytes)", len(data))
	}
	body, trailer := data[:len(data)-checksumSize], data[len(data)-checksumSize:]
	if sum := sha1.Sum(body); !bytes.Equal(sum[:], trailer) {
		return nil, corrupt("checksum does not match contents")
	}
	if string(body[:4]) != signature {
		return nil, corrupt("bad signature %q", body[:4])
	}
	if v := binary.BigEndian.Uint32(body[4:8]); v != version {
		return nil, corrupt("unsupported version %d", v)
	}
	count := binary.BigEndian.Uint32(body[8:12])

	entries := make([]*Entry, 0, count)
	pos := headerSize
	for i := uint32(0); i < count; i++ {
		if len(body)-pos < entryFixed+1 {
			return nil, corrupt("entry %d truncated", i)
		}
		rec := body[pos:]
		var words [10]uint32
		for w := range words {
			words[w] = binary.BigEndian.Uint32(rec[w*4:])
		}
		mode, err := decodeMode(words[6])
		if err != nil {
			return nil, corrupt("entry %d: %v", i, err)
		}
		h := object.Hash(hex.EncodeToString(rec[40:60]))
		flags := binary.BigEndian.Uint16(rec[60:62])

		nul := bytes.IndexByte(rec[entryFixed:], 0)
		if nul <= 0 {
			return nil, corrupt("entry %d: unterminated or empty path", i)
		}
		p := string(rec[entryFixed : entryFixed+nul])
		if flags&maxPathFlag != pathFlags(p) {
			return nil, corrupt("entry %d: path length %d disagrees with flags", i, len(p))
		}
		size := (entryFixed + nul + entryBlock) &^ (entryBlock - 1)
		if size > len(rec) {
			return nil, corrupt("entry %d: padding truncated", i)
		}
		if len(entries) > 0 && entries[len(entries)-1].Path >= p {
			return nil, corrupt("entry %d: %q out of order", i, p)
		}

		entries = append(entries, &Entry{
			Path: p,
			Mode: mode,
			Hash: h,
			Stat: Stat{
				CTimeSec: words[0], CTimeNsec: words[1],
				MTimeSec: words[2], MTimeNsec: words[3],
				Dev: words[4], Ino: words[5],
				UID: words[7], GID: words[8],
				Size: words[9],
			},
			Flags: flags,
		})
		pos += size
	}
	if pos != len(body) {
		return nil, corrupt("%d unexpected bytes after entries", len(body)-pos)
	}
	return entries, nil
}

func encodeMode(mode string) uint32 {
	if mode == object.TreeModeExecutable {
		return modeExecFile
	}
	return modeFile
}

func decodeMode(v uint32) (string, error) {
	switch v {
	case modeFile:
		return object.TreeModeFile, nil
	case modeExecFile:
		return object.TreeModeExecutable, nil
	default:
		return "", fmt.Errorf("unsupported mode %s", strconv.FormatUint(uint64(v), 8))
	}
}
