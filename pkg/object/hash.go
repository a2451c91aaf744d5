package object

import (
	"crypto/sha1"
	"encoding/hex"
	"strconv"
)

// envelope returns the "type len\0" header that prefixes every stored object.
func envelope(objType ObjectType, size int) []byte {
	header := make([]byte, 0, len(objType)+24)
	header = append(header, objType...)
	header = append(header, ' ')
	header = strconv.AppendInt(header, int64(size), 10)
	return append(header, 0)
}

// HashBytes computes the raw SHA-1 of data as a hex Hash.
func HashBytes(data []byte) Hash {
	sum := sha1.Sum(data)
	return Hash(hex.EncodeToString(sum[:]))
}

// HashObject computes the SHA-1 of the envelope "type len\0content",
// which is the object's id.
func HashObject(objType ObjectType, data []byte) Hash {
	h := sha1.New()
	h.Write(envelope(objType, len(data)))
	h.Write(data)
	return Hash(hex.EncodeToString(h.Sum(nil)))
}
