package object

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// TestStoreWriteIdempotent verifies storing identical content twice yields one id.
// Property: Write(x) == Write(x) and Read(Write(x)) == x
func TestStoreWriteIdempotent(t *testing.T) {
	s := tempStore(t)
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	properties.Property("write is idempotent and round-trips", prop.ForAll(
		func(data []byte) bool {
			h1, err1 := s.Write(TypeBlob, data)
			h2, err2 := s.Write(TypeBlob, data)
			if err1 != nil || err2 != nil || h1 != h2 {
				return false
			}
			typ, got, err := s.Read(h1)
			return err == nil && typ == TypeBlob && bytes.Equal(got, data)
		},
		gen.SliceOf(gen.UInt8()),
	))

	properties.TestingRun(t)
}

// TestTreeEncodingOrderIndependent verifies the tree id ignores insertion order.
// Property: MarshalTree(entries) == MarshalTree(reverse(entries))
func TestTreeEncodingOrderIndependent(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("tree encoding is order independent", prop.ForAll(
		func(names []string, dirMask []bool) bool {
			seen := make(map[string]bool)
			var entries []TreeEntry
			for i, name := range names {
				if name == "" || seen[name] {
					continue
				}
				seen[name] = true
				mode := TreeModeFile
				if i < len(dirMask) && dirMask[i] {
					mode = TreeModeDir
				}
				entries = append(entries, TreeEntry{
					Name: name,
					Mode: mode,
					Hash: HashBytes([]byte(fmt.Sprint(i))),
				})
			}
			reversed := make([]TreeEntry, len(entries))
			for i, e := range entries {
				reversed[len(entries)-1-i] = e
			}
			a, errA := MarshalTree(&TreeObj{Entries: entries})
			b, errB := MarshalTree(&TreeObj{Entries: reversed})
			if errA != nil || errB != nil || !bytes.Equal(a, b) {
				return false
			}
			decoded, err := UnmarshalTree(a)
			return err == nil && len(decoded.Entries) == len(entries)
		},
		gen.SliceOf(gen.AlphaString()),
		gen.SliceOf(gen.Bool()),
	))

	properties.TestingRun(t)
}
