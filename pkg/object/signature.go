package object

// CommitSigningPayload returns the canonical bytes that are signed for a
// commit. The payload excludes the gpgsig header itself.
func CommitSigningPayload(c *CommitObj) []byte {
	if c == nil {
		return nil
	}
	copyCommit := *c
	copyCommit.Signature = ""
	return MarshalCommit(&copyCommit)
}
