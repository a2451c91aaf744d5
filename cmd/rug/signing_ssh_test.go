package main

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/pem"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/odvcencio/rug/pkg/object"
	"golang.org/x/crypto/ssh"
)

func newTestSigner(t *testing.T) (ssh.Signer, ed25519.PrivateKey) {
	t.Helper()
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	signer, err := ssh.NewSignerFromKey(priv)
	if err != nil {
		t.Fatalf("NewSignerFromKey: %v", err)
	}
	return signer, priv
}

func testCommit() *object.CommitObj {
	who := object.Signature{Name: "Signer", Email: "signer@example.com", When: time.Unix(1700000000, 0).UTC()}
	return &object.CommitObj{
		TreeHash:  object.Hash(strings.Repeat("a", 40)),
		Author:    who,
		Committer: who,
		Message:   "signed change\n",
	}
}

func TestSSHSignature_RoundTrip(t *testing.T) {
	signer, _ := newTestSigner(t)
	c := testCommit()

	sig, err := sshCommitSigner(signer)(object.CommitSigningPayload(c))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if !strings.HasPrefix(sig, commitSignaturePrefix+":ssh-ed25519:") {
		t.Fatalf("signature = %q", sig)
	}
	c.Signature = sig

	key, err := verifyCommitSignature(c)
	if err != nil {
		t.Fatalf("verifyCommitSignature: %v", err)
	}
	if want := "ssh-ed25519 " + ssh.FingerprintSHA256(signer.PublicKey()); key != want {
		t.Fatalf("key = %q, want %q", key, want)
	}
}

func TestSSHSignature_Tampered(t *testing.T) {
	signer, _ := newTestSigner(t)
	c := testCommit()
	sig, err := sshCommitSigner(signer)(object.CommitSigningPayload(c))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	c.Signature = sig
	c.Message = "changed after signing\n"

	if _, err := verifyCommitSignature(c); !errors.Is(err, errBadSignature) {
		t.Fatalf("verify tampered commit = %v, want errBadSignature", err)
	}

	for _, bad := range []string{"", "gpg junk", "sshsig-v1:ssh-ed25519:!!:!!", "other:a:b:c"} {
		c.Signature = bad
		if _, err := verifyCommitSignature(c); !errors.Is(err, errBadSignature) {
			t.Errorf("verify %q = %v, want errBadSignature", bad, err)
		}
	}
}

func TestCmd_SignedCommitShowSignature(t *testing.T) {
	signer, priv := newTestSigner(t)
	block, err := ssh.MarshalPrivateKey(priv, "")
	if err != nil {
		t.Fatalf("MarshalPrivateKey: %v", err)
	}
	keyPath := filepath.Join(t.TempDir(), "id_ed25519")
	if err := os.WriteFile(keyPath, pem.EncodeToMemory(block), 0o600); err != nil {
		t.Fatalf("write key: %v", err)
	}

	c := newCLI(t)
	c.mustRun("init")
	c.write("a.txt", "a\n")
	c.mustRun("add", ".")
	c.mustRun("commit", "-m", "signed", "-S", "--signing-key", keyPath)

	out := c.mustRun("log", "--show-signature")
	assertContains(t, out, "Good signature with ssh-ed25519 "+ssh.FingerprintSHA256(signer.PublicKey()))

	if _, err := c.run("commit", "-m", "x", "--signing-key", filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Fatal("commit with a missing signing key should fail")
	}
}
