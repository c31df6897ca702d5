package cmd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/ardanlabs/chainlab/foundation/explainer/digest"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs(args)

	err := rootCmd.Execute()
	return buf.String(), err
}

func Test_Digest(t *testing.T) {
	out, err := run(t, "digest", "-g", "sha256", "Hello")
	if err != nil {
		t.Fatalf("Should run the digest command: %s", err)
	}

	if strings.TrimSpace(out) != digest.Hash("Hello") {
		t.Fatalf("Should print the digest, got %q", out)
	}

	if _, err := run(t, "digest", "-g", "md5", "Hello"); err == nil {
		t.Fatal("Should reject an unknown algorithm.")
	}
}

func Test_Mine(t *testing.T) {
	out, err := run(t, "mine", "-g", "sha256", "-d", "1", "-q", "Hello, Blockchain!")
	if err != nil {
		t.Fatalf("Should run the mine command: %s", err)
	}

	if !strings.Contains(out, "solved nonce") {
		t.Fatalf("Should report the solution, got %q", out)
	}
}

func Test_Chain(t *testing.T) {
	out, err := run(t, "chain", "-g", "sha256", "-n", "3", "-x", "2")
	if err != nil {
		t.Fatalf("Should run the chain command: %s", err)
	}

	if strings.Count(out, "INVALID") != 3 {
		t.Fatalf("Should mark the tampered block and the blocks after it, got %q", out)
	}

	if !strings.Contains(out, "block 3:") {
		t.Fatalf("Should report the broken link, got %q", out)
	}
}

func Test_SignVerify(t *testing.T) {
	sig, err := run(t, "sign", "-g", "sha256", "-s", "PRIV_abc", "hello")
	if err != nil {
		t.Fatalf("Should run the sign command: %s", err)
	}
	sig = strings.TrimSpace(sig)

	if _, err := run(t, "verify", "-g", "sha256", "-s", "PRIV_abc", "hello", sig); err != nil {
		t.Fatalf("Should verify the signature: %s", err)
	}

	if _, err := run(t, "verify", "-g", "sha256", "-s", "PRIV_abc", "hellO", sig); err == nil {
		t.Fatal("Should reject a tampered message.")
	}
}
