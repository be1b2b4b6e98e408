package b3

import (
	"strings"
	"testing"
)

func TestHashBytesIsStable(t *testing.T) {
	a, err := HashBytes([]byte("narration"))
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	b, err := HashBytes([]byte("narration"))
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if a != b {
		t.Fatalf("same blob hashed differently: %s vs %s", a, b)
	}
	if len(a) != 64 {
		t.Fatalf("expected 32-byte hex digest, got %d chars", len(a))
	}
	if a != strings.ToLower(a) {
		t.Fatalf("digest must be lowercase hex")
	}
}

func TestHashBytesDistinguishesBlobs(t *testing.T) {
	a, _ := HashBytes([]byte("one"))
	b, _ := HashBytes([]byte("two"))
	if a == b {
		t.Fatalf("different blobs collided")
	}
}
