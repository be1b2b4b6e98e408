package b3

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"io"

	"lukechampine.com/blake3"
)

// Hash computes the blake3 content hash used to identify a narration
// blob across sessions.
func Hash(r io.Reader) (string, error) {
	h := blake3.New(32, nil)
	if _, err := io.Copy(h, r); err != nil {
		return "", fmt.Errorf("calculating blake3 hash: %w", err)
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

func HashBytes(b []byte) (string, error) {
	return Hash(bytes.NewReader(b))
}
