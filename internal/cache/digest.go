package cache

import (
	"crypto/sha256"
	"encoding/hex"
)

// Digest identifies one cache entry.
type Digest [32]byte

// Key combines a rule fingerprint with a content hash: H(fingerprint || content).
func Key(fingerprint string, content [32]byte) Digest {
	h := sha256.New()
	_, _ = h.Write([]byte(fingerprint))
	_, _ = h.Write(content[:])
	var out Digest
	copy(out[:], h.Sum(nil))
	return out
}

// IsZero reports whether d is the zero digest.
func (d Digest) IsZero() bool {
	return d == Digest{}
}

func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}
