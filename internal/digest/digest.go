// Package digest computes stable content digests used for media
// deduplication and integrity checks.
package digest

import (
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
)

// Supported algorithm names. The media API stores checksums computed with
// SHA1 by default; SHA256 is accepted for callers that need it.
const (
	SHA1   = "sha-1"
	SHA256 = "sha-256"
)

// DigestError reports a failed digest computation: either the input could
// not be read or the requested algorithm is not supported.
type DigestError struct {
	Algorithm string
	Err       error
}

func (e *DigestError) Error() string {
	return fmt.Sprintf("digest error (%s): %v", e.Algorithm, e.Err)
}

func (e *DigestError) Unwrap() error {
	return e.Err
}

// Reader consumes r fully and returns the lowercase hex digest of its bytes.
// Identical byte content always yields an identical digest, regardless of
// where the bytes came from.
func Reader(r io.Reader, algorithm string) (string, error) {
	h, err := newHash(algorithm)
	if err != nil {
		return "", &DigestError{Algorithm: algorithm, Err: err}
	}
	if _, err := io.Copy(h, r); err != nil {
		return "", &DigestError{Algorithm: algorithm, Err: fmt.Errorf("reading content: %w", err)}
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func newHash(algorithm string) (hash.Hash, error) {
	switch algorithm {
	case SHA1:
		return sha1.New(), nil
	case SHA256:
		return sha256.New(), nil
	default:
		return nil, fmt.Errorf("unsupported algorithm %q", algorithm)
	}
}
