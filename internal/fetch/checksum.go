// SPDX-License-Identifier: MPL-2.0

package fetch

import (
	_ "crypto/sha256"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/opencontainers/go-digest"
)

var (
	// ErrChecksumMismatch indicates the computed SHA-256 does not match the expected one.
	ErrChecksumMismatch = errors.New("checksum mismatch")

	// ErrInvalidChecksum indicates an expected checksum that is not 64 hex characters.
	ErrInvalidChecksum = errors.New("invalid sha256 checksum")
)

// ChecksumError provides details about a checksum verification failure.
// It wraps ErrChecksumMismatch so callers can use errors.Is for classification.
type ChecksumError struct {
	Source   string
	Expected string
	Got      string
}

// Error shows both digests.
func (e *ChecksumError) Error() string {
	return fmt.Sprintf("checksum verification failed for %s\nExpected: %s\nGot:      %s", e.Source, e.Expected, e.Got)
}

// Unwrap returns ErrChecksumMismatch so callers can use errors.Is.
func (e *ChecksumError) Unwrap() error { return ErrChecksumMismatch }

// ParseSHA256 validates a hex-encoded SHA-256 and returns it as a digest.
// Upper-case hex is accepted and normalized.
func ParseSHA256(hexHash string) (digest.Digest, error) {
	d := digest.NewDigestFromEncoded(digest.SHA256, strings.ToLower(strings.TrimSpace(hexHash)))
	if err := d.Validate(); err != nil {
		return "", fmt.Errorf("%w %q: %w", ErrInvalidChecksum, hexHash, err)
	}
	return d, nil
}

// FileSHA256 returns the lowercase hex SHA-256 of the file at path. The file
// is streamed, never loaded whole.
func FileSHA256(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer func() {
		// Read-only file handle; close errors are not actionable.
		_ = f.Close()
	}()

	d, err := digest.SHA256.FromReader(f)
	if err != nil {
		return "", fmt.Errorf("hashing file %s: %w", path, err)
	}
	return d.Encoded(), nil
}

// verify compares got with want, returning a *ChecksumError on mismatch.
func verify(source string, want, got digest.Digest) error {
	if want == got {
		return nil
	}
	return &ChecksumError{Source: source, Expected: want.Encoded(), Got: got.Encoded()}
}
