// Package sniff identifies a file's true content type from its leading
// bytes, independent of file extension or the caller-declared type.
// The registry follows the WHATWG mimesniff image-type pattern matching
// algorithm: https://mimesniff.spec.whatwg.org/#matching-an-image-type-pattern
package sniff

import (
	"io"
)

// headerLen is the number of leading bytes read for signature matching.
// All registered signatures fit within this prefix.
const headerLen = 4

// Signature is a magic-byte pattern with a bitmask. A byte source matches
// when (b[i] & Mask[i]) == Pattern[i] for every position the signature covers.
type Signature struct {
	MIME    string
	Pattern []byte
	Mask    []byte
}

// registry is checked in order; first match wins.
var registry = []Signature{
	{
		MIME:    "image/jpeg",
		Pattern: []byte{0xFF, 0xD8, 0xFF},
		Mask:    []byte{0xFF, 0xFF, 0xFF},
	},
	{
		MIME:    "image/png",
		Pattern: []byte{0x89, 0x50, 0x4E, 0x47},
		Mask:    []byte{0xFF, 0xFF, 0xFF, 0xFF},
	},
	{
		MIME:    "image/gif",
		Pattern: []byte{0x47, 0x49, 0x46, 0x38},
		Mask:    []byte{0xFF, 0xFF, 0xFF, 0xFF},
	},
}

// Detect reads at most the first 4 bytes of r and returns the MIME type of
// the first matching signature. When no signature matches, or the read
// fails or comes up short, it returns fallback unchanged. Detect never
// returns an error — failure degrades to the caller-supplied type.
func Detect(r io.Reader, fallback string) string {
	header := make([]byte, headerLen)

	n, err := io.ReadFull(r, header)
	if err != nil && n == 0 {
		return fallback
	}

	header = header[:n]

	for _, sig := range registry {
		if match(header, sig) {
			return sig.MIME
		}
	}

	return fallback
}

// match reports whether header satisfies the signature's masked pattern.
// A header shorter than the signature cannot match.
func match(header []byte, sig Signature) bool {
	if len(header) < len(sig.Mask) {
		return false
	}

	for i := range sig.Mask {
		if header[i]&sig.Mask[i] != sig.Pattern[i] {
			return false
		}
	}

	return true
}
