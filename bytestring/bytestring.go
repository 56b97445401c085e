// Package bytestring implements ByteString: an immutable, hashable,
// comparable byte sequence with base64/hex codecs and a UTF-8 view.
package bytestring

import (
	"encoding/base64"
	"encoding/hex"
	"strings"
	"unicode/utf8"

	"github.com/pkg/errors"
)

// ByteString is an immutable sequence of bytes. Its zero value is the empty
// string. Copying a ByteString is cheap and safe: the underlying array is
// never mutated after construction.
type ByteString struct {
	b []byte

	hashed bool
	hash   uint32
}

// Of returns a ByteString wrapping a private copy of b; mutating b after the
// call has no effect on the returned ByteString.
func Of(b []byte) ByteString {
	cp := make([]byte, len(b))
	copy(cp, b)

	return ByteString{b: cp}
}

// OfString returns a ByteString holding the UTF-8 bytes of s.
func OfString(s string) ByteString {
	return ByteString{b: []byte(s)}
}

// Size returns the number of bytes in bs.
func (bs ByteString) Size() int {
	return len(bs.b)
}

// GetByte returns the byte at index i. It panics if i is out of range, as
// with ordinary slice indexing.
func (bs ByteString) GetByte(i int) byte {
	return bs.b[i]
}

// UTF8 decodes bs as UTF-8 text.
func (bs ByteString) UTF8() string {
	return string(bs.b)
}

// Bytes returns a defensive copy of the underlying bytes.
func (bs ByteString) Bytes() []byte {
	cp := make([]byte, len(bs.b))
	copy(cp, bs.b)

	return cp
}

// Equal reports whether bs and other hold the same bytes.
func (bs ByteString) Equal(other ByteString) bool {
	if len(bs.b) != len(other.b) {
		return false
	}

	for i := range bs.b {
		if bs.b[i] != other.b[i] {
			return false
		}
	}

	return true
}

// HashCode returns a 32-bit polynomial hash over bs's bytes, memoized after
// first computation (a ByteString's bytes never change, so the hash never
// becomes stale).
func (bs *ByteString) HashCode() uint32 {
	if bs.hashed {
		return bs.hash
	}

	var h uint32

	for _, c := range bs.b {
		h = h*31 + uint32(c)
	}

	bs.hash = h
	bs.hashed = true

	return h
}

// Substring returns the bytes in [begin, end) as a new ByteString. end may
// be omitted by passing -1, meaning "to the end of bs".
func (bs ByteString) Substring(begin, end int) (ByteString, error) {
	if end < 0 {
		end = len(bs.b)
	}

	if begin < 0 || end > len(bs.b) || begin > end {
		return ByteString{}, errors.New("bytestring: substring out of range")
	}

	return Of(bs.b[begin:end]), nil
}

// ToAsciiLowercase returns a copy of bs with ASCII A-Z lowercased.
func (bs ByteString) ToAsciiLowercase() ByteString {
	return Of([]byte(strings.Map(asciiLower, string(bs.b))))
}

// ToAsciiUppercase returns a copy of bs with ASCII a-z uppercased.
func (bs ByteString) ToAsciiUppercase() ByteString {
	return Of([]byte(strings.Map(asciiUpper, string(bs.b))))
}

func asciiLower(r rune) rune {
	if r >= 'A' && r <= 'Z' {
		return r + ('a' - 'A')
	}

	return r
}

func asciiUpper(r rune) rune {
	if r >= 'a' && r <= 'z' {
		return r - ('a' - 'A')
	}

	return r
}

// EncodeBase64 returns the RFC 4648 base64 (standard alphabet, padded)
// encoding of bs.
func (bs ByteString) EncodeBase64() string {
	return base64.StdEncoding.EncodeToString(bs.b)
}

// DecodeBase64 decodes s as RFC 4648 base64, tolerating interior whitespace
// and accepting either the standard or URL-safe alphabet. It returns
// (ByteString{}, false) for any invalid character outside whitespace and
// padding.
func DecodeBase64(s string) (ByteString, bool) {
	var cleaned strings.Builder

	for _, r := range s {
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' {
			continue
		}

		cleaned.WriteRune(r)
	}

	trimmed := strings.TrimRight(cleaned.String(), "=")
	trimmed = strings.NewReplacer("-", "+", "_", "/").Replace(trimmed)

	decoded, err := base64.RawStdEncoding.DecodeString(trimmed)
	if err != nil {
		return ByteString{}, false
	}

	return Of(decoded), true
}

// EncodeHex returns the lowercase hex encoding of bs.
func (bs ByteString) EncodeHex() string {
	return hex.EncodeToString(bs.b)
}

// DecodeHex decodes s as case-insensitive hex. It fails on odd length or a
// non-hex character.
func DecodeHex(s string) (ByteString, error) {
	decoded, err := hex.DecodeString(strings.ToLower(s))
	if err != nil {
		return ByteString{}, errors.Wrap(err, "bytestring: invalid hex")
	}

	return Of(decoded), nil
}

// EnsureUTF8Valid reports whether b is well-formed UTF-8.
func EnsureUTF8Valid(b []byte) bool {
	return utf8.Valid(b)
}
