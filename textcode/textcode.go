// Package textcode converts text to and from base64, hex and URL
// component encodings. Decoded bytes are read as UTF-8; invalid sequences
// become U+FFFD.
package textcode

import (
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"unicode/utf8"
)

var (
	// ErrOddLength is returned by HexDecode for input of odd length.
	ErrOddLength = errors.New("hex string must have an even length")
	// ErrInvalidHex is returned by HexDecode for characters outside [0-9a-fA-F].
	ErrInvalidHex = errors.New("invalid hex string")
	// ErrInvalidUTF8 is returned when text is not valid UTF-8 where it must be.
	ErrInvalidUTF8 = errors.New("invalid UTF-8 sequence")
)

const upperHex = "0123456789ABCDEF"

// Base64Encode encodes the trimmed UTF-8 bytes of s.
func Base64Encode(s string) string {
	if s == "" {
		return s
	}
	return base64.StdEncoding.EncodeToString([]byte(strings.TrimSpace(s)))
}

// Base64Decode decodes standard base64 into text. ASCII whitespace is
// ignored and padding is optional.
func Base64Decode(s string) (string, error) {
	if s == "" {
		return s, nil
	}
	s = strings.Join(strings.Fields(s), "")
	if len(s)%4 == 0 {
		s = strings.TrimSuffix(strings.TrimSuffix(s, "="), "=")
	}
	data, err := base64.RawStdEncoding.DecodeString(s)
	if err != nil {
		return "", fmt.Errorf("base64 decode: %w", err)
	}
	return BytesToText(data), nil
}

// TryBase64Encode is Base64Encode. It exists for symmetry with the other
// Try helpers.
func TryBase64Encode(s string) string {
	return Base64Encode(s)
}

// TryBase64Decode returns s unchanged when it is not valid base64.
func TryBase64Decode(s string) string {
	out, err := Base64Decode(s)
	if err != nil {
		return s
	}
	return out
}

// HexEncode encodes the UTF-8 bytes of s as lowercase hex.
func HexEncode(s string) string {
	return hex.EncodeToString([]byte(s))
}

// HexDecode decodes hex (either case) into text.
func HexDecode(s string) (string, error) {
	if len(s)%2 != 0 {
		return "", ErrOddLength
	}
	data, err := hex.DecodeString(s)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidHex, err)
	}
	return BytesToText(data), nil
}

// TryHexEncode is HexEncode with empty input returned as is.
func TryHexEncode(s string) string {
	if s == "" {
		return s
	}
	return HexEncode(s)
}

// TryHexDecode returns s unchanged when it is not valid hex.
func TryHexDecode(s string) string {
	if s == "" {
		return s
	}
	out, err := HexDecode(s)
	if err != nil {
		return s
	}
	return out
}

// URLEncode escapes s as a URI component: everything except
// A-Z a-z 0-9 - _ . ! ~ * ' ( ) is percent-encoded.
func URLEncode(s string) (string, error) {
	if !utf8.ValidString(s) {
		return "", ErrInvalidUTF8
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if unreserved(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(upperHex[c>>4])
		b.WriteByte(upperHex[c&0x0f])
	}
	return b.String(), nil
}

// URLDecode reverses URLEncode. '+' is kept literally.
func URLDecode(s string) (string, error) {
	out, err := url.PathUnescape(s)
	if err != nil {
		return "", fmt.Errorf("url decode: %w", err)
	}
	if !utf8.ValidString(out) {
		return "", ErrInvalidUTF8
	}
	return out, nil
}

// TryURLEncode returns s unchanged when it cannot be encoded.
func TryURLEncode(s string) string {
	return TryURLEncodeOr(s, nil)
}

// TryURLDecode returns s unchanged when it cannot be decoded.
func TryURLDecode(s string) string {
	return TryURLDecodeOr(s, nil)
}

// TryURLEncodeOr returns fallback(s) for empty or unencodable input.
func TryURLEncodeOr(s string, fallback func(string) string) string {
	if s != "" {
		if out, err := URLEncode(s); err == nil {
			return out
		}
	}
	return orIdentity(fallback)(s)
}

// TryURLDecodeOr returns fallback(s) for empty or undecodable input.
func TryURLDecodeOr(s string, fallback func(string) string) string {
	if s != "" {
		if out, err := URLDecode(s); err == nil {
			return out
		}
	}
	return orIdentity(fallback)(s)
}

// BytesToText reads data as UTF-8.
func BytesToText(data []byte) string {
	return strings.ToValidUTF8(string(data), string(utf8.RuneError))
}

// ReaderToText drains r and reads the bytes as UTF-8. r is closed when it
// is an io.Closer.
func ReaderToText(r io.Reader) (string, error) {
	if r == nil {
		return "", nil
	}
	if c, ok := r.(io.Closer); ok {
		defer c.Close()
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read text: %w", err)
	}
	return BytesToText(data), nil
}

func unreserved(c byte) bool {
	switch {
	case 'A' <= c && c <= 'Z', 'a' <= c && c <= 'z', '0' <= c && c <= '9':
		return true
	}
	return strings.IndexByte("-_.!~*'()", c) >= 0
}

func orIdentity(fn func(string) string) func(string) string {
	if fn != nil {
		return fn
	}
	return func(s string) string { return s }
}
