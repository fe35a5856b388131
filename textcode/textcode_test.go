package textcode

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testHello      = "Hello World"
	testHelloB64   = "SGVsbG8gV29ybGQ="
	testUnicodeMix = "你好，World! 🌎"
)

func TestBase64Encode(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"ascii", testHello, testHelloB64},
		{"chinese", "你好，世界", "5L2g5aW977yM5LiW55WM"},
		{"empty", "", ""},
		{"special characters", "!@#$%^&*()", "IUAjJCVeJiooKQ=="},
		{"input is trimmed", "  " + testHello + "\n", testHelloB64},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Base64Encode(tt.input))
			assert.Equal(t, tt.expected, TryBase64Encode(tt.input))
		})
	}
}

func TestBase64Decode(t *testing.T) {
	t.Run("valid input", func(t *testing.T) {
		out, err := Base64Decode(testHelloB64)
		require.NoError(t, err)
		assert.Equal(t, testHello, out)

		out, err = Base64Decode("5L2g5aW977yM5LiW55WM")
		require.NoError(t, err)
		assert.Equal(t, "你好，世界", out)
	})

	t.Run("whitespace and missing padding are tolerated", func(t *testing.T) {
		out, err := Base64Decode(testHelloB64 + " ")
		require.NoError(t, err)
		assert.Equal(t, testHello, out)

		out, err = Base64Decode("SGVsbG8gV29ybGQ")
		require.NoError(t, err)
		assert.Equal(t, testHello, out)
	})

	t.Run("empty input", func(t *testing.T) {
		out, err := Base64Decode("")
		require.NoError(t, err)
		assert.Empty(t, out)
	})

	t.Run("invalid input", func(t *testing.T) {
		_, err := Base64Decode("invalid base64!")
		assert.Error(t, err)
		assert.Equal(t, "invalid base64!", TryBase64Decode("invalid base64!"))
		assert.Equal(t, "这不是Base64!", TryBase64Decode("这不是Base64!"))
	})

	t.Run("round trip", func(t *testing.T) {
		out, err := Base64Decode(Base64Encode(testUnicodeMix))
		require.NoError(t, err)
		assert.Equal(t, testUnicodeMix, out)
		assert.Equal(t, testUnicodeMix, TryBase64Decode(TryBase64Encode(testUnicodeMix)))
	})
}

func TestHex(t *testing.T) {
	assert.Equal(t, "48656c6c6f", HexEncode("Hello"))
	assert.Equal(t, "48656c6c6f20576f726c64", HexEncode(testHello))
	assert.Equal(t, "21402324", HexEncode("!@#$"))
	assert.Equal(t, "", HexEncode(""))

	out, err := HexDecode("e4bda0e5a5bd")
	require.NoError(t, err)
	assert.Equal(t, "你好", out)

	out, err = HexDecode("48656C6C6F")
	require.NoError(t, err)
	assert.Equal(t, "Hello", out)

	_, err = HexDecode("zz")
	assert.ErrorIs(t, err, ErrInvalidHex)

	_, err = HexDecode("48656")
	assert.ErrorIs(t, err, ErrOddLength)

	assert.Equal(t, "48656c6c6f", TryHexEncode("Hello"))
	assert.Equal(t, "", TryHexEncode(""))
	assert.Equal(t, "Hello", TryHexDecode("48656c6c6f"))
	assert.Equal(t, "invalid hex!", TryHexDecode("invalid hex!"))
	assert.Equal(t, "48656", TryHexDecode("48656"))

	long := strings.Repeat(testUnicodeMix, 200)
	decoded, err := HexDecode(HexEncode(long))
	require.NoError(t, err)
	assert.Equal(t, long, decoded)
}

func TestURLEncode(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"hello world", "hello%20world"},
		{"a+b=c&d", "a%2Bb%3Dc%26d"},
		{"-_.!~*'()", "-_.!~*'()"},
		{"/path?q=1#frag", "%2Fpath%3Fq%3D1%23frag"},
		{"你好", "%E4%BD%A0%E5%A5%BD"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			out, err := URLEncode(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, out)

			back, err := URLDecode(out)
			require.NoError(t, err)
			assert.Equal(t, tt.input, back)
		})
	}

	_, err := URLEncode("\xff")
	assert.ErrorIs(t, err, ErrInvalidUTF8)
}

func TestURLDecode(t *testing.T) {
	out, err := URLDecode("a+b%20c")
	require.NoError(t, err)
	assert.Equal(t, "a+b c", out)

	_, err = URLDecode("%E0%A4%A")
	assert.Error(t, err)

	_, err = URLDecode("%FF")
	assert.ErrorIs(t, err, ErrInvalidUTF8)
}

func TestTryURL(t *testing.T) {
	assert.Equal(t, "a%20b", TryURLEncode("a b"))
	assert.Equal(t, "", TryURLEncode(""))
	assert.Equal(t, "a b", TryURLDecode("a%20b"))
	assert.Equal(t, "%zz", TryURLDecode("%zz"))

	fallback := func(string) string { return "fallback" }
	assert.Equal(t, "fallback", TryURLDecodeOr("%zz", fallback))
	assert.Equal(t, "fallback", TryURLDecodeOr("", fallback))
	assert.Equal(t, "fallback", TryURLEncodeOr("\xff", fallback))
	assert.Equal(t, "ok", TryURLEncodeOr("ok", fallback))
}

type closeTracker struct {
	io.Reader
	closed bool
}

func (c *closeTracker) Close() error {
	c.closed = true
	return nil
}

type errReader struct{}

func (errReader) Read([]byte) (int, error) { return 0, errors.New("broken pipe") }

func TestReaderToText(t *testing.T) {
	rc := &closeTracker{Reader: strings.NewReader(testUnicodeMix)}
	out, err := ReaderToText(rc)
	require.NoError(t, err)
	assert.Equal(t, testUnicodeMix, out)
	assert.True(t, rc.closed)

	out, err = ReaderToText(nil)
	require.NoError(t, err)
	assert.Empty(t, out)

	_, err = ReaderToText(errReader{})
	assert.Error(t, err)
}

func TestBytesToTextReplacesInvalidSequences(t *testing.T) {
	assert.Equal(t, "a�b", BytesToText([]byte{'a', 0xff, 'b'}))
}
