package fetch

import (
	"bytes"
	"errors"
	"io"
	"mime/multipart"
	nethttp "net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func headerWith(contentType string) nethttp.Header {
	h := nethttp.Header{}
	if contentType != "" {
		h.Set("Content-Type", contentType)
	}
	return h
}

func TestDecodeJSON(t *testing.T) {
	data, err := decodeBody(DecodeJSON, headerWith(testJSONType), []byte(`{"a":1,"b":["x"]}`))
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": float64(1), "b": []any{"x"}}, data)

	empty, err := decodeBody(DecodeJSON, headerWith(""), []byte("  \n"))
	require.NoError(t, err)
	assert.Nil(t, empty)

	_, err = decodeBody(DecodeJSON, headerWith(""), []byte(`{"a":`))
	require.Error(t, err)
	assert.True(t, IsErrorType(err, DecodeError))
}

func TestDecodeRawModes(t *testing.T) {
	body := []byte("hello")

	text, err := decodeBody(DecodeText, headerWith(""), body)
	require.NoError(t, err)
	assert.Equal(t, "hello", text)

	buf, err := decodeBody(DecodeArrayBuffer, headerWith(""), body)
	require.NoError(t, err)
	assert.Equal(t, body, buf)

	blob, err := decodeBody(DecodeBlob, headerWith("image/png"), body)
	require.NoError(t, err)
	assert.Equal(t, Blob{Type: "image/png", Data: body}, blob)

	_, err = decodeBody(Decoding("xml"), headerWith(""), body)
	assert.True(t, IsErrorType(err, DecodeError))
}

func TestDecodeFormData(t *testing.T) {
	t.Run("urlencoded", func(t *testing.T) {
		data, err := decodeBody(DecodeFormData, headerWith("application/x-www-form-urlencoded; charset=utf-8"), []byte("a=1&b=two+words"))
		require.NoError(t, err)
		values, ok := data.(url.Values)
		require.True(t, ok)
		assert.Equal(t, "1", values.Get("a"))
		assert.Equal(t, "two words", values.Get("b"))
	})

	t.Run("multipart", func(t *testing.T) {
		var buf bytes.Buffer
		w := multipart.NewWriter(&buf)
		require.NoError(t, w.WriteField("name", "fetch"))
		fw, err := w.CreateFormFile("file", "a.txt")
		require.NoError(t, err)
		_, err = fw.Write([]byte("content"))
		require.NoError(t, err)
		require.NoError(t, w.Close())

		data, err := decodeBody(DecodeFormData, headerWith(w.FormDataContentType()), buf.Bytes())
		require.NoError(t, err)
		form, ok := data.(*multipart.Form)
		require.True(t, ok)
		defer func() { _ = form.RemoveAll() }()
		assert.Equal(t, []string{"fetch"}, form.Value["name"])
		require.Len(t, form.File["file"], 1)
		assert.Equal(t, "a.txt", form.File["file"][0].Filename)
	})

	t.Run("not a form", func(t *testing.T) {
		_, err := decodeBody(DecodeFormData, headerWith(testJSONType), []byte(`{}`))
		assert.True(t, IsErrorType(err, DecodeError))

		_, err = decodeBody(DecodeFormData, headerWith(""), []byte(`{}`))
		assert.True(t, IsErrorType(err, DecodeError))
	})
}

func TestOpenStream(t *testing.T) {
	t.Run("unavailable", func(t *testing.T) {
		cases := map[string]*nethttp.Response{
			"nil body":       {Body: nil, ContentLength: -1},
			"no body":        {Body: nethttp.NoBody, ContentLength: -1},
			"content length": {Body: io.NopCloser(strings.NewReader("")), ContentLength: 0},
		}
		for name, resp := range cases {
			released := false
			_, err := openStream(resp, func() { released = true })
			require.Error(t, err, name)
			assert.True(t, IsErrorType(err, DecodeError), name)
			assert.ErrorIs(t, err, ErrStreamUnavailable, name)
			assert.True(t, released, name)
		}
	})

	t.Run("available", func(t *testing.T) {
		released := false
		stream, err := openStream(&nethttp.Response{Body: io.NopCloser(strings.NewReader("data")), ContentLength: -1}, func() { released = true })
		require.NoError(t, err)

		data, err := io.ReadAll(stream)
		require.NoError(t, err)
		assert.Equal(t, "data", string(data))
		assert.False(t, released)

		require.NoError(t, stream.Close())
		assert.True(t, released)
	})
}

func TestDecodeInto(t *testing.T) {
	type item struct {
		ID   int    `json:"id"`
		Name string `json:"name"`
	}

	got, err := DecodeInto[item](&Response{Body: []byte(`{"id":7,"name":"seven"}`)})
	require.NoError(t, err)
	assert.Equal(t, item{ID: 7, Name: "seven"}, got)

	_, err = DecodeInto[item](&Response{Body: []byte(`nope`)})
	assert.True(t, IsErrorType(err, DecodeError))

	_, err = DecodeInto[item](nil)
	assert.True(t, IsErrorType(err, DecodeError))
}

func TestEncodeBody(t *testing.T) {
	tests := []struct {
		name        string
		body        any
		want        string
		contentType string
	}{
		{name: "nil", body: nil},
		{name: "bytes", body: []byte("raw"), want: "raw"},
		{name: "string", body: "text", want: "text"},
		{name: "reader", body: strings.NewReader("stream"), want: "stream"},
		{name: "form", body: url.Values{"a": {"1"}}, want: "a=1", contentType: contentTypeForm},
		{name: "json value", body: map[string]int{"a": 1}, want: `{"a":1}`, contentType: contentTypeJSON},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, ct, err := encodeBody(tt.body)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(data))
			assert.Equal(t, tt.contentType, ct)
		})
	}

	_, _, err := encodeBody(make(chan int))
	assert.True(t, IsErrorType(err, ConfigError))

	_, _, err = encodeBody(failingReader{})
	assert.True(t, IsErrorType(err, ConfigError))
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("read failed") }
