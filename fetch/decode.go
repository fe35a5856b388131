package fetch

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	nethttp "net/http"
	"net/url"
)

const maxFormMemory = 32 << 20

// decodeBody turns a buffered body into Response.Data.
func decodeBody(decoding Decoding, header nethttp.Header, body []byte) (any, error) {
	switch decoding {
	case DecodeJSON, "":
		if len(bytes.TrimSpace(body)) == 0 {
			return nil, nil
		}
		var v any
		if err := json.Unmarshal(body, &v); err != nil {
			return nil, NewDecodeError("invalid JSON body", DecodeJSON, err)
		}
		return v, nil
	case DecodeText:
		return string(body), nil
	case DecodeArrayBuffer:
		return body, nil
	case DecodeBlob:
		return Blob{Type: header.Get("Content-Type"), Data: body}, nil
	case DecodeFormData:
		return decodeForm(header.Get("Content-Type"), body)
	default:
		return nil, NewDecodeError("unsupported decoding", decoding, nil)
	}
}

func decodeForm(contentType string, body []byte) (any, error) {
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return nil, NewDecodeError("invalid form content type", DecodeFormData, err)
	}
	switch mediaType {
	case "application/x-www-form-urlencoded":
		values, err := url.ParseQuery(string(body))
		if err != nil {
			return nil, NewDecodeError("invalid urlencoded form", DecodeFormData, err)
		}
		return values, nil
	case "multipart/form-data":
		form, err := multipart.NewReader(bytes.NewReader(body), params["boundary"]).ReadForm(maxFormMemory)
		if err != nil {
			return nil, NewDecodeError("invalid multipart form", DecodeFormData, err)
		}
		return form, nil
	default:
		return nil, NewDecodeError("response is not a form: "+mediaType, DecodeFormData, nil)
	}
}

// streamBody hands the live response body to the caller and releases the
// attempt scope on Close.
type streamBody struct {
	io.ReadCloser
	release func()
}

func (b *streamBody) Close() error {
	err := b.ReadCloser.Close()
	b.release()
	return err
}

// openStream validates that a response can be streamed.
func openStream(resp *nethttp.Response, release func()) (io.ReadCloser, error) {
	if resp.Body == nil || resp.Body == nethttp.NoBody || resp.ContentLength == 0 {
		if resp.Body != nil {
			_ = resp.Body.Close()
		}
		release()
		return nil, NewDecodeError("empty response", DecodeStream, ErrStreamUnavailable)
	}
	return &streamBody{ReadCloser: resp.Body, release: release}, nil
}

// DecodeInto decodes the buffered JSON body of resp into T.
func DecodeInto[T any](resp *Response) (T, error) {
	var out T
	if resp == nil {
		return out, NewDecodeError("nil response", DecodeJSON, errors.New("no response"))
	}
	if err := json.Unmarshal(resp.Body, &out); err != nil {
		return out, NewDecodeError("cannot decode body", DecodeJSON, err)
	}
	return out, nil
}

// closeStream releases a stream body that will not reach the caller.
func closeStream(resp *Response) {
	if resp == nil {
		return
	}
	if c, ok := resp.Data.(io.Closer); ok {
		_ = c.Close()
	}
}

// releaseReplaced closes the stream of orig when an interceptor swapped in
// a response that no longer carries it.
func releaseReplaced(orig, out *Response) {
	stream, ok := orig.Data.(*streamBody)
	if !ok || out == orig {
		return
	}
	if carried, _ := out.Data.(*streamBody); carried != stream {
		_ = stream.Close()
	}
}
