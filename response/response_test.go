package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newContext() (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestSuccess(t *testing.T) {
	c, rec := newContext()

	require.NoError(t, Success(c, map[string]string{"id": "42"}))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get(echo.HeaderContentType), ContentTypeJSON)
	body := decodeEnvelope(t, rec)
	assert.Equal(t, float64(SuccessCode), body["status"])
	assert.Equal(t, SuccessMessage, body["message"])
	assert.Equal(t, map[string]any{"id": "42"}, body["data"])
}

func TestSuccessWithMessage(t *testing.T) {
	c, rec := newContext()

	require.NoError(t, SuccessWithMessage(c, []int{1}, "created"))

	body := decodeEnvelope(t, rec)
	assert.Equal(t, "created", body["message"])
}

func TestErrorEnvelopes(t *testing.T) {
	tests := []struct {
		name    string
		write   func(echo.Context, string) error
		reason  string
		code    int
		message string
	}{
		{"client error default", ClientError, "", ClientErrorCode, ClientErrorMessage},
		{"client error custom", ClientError, "missing key", ClientErrorCode, "missing key"},
		{"unauthorized", Unauthorized, "", UnauthorizedCode, UnauthorizedMessage},
		{"not found", NotFound, "", NotFoundCode, NotFoundMessage},
		{"gateway timeout", GatewayTimeout, "", GatewayTimeoutCode, GatewayTimeoutMessage},
		{"server error", ServerError, "", ServerErrorCode, ServerErrorMessage},
		{"unknown error", UnknownError, "boom", ServerErrorCode, "boom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, rec := newContext()

			require.NoError(t, tt.write(c, tt.reason))

			assert.Equal(t, tt.code, rec.Code)
			body := decodeEnvelope(t, rec)
			assert.Equal(t, float64(tt.code), body["status"])
			assert.Equal(t, tt.message, body["message"])
			assert.NotContains(t, body, "data")
		})
	}
}

func TestErrorFallsBackToStatusText(t *testing.T) {
	c, rec := newContext()

	require.NoError(t, Error(c, http.StatusForbidden, ""))

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Forbidden", decodeEnvelope(t, rec)["message"])
}

func TestRawBodies(t *testing.T) {
	t.Run("stream", func(t *testing.T) {
		c, rec := newContext()
		require.NoError(t, Stream(c, strings.NewReader("bytes")))
		assert.Equal(t, ContentTypeStream, rec.Header().Get(echo.HeaderContentType))
		assert.Equal(t, "bytes", rec.Body.String())
	})

	t.Run("static", func(t *testing.T) {
		c, rec := newContext()
		require.NoError(t, Static(c, []byte("plain")))
		assert.Equal(t, ContentTypeText, rec.Header().Get(echo.HeaderContentType))
		assert.Equal(t, "plain", rec.Body.String())
	})

	t.Run("html", func(t *testing.T) {
		c, rec := newContext()
		require.NoError(t, HTML(c, "<h1>hi</h1>"))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, ContentTypeHTML, rec.Header().Get(echo.HeaderContentType))
		assert.Equal(t, "<h1>hi</h1>", rec.Body.String())
	})
}
