// Package response writes the standard {status, message, data} envelope
// and raw bodies from echo handlers.
package response

import (
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
)

// Status codes used by the envelope constructors
const (
	SuccessCode        = http.StatusOK
	ClientErrorCode    = http.StatusBadRequest
	UnauthorizedCode   = http.StatusUnauthorized
	NotFoundCode       = http.StatusNotFound
	ServerErrorCode    = http.StatusInternalServerError
	GatewayTimeoutCode = http.StatusGatewayTimeout
)

// Default envelope messages
const (
	SuccessMessage        = "success"
	ClientErrorMessage    = "bad request"
	UnauthorizedMessage   = "unauthorized"
	NotFoundMessage       = "not found"
	ServerErrorMessage    = "internal server error"
	GatewayTimeoutMessage = "gateway timeout"
)

// Content types of the raw body writers
const (
	ContentTypeJSON   = echo.MIMEApplicationJSON
	ContentTypeStream = echo.MIMEOctetStream
	ContentTypeText   = echo.MIMETextPlain
	ContentTypeHTML   = echo.MIMETextHTML
)

// Envelope is the JSON body written by every JSON constructor.
type Envelope struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// Success writes a 200 envelope carrying data.
func Success(c echo.Context, data any) error {
	return SuccessWithMessage(c, data, SuccessMessage)
}

// SuccessWithMessage writes a 200 envelope carrying data and message.
func SuccessWithMessage(c echo.Context, data any, message string) error {
	return c.JSON(SuccessCode, Envelope{Status: SuccessCode, Message: or(message, SuccessMessage), Data: data})
}

// Error writes an error envelope with the given status. An empty reason
// falls back to the status text.
func Error(c echo.Context, code int, reason string) error {
	return c.JSON(code, Envelope{Status: code, Message: or(reason, http.StatusText(code))})
}

// ClientError writes a 400 envelope.
func ClientError(c echo.Context, reason string) error {
	return Error(c, ClientErrorCode, or(reason, ClientErrorMessage))
}

// Unauthorized writes a 401 envelope.
func Unauthorized(c echo.Context, reason string) error {
	return Error(c, UnauthorizedCode, or(reason, UnauthorizedMessage))
}

// NotFound writes a 404 envelope.
func NotFound(c echo.Context, reason string) error {
	return Error(c, NotFoundCode, or(reason, NotFoundMessage))
}

// GatewayTimeout writes a 504 envelope.
func GatewayTimeout(c echo.Context, reason string) error {
	return Error(c, GatewayTimeoutCode, or(reason, GatewayTimeoutMessage))
}

// ServerError writes a 500 envelope.
func ServerError(c echo.Context, reason string) error {
	return Error(c, ServerErrorCode, or(reason, ServerErrorMessage))
}

// UnknownError writes a 500 envelope for failures without a better class.
func UnknownError(c echo.Context, reason string) error {
	return ServerError(c, reason)
}

// Stream copies r to the client as application/octet-stream.
func Stream(c echo.Context, r io.Reader) error {
	return c.Stream(SuccessCode, ContentTypeStream, r)
}

// Static writes data as text/plain.
func Static(c echo.Context, data []byte) error {
	return c.Blob(SuccessCode, ContentTypeText, data)
}

// HTML writes html as text/html.
func HTML(c echo.Context, html string) error {
	return c.Blob(SuccessCode, ContentTypeHTML, []byte(html))
}

func or(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
