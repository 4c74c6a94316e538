package httpserver

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/yndnr/tokgate/internal/core/domain"
	"github.com/yndnr/tokgate/internal/server/router"
)

// responseWriter buffers a whole response so Content-Length is known
// before anything reaches the socket.
type responseWriter struct {
	header      http.Header
	status      int
	wroteHeader bool
	body        bytes.Buffer
}

func newResponseWriter() *responseWriter {
	return &responseWriter{header: make(http.Header), status: http.StatusOK}
}

func (w *responseWriter) Header() http.Header {
	return w.header
}

func (w *responseWriter) WriteHeader(status int) {
	if w.wroteHeader {
		return
	}
	w.wroteHeader = true
	w.status = status
}

func (w *responseWriter) Write(p []byte) (int, error) {
	w.wroteHeader = true
	return w.body.Write(p)
}

// reset drops anything written so far, used before a 500 replaces a
// response abandoned by a panicking handler.
func (w *responseWriter) reset() {
	w.header = make(http.Header)
	w.status = http.StatusOK
	w.wroteHeader = false
	w.body.Reset()
}

// writeTo serialises the response. Bodies are omitted for HEAD and for
// statuses that forbid them.
func (w *responseWriter) writeTo(out io.Writer, method string, now time.Time) error {
	bw := bufio.NewWriter(out)

	text := http.StatusText(w.status)
	if text == "" {
		text = "status code " + strconv.Itoa(w.status)
	}
	fmt.Fprintf(bw, "HTTP/1.1 %d %s\r\n", w.status, text)

	noBody := method == http.MethodHead || w.status == http.StatusNotModified ||
		w.status == http.StatusNoContent || (w.status >= 100 && w.status < 200)

	h := w.header
	h.Set("Connection", "close")
	if h.Get("Date") == "" {
		h.Set("Date", now.UTC().Format(http.TimeFormat))
	}
	if w.status != http.StatusNotModified && w.status != http.StatusNoContent {
		h.Set("Content-Length", strconv.Itoa(w.body.Len()))
	}
	if w.body.Len() > 0 && h.Get("Content-Type") == "" {
		h.Set("Content-Type", http.DetectContentType(w.body.Bytes()))
	}
	if err := h.Write(bw); err != nil {
		return err
	}
	bw.WriteString("\r\n")

	if !noBody {
		bw.Write(w.body.Bytes())
	}
	return bw.Flush()
}

// writeRaw writes a minimal response for requests that never reached the
// router.
func writeRaw(out io.Writer, status int, body string) error {
	_, err := fmt.Fprintf(out,
		"HTTP/1.1 %d %s\r\nContent-Type: text/plain\r\nContent-Length: %d\r\nConnection: close\r\n\r\n%s",
		status, http.StatusText(status), len(body), body)
	return err
}

// ============================================================================
// JSON envelope
// ============================================================================

// Response is the JSON body shared by every application endpoint.
// Endpoint-specific fields are added by embedding it.
type Response struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	Code      string `json:"code,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// OK returns a success envelope.
func OK(r *router.Request, message string) Response {
	return Response{Success: true, Message: message, RequestID: RequestID(r)}
}

// WriteJSON writes v as a JSON response.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// WriteError writes err as a failure envelope. Domain errors keep their
// code and message; anything else becomes an opaque 500.
func WriteError(w http.ResponseWriter, r *router.Request, err error) {
	code, message := domain.ErrInternalServer.Code, domain.ErrInternalServer.Message
	var de *domain.DomainError
	if errors.As(err, &de) {
		code, message = de.Code, de.Message
	}

	w.Header().Set("X-Error-Code", code)
	WriteJSON(w, StatusForCode(code), Response{
		Success:   false,
		Message:   message,
		Code:      code,
		RequestID: RequestID(r),
	})
}

// StatusForCode maps a domain error code to an HTTP status by its numeric
// suffix.
func StatusForCode(code string) int {
	switch {
	case strings.HasSuffix(code, "-4040"):
		return http.StatusNotFound
	case strings.HasSuffix(code, "-4090"):
		return http.StatusConflict
	case strings.HasSuffix(code, "-4290"):
		return http.StatusTooManyRequests
	case strings.HasSuffix(code, "-4010"), strings.HasSuffix(code, "-4011"):
		return http.StatusUnauthorized
	case strings.HasSuffix(code, "-4030"):
		return http.StatusForbidden
	case strings.HasSuffix(code, "-5030"):
		return http.StatusServiceUnavailable
	case strings.HasSuffix(code, "-4000"), strings.HasSuffix(code, "-4001"), strings.HasSuffix(code, "-4002"):
		return http.StatusBadRequest
	case strings.HasPrefix(code, "TG-ARG-"):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
