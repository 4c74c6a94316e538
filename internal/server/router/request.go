package router

import (
	"context"
	"net/http"
	"net/url"
	"strings"
)

// Request is a parsed HTTP request as seen by middleware and handlers.
type Request struct {
	Method   string
	Path     string
	RawQuery string
	Proto    string
	Header   http.Header
	Body     []byte

	// RemoteAddr is the peer address of the connection.
	RemoteAddr string

	ctx  context.Context
	form url.Values
}

// NewRequest converts a net/http request whose body has already been read
// into body.
func NewRequest(r *http.Request, body []byte) *Request {
	return &Request{
		Method:     r.Method,
		Path:       r.URL.Path,
		RawQuery:   r.URL.RawQuery,
		Proto:      r.Proto,
		Header:     r.Header,
		Body:       body,
		RemoteAddr: r.RemoteAddr,
		ctx:        r.Context(),
	}
}

// Context returns the request context.
func (r *Request) Context() context.Context {
	if r.ctx == nil {
		return context.Background()
	}
	return r.ctx
}

// SetValue attaches a request-scoped value visible to later middleware
// and the handler.
func (r *Request) SetValue(key, value any) {
	r.ctx = context.WithValue(r.Context(), key, value)
}

// SetContext replaces the request context.
func (r *Request) SetContext(ctx context.Context) {
	r.ctx = ctx
}

// Value returns a value set with SetValue.
func (r *Request) Value(key any) any {
	return r.Context().Value(key)
}

// FormValue returns the first value for name from a form-encoded body,
// falling back to the query string.
func (r *Request) FormValue(name string) string {
	if r.form == nil {
		r.form = url.Values{}
		if q, err := url.ParseQuery(r.RawQuery); err == nil {
			for k, v := range q {
				r.form[k] = v
			}
		}
		if isFormBody(r.Header.Get("Content-Type")) {
			if b, err := url.ParseQuery(string(r.Body)); err == nil {
				for k, v := range b {
					// body values take precedence
					r.form[k] = append(v, r.form[k]...)
				}
			}
		}
	}
	return r.form.Get(name)
}

func isFormBody(contentType string) bool {
	if contentType == "" {
		return true
	}
	mt, _, _ := strings.Cut(contentType, ";")
	return strings.EqualFold(strings.TrimSpace(mt), "application/x-www-form-urlencoded")
}
