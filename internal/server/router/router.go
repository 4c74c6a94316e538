package router

import (
	"net/http"
	"strings"
	"sync/atomic"
)

// Handler serves a matched request.
type Handler func(w http.ResponseWriter, r *Request, ps Params)

// Middleware runs before a handler. Returning false stops the chain; the
// middleware is then responsible for the response.
type Middleware func(w http.ResponseWriter, r *Request) bool

type route struct {
	method     string
	pattern    string
	handler    Handler
	middleware []Middleware
	hasParams  bool
}

// RouteInfo describes a registered route.
type RouteInfo struct {
	Method  string
	Pattern string
}

// Router holds the route table and global middleware.
//
// Routes and middleware are registered during setup. The first Dispatch
// seals the table; registering afterwards panics.
type Router struct {
	routes []route
	global []Middleware
	sealed atomic.Bool
}

// New creates an empty router.
func New() *Router {
	return &Router{}
}

// Register adds a route with no route-specific middleware.
func (rt *Router) Register(method, pattern string, h Handler) {
	rt.RegisterWithMiddleware(method, pattern, h)
}

// RegisterWithMiddleware adds a route whose middleware runs, in order,
// after the global middleware and before h.
func (rt *Router) RegisterWithMiddleware(method, pattern string, h Handler, mws ...Middleware) {
	rt.mustBeOpen()
	if h == nil {
		panic("router: nil handler for " + method + " " + pattern)
	}
	rt.routes = append(rt.routes, route{
		method:     method,
		pattern:    pattern,
		handler:    h,
		middleware: append([]Middleware(nil), mws...),
		hasParams:  strings.IndexByte(pattern, ':') >= 0,
	})
}

// Use appends global middleware, run for every request in registration
// order.
func (rt *Router) Use(mw Middleware) {
	rt.mustBeOpen()
	rt.global = append(rt.global, mw)
}

// Routes returns the registered routes in registration order.
func (rt *Router) Routes() []RouteInfo {
	out := make([]RouteInfo, len(rt.routes))
	for i, r := range rt.routes {
		out[i] = RouteInfo{Method: r.method, Pattern: r.pattern}
	}
	return out
}

// Dispatch runs the global middleware, then the first route whose method
// and pattern match. Unmatched requests get NotFound.
func (rt *Router) Dispatch(w http.ResponseWriter, r *Request) {
	rt.sealed.Store(true)

	for _, mw := range rt.global {
		if !mw(w, r) {
			return
		}
	}

	for i := range rt.routes {
		route := &rt.routes[i]
		if route.method != r.Method {
			continue
		}

		var ps Params
		if route.hasParams {
			if !matchPattern(route.pattern, r.Path, &ps) {
				continue
			}
		} else if route.pattern != r.Path {
			continue
		}

		for _, mw := range route.middleware {
			if !mw(w, r) {
				return
			}
		}
		route.handler(w, r, ps)
		return
	}

	NotFound(w)
}

// NotFound writes the fixed 404 response.
func NotFound(w http.ResponseWriter) {
	h := w.Header()
	h.Set("Content-Type", "text/plain")
	h.Set("Connection", "close")
	w.WriteHeader(http.StatusNotFound)
	w.Write([]byte("Not Found"))
}

func (rt *Router) mustBeOpen() {
	if rt.sealed.Load() {
		panic("router: route table is read-only while serving")
	}
}
