// Package httpserver is the connection-level HTTP/1.1 server.
//
// One goroutine accepts connections and submits each to a bounded worker
// pool. A worker reads a single request with net/http.ReadRequest,
// dispatches it through the router, writes a buffered response with
// Content-Length and "Connection: close", and closes the connection.
// Keep-alive, pipelining and chunked responses are not supported.
//
// The package also provides the router middleware used by the
// application: request ids, per-address rate limiting, bearer-token
// session authentication and CSRF verification.
package httpserver
