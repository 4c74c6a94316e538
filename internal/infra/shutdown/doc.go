// Package shutdown coordinates graceful process termination.
//
// Components register named hooks as they start. On SIGINT or SIGTERM, or
// when the parent context ends, hooks run in reverse registration order
// under a shared deadline so the listener closes before the worker pool
// drains and the pool drains before storage closes.
package shutdown
