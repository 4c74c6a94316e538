// Package storage persists user accounts.
//
// The default backend is an embedded Badger database wrapped by
// BadgerEngine (kv.go, badger.go). UserStore (users.go) layers the
// account repository on top of any KV implementation. A PostgreSQL
// backend lives in the sqlstore subpackage.
//
// Sessions, CSRF tokens and rate-limit entries are deliberately not
// stored here; they live only in process memory.
package storage
