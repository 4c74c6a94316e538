// Package cmap provides a sharded concurrent map. The connection server
// keeps its registry of live connections in one, written by the acceptor
// and by every worker without an outer lock.
//
// Keys are spread over a power-of-two number of shards with murmur3, each
// shard guarded by its own RWMutex.
//
//	m := cmap.New[*conn]()
//	m.Set(id, c)
//	m.Range(func(id string, c *conn) bool { ...; return true })
package cmap
