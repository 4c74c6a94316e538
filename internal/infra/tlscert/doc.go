// Package tlscert serves the listener certificate and reloads it when the
// certificate or key file changes on disk.
package tlscert
