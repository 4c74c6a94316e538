// Package localserver opens the Unix socket used for local administration.
//
// The socket is served by an httpserver.Server with the admin routes only
// (health and metrics), so scrapers and operators on the host bypass the
// public listener and its rate limiting. Access is controlled by file
// permissions.
package localserver
