// Package logger builds the process *slog.Logger.
//
// Attributes whose key names a credential (password, token, csrf and the
// like) are replaced with a placeholder, and bearer values are masked
// wherever they appear. Records logged with a context pick up the request
// id stored by WithRequestID. The level is shared and can be changed at
// runtime with SetLevel.
package logger
