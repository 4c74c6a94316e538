// Package buildinfo exposes version information for the tokgate binary.
//
// Values are injected at build time via ldflags:
//
//	go build -ldflags "-X github.com/yndnr/tokgate/internal/infra/buildinfo.Version=v1.0.0"
//
// When Commit is not injected it is read from the module's VCS stamp.
package buildinfo
