// Package command defines the tokgate command line with urfave/cli/v2.
//
//   - root.go: App, global flags
//   - serve.go: the server process and its wiring
//   - user.go: offline account administration
//   - config.go: effective configuration display and validation
//   - env.go: configuration, logging and storage setup shared by commands
package command
