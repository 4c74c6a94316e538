// Package config provides server configuration for tokgate.
//
//   - spec.go: ServerConfig struct definition
//   - default.go: default values
//   - verify.go: validation (addresses, TLS files, storage driver)
//   - sanitize.go: masking of secrets before logging
//
// Configuration is loaded via internal/infra/confloader from a YAML file
// and TOKGATE_ environment variables.
package config
