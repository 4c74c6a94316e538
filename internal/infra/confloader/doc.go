// Package confloader loads configuration from a YAML file and environment
// variables using koanf.
//
// Priority (highest to lowest):
//
//  1. Environment variables (TOKGATE_SECTION_KEY)
//  2. Configuration file
//  3. Values already present in the target struct
//
// Watcher reports changes to the configuration file so that reloadable
// settings such as the log level can be applied without a restart.
package confloader
