// Package output renders command results as a table, JSON or YAML.
//
// Values that know their columns implement Tabular; anything else is
// printed as JSON by the table formatter.
package output
