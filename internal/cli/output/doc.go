// Package output renders command results as a table, JSON or YAML.
//
// Struct fields take their column names from the json tag. The table tag
// adjusts rendering: "-" hides a field, "wide" shows it only in wide mode,
// and "bytes" prints an integer as a human-readable size.
package output
