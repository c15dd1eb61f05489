// Package output renders command results for the terminal.
//
// Results are printed as an aligned table (the default), JSON or YAML.
// Tables are derived from struct fields: the json tag names the column,
// `table:"-"` hides a field and `table:"wide"` shows it only with --wide.
// A Printer bundles the chosen formatter with the stdout and stderr
// writers a command uses, plus status-line helpers and a spinner for
// slow calls.
package output
