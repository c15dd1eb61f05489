// Package repl provides the interactive shell of the staffdesk CLI.
//
//   - repl.go: read-eval-print loop, raw terminal line editing
//   - completer.go: tab completion over the command tree
//   - history.go: persistent command history
//   - split.go: shell-style argument splitting
//
// Lines are split into arguments and handed to an Executor, which in the
// CLI runs them through the same cli.App as one-shot invocations.
package repl
