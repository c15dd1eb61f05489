package repl

import (
	"slices"
	"strings"

	"github.com/urfave/cli/v2"
)

// Builtins are handled by the shell itself.
var Builtins = []string{"exit", "quit", "history", "help"}

// Completer completes command paths such as "employee list".
type Completer struct {
	commands []string
}

// NewCompleter creates a completer over the given command paths.
func NewCompleter(commands ...string) *Completer {
	c := &Completer{commands: append([]string(nil), commands...)}
	slices.Sort(c.commands)
	c.commands = slices.Compact(c.commands)
	return c
}

// FromCommands builds a completer from a command tree plus the builtins.
func FromCommands(cmds []*cli.Command) *Completer {
	var paths []string
	var walk func(prefix string, cmds []*cli.Command)
	walk = func(prefix string, cmds []*cli.Command) {
		for _, cmd := range cmds {
			if cmd.Hidden {
				continue
			}
			path := strings.TrimSpace(prefix + " " + cmd.Name)
			paths = append(paths, path)
			walk(path, cmd.Subcommands)
		}
	}
	walk("", cmds)
	return NewCompleter(append(paths, Builtins...)...)
}

// Complete returns the commands starting with prefix, sorted.
func (c *Completer) Complete(prefix string) []string {
	var suggestions []string
	for _, cmd := range c.commands {
		if strings.HasPrefix(cmd, prefix) {
			suggestions = append(suggestions, cmd)
		}
	}
	return suggestions
}

// AutoComplete is a term.Terminal AutoCompleteCallback. Tab at the end
// of the line extends it to the longest common prefix of the matches.
func (c *Completer) AutoComplete(line string, pos int, key rune) (string, int, bool) {
	if key != '\t' || pos != len(line) {
		return "", 0, false
	}
	matches := c.Complete(line)
	if len(matches) == 0 {
		return "", 0, false
	}

	completed := commonPrefix(matches)
	if len(matches) == 1 {
		completed += " "
	}
	if completed == line {
		return "", 0, false
	}
	return completed, len(completed), true
}

func commonPrefix(words []string) string {
	prefix := words[0]
	for _, w := range words[1:] {
		for !strings.HasPrefix(w, prefix) {
			prefix = prefix[:len(prefix)-1]
		}
	}
	return prefix
}
