package repl

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"golang.org/x/term"

	"github.com/yndnr/staffdesk-go/pkg/envelope"
)

// DefaultPrompt is shown until SetPrompt is called.
const DefaultPrompt = "staffdesk> "

// Executor runs one parsed line.
type Executor func(ctx context.Context, args []string) error

// Option configures a REPL.
type Option func(*REPL)

// WithIO sets the streams. in may be a *bufio.Reader shared with
// prompts issued by the commands themselves.
func WithIO(in io.Reader, out io.Writer) Option {
	return func(r *REPL) {
		r.input = in
		r.output = out
	}
}

// WithHistory sets the history.
func WithHistory(h *History) Option {
	return func(r *REPL) { r.history = h }
}

// WithCompleter sets the tab completer.
func WithCompleter(c *Completer) Option {
	return func(r *REPL) { r.completer = c }
}

// REPL represents the Read-Eval-Print Loop.
type REPL struct {
	exec      Executor
	input     io.Reader
	output    io.Writer
	completer *Completer
	history   *History

	mu     sync.Mutex
	prompt string
}

// New creates a REPL running lines through exec.
func New(exec Executor, opts ...Option) *REPL {
	r := &REPL{
		exec:      exec,
		input:     os.Stdin,
		output:    os.Stdout,
		completer: NewCompleter(Builtins...),
		history:   NewHistory("", 0),
		prompt:    DefaultPrompt,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// SetPrompt replaces the prompt. It is safe to call from any goroutine.
func (r *REPL) SetPrompt(p string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.prompt = p
}

// Prompt returns the current prompt.
func (r *REPL) Prompt() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.prompt
}

// History returns the shell history.
func (r *REPL) History() *History {
	return r.history
}

// Run reads lines until exit, EOF or ctx is done. On a terminal the
// line is edited in raw mode with history and tab completion.
func (r *REPL) Run(ctx context.Context) error {
	if f, ok := r.input.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return r.runTerminal(ctx, int(f.Fd()))
	}
	return r.runLines(ctx)
}

func (r *REPL) runLines(ctx context.Context) error {
	reader, ok := r.input.(*bufio.Reader)
	if !ok {
		reader = bufio.NewReader(r.input)
	}

	for ctx.Err() == nil {
		fmt.Fprint(r.output, r.Prompt())

		line, err := reader.ReadString('\n')
		if err != nil && (err != io.EOF || line == "") {
			if err == io.EOF {
				fmt.Fprintln(r.output)
				return nil
			}
			return err
		}

		r.history.Add(line)
		if r.handle(ctx, line) {
			return nil
		}
	}
	return nil
}

func (r *REPL) runTerminal(ctx context.Context, fd int) error {
	state, err := term.MakeRaw(fd)
	if err != nil {
		return r.runLines(ctx)
	}
	defer term.Restore(fd, state)

	t := term.NewTerminal(struct {
		io.Reader
		io.Writer
	}{r.input, r.output}, r.Prompt())
	t.History = r.history
	t.AutoCompleteCallback = r.completer.AutoComplete
	if w, h, err := term.GetSize(fd); err == nil {
		t.SetSize(w, h)
	}

	for ctx.Err() == nil {
		t.SetPrompt(r.Prompt())
		line, err := t.ReadLine()
		if err == io.EOF {
			fmt.Fprintln(t)
			return nil
		}
		if err != nil {
			return err
		}

		// Commands print with plain newlines, which need cooked mode.
		term.Restore(fd, state)
		stop := r.handle(ctx, line)
		if _, err := term.MakeRaw(fd); err != nil {
			return err
		}
		if stop {
			return nil
		}
	}
	return nil
}

// handle runs one line and reports whether the shell should exit.
func (r *REPL) handle(ctx context.Context, line string) bool {
	args, err := Split(strings.TrimSpace(line))
	if err != nil {
		fmt.Fprintf(r.output, "Error: %v\n", err)
		return false
	}
	if len(args) == 0 {
		return false
	}

	switch args[0] {
	case "exit", "quit":
		return true
	case "history":
		for i, entry := range r.history.Entries() {
			fmt.Fprintf(r.output, "%4d  %s\n", i+1, entry)
		}
		return false
	}

	if err := r.exec(ctx, args); err != nil {
		if errors.Is(err, context.Canceled) && ctx.Err() != nil {
			return true
		}
		fmt.Fprintf(r.output, "Error: %s\n", envelope.ExtractErrorMessage(err))
	}
	return false
}
