package repl

import (
	"bytes"
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/yndnr/staffdesk-go/internal/core/domain"
)

type recorder struct {
	calls [][]string
	err   error
}

func (r *recorder) exec(_ context.Context, args []string) error {
	r.calls = append(r.calls, args)
	return r.err
}

func TestNew(t *testing.T) {
	r := New(nil)
	if r.completer == nil {
		t.Error("completer should be initialized")
	}
	if r.history == nil {
		t.Error("history should be initialized")
	}
	if r.Prompt() != DefaultPrompt {
		t.Errorf("Prompt() = %q", r.Prompt())
	}
}

func TestREPL_Run_Exit(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"exit command", "exit\n"},
		{"quit command", "quit\n"},
		{"EOF", ""},
		{"last line without newline", "exit"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &recorder{}
			r := New(rec.exec, WithIO(strings.NewReader(tt.input), &bytes.Buffer{}))
			if err := r.Run(context.Background()); err != nil {
				t.Errorf("Run() returned error: %v", err)
			}
			if len(rec.calls) != 0 {
				t.Errorf("executor called %d times", len(rec.calls))
			}
		})
	}
}

func TestREPL_Run_ExecutesLines(t *testing.T) {
	rec := &recorder{}
	out := &bytes.Buffer{}
	input := "\n  employee list --status pending \nleave request --reason 'family trip'\nexit\nignored\n"

	r := New(rec.exec, WithIO(strings.NewReader(input), out))
	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	want := [][]string{
		{"employee", "list", "--status", "pending"},
		{"leave", "request", "--reason", "family trip"},
	}
	if !reflect.DeepEqual(rec.calls, want) {
		t.Errorf("calls = %q, want %q", rec.calls, want)
	}
	if n := strings.Count(out.String(), DefaultPrompt); n != 4 {
		t.Errorf("prompts = %d, want 4", n)
	}
}

func TestREPL_Run_ReportsErrors(t *testing.T) {
	rec := &recorder{err: domain.ErrAuthenticationFailure.WithDetails("Invalid credentials")}
	out := &bytes.Buffer{}

	r := New(rec.exec, WithIO(strings.NewReader("login\nwhoami\n"), out))
	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(rec.calls) != 2 {
		t.Errorf("shell should continue after an error, calls = %d", len(rec.calls))
	}
	if !strings.Contains(out.String(), "Error: Invalid credentials\n") {
		t.Errorf("output = %q", out.String())
	}
}

func TestREPL_Run_UnterminatedQuote(t *testing.T) {
	rec := &recorder{}
	out := &bytes.Buffer{}

	r := New(rec.exec, WithIO(strings.NewReader("leave request --reason 'oops\n"), out))
	r.Run(context.Background())
	if len(rec.calls) != 0 {
		t.Error("malformed line must not be executed")
	}
	if !strings.Contains(out.String(), "unterminated quote") {
		t.Errorf("output = %q", out.String())
	}
}

func TestREPL_Run_CancelledContextStops(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	exec := func(context.Context, []string) error {
		cancel()
		return context.Canceled
	}
	out := &bytes.Buffer{}

	r := New(exec, WithIO(strings.NewReader("health\nhealth\n"), out))
	if err := r.Run(ctx); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if strings.Contains(out.String(), "Error:") {
		t.Errorf("cancellation should end the shell quietly, got %q", out.String())
	}
}

func TestREPL_HistoryBuiltin(t *testing.T) {
	rec := &recorder{}
	out := &bytes.Buffer{}
	h := NewHistory("", 10)

	r := New(rec.exec, WithIO(strings.NewReader("status\nstatus\nwhoami\nhistory\n"), out), WithHistory(h))
	r.Run(context.Background())

	if got := h.Entries(); !reflect.DeepEqual(got, []string{"status", "whoami", "history"}) {
		t.Errorf("history = %q", got)
	}
	if !strings.Contains(out.String(), "   2  whoami\n") {
		t.Errorf("history output = %q", out.String())
	}
}

func TestREPL_SetPrompt(t *testing.T) {
	out := &bytes.Buffer{}
	var r *REPL
	exec := func(context.Context, []string) error {
		r.SetPrompt("ada@hr.example.com> ")
		return nil
	}
	r = New(exec, WithIO(strings.NewReader("login\n"), out))
	r.Run(context.Background())

	if !strings.Contains(out.String(), "ada@hr.example.com> ") {
		t.Errorf("prompt not updated: %q", out.String())
	}
}

func TestREPL_ExecutorErrorIsNotFatal(t *testing.T) {
	rec := &recorder{err: errors.New("")}
	out := &bytes.Buffer{}
	r := New(rec.exec, WithIO(strings.NewReader("x\n"), out))
	r.Run(context.Background())
	if !strings.Contains(out.String(), "Error: An unexpected error occurred") {
		t.Errorf("output = %q", out.String())
	}
}
