package output

import (
	"fmt"
	"io"
	"os"
	"sync"

	"golang.org/x/term"
)

// Printer is what commands write through.
type Printer struct {
	Out io.Writer
	Err io.Writer

	mu        sync.RWMutex
	format    Format
	opts      Options
	formatter Formatter
	// interactive enables spinners and color when Err is a terminal.
	interactive bool
}

// NewPrinter creates a printer. Color and spinners are only used when
// errOut is a terminal.
func NewPrinter(out, errOut io.Writer, format Format, opts Options) *Printer {
	p := &Printer{Out: out, Err: errOut, interactive: isTerminal(errOut)}
	p.SetFormat(format, opts)
	return p
}

// SetFormat switches the output format.
func (p *Printer) SetFormat(format Format, opts Options) {
	if !isTerminal(p.Out) {
		opts.NoColor = true
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.format = format
	p.opts = opts
	p.formatter = NewFormatter(format, opts)
}

// Format returns the current output format.
func (p *Printer) Format() Format {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.format
}

// Options returns the formatter options in effect.
func (p *Printer) Options() Options {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.opts
}

// Structured reports whether output is meant for machines.
func (p *Printer) Structured() bool {
	f := p.Format()
	return f == FormatJSON || f == FormatYAML
}

// Print renders data with the current formatter.
func (p *Printer) Print(data any) error {
	p.mu.RLock()
	f := p.formatter
	p.mu.RUnlock()
	return f.Format(p.Out, data)
}

// Successf prints a confirmation line. It is silent in structured
// output modes.
func (p *Printer) Successf(format string, args ...any) {
	if p.Structured() {
		return
	}
	fmt.Fprintf(p.Out, "✓ "+format+"\n", args...)
}

// Infof prints an informational line to stdout in table mode.
func (p *Printer) Infof(format string, args ...any) {
	if p.Structured() {
		return
	}
	fmt.Fprintf(p.Out, format+"\n", args...)
}

// Warnf prints a warning to stderr.
func (p *Printer) Warnf(format string, args ...any) {
	fmt.Fprintf(p.Err, "Warning: "+format+"\n", args...)
}

// Errorf prints an error to stderr.
func (p *Printer) Errorf(format string, args ...any) {
	fmt.Fprintf(p.Err, "Error: "+format+"\n", args...)
}

// Spinner starts a spinner on stderr.
func (p *Printer) Spinner(message string) *Spinner {
	return NewSpinner(p.Err, message, p.interactive).Start()
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}
