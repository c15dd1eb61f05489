package command

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v2"
	"golang.org/x/term"

	"github.com/yndnr/staffdesk-go/internal/core/domain"
)

// terminalFd returns the descriptor of r when it is an interactive terminal.
func terminalFd(r io.Reader) (int, bool) {
	f, ok := r.(*os.File)
	if !ok {
		return 0, false
	}
	fd := int(f.Fd())
	return fd, term.IsTerminal(fd)
}

// promptLine asks for a value on stderr and reads one line.
func promptLine(rt *Runtime, label string) (string, error) {
	fmt.Fprintf(rt.Printer.Err, "%s: ", label)
	line, err := rt.Input().ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", domain.ErrMissingArgument.WithDetails(strings.ToLower(label) + " is required")
	}
	return strings.TrimSpace(line), nil
}

// promptSecret reads a value without echo when In is a terminal.
func promptSecret(rt *Runtime, label string) (string, error) {
	fd, ok := terminalFd(rt.In)
	if !ok {
		return promptLine(rt, label)
	}
	fmt.Fprintf(rt.Printer.Err, "%s: ", label)
	secret, err := term.ReadPassword(fd)
	fmt.Fprintln(rt.Printer.Err)
	if err != nil {
		return "", err
	}
	return string(secret), nil
}

// valueOrPrompt returns the flag value, prompting when it is empty.
func valueOrPrompt(rt *Runtime, value, label string, secret bool) (string, error) {
	if value != "" {
		return value, nil
	}
	if secret {
		return promptSecret(rt, label)
	}
	return promptLine(rt, label)
}

// confirm asks a yes/no question unless --force is set.
func confirm(rt *Runtime, force bool, question string) (bool, error) {
	if force {
		return true, nil
	}
	answer, err := promptLine(rt, question+" [y/N]")
	if err != nil {
		return false, err
	}
	switch strings.ToLower(answer) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}

var forceFlag = &cli.BoolFlag{
	Name:    "force",
	Aliases: []string{"f"},
	Usage:   "Skip confirmation",
}
