package main

import (
	"context"
	"os"

	"github.com/yndnr/staffdesk-go/internal/cli/command"
)

func main() {
	os.Exit(command.Run(context.Background(), os.Args, os.Stdin, os.Stdout, os.Stderr))
}
