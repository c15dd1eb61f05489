package command

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/staffdesk-go/internal/cli/config"
	"github.com/yndnr/staffdesk-go/internal/cli/output"
)

// ConfigCommand returns the config subcommand group. None of its
// commands needs a reachable backend.
func ConfigCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Inspect and edit the CLI configuration",
		Subcommands: []*cli.Command{
			{
				Name:   "show",
				Usage:  "Show the merged configuration",
				Action: configShow,
			},
			{
				Name:   "path",
				Usage:  "Print the configuration file path",
				Action: configPath,
			},
			{
				Name:  "init",
				Usage: "Write a configuration file with the defaults",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "api-url", Usage: "Backend base URL to store"},
					forceFlag,
				},
				Action: configInit,
			},
			{
				Name:      "set",
				Usage:     "Set one key in the configuration file",
				ArgsUsage: "KEY VALUE",
				BashComplete: func(c *cli.Context) {
					for _, k := range config.Keys() {
						fmt.Fprintln(c.App.Writer, k)
					}
				},
				Action: configSet,
			},
		},
	}
}

// firstString returns the innermost non-empty value of a flag defined
// on several levels.
func firstString(c *cli.Context, name string) string {
	for _, ctx := range c.Lineage() {
		if v := ctx.String(name); v != "" {
			return v
		}
	}
	return ""
}

func configFile(c *cli.Context) string {
	if p := c.String("config"); p != "" {
		return p
	}
	return config.DefaultPath()
}

// configPrinter prints without a Runtime, which needs a valid config.
func configPrinter(c *cli.Context) (*output.Printer, error) {
	name := c.String("output")
	if name == "" {
		name = string(output.FormatYAML)
	}
	format, err := output.ParseFormat(name)
	if err != nil {
		return nil, err
	}
	return output.NewPrinter(c.App.Writer, c.App.ErrWriter, format, output.Options{NoColor: c.Bool("no-color")}), nil
}

func configShow(c *cli.Context) error {
	cfg, _, err := config.LoadUnchecked(loadOptions(c))
	if err != nil {
		return err
	}
	p, err := configPrinter(c)
	if err != nil {
		return err
	}
	if err := p.Print(cfg); err != nil {
		return err
	}
	if verr := config.Validate(cfg); verr != nil {
		p.Warnf("%v", verr)
	}
	return nil
}

func configPath(c *cli.Context) error {
	path := configFile(c)
	state := "exists"
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		state = "not created yet"
	}
	fmt.Fprintf(c.App.Writer, "%s (%s)\n", path, state)
	return nil
}

func configInit(c *cli.Context) error {
	path := configFile(c)
	if _, err := os.Stat(path); err == nil && !c.Bool("force") {
		return fmt.Errorf("%s already exists, use --force to overwrite", path)
	}

	cfg := config.Default()
	cfg.API.URL = firstString(c, "api-url")
	if err := config.Save(cfg, path); err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "Wrote %s\n", path)
	if cfg.API.URL == "" {
		fmt.Fprintf(c.App.ErrWriter, "Warning: set the backend with `staffdesk config set api.url <URL>` or %s\n", config.EnvAPIURL)
	}
	return nil
}

func configSet(c *cli.Context) error {
	if c.NArg() != 2 {
		return fmt.Errorf("usage: staffdesk config set KEY VALUE (keys: %v)", config.Keys())
	}
	key, value := c.Args().Get(0), c.Args().Get(1)
	cfg, err := config.SetKey(configFile(c), key, value)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "Set %s\n", key)
	if verr := config.Validate(cfg); verr != nil {
		fmt.Fprintf(c.App.ErrWriter, "Warning: %v\n", verr)
	}
	return nil
}
