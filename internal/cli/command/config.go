package command

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/synckit-go/internal/cli/output"
)

// ConfigCommand returns the config subcommand group.
func ConfigCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Configuration management",
		Subcommands: []*cli.Command{
			{
				Name:   "show",
				Usage:  "Print the effective configuration as YAML",
				Action: configShow,
			},
			{
				Name:   "validate",
				Usage:  "Load and validate the configuration",
				Action: configValidate,
			},
		},
	}
}

func configShow(c *cli.Context) error {
	e, err := setup(c)
	if err != nil {
		return err
	}
	return (&output.YAMLFormatter{}).Format(c.App.Writer, e.cfg)
}

func configValidate(c *cli.Context) error {
	if _, err := setup(c); err != nil {
		return err
	}
	source := c.String("config")
	if source == "" {
		source = "defaults and environment"
	}
	fmt.Fprintf(c.App.Writer, "configuration is valid (%s)\n", source)
	return nil
}
