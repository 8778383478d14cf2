package cli

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func (c *commandContext) newConfigCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as YAML",
		Long: `Prints the configuration that "resolve" and "serve" would use after
combining the config file, the flags and the environment, with the module
mappings in the order they are tried.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			options, err := c.loadOptions(cmd)
			if err != nil {
				return err
			}
			text, err := options.ToYAML()
			if err != nil {
				return errors.Wrap(err, "failed to render configuration")
			}
			_, err = c.stdout.Write(text)
			return err
		},
	}
}
