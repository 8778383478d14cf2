package cli

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const unresolvedText = "<unresolved>"

func (c *commandContext) newResolveCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resolve [import paths...]",
		Short: "Resolve each import path and print one result per line",
		Long: `Resolves each import path as if it were imported from the file given by
--importer and prints one line per import path: either the resolved file or
"` + unresolvedText + `" if the bundler should resolve it itself.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, _, err := c.newResolver(cmd)
			if err != nil {
				return err
			}
			importer := c.viper.GetString(argImporter)
			limit := c.viper.GetInt(argMaxConcurrency)
			if limit < 1 {
				limit = 1
			}

			// Resolve concurrently but print in the order the paths were given
			lines := make([]string, len(args))
			g, ctx := errgroup.WithContext(cmd.Context())
			g.SetLimit(limit)
			for i, importPath := range args {
				i, importPath := i, importPath
				g.Go(func() error {
					if err := ctx.Err(); err != nil {
						return err
					}
					result, err := res.Resolve(importPath, importer)
					if err != nil {
						return err
					}
					if result == nil {
						lines[i] = unresolvedText
					} else {
						lines[i] = result.Path
					}
					return nil
				})
			}
			if err := g.Wait(); err != nil {
				return err
			}

			_, err = fmt.Fprintln(c.stdout, strings.Join(lines, "\n"))
			return err
		},
	}

	cmd.Flags().String(argImporter, "", "The absolute path of the importing file")
	cmd.Flags().Int(argMaxConcurrency, runtime.GOMAXPROCS(0), "The maximum number of import paths resolved at once")
	return cmd
}
