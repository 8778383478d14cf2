package cli

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/ngbazel/resolvebazel/internal/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	argConfig            = "config"
	argCwd               = "cwd"
	argLogLevel          = "log-level"
	argColor             = "color"
	argWorkspaceName     = "workspace-name"
	argRootDir           = "root-dir"
	argMapping           = "mapping"
	argNodeModulesRoot   = "node-modules-root"
	argResolveExtensions = "resolve-extensions"
	argExternal          = "external"
	argImporter          = "importer"
	argWatch             = "watch"
	argMaxConcurrency    = "max-concurrency"

	// Not a flag. Setting this environment variable to anything turns on
	// verbose logging unless a log level was given explicitly.
	envVerboseLogs = "verbose-logs"
)

type commandContext struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	viper *viper.Viper

	// Only valid once the flags have been parsed
	log logger.Log
}

// Run executes the command line (without the program name) and returns the
// process exit code.
func Run(osArgs []string, stdin io.Reader, stdout io.Writer, stderr io.Writer) int {
	c := &commandContext{
		stdin:  stdin,
		stdout: stdout,
		stderr: stderr,
		viper:  viper.New(),
	}

	c.viper.SetEnvPrefix("resolvebazel")
	c.viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	c.viper.AutomaticEnv()
	c.viper.BindEnv(envVerboseLogs, "VERBOSE_LOGS")

	root := c.newRootCommand()
	root.SetArgs(osArgs)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)

	if err := root.ExecuteContext(context.Background()); err != nil {
		// Errors from argument parsing happen before the log exists
		log := c.log
		if log.AddMsg == nil {
			log = c.newLog(logger.OutputOptionsForArgs(osArgs))
		}
		log.AddError(err.Error())
		log.Done()
		return 1
	}

	if c.log.AddMsg != nil {
		c.log.Done()
		if c.log.HasErrors() {
			return 1
		}
	}
	return 0
}

func (c *commandContext) newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "resolvebazel",
		Short: "Resolve import paths the way the TypeScript compiler mapped them",
		Long: `Resolves module import paths in compiled output back to files below the
root directory, using the same module mappings that were in effect when the
code was compiled. Anything that can't be resolved this way is left to the
bundler's node_modules resolution.`,
		SilenceErrors: true,
		SilenceUsage:  true,

		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := c.viper.BindPFlags(cmd.Flags()); err != nil {
				return err
			}
			options, err := c.outputOptions()
			if err != nil {
				return err
			}
			c.log = c.newLog(options)
			return nil
		},
	}

	flags := root.PersistentFlags()
	flags.String(argConfig, "", "A YAML or JSON file with the resolution configuration")
	flags.String(argCwd, "", "The working directory that the root directory is relative to (default is the current directory)")
	flags.String(argLogLevel, "info", "Logging level (verbose, debug, info, warning, error, silent)")
	flags.Bool(argColor, false, "Force use of color terminal escapes (true or false)")
	flags.String(argWorkspaceName, "", "The name of the enclosing workspace")
	flags.String(argRootDir, "", "The directory, relative to the working directory, that contains all module files")
	flags.StringArray(argMapping, nil, "A module mapping K=V from logical prefix K to target V (can be repeated, applied after the config file's mappings)")
	flags.String(argNodeModulesRoot, "", "The root of the node_modules tree used by the bundler")
	flags.StringSlice(argResolveExtensions, nil, "A comma-separated list of implicit extensions (default .js,.json,.node)")
	flags.StringArray(argExternal, nil, "A module name the bundler keeps external (can be repeated)")

	root.AddCommand(
		c.newResolveCommand(),
		c.newServeCommand(),
		c.newConfigCommand(),
	)
	return root
}

func (c *commandContext) outputOptions() (logger.OutputOptions, error) {
	options := logger.OutputOptions{LogLevel: logger.LevelInfo}

	if c.viper.IsSet(argColor) {
		if c.viper.GetBool(argColor) {
			options.Color = logger.ColorAlways
		} else {
			options.Color = logger.ColorNever
		}
	}

	if c.viper.IsSet(argLogLevel) {
		text := c.viper.GetString(argLogLevel)
		level, ok := logger.ParseLogLevel(text)
		if !ok {
			return options, invalidFlagError(argLogLevel, text, "verbose, debug, info, warning, error, silent")
		}
		options.LogLevel = level
	} else if c.viper.GetString(envVerboseLogs) != "" {
		options.LogLevel = logger.LevelVerbose
	}

	return options, nil
}

func (c *commandContext) newLog(options logger.OutputOptions) logger.Log {
	if file, ok := c.stderr.(*os.File); ok && file == os.Stderr {
		return logger.NewStderrLog(options)
	}
	return logger.NewWriterLog(c.stderr, options)
}
