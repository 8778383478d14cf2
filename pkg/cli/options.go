package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ngbazel/resolvebazel/internal/config"
	"github.com/ngbazel/resolvebazel/internal/fs"
	"github.com/ngbazel/resolvebazel/internal/resolver"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func invalidFlagError(name string, value string, valid string) error {
	return fmt.Errorf("Invalid value %q in \"--%s=%s\" (valid: %s)", value, name, value, valid)
}

func parseModuleMapping(text string) (config.ModuleMapping, error) {
	equals := strings.IndexByte(text, '=')
	if equals == -1 {
		return config.ModuleMapping{}, fmt.Errorf("Missing \"=\" in \"--%s=%s\" (expected K=V)", argMapping, text)
	}
	return config.ModuleMapping{Prefix: text[:equals], Target: text[equals+1:]}, nil
}

// Settings come from the config file first. Flags (or the matching
// "RESOLVEBAZEL_*" environment variables) override them, except for module
// mappings and externals which are appended so that the file's entries keep
// their priority.
func (c *commandContext) loadOptions(cmd *cobra.Command) (config.Options, error) {
	var options config.Options

	if path := c.viper.GetString(argConfig); path != "" {
		var err error
		if options, err = config.LoadFile(path); err != nil {
			return config.Options{}, err
		}
	}

	if c.viper.IsSet(argWorkspaceName) {
		options.WorkspaceName = c.viper.GetString(argWorkspaceName)
	}
	if c.viper.IsSet(argRootDir) {
		options.RootDir = c.viper.GetString(argRootDir)
	}
	if c.viper.IsSet(argNodeModulesRoot) {
		options.NodeModulesRoot = c.viper.GetString(argNodeModulesRoot)
	}
	if c.viper.IsSet(argResolveExtensions) {
		options.ResolveExtensions = c.viper.GetStringSlice(argResolveExtensions)
	}

	mappings, err := cmd.Flags().GetStringArray(argMapping)
	if err != nil {
		return config.Options{}, err
	}
	for _, text := range mappings {
		mapping, err := parseModuleMapping(text)
		if err != nil {
			return config.Options{}, err
		}
		options.ModuleMappings = append(options.ModuleMappings, mapping)
	}

	external, err := cmd.Flags().GetStringArray(argExternal)
	if err != nil {
		return config.Options{}, err
	}
	options.External = append(options.External, external...)

	if err := options.Validate(); err != nil {
		return config.Options{}, errors.Wrap(err, "invalid configuration")
	}
	options.ApplyDefaults()
	return options, nil
}

func (c *commandContext) newFS() (fs.FS, error) {
	cwd := c.viper.GetString(argCwd)
	if cwd != "" {
		absCwd, err := filepath.Abs(cwd)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid working directory %v", cwd)
		}
		cwd = absCwd
	}
	realFS, err := fs.RealFS(fs.RealFSOptions{AbsWorkingDir: cwd})
	if err != nil {
		return nil, errors.Wrap(err, "failed to determine the working directory")
	}
	return realFS, nil
}

func (c *commandContext) newResolver(cmd *cobra.Command) (*resolver.Resolver, fs.FS, error) {
	options, err := c.loadOptions(cmd)
	if err != nil {
		return nil, nil, err
	}
	realFS, err := c.newFS()
	if err != nil {
		return nil, nil, err
	}
	return resolver.NewResolver(realFS, c.log, options), realFS, nil
}
