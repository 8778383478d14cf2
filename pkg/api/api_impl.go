package api

import (
	"sync"

	"github.com/ngbazel/resolvebazel/internal/config"
	"github.com/ngbazel/resolvebazel/internal/fs"
	"github.com/ngbazel/resolvebazel/internal/logger"
	"github.com/ngbazel/resolvebazel/internal/resolver"
	"github.com/ngbazel/resolvebazel/internal/watcher"
	"github.com/pkg/errors"
)

func validateColor(value StderrColor) logger.UseColor {
	switch value {
	case ColorIfTerminal:
		return logger.ColorIfTerminal
	case ColorNever:
		return logger.ColorNever
	case ColorAlways:
		return logger.ColorAlways
	default:
		panic("Invalid color")
	}
}

func validateLogLevel(value LogLevel) logger.LogLevel {
	switch value {
	case LogLevelVerbose:
		return logger.LevelVerbose
	case LogLevelDebug:
		return logger.LevelDebug
	case LogLevelInfo:
		return logger.LevelInfo
	case LogLevelWarning:
		return logger.LevelWarning
	case LogLevelError:
		return logger.LevelError
	case LogLevelSilent:
		return logger.LevelSilent
	default:
		panic("Invalid log level")
	}
}

func validateModuleMappings(value []ModuleMapping) []config.ModuleMapping {
	if value == nil {
		return nil
	}
	mappings := make([]config.ModuleMapping, len(value))
	for i, mapping := range value {
		mappings[i] = config.ModuleMapping{Prefix: mapping.Prefix, Target: mapping.Target}
	}
	return mappings
}

func validateOptions(options Options) (config.Options, error) {
	result := config.Options{
		WorkspaceName:     options.WorkspaceName,
		RootDir:           options.RootDir,
		ModuleMappings:    validateModuleMappings(options.ModuleMappings),
		NodeModulesRoot:   options.NodeModulesRoot,
		ResolveExtensions: append([]string{}, options.ResolveExtensions...),
		ScriptExtension:   options.ScriptExtension,
		ModuleExtension:   options.ModuleExtension,
		External:          append([]string{}, options.External...),
	}
	if err := result.Validate(); err != nil {
		return config.Options{}, err
	}
	result.ApplyDefaults()
	return result, nil
}

func newPluginImpl(options Options) (Plugin, error) {
	configOptions, err := validateOptions(options)
	if err != nil {
		return Plugin{}, err
	}

	log := logger.NewStderrLog(logger.OutputOptions{
		Color:    validateColor(options.Color),
		LogLevel: validateLogLevel(options.LogLevel),
	})

	realFS, err := fs.RealFS(fs.RealFSOptions{
		AbsWorkingDir: options.AbsWorkingDir,

		// Without a cache of answers there is nothing to reset the listings
		DoNotCache: !(options.Cache || options.Watch),
	})
	if err != nil {
		return Plugin{}, errors.Wrap(err, "failed to determine the working directory")
	}

	res := resolver.NewResolver(realFS, log, configOptions)
	var resolve resolver.Interface = res
	var w *watcher.Watcher

	if options.Cache || options.Watch {
		cache := resolver.NewCache(res)
		resolve = cache

		if options.Watch {
			rootDir := realFS.Join(realFS.Cwd(), configOptions.RootDir)
			w, err = watcher.New(log, rootDir, cache.Invalidate)
			if err != nil {
				return Plugin{}, err
			}
		}
	}

	var disposeOnce sync.Once

	return Plugin{
		Name: PluginName,

		ResolveID: func(importee string, importer string) (string, bool, error) {
			result, err := resolve.Resolve(importee, importer)
			if err != nil {
				return "", false, err
			}
			if result == nil {
				return "", false, nil
			}
			return result.Path, true, nil
		},

		Dispose: func() {
			disposeOnce.Do(func() {
				if w != nil {
					if err := w.Close(); err != nil {
						log.AddWarning(err.Error())
					}
				}
			})
		},
	}, nil
}
