package api

import (
	"github.com/ngbazel/resolvebazel/internal/resolver"
)

type StderrColor uint8

const (
	ColorIfTerminal StderrColor = iota
	ColorNever
	ColorAlways
)

type LogLevel uint8

const (
	LogLevelSilent LogLevel = iota
	LogLevelVerbose
	LogLevelDebug
	LogLevelInfo
	LogLevelWarning
	LogLevelError
)

type ModuleMapping struct {
	Prefix string
	Target string
}

type Options struct {
	Color    StderrColor
	LogLevel LogLevel

	// Defaults to the process working directory
	AbsWorkingDir string

	WorkspaceName     string
	RootDir           string
	ModuleMappings    []ModuleMapping
	NodeModulesRoot   string
	ResolveExtensions []string
	External          []string

	// A lookup ending in ScriptExtension (".js" by default) is swapped for a
	// sibling ending in ModuleExtension (".mjs" by default) when one exists
	ScriptExtension string
	ModuleExtension string

	// Remember every answer for the lifetime of the plugin
	Cache bool

	// Forget remembered answers when files below the root directory change.
	// This implies "Cache". Call "Dispose" to stop watching.
	Watch bool
}

// This is the error returned for a relative import path without an importer
type RelativeImportError = resolver.RelativeImportError

type Plugin struct {
	Name string

	// Returns the resolved path with "ok" set to true, or "ok" set to false if
	// the bundler should resolve the import path itself. The error is only set
	// for import paths that can never be resolved.
	ResolveID func(importee string, importer string) (path string, ok bool, err error)

	// Releases the file watcher, if any. Safe to call more than once.
	Dispose func()
}

const PluginName = "resolveBazel"

func NewPlugin(options Options) (Plugin, error) {
	return newPluginImpl(options)
}
