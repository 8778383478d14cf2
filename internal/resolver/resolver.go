package resolver

// This resolver reproduces the path mapping that the TypeScript compiler
// applied when the code was compiled, so that the compiled output can still be
// bundled. Short logical module names are mapped onto physical locations below
// the root directory, relative imports are rebased into the root directory,
// and anything left over is handed back to the bundler's generic resolution.

import (
	"fmt"

	"github.com/ngbazel/resolvebazel/internal/config"
	"github.com/ngbazel/resolvebazel/internal/fs"
	"github.com/ngbazel/resolvebazel/internal/helpers"
	"github.com/ngbazel/resolvebazel/internal/logger"
)

type Rule uint8

const (
	// The import path named an existing file as written
	RuleLiteral Rule = iota

	// "./x" or "../x" relative to the importer
	RuleRelative

	// Matched an entry in the module mapping table
	RuleMapped

	// Written relative to the workspace name, or a bare path below the root
	RuleWorkspace
)

func (rule Rule) String() string {
	switch rule {
	case RuleLiteral:
		return "literal"
	case RuleRelative:
		return "relative"
	case RuleMapped:
		return "mapped"
	case RuleWorkspace:
		return "workspace"
	default:
		panic("Internal error")
	}
}

type ResolveResult struct {
	Path string
	Rule Rule

	// The prefix of the mapping that matched, only set for "RuleMapped"
	MappingPrefix string

	// True if a module-variant sibling replaced the file that was found
	IsModuleVariant bool
}

// This is returned for a relative import path without an importer. There is
// nothing to rebase the path onto, so this is a hard failure rather than a
// reason to fall back to the bundler's own resolution.
type RelativeImportError struct {
	ImportPath string
}

func (e *RelativeImportError) Error() string {
	return fmt.Sprintf("Cannot resolve relative path %q without an importer", e.ImportPath)
}

// Both the plain resolver and the memoizing cache implement this
type Interface interface {
	Resolve(importPath string, importer string) (*ResolveResult, error)
}

type Resolver struct {
	fs      fs.FS
	log     logger.Log
	options config.Options

	// The absolute form of "options.RootDir"
	rootDir string
}

var _ Interface = (*Resolver)(nil)

type resolverQuery struct {
	*Resolver
	debugLogs *debugLogs
}

func NewResolver(fs fs.FS, log logger.Log, options config.Options) *Resolver {
	// Copy the slices so that the caller can't mutate our configuration later
	options.ModuleMappings = append([]config.ModuleMapping{}, options.ModuleMappings...)
	options.ResolveExtensions = append([]string{}, options.ResolveExtensions...)
	options.External = append([]string{}, options.External...)
	options.ApplyDefaults()

	return &Resolver{
		fs:      fs,
		log:     log,
		options: options,
		rootDir: fs.Join(fs.Cwd(), options.RootDir),
	}
}

func (res *Resolver) Options() config.Options {
	return res.options
}

// Resolve returns the file that "importPath" denotes when imported from the
// file "importer". An empty importer means there is no importing file (e.g.
// for an entry point). A nil result with a nil error means that none of the
// rules applied and the bundler should use its own resolution instead.
func (res *Resolver) Resolve(importPath string, importer string) (*ResolveResult, error) {
	r := resolverQuery{Resolver: res}
	if r.log.Level <= logger.LevelDebug {
		if importer == "" {
			r.debugLogs = &debugLogs{what: fmt.Sprintf("Resolving import %q without an importer", importPath)}
		} else {
			r.debugLogs = &debugLogs{what: fmt.Sprintf("Resolving import %q from %q", importPath, importer)}
		}
	}

	result, err := r.resolve(importPath, importer)
	if result != nil {
		r.flushDebugLogs(flushDueToSuccess)
	} else {
		r.flushDebugLogs(flushDueToFailure)
	}
	return result, err
}

func (r resolverQuery) resolve(importPath string, importer string) (*ResolveResult, error) {
	// The bundler never asks for an empty path but there's nothing sensible to
	// map it to, so leave it to the bundler to report
	if importPath == "" {
		return nil, nil
	}

	// An import path that already names a file is never reinterpreted, even if
	// it also looks relative or matches a module mapping
	if r.fs.FileExists(importPath) {
		if r.debugLogs != nil {
			r.debugLogs.addNote(fmt.Sprintf("The import path %q names an existing file", importPath))
		}
		return &ResolveResult{Path: importPath, Rule: RuleLiteral}, nil
	}

	normalized := helpers.NormalizeSlashes(importPath)

	// Relative imports are rebased into the root directory and never fall
	// through to the other rules
	if helpers.IsRelativeImport(normalized) {
		if importer == "" {
			if r.debugLogs != nil {
				r.debugLogs.addNote("Relative import paths cannot be resolved without an importer")
			}
			return nil, &RelativeImportError{ImportPath: importPath}
		}

		importerDir := r.rebaseOntoRootDir(r.fs.Dir(importer))
		if absolute, ok := r.loadInRootDir(r.fs.Join(importerDir, importPath)); ok {
			return r.finalizeResolve(absolute, RuleRelative, ""), nil
		}
		return nil, nil
	}

	// Try each module mapping in order. A mapping that matches but doesn't lead
	// to a file doesn't stop the search since a later mapping may still work.
	for _, mapping := range r.options.ModuleMappings {
		remainder, ok := mapping.Matches(normalized)
		if !ok {
			continue
		}
		mapped := mapping.RuntimeTarget()
		if remainder != "" {
			mapped = r.fs.Join(mapping.SubpathRoot(), remainder)
		}
		if r.debugLogs != nil {
			r.debugLogs.addNote(fmt.Sprintf("Module mapped %q to %q using the prefix %q", importPath, mapped, mapping.Prefix))
		}
		if absolute, ok := r.loadInRootDir(mapped); ok {
			return r.finalizeResolve(absolute, RuleMapped, mapping.Prefix), nil
		}
	}

	// Last chance: the path may be written relative to the workspace name, or
	// may be a plain path below the root directory
	if absolute, ok := r.loadInRootDir(r.workspaceRelativePath(importPath)); ok {
		return r.finalizeResolve(absolute, RuleWorkspace, ""), nil
	}

	if r.debugLogs != nil {
		r.debugLogs.addNote(fmt.Sprintf("Allowing the bundler to resolve %q with node module resolution", importPath))
	}
	return nil, nil
}

// Directories at or below the root directory are turned into paths relative
// to it. Anything else is returned unchanged.
func (r resolverQuery) rebaseOntoRootDir(importerDir string) string {
	absDir, ok := r.fs.Abs(importerDir)
	if !ok {
		return importerDir
	}
	if rel, ok := r.fs.Rel(r.rootDir, absDir); ok && !helpers.EscapesBase(rel) && !r.fs.IsAbs(rel) {
		if r.debugLogs != nil {
			r.debugLogs.addNote(fmt.Sprintf("Rebased the importer directory %q to %q", importerDir, rel))
		}
		return rel
	}
	return importerDir
}

// Strips the workspace name from the front of the import path. If the import
// path is not inside the workspace, it's used as-is.
func (r resolverQuery) workspaceRelativePath(importPath string) string {
	cwd := r.fs.Cwd()
	target := importPath
	if !r.fs.IsAbs(target) {
		target = r.fs.Join(cwd, target)
	}
	rel, ok := r.fs.Rel(r.fs.Join(cwd, r.options.WorkspaceName), target)
	if !ok || helpers.EscapesBase(rel) || r.fs.IsAbs(rel) {
		return importPath
	}
	if r.debugLogs != nil && rel != importPath {
		r.debugLogs.addNote(fmt.Sprintf("Stripped the workspace name %q from %q", r.options.WorkspaceName, importPath))
	}
	return rel
}

func (r resolverQuery) finalizeResolve(absolute string, rule Rule, mappingPrefix string) *ResolveResult {
	result := &ResolveResult{Path: absolute, Rule: rule, MappingPrefix: mappingPrefix}

	// A module-variant build artifact takes precedence over the legacy script
	// artifact when both exist side by side
	if ext := r.options.ScriptExtension; r.fs.Ext(absolute) == ext {
		sibling := absolute[:len(absolute)-len(ext)] + r.options.ModuleExtension
		if r.fs.FileExists(sibling) {
			if r.debugLogs != nil {
				r.debugLogs.addNote(fmt.Sprintf("Preferring %q over %q", r.fs.Base(sibling), r.fs.Base(absolute)))
			}
			result.Path = sibling
			result.IsModuleVariant = true
		}
	}

	if r.debugLogs != nil {
		r.debugLogs.addNote(fmt.Sprintf("Resolved to %q using the %s rule", result.Path, rule))
	}
	return result
}

type debugLogs struct {
	what   string
	indent string
	notes  []logger.MsgData
}

func (d *debugLogs) addNote(text string) {
	if d.indent != "" {
		text = d.indent + text
	}
	d.notes = append(d.notes, logger.MsgData{Text: text})
}

func (d *debugLogs) increaseIndent() {
	d.indent += "  "
}

func (d *debugLogs) decreaseIndent() {
	d.indent = d.indent[2:]
}

type flushMode uint8

const (
	flushDueToFailure flushMode = iota
	flushDueToSuccess
)

func (r resolverQuery) flushDebugLogs(mode flushMode) {
	if r.debugLogs != nil {
		if mode == flushDueToFailure {
			r.log.AddWithNotes(logger.Debug, r.debugLogs.what, r.debugLogs.notes)
		} else if r.log.Level <= logger.LevelVerbose {
			r.log.AddWithNotes(logger.Verbose, r.debugLogs.what, r.debugLogs.notes)
		}
	}
}
