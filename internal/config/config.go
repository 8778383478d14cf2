package config

import (
	"fmt"
	"path"
	"strings"
)

// Mapping targets are authored for type-checking and commonly point at a
// declaration file such as "index.d.ts". Only the runtime file exists next to
// it in the build output, so the suffix is dropped before use.
const DeclarationSuffix = ".d.ts"

// This matches the order used by node's "require.resolve"
var DefaultExtensionOrder = []string{".js", ".json", ".node"}

const (
	DefaultScriptExtension = ".js"
	DefaultModuleExtension = ".mjs"
)

type ModuleMapping struct {
	// A logical module name such as "@angular/core". A specifier matches when
	// it is equal to the prefix or continues with a "/" after it.
	Prefix string

	// A path fragment relative to the root directory
	Target string
}

func (m ModuleMapping) RuntimeTarget() string {
	return strings.TrimSuffix(m.Target, DeclarationSuffix)
}

// Where the rest of an import path after the prefix is looked up. A target
// naming a declaration file stands for the directory that contains it, so
// "@lib/util" with a target of "lib/index.d.ts" leads to "lib/util".
func (m ModuleMapping) SubpathRoot() string {
	target := m.RuntimeTarget()
	if strings.HasSuffix(m.Target, DeclarationSuffix) {
		return path.Dir(target)
	}
	return target
}

// Matches reports whether "importPath" (already using forward slashes) is
// covered by this mapping, and returns the part after the prefix without its
// leading slash.
func (m ModuleMapping) Matches(importPath string) (remainder string, ok bool) {
	if importPath == m.Prefix {
		return "", true
	}
	if strings.HasPrefix(importPath, m.Prefix) && len(importPath) > len(m.Prefix) && importPath[len(m.Prefix)] == '/' {
		return importPath[len(m.Prefix)+1:], true
	}
	return "", false
}

// Options is the resolution configuration. It is produced once per build
// invocation by the build orchestration layer and never mutated afterwards.
type Options struct {
	WorkspaceName string

	// Relative to the process working directory
	RootDir string

	// Order is significant: the first mapping that both matches and resolves
	// to a file wins.
	ModuleMappings []ModuleMapping

	// Not interpreted by the resolver. It is handed to the bundler's generic
	// node_modules resolution.
	NodeModulesRoot string

	// Implicit extensions tried when a path does not name a file as written
	ResolveExtensions []string

	// When a lookup ends in ScriptExtension and a sibling with ModuleExtension
	// exists, the sibling is used instead.
	ScriptExtension string
	ModuleExtension string

	// Module names the bundler keeps out of the bundle. Not interpreted by the
	// resolver.
	External []string
}

func (options *Options) ApplyDefaults() {
	if len(options.ResolveExtensions) == 0 {
		options.ResolveExtensions = append([]string{}, DefaultExtensionOrder...)
	}
	if options.ScriptExtension == "" {
		options.ScriptExtension = DefaultScriptExtension
	}
	if options.ModuleExtension == "" {
		options.ModuleExtension = DefaultModuleExtension
	}
}

func (options Options) Validate() error {
	seen := make(map[string]bool, len(options.ModuleMappings))
	for i, mapping := range options.ModuleMappings {
		if mapping.Prefix == "" {
			return fmt.Errorf("Module mapping at index %d has an empty prefix", i)
		}
		if strings.HasSuffix(mapping.Prefix, "/") {
			return fmt.Errorf("Module mapping prefix %q must not end with a slash", mapping.Prefix)
		}
		if strings.ContainsRune(mapping.Prefix, '\\') {
			return fmt.Errorf("Module mapping prefix %q must use forward slashes", mapping.Prefix)
		}
		if seen[mapping.Prefix] {
			return fmt.Errorf("Duplicate module mapping prefix %q", mapping.Prefix)
		}
		seen[mapping.Prefix] = true
	}

	for _, ext := range options.ResolveExtensions {
		if !isExtension(ext) {
			return fmt.Errorf("Invalid resolve extension %q (extensions must start with a dot)", ext)
		}
	}
	if options.ScriptExtension != "" && !isExtension(options.ScriptExtension) {
		return fmt.Errorf("Invalid script extension %q", options.ScriptExtension)
	}
	if options.ModuleExtension != "" && !isExtension(options.ModuleExtension) {
		return fmt.Errorf("Invalid module extension %q", options.ModuleExtension)
	}
	if options.ScriptExtension != "" && options.ScriptExtension == options.ModuleExtension {
		return fmt.Errorf("The script extension and the module extension must differ (both are %q)", options.ScriptExtension)
	}
	if options.RootDir == "" {
		return fmt.Errorf("Missing root directory")
	}
	return nil
}

func isExtension(ext string) bool {
	return len(ext) > 1 && ext[0] == '.' && !strings.ContainsAny(ext, "/\\")
}
