package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseYAMLKeepsMappingOrder(t *testing.T) {
	options, err := Parse([]byte(`
workspace_name: angular
root_dir: bazel-out/k8-fastbuild/bin
node_modules_root: external/npm/node_modules
module_mappings:
  "@angular/core/testing": packages/core/testing/index.d.ts
  "@angular/core": packages/core/index.d.ts
  "@angular/common": packages/common/index.d.ts
resolve_extensions: [".js", ".mjs"]
external: ["rxjs", "tslib"]
`))
	require.NoError(t, err)
	require.Equal(t, "angular", options.WorkspaceName)
	require.Equal(t, "bazel-out/k8-fastbuild/bin", options.RootDir)
	require.Equal(t, "external/npm/node_modules", options.NodeModulesRoot)
	require.Equal(t, []ModuleMapping{
		{Prefix: "@angular/core/testing", Target: "packages/core/testing/index.d.ts"},
		{Prefix: "@angular/core", Target: "packages/core/index.d.ts"},
		{Prefix: "@angular/common", Target: "packages/common/index.d.ts"},
	}, options.ModuleMappings)
	require.Equal(t, []string{".js", ".mjs"}, options.ResolveExtensions)
	require.Equal(t, []string{"rxjs", "tslib"}, options.External)
}

func TestParseJSONKeepsMappingOrder(t *testing.T) {
	options, err := Parse([]byte(`{
  "workspaceName": "angular",
  "rootDir": "bin",
  "moduleMappings": {"z": "last-key-first", "a": "first-key-last"},
  "nodeModulesRoot": "node_modules"
}`))
	require.NoError(t, err)
	require.Equal(t, "angular", options.WorkspaceName)
	require.Equal(t, []ModuleMapping{
		{Prefix: "z", Target: "last-key-first"},
		{Prefix: "a", Target: "first-key-last"},
	}, options.ModuleMappings)
}

func TestParseMappingList(t *testing.T) {
	options, err := Parse([]byte(`
module_mappings:
  - prefix: "@a"
    target: t1
  - prefix: "@a/sub"
    target: t2
`))
	require.NoError(t, err)
	require.Equal(t, []ModuleMapping{{Prefix: "@a", Target: "t1"}, {Prefix: "@a/sub", Target: "t2"}}, options.ModuleMappings)
}

func TestParseErrors(t *testing.T) {
	_, err := Parse([]byte(`- just a list`))
	require.Error(t, err)

	_, err = Parse([]byte(`root_dirr: typo`))
	require.ErrorContains(t, err, `unknown key "root_dirr" (did you mean "root_dir"?)`)

	_, err = Parse([]byte(`extrenal: []`))
	require.ErrorContains(t, err, `(did you mean "external"?)`)

	_, err = Parse([]byte(`bogus: 1`))
	require.EqualError(t, err, `line 1: unknown key "bogus"`)

	_, err = Parse([]byte(`module_mappings: "nope"`))
	require.Error(t, err)

	_, err = Parse([]byte("root_dir:\n  nested: true\n"))
	require.Error(t, err)
}

func TestParseEmptyDocument(t *testing.T) {
	options, err := Parse(nil)
	require.NoError(t, err)
	require.Equal(t, Options{}, options)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "resolve.yaml")
	require.NoError(t, os.WriteFile(path, []byte("workspace_name: ws\nroot_dir: src\n"), 0644))

	options, err := LoadFile(path)
	require.NoError(t, err)
	require.Equal(t, "ws", options.WorkspaceName)
	require.Equal(t, "src", options.RootDir)

	_, err = LoadFile(filepath.Join(dir, "missing.yaml"))
	require.ErrorContains(t, err, "failed to load config")
}

func TestToYAMLRoundTrip(t *testing.T) {
	options := Options{
		WorkspaceName:   "ws",
		RootDir:         "src",
		NodeModulesRoot: "node_modules",
		ModuleMappings:  []ModuleMapping{{Prefix: "@z", Target: "z"}, {Prefix: "@a", Target: "a/index.d.ts"}},
		External:        []string{"rxjs"},
	}
	options.ApplyDefaults()

	data, err := options.ToYAML()
	require.NoError(t, err)

	parsed, err := Parse(data)
	require.NoError(t, err)
	require.Equal(t, options, parsed)
}
