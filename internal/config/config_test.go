package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestModuleMappingMatches(t *testing.T) {
	mapping := ModuleMapping{Prefix: "@lib", Target: "external/lib/index.d.ts"}

	remainder, ok := mapping.Matches("@lib")
	require.True(t, ok)
	require.Equal(t, "", remainder)

	remainder, ok = mapping.Matches("@lib/util/strings")
	require.True(t, ok)
	require.Equal(t, "util/strings", remainder)

	_, ok = mapping.Matches("@library")
	require.False(t, ok)
	_, ok = mapping.Matches("@li")
	require.False(t, ok)

	require.Equal(t, "external/lib/index", mapping.RuntimeTarget())
	require.Equal(t, "a/b.d.ts.js", ModuleMapping{Target: "a/b.d.ts.js"}.RuntimeTarget())
}

func TestModuleMappingSubpathRoot(t *testing.T) {
	require.Equal(t, "external/lib", ModuleMapping{Target: "external/lib/index.d.ts"}.SubpathRoot())
	require.Equal(t, "external/lib", ModuleMapping{Target: "external/lib"}.SubpathRoot())
	require.Equal(t, "external/lib/index", ModuleMapping{Target: "external/lib/index"}.SubpathRoot())
	require.Equal(t, ".", ModuleMapping{Target: "index.d.ts"}.SubpathRoot())
}

func TestApplyDefaults(t *testing.T) {
	options := Options{}
	options.ApplyDefaults()
	require.Equal(t, []string{".js", ".json", ".node"}, options.ResolveExtensions)
	require.Equal(t, ".js", options.ScriptExtension)
	require.Equal(t, ".mjs", options.ModuleExtension)

	// The defaults must not alias the package-level slice
	options.ResolveExtensions[0] = ".ts"
	require.Equal(t, ".js", DefaultExtensionOrder[0])
}

func TestValidate(t *testing.T) {
	valid := Options{
		RootDir:        "bin",
		ModuleMappings: []ModuleMapping{{Prefix: "@a", Target: "t1"}, {Prefix: "@a/sub", Target: "t2"}},
	}
	valid.ApplyDefaults()
	require.NoError(t, valid.Validate())

	cases := map[string]Options{
		"empty prefix":     {RootDir: "bin", ModuleMappings: []ModuleMapping{{Prefix: "", Target: "x"}}},
		"trailing slash":   {RootDir: "bin", ModuleMappings: []ModuleMapping{{Prefix: "@a/", Target: "x"}}},
		"backslash":        {RootDir: "bin", ModuleMappings: []ModuleMapping{{Prefix: "@a\\b", Target: "x"}}},
		"duplicate prefix": {RootDir: "bin", ModuleMappings: []ModuleMapping{{Prefix: "@a", Target: "x"}, {Prefix: "@a", Target: "y"}}},
		"bad extension":    {RootDir: "bin", ResolveExtensions: []string{"js"}},
		"same extensions":  {RootDir: "bin", ScriptExtension: ".js", ModuleExtension: ".js"},
		"missing root dir": {ModuleMappings: valid.ModuleMappings},
	}
	for name, options := range cases {
		t.Run(name, func(t *testing.T) {
			require.Error(t, options.Validate())
		})
	}
	require.EqualError(t, Options{}.Validate(), "Missing root directory")
}
