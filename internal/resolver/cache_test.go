package resolver

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/ngbazel/resolvebazel/internal/config"
	"github.com/ngbazel/resolvebazel/internal/fs"
	"github.com/ngbazel/resolvebazel/internal/logger"
	"github.com/ngbazel/resolvebazel/internal/test"
)

func TestCacheMatchesResolver(t *testing.T) {
	rt := resolveTest{
		files: map[string]string{
			"/work/src/pkg/a.js":             ``,
			"/work/src/pkg/a.mjs":            ``,
			"/work/src/external/lib/util.js": ``,
		},
		options: config.Options{
			WorkspaceName: "ws",
			RootDir:       "src",
			ModuleMappings: []config.ModuleMapping{
				{Prefix: "@lib", Target: "external/lib/index.d.ts"},
			},
		},
	}
	r, _ := rt.resolver()
	cache := NewCache(r)

	queries := [][2]string{
		{"./a", "/work/src/pkg/mod.js"},
		{"@lib/util", ""},
		{"ws/pkg/a", ""},
		{"unmapped", ""},
		{"./a", ""},
	}

	// Ask twice so the second round is served from the cache
	for round := 0; round < 2; round++ {
		for _, query := range queries {
			expected, expectedErr := r.Resolve(query[0], query[1])
			observed, observedErr := cache.Resolve(query[0], query[1])
			test.AssertEqual(t, fmt.Sprint(observedErr), fmt.Sprint(expectedErr))
			if (expected == nil) != (observed == nil) {
				t.Fatalf("Cache disagrees with resolver about %q", query[0])
			}
			if expected != nil {
				test.AssertEqual(t, *observed, *expected)
			}
		}
	}
	test.AssertEqual(t, cache.Len(), len(queries))

	// The fatal error is remembered too
	_, err := cache.Resolve("./a", "")
	var relativeErr *RelativeImportError
	if !errors.As(err, &relativeErr) {
		t.Fatalf("Expected a relative import error, got %v", err)
	}
}

func TestCacheReturnsCopies(t *testing.T) {
	rt := resolveTest{
		files:   map[string]string{"/work/src/a.js": ``},
		options: config.Options{RootDir: "src"},
	}
	r, _ := rt.resolver()
	cache := NewCache(r)

	first, _ := cache.Resolve("a", "")
	first.Path = "changed"
	second, _ := cache.Resolve("a", "")
	test.AssertEqual(t, second.Path, "/work/src/a.js")
}

func TestCacheConcurrentUse(t *testing.T) {
	rt := resolveTest{
		files:   map[string]string{"/work/src/a.js": ``, "/work/src/b.js": ``},
		options: config.Options{RootDir: "src"},
	}
	r, _ := rt.resolver()
	cache := NewCache(r)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			name := "a"
			if i%2 == 1 {
				name = "b"
			}
			result, err := cache.Resolve(name, "")
			if err != nil || result == nil {
				t.Errorf("Failed to resolve %q", name)
			}
		}(i)
	}
	wg.Wait()
	test.AssertEqual(t, cache.Len(), 2)
}

func TestCacheInvalidate(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "src"), 0755); err != nil {
		t.Fatal(err)
	}

	realFS, err := fs.RealFS(fs.RealFSOptions{AbsWorkingDir: dir})
	if err != nil {
		t.Fatal(err)
	}
	r := NewResolver(realFS, logger.NewDeferLog(logger.LevelInfo), config.Options{RootDir: "src"})
	cache := NewCache(r)

	result, _ := cache.Resolve("late", "")
	if result != nil {
		t.Fatal("Expected the file to be missing")
	}

	if err := os.WriteFile(filepath.Join(dir, "src", "late.js"), nil, 0644); err != nil {
		t.Fatal(err)
	}

	// Still served from both caches
	result, _ = cache.Resolve("late", "")
	if result != nil {
		t.Fatal("Expected a stale answer before invalidation")
	}

	// This also forgets the directory listings
	cache.Invalidate()
	test.AssertEqual(t, cache.Len(), 0)

	result, _ = cache.Resolve("late", "")
	if result == nil {
		t.Fatal("Expected the new file to be found after invalidation")
	}
	test.AssertEqual(t, result.Path, filepath.Join(realFS.Cwd(), "src", "late.js"))
}

// Blocks the first directory read until "release" is closed
type gatedFS struct {
	fs.FS
	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func (g *gatedFS) ReadDirectory(dir string) (fs.DirEntries, error) {
	g.once.Do(func() {
		close(g.entered)
		<-g.release
	})
	return g.FS.ReadDirectory(dir)
}

func TestCacheInvalidateDuringResolve(t *testing.T) {
	gated := &gatedFS{
		FS:      fs.MockFS(map[string]string{"/work/src/a.js": ``}, fs.MockUnix, "/work"),
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	r := NewResolver(gated, logger.NewDeferLog(logger.LevelInfo), config.Options{RootDir: "src"})
	cache := NewCache(r)

	done := make(chan struct{})
	go func() {
		defer close(done)
		cache.Resolve("a", "")
	}()

	// The answer being computed predates the invalidation, so it must not be kept
	<-gated.entered
	cache.Invalidate()
	close(gated.release)
	<-done
	test.AssertEqual(t, cache.Len(), 0)

	result, err := cache.Resolve("a", "")
	if err != nil || result == nil {
		t.Fatal("Expected a result")
	}
	test.AssertEqual(t, result.Path, "/work/src/a.js")
	test.AssertEqual(t, cache.Len(), 1)
}

func TestRealFSLiteralPrecedence(t *testing.T) {
	dir := t.TempDir()
	for _, file := range []string{"abs/file.js", "abs/file.mjs", "src/elsewhere/file.js"} {
		path := filepath.Join(dir, filepath.FromSlash(file))
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, nil, 0644); err != nil {
			t.Fatal(err)
		}
	}

	realFS, err := fs.RealFS(fs.RealFSOptions{AbsWorkingDir: dir})
	if err != nil {
		t.Fatal(err)
	}
	literal := filepath.Join(realFS.Cwd(), "abs", "file.js")
	r := NewResolver(realFS, logger.NewDeferLog(logger.LevelInfo), config.Options{
		RootDir: "src",
		ModuleMappings: []config.ModuleMapping{
			{Prefix: filepath.ToSlash(filepath.Join(realFS.Cwd(), "abs")), Target: "elsewhere"},
		},
	})

	result, err := r.Resolve(literal, "")
	if err != nil || result == nil {
		t.Fatal("Expected a result")
	}
	test.AssertEqual(t, result.Path, literal)
	test.AssertEqual(t, result.Rule, RuleLiteral)

	// The same path without its extension isn't a file, so the mapping applies
	result, err = r.Resolve(filepath.ToSlash(filepath.Join(realFS.Cwd(), "abs", "file")), "")
	if err != nil || result == nil {
		t.Fatal("Expected a result")
	}
	test.AssertEqual(t, result.Path, filepath.Join(realFS.Cwd(), "src", "elsewhere", "file.js"))
	test.AssertEqual(t, result.Rule, RuleMapped)
}
