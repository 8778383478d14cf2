package fs

import (
	"fmt"
	"testing"
)

func TestMockFSBasic(t *testing.T) {
	fs := MockFS(map[string]string{
		"/README.md":    "// README.md",
		"/package.json": "// package.json",
		"/src/index.js": "// src/index.js",
		"/src/util.js":  "// src/util.js",
	}, MockUnix, "/")

	// Test a missing file
	_, err := fs.ReadFile("/missing.txt")
	if err == nil {
		t.Fatal("Unexpectedly found /missing.txt")
	}

	// Test an existing file
	readme, err := fs.ReadFile("/README.md")
	if err != nil {
		t.Fatal("Expected to find /README.md")
	}
	if readme != "// README.md" {
		t.Fatalf("Incorrect contents for /README.md: %q", readme)
	}

	// Test an existing nested file
	index, err := fs.ReadFile("/src/index.js")
	if err != nil {
		t.Fatal("Expected to find /src/index.js")
	}
	if index != "// src/index.js" {
		t.Fatalf("Incorrect contents for /src/index.js: %q", index)
	}

	// Test a missing directory
	_, err = fs.ReadDirectory("/missing")
	if err == nil {
		t.Fatal("Unexpectedly found /missing")
	}

	// Test a nested directory
	src, err := fs.ReadDirectory("/src")
	if err != nil {
		t.Fatal("Expected to find /src")
	}
	indexEntry := src.Get("index.js")
	utilEntry := src.Get("util.js")
	if src.Len() != 2 ||
		indexEntry == nil || indexEntry.Kind(fs) != FileEntry ||
		utilEntry == nil || utilEntry.Kind(fs) != FileEntry {
		t.Fatalf("Incorrect contents for /src: %v", src.SortedKeys())
	}

	// Test the top-level directory
	slash, err := fs.ReadDirectory("/")
	if err != nil {
		t.Fatal("Expected to find /")
	}
	srcEntry := slash.Get("src")
	readmeEntry := slash.Get("README.md")
	packageEntry := slash.Get("package.json")
	if slash.Len() != 3 ||
		srcEntry == nil || srcEntry.Kind(fs) != DirEntry ||
		readmeEntry == nil || readmeEntry.Kind(fs) != FileEntry ||
		packageEntry == nil || packageEntry.Kind(fs) != FileEntry {
		t.Fatalf("Incorrect contents for /: %v", slash.SortedKeys())
	}
}

func TestMockFSFileExists(t *testing.T) {
	fs := MockFS(map[string]string{
		"/work/src/index.js": "",
	}, MockUnix, "/work")

	expect := func(path string, exists bool) {
		t.Helper()
		if fs.FileExists(path) != exists {
			t.Fatalf("FileExists(%q) != %v", path, exists)
		}
	}

	expect("/work/src/index.js", true)
	expect("src/index.js", true)
	expect("./src/index.js", true)
	expect("/work/src", false)
	expect("src", false)
	expect("/work/src/missing.js", false)
	expect("", false)
}

func TestMockFSWindows(t *testing.T) {
	fs := MockFS(map[string]string{
		"/work/src/index.js": "",
	}, MockWindows, "/work")

	if cwd := fs.Cwd(); cwd != "C:\\work" {
		t.Fatalf("Unexpected cwd %q", cwd)
	}
	if !fs.FileExists("C:\\work\\src\\index.js") {
		t.Fatal("Expected to find C:\\work\\src\\index.js")
	}
	if !fs.FileExists("src\\index.js") {
		t.Fatal("Expected to find src\\index.js")
	}
	if joined := fs.Join("C:\\work", "src", "../lib"); joined != "C:\\work\\lib" {
		t.Fatalf("Unexpected join %q", joined)
	}
	if rel, ok := fs.Rel("C:\\work", "C:\\work\\src\\pkg"); !ok || rel != "src\\pkg" {
		t.Fatalf("Unexpected rel %q", rel)
	}
	if entries, err := fs.ReadDirectory("C:\\work\\src"); err != nil || entries.Get("index.js") == nil {
		t.Fatal("Expected to find C:\\work\\src\\index.js in its directory")
	}
}

func TestMockFSRel(t *testing.T) {
	fs := MockFS(map[string]string{}, MockUnix, "/")

	expect := func(a string, b string, c string) {
		t.Helper()
		t.Run(fmt.Sprintf("Rel(%q, %q) == %q", a, b, c), func(t *testing.T) {
			t.Helper()
			rel, ok := fs.Rel(a, b)
			if !ok {
				t.Fatalf("!ok")
			}
			if rel != c {
				t.Fatalf("Expected %q, got %q", c, rel)
			}
		})
	}

	expect("/a/b", "/a/b", ".")
	expect("/a/b", "/a/b/c", "c")
	expect("/a/b", "/a/b/c/d", "c/d")
	expect("/a/b/c", "/a/b", "..")
	expect("/a/b/c/d", "/a/b", "../..")
	expect("/a/b/c", "/a/b/x", "../x")
	expect("/a/b/c/d", "/a/b/x", "../../x")
	expect("/a/b/c", "/a/b/x/y", "../x/y")
	expect("/a/b/c/d", "/a/b/x/y", "../../x/y")

	expect("a/b", "a/c", "../c")
	expect("./a/b", "./a/c", "../c")
	expect(".", "./a/b", "a/b")
	expect(".", ".//a/b", "a/b")
	expect(".", "././a/b", "a/b")
	expect(".", "././/a/b", "a/b")

	// These can't be related without knowing the working directory
	for _, pair := range [][2]string{{"/a", "a"}, {"a", "/a"}, {"../a", "b"}} {
		if rel, ok := fs.Rel(pair[0], pair[1]); ok {
			t.Fatalf("Rel(%q, %q) unexpectedly returned %q", pair[0], pair[1], rel)
		}
	}
}
