package fs

// An in-memory directory tree for tests. Paths are kept in Unix form
// internally. The Windows flavour converts at the edges and pretends that
// every absolute path lives on drive "C:", which is enough to exercise
// backslash handling in the resolver on any host.

import (
	"path"
	"strings"
	"syscall"
)

type MockKind uint8

const (
	MockUnix MockKind = iota
	MockWindows
)

type mockFS struct {
	dirs   map[string]DirEntries
	files  map[string]string
	cwd    string
	flavor MockKind
}

func MockFS(input map[string]string, kind MockKind, absWorkingDir string) FS {
	fs := &mockFS{
		dirs:   make(map[string]DirEntries),
		files:  make(map[string]string),
		flavor: kind,
	}
	if absWorkingDir != "" {
		fs.cwd = path.Clean(absWorkingDir)
	}

	for name, contents := range input {
		name = path.Clean("/" + name)
		fs.files[name] = contents

		// Every ancestor gets an entry for the child below it
		entryKind := FileEntry
		for child := name; child != "/"; child = path.Dir(child) {
			parent := fs.dirEntries(path.Dir(child))
			base := path.Base(child)
			if _, ok := parent.data[base]; !ok || entryKind == FileEntry {
				parent.data[base] = &Entry{kind: entryKind, base: base}
			}
			entryKind = DirEntry
		}
	}

	return fs
}

func (fs *mockFS) dirEntries(dir string) DirEntries {
	entries, ok := fs.dirs[dir]
	if !ok {
		entries = MakeEmptyDirEntries(fs.nativePath(dir))
		fs.dirs[dir] = entries
	}
	return entries
}

// Converts a path in this file system's flavour to the internal Unix form
func (fs *mockFS) unixPath(p string) string {
	if fs.flavor == MockWindows {
		p = strings.ReplaceAll(p, "\\", "/")
		if len(p) >= 2 && p[1] == ':' && (p[0] == 'C' || p[0] == 'c') {
			p = p[2:]
		}
	}
	return p
}

func (fs *mockFS) nativePath(p string) string {
	if fs.flavor == MockWindows {
		p = strings.ReplaceAll(p, "/", "\\")
		if strings.HasPrefix(p, "\\") {
			p = "C:" + p
		}
	}
	return p
}

func (fs *mockFS) ReadDirectory(dir string) (DirEntries, error) {
	if entries, ok := fs.dirs[path.Clean(fs.unixPath(dir))]; ok {
		return entries, nil
	}
	return DirEntries{}, syscall.ENOENT
}

func (fs *mockFS) ReadFile(file string) (string, error) {
	if contents, ok := fs.files[path.Clean(fs.unixPath(file))]; ok {
		return contents, nil
	}
	return "", syscall.ENOENT
}

func (fs *mockFS) FileExists(file string) bool {
	if file == "" {
		return false
	}
	p := fs.unixPath(file)
	if !path.IsAbs(p) {
		p = path.Join(fs.cwd, p)
	}
	_, ok := fs.files[path.Clean(p)]
	return ok
}

func (*mockFS) ResetCache() {
}

func (fs *mockFS) IsAbs(p string) bool {
	return path.IsAbs(fs.unixPath(p))
}

func (fs *mockFS) Abs(p string) (string, bool) {
	p = fs.unixPath(p)
	if !path.IsAbs(p) {
		p = path.Join(fs.cwd, p)
	}
	return fs.nativePath(path.Clean(path.Join("/", p))), true
}

func (fs *mockFS) Dir(p string) string {
	return fs.nativePath(path.Dir(fs.unixPath(p)))
}

func (fs *mockFS) Base(p string) string {
	base := path.Base(fs.unixPath(p))
	if base == "/" && fs.flavor == MockWindows {
		return "\\"
	}
	return base
}

func (fs *mockFS) Ext(p string) string {
	return path.Ext(fs.unixPath(p))
}

func (fs *mockFS) Join(parts ...string) string {
	unixParts := make([]string, len(parts))
	for i, part := range parts {
		unixParts[i] = fs.unixPath(part)
	}
	return fs.nativePath(path.Clean(path.Join(unixParts...)))
}

func (fs *mockFS) Cwd() string {
	return fs.nativePath(fs.cwd)
}

// Mirrors "filepath.Rel": both paths must be absolute or both relative, and
// a base that climbs out through ".." can't be related to anything.
func (fs *mockFS) Rel(base string, target string) (string, bool) {
	base = path.Clean(fs.unixPath(base))
	target = path.Clean(fs.unixPath(target))
	if base == target {
		return ".", true
	}
	if path.IsAbs(base) != path.IsAbs(target) {
		return "", false
	}

	baseParts := pathSegments(base)
	targetParts := pathSegments(target)
	common := 0
	for common < len(baseParts) && common < len(targetParts) && baseParts[common] == targetParts[common] {
		common++
	}

	rel := make([]string, 0, len(baseParts)-common+len(targetParts)-common)
	for _, part := range baseParts[common:] {
		if part == ".." {
			return "", false
		}
		rel = append(rel, "..")
	}
	rel = append(rel, targetParts[common:]...)
	return fs.nativePath(strings.Join(rel, "/")), true
}

func pathSegments(p string) []string {
	p = strings.TrimPrefix(p, "/")
	if p == "" || p == "." {
		return nil
	}
	return strings.Split(p, "/")
}

func (fs *mockFS) kind(dir string, base string) (symlink string, kind EntryKind) {
	panic("This should never be called")
}
