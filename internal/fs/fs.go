package fs

// The resolver only ever reads from the file system. Everything it needs goes
// through the "FS" interface below so that tests can run against an in-memory
// directory tree and so that Windows-style paths can be exercised on any host.

import (
	"sort"
	"sync"
)

type EntryKind uint8

const (
	DirEntry  EntryKind = 1
	FileEntry EntryKind = 2
)

type Entry struct {
	symlink  string
	dir      string
	base     string
	mutex    sync.Mutex
	kind     EntryKind
	needStat bool
}

func (e *Entry) Kind(fs FS) EntryKind {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	if e.needStat {
		e.needStat = false
		e.symlink, e.kind = fs.kind(e.dir, e.base)
	}
	return e.kind
}

func (e *Entry) Symlink(fs FS) string {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	if e.needStat {
		e.needStat = false
		e.symlink, e.kind = fs.kind(e.dir, e.base)
	}
	return e.symlink
}

type DirEntries struct {
	dir  string
	data map[string]*Entry
}

func MakeEmptyDirEntries(dir string) DirEntries {
	return DirEntries{dir: dir, data: make(map[string]*Entry)}
}

func (entries DirEntries) Len() int {
	return len(entries.data)
}

// Lookups are case-sensitive. A case-insensitive file system may still open a
// file by a differently-cased name, but the resolver must not return a path
// that differs from what is on disk.
func (entries DirEntries) Get(query string) *Entry {
	if entries.data == nil {
		return nil
	}
	return entries.data[query]
}

func (entries DirEntries) SortedKeys() (keys []string) {
	if entries.data != nil {
		keys = make([]string, 0, len(entries.data))
		for key := range entries.data {
			keys = append(keys, key)
		}
		sort.Strings(keys)
	}
	return
}

type FS interface {
	// The returned entries are immutable and are cached across invocations
	// unless caching was disabled. Do not mutate them.
	ReadDirectory(path string) (entries DirEntries, err error)
	ReadFile(path string) (contents string, err error)

	// Reports whether "path" names an existing regular file. Relative paths are
	// interpreted relative to the current working directory.
	FileExists(path string) bool

	// Forget everything cached by "ReadDirectory". Long-lived processes call
	// this when they learn that the file system changed underneath them.
	ResetCache()

	// This is part of the interface because the mock interface used for tests
	// should not depend on file system behavior (i.e. different slashes for
	// Windows) while the real interface should.
	IsAbs(path string) bool
	Abs(path string) (string, bool)
	Dir(path string) string
	Base(path string) string
	Ext(path string) string
	Join(parts ...string) string
	Cwd() string
	Rel(base string, target string) (string, bool)

	// This is used in the implementation of "Entry"
	kind(dir string, base string) (symlink string, kind EntryKind)
}
