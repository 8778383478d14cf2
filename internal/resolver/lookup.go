package resolver

import (
	"fmt"
	"syscall"

	"github.com/ngbazel/resolvebazel/internal/fs"
	jsoniter "github.com/json-iterator/go"
)

// Looks up "fragment" below the root directory the same way node's
// "require.resolve" looks up an absolute path. This never fails hard: any
// problem along the way just means the file wasn't found.
func (r resolverQuery) loadInRootDir(fragment string) (string, bool) {
	path := r.fs.Join(r.rootDir, fragment)
	if r.debugLogs != nil {
		r.debugLogs.addNote(fmt.Sprintf("Looking up %q below the root directory %q", fragment, r.rootDir))
		r.debugLogs.increaseIndent()
		defer r.debugLogs.decreaseIndent()
	}
	return r.loadAsFileOrDirectory(path)
}

func (r resolverQuery) loadAsFileOrDirectory(path string) (string, bool) {
	// Is this a file?
	if absolute, ok := r.loadAsFile(path); ok {
		return absolute, true
	}

	// Is this a directory?
	if r.debugLogs != nil {
		r.debugLogs.addNote(fmt.Sprintf("Attempting to load %q as a directory", path))
		r.debugLogs.increaseIndent()
		defer r.debugLogs.decreaseIndent()
	}
	entries, ok := r.readDirectory(path)
	if !ok {
		return "", false
	}

	// Try the "main" field from "package.json"
	if entry := entries.Get("package.json"); entry != nil && entry.Kind(r.fs) == fs.FileEntry {
		main, ok := r.parsePackageMain(r.fs.Join(path, "package.json"))
		if !ok {
			// Node gives up on the whole directory when "package.json" is broken
			return "", false
		}
		if main != "" {
			if absolute, ok := r.loadAsMainField(path, main); ok {
				return absolute, true
			}
		}
	}

	return r.loadAsIndex(path, entries)
}

func (r resolverQuery) loadAsFile(path string) (string, bool) {
	if r.debugLogs != nil {
		r.debugLogs.addNote(fmt.Sprintf("Attempting to load %q as a file", path))
		r.debugLogs.increaseIndent()
		defer r.debugLogs.decreaseIndent()
	}

	dirPath := r.fs.Dir(path)
	entries, ok := r.readDirectory(dirPath)
	if !ok {
		return "", false
	}
	base := r.fs.Base(path)

	// Try the plain path without any extensions
	if r.debugLogs != nil {
		r.debugLogs.addNote(fmt.Sprintf("Checking for file %q", base))
	}
	if entry := entries.Get(base); entry != nil && entry.Kind(r.fs) == fs.FileEntry {
		if r.debugLogs != nil {
			r.debugLogs.addNote(fmt.Sprintf("Found file %q", base))
		}
		return r.fs.Join(dirPath, base), true
	}

	// Try the path with extensions
	for _, ext := range r.options.ResolveExtensions {
		if r.debugLogs != nil {
			r.debugLogs.addNote(fmt.Sprintf("Checking for file %q", base+ext))
		}
		if entry := entries.Get(base + ext); entry != nil && entry.Kind(r.fs) == fs.FileEntry {
			if r.debugLogs != nil {
				r.debugLogs.addNote(fmt.Sprintf("Found file %q", base+ext))
			}
			return r.fs.Join(dirPath, base+ext), true
		}
	}

	if r.debugLogs != nil {
		r.debugLogs.addNote(fmt.Sprintf("Failed to find file %q", base))
	}
	return "", false
}

// The "main" path is relative to the package directory. It's loaded first as a
// file and then as a directory with an index file, but never through another
// "package.json" file.
func (r resolverQuery) loadAsMainField(dirPath string, main string) (string, bool) {
	mainPath := r.fs.Join(dirPath, main)
	if r.debugLogs != nil {
		r.debugLogs.addNote(fmt.Sprintf("Found main field %q in %q", main, r.fs.Join(dirPath, "package.json")))
		r.debugLogs.increaseIndent()
		defer r.debugLogs.decreaseIndent()
	}

	if absolute, ok := r.loadAsFile(mainPath); ok {
		return absolute, true
	}
	if entries, ok := r.readDirectory(mainPath); ok {
		if absolute, ok := r.loadAsIndex(mainPath, entries); ok {
			return absolute, true
		}
	}

	if r.debugLogs != nil {
		r.debugLogs.addNote(fmt.Sprintf("The main field %q could not be loaded", main))
	}
	return "", false
}

func (r resolverQuery) loadAsIndex(dirPath string, entries fs.DirEntries) (string, bool) {
	for _, ext := range r.options.ResolveExtensions {
		base := "index" + ext
		if r.debugLogs != nil {
			r.debugLogs.addNote(fmt.Sprintf("Checking for file %q", r.fs.Join(dirPath, base)))
		}
		if entry := entries.Get(base); entry != nil && entry.Kind(r.fs) == fs.FileEntry {
			if r.debugLogs != nil {
				r.debugLogs.addNote(fmt.Sprintf("Found file %q", r.fs.Join(dirPath, base)))
			}
			return r.fs.Join(dirPath, base), true
		}
	}

	if r.debugLogs != nil {
		r.debugLogs.addNote(fmt.Sprintf("Failed to find an index file in %q", dirPath))
	}
	return "", false
}

// Missing directories are expected and are not reported. Anything else (e.g.
// a permission problem) is an error worth surfacing even though resolution
// carries on as if the directory were missing.
func (r resolverQuery) readDirectory(dirPath string) (fs.DirEntries, bool) {
	entries, err := r.fs.ReadDirectory(dirPath)
	if err != nil {
		if err != syscall.ENOENT && err != syscall.ENOTDIR {
			r.log.AddError(fmt.Sprintf("Cannot read directory %q: %s", dirPath, err.Error()))
		}
		if r.debugLogs != nil {
			r.debugLogs.addNote(fmt.Sprintf("Failed to read directory %q", dirPath))
		}
		return fs.DirEntries{}, false
	}
	return entries, true
}

type packageJSON struct {
	Main interface{} `json:"main"`
}

// Returns the "main" field, or an empty string if there isn't a usable one.
// The boolean is false if the file could not be read or parsed.
func (r resolverQuery) parsePackageMain(path string) (string, bool) {
	contents, err := r.fs.ReadFile(path)
	if err != nil {
		if r.debugLogs != nil {
			r.debugLogs.addNote(fmt.Sprintf("Failed to read %q: %s", path, err.Error()))
		}
		return "", false
	}

	var pkg packageJSON
	if err := jsoniter.ConfigCompatibleWithStandardLibrary.UnmarshalFromString(contents, &pkg); err != nil {
		r.log.AddWarning(fmt.Sprintf("Cannot parse %q: %s", path, err.Error()))
		return "", false
	}

	// Node ignores a "main" field that isn't a string
	main, _ := pkg.Main.(string)
	return main, true
}
