package helpers

import "strings"

// Mapping keys and import paths are always authored with forward slashes, so
// import paths are compared in that form regardless of the host platform.
func NormalizeSlashes(path string) string {
	return strings.ReplaceAll(path, "\\", "/")
}

// Expects a path that has already been passed through "NormalizeSlashes"
func IsRelativeImport(path string) bool {
	return strings.HasPrefix(path, "./") || strings.HasPrefix(path, "../")
}

// Reports whether a path computed by a "Rel" call points outside of its base
// directory. Both slash styles are accepted since the result may come from a
// Windows-style file system.
func EscapesBase(rel string) bool {
	return rel == ".." || strings.HasPrefix(rel, "../") || strings.HasPrefix(rel, "..\\")
}
