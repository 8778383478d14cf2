package test

import (
	"github.com/pmezard/go-difflib/difflib"
)

// Returns a unified diff from "expected" to "observed", or the error message
// if the diff could not be computed
func Diff(expected string, observed string) string {
	text, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(expected),
		B:        difflib.SplitLines(observed),
		FromFile: "expected",
		ToFile:   "observed",
		Context:  3,
	})
	if err != nil {
		return err.Error()
	}
	return text
}
