package helpers

import (
	"testing"

	"github.com/ngbazel/resolvebazel/internal/test"
)

func TestNormalizeSlashes(t *testing.T) {
	test.AssertEqual(t, NormalizeSlashes(`.\foo\bar`), "./foo/bar")
	test.AssertEqual(t, NormalizeSlashes("@scope/pkg"), "@scope/pkg")
}

func TestIsRelativeImport(t *testing.T) {
	test.AssertEqual(t, IsRelativeImport("./x"), true)
	test.AssertEqual(t, IsRelativeImport("../x"), true)
	test.AssertEqual(t, IsRelativeImport("."), false)
	test.AssertEqual(t, IsRelativeImport(".."), false)
	test.AssertEqual(t, IsRelativeImport(".x"), false)
	test.AssertEqual(t, IsRelativeImport("x/./y"), false)
	test.AssertEqual(t, IsRelativeImport("/abs"), false)
}

func TestEscapesBase(t *testing.T) {
	test.AssertEqual(t, EscapesBase(".."), true)
	test.AssertEqual(t, EscapesBase("../x"), true)
	test.AssertEqual(t, EscapesBase(`..\x`), true)
	test.AssertEqual(t, EscapesBase("..x"), false)
	test.AssertEqual(t, EscapesBase("x/.."), false)
	test.AssertEqual(t, EscapesBase("."), false)
}
