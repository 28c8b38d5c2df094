package query

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/codegraph/graphrag/internal/models"
)

func TestFingerprint_DeterministicAndOrderSensitive(t *testing.T) {
	a := fingerprint("x", "y")
	b := fingerprint("x", "y")
	c := fingerprint("y", "x")
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 16)
}

func TestFingerprint_EmptyPartsStillDeterministic(t *testing.T) {
	assert.Equal(t, fingerprint(), fingerprint())
}

func TestFingerprint_DistinguishesConcatenationAmbiguity(t *testing.T) {
	// Without a separator, ("ab","c") and ("a","bc") would collide; fingerprint writes a NUL
	// byte after each part specifically to avoid that.
	assert.NotEqual(t, fingerprint("ab", "c"), fingerprint("a", "bc"))
}

func TestBuildSnippet_PrefersSignature(t *testing.T) {
	e := &models.Entity{Signature: "func Foo()", Body: "body", Kind: "function", Name: "Foo"}
	assert.Equal(t, "func Foo()", buildSnippet(e))
}

func TestBuildSnippet_FallsBackToBodyThenKindName(t *testing.T) {
	e := &models.Entity{Body: "the body text", Kind: "function", Name: "Foo"}
	assert.Equal(t, "the body text", buildSnippet(e))

	e.Body = ""
	assert.Equal(t, "function: Foo", buildSnippet(e))
}

func TestBuildSnippet_TruncatesLongTextWithEllipsis(t *testing.T) {
	long := strings.Repeat("a", snippetMaxChars+50)
	e := &models.Entity{Signature: long}
	snippet := buildSnippet(e)
	assert.True(t, strings.HasSuffix(snippet, "..."))
	assert.LessOrEqual(t, len(snippet), snippetMaxChars+3)
}

func TestBuildSnippet_ShortTextUntouched(t *testing.T) {
	e := &models.Entity{Signature: "short"}
	assert.Equal(t, "short", buildSnippet(e))
}
