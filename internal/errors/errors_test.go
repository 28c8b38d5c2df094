package errors

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_ErrorStringIncludesCauseWhenPresent(t *testing.T) {
	cause := stderrors.New("connection refused")
	e := Wrap(cause, ErrorTypeDatabaseConnection, SeverityHigh, "connect to neo4j")
	assert.Equal(t, "connect to neo4j: connection refused", e.Error())
}

func TestError_ErrorStringWithoutCause(t *testing.T) {
	e := New(ErrorTypeInvalidRequest, SeverityLow, "bad input")
	assert.Equal(t, "bad input", e.Error())
}

func TestError_Unwrap(t *testing.T) {
	cause := stderrors.New("root cause")
	e := Wrap(cause, ErrorTypeInternal, SeverityCritical, "wrapped")
	assert.Equal(t, cause, e.Unwrap())
	assert.True(t, stderrors.Is(e, cause))
}

func TestWrap_NilErrorReturnsNil(t *testing.T) {
	assert.Nil(t, Wrap(nil, ErrorTypeInternal, SeverityCritical, "should not happen"))
}

func TestError_Is_MatchesSameType(t *testing.T) {
	a := InvalidRequest("a")
	b := InvalidRequest("b")
	c := InternalError("c")
	assert.True(t, a.Is(b))
	assert.False(t, a.Is(c))
	assert.False(t, a.Is(stderrors.New("plain")))
}

func TestError_WithContext(t *testing.T) {
	e := InvalidRequest("bad").WithContext("field", "name")
	assert.Equal(t, "name", e.Context["field"])
}

func TestError_IsFatal(t *testing.T) {
	assert.True(t, InternalError("x").IsFatal())
	assert.False(t, InvalidRequest("x").IsFatal())
}

func TestHTTPStatus(t *testing.T) {
	cases := map[*Error]int{
		ParseError("x"):                              400,
		InvalidRequest("x"):                           400,
		DatabaseConnectionError(stderrors.New("x"), "y"): 503,
		DatabaseQueryError(stderrors.New("x"), "y"):      500,
		DatabaseQueryTimeout(stderrors.New("x"), "y"):    504,
		RateLimitExceeded("x"):                        429,
		ProjectNotFound("p"):                          404,
		EntityNotFound("e"):                           404,
		FileSizeExceeded("x"):                         413,
		SandboxBlocked("x"):                           403,
		EmbeddingGenerationError(stderrors.New("x"), "y"): 500,
		InternalError("x"):                            500,
	}
	for err, want := range cases {
		assert.Equal(t, want, err.HTTPStatus(), "type %v", err.Type)
	}
}

func TestCode(t *testing.T) {
	assert.Equal(t, "PARSE_ERROR", ParseError("x").Code())
	assert.Equal(t, "INVALID_REQUEST", InvalidRequest("x").Code())
	assert.Equal(t, "ENTITY_NOT_FOUND", EntityNotFound("e").Code())
	assert.Equal(t, "INTERNAL_ERROR", InternalError("x").Code())
}

func TestDetailedString_IncludesCauseAndContext(t *testing.T) {
	e := Wrap(stderrors.New("root"), ErrorTypeInternal, SeverityCritical, "top").WithContext("project_id", "p1")
	s := e.DetailedString()
	assert.Contains(t, s, "[INTERNAL_ERROR] top")
	assert.Contains(t, s, "caused by: root")
	assert.Contains(t, s, "project_id: p1")
}

func TestIsFatal_FreeFunction(t *testing.T) {
	assert.True(t, IsFatal(InternalError("x")))
	assert.False(t, IsFatal(InvalidRequest("x")))
	assert.False(t, IsFatal(stderrors.New("plain")))
}

func TestIsTransient(t *testing.T) {
	assert.True(t, IsTransient(DatabaseConnectionError(stderrors.New("x"), "y")))
	assert.True(t, IsTransient(DatabaseQueryTimeout(stderrors.New("x"), "y")))
	assert.False(t, IsTransient(DatabaseQueryError(stderrors.New("x"), "y")))
	assert.False(t, IsTransient(stderrors.New("plain")))
}

func TestParseErrorfAndInvalidRequestf_FormatMessage(t *testing.T) {
	e := ParseErrorf("line %d: %s", 12, "unexpected token")
	assert.Equal(t, "line 12: unexpected token", e.Message)

	e2 := InvalidRequestf("field %q is required", "name")
	require.Equal(t, `field "name" is required`, e2.Message)
}
