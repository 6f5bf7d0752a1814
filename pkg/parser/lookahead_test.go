package parser

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/tern/pkg/token"
)

// countingSource records how many tokens were pulled.
type countingSource struct {
	inner TokenSource
	pulls int
}

func (s *countingSource) Next() (token.Token, error) {
	s.pulls++
	return s.inner.Next()
}

func TestLookahead_PeekIsLazy(t *testing.T) {
	src := &countingSource{inner: NewLexer(token.NewSource("test", "a b c"))}
	la := NewLookahead(src)

	assert.Equal(t, 0, src.pulls)

	tok, err := la.Peek(0)
	require.NoError(t, err)
	assert.Equal(t, "a", tok.Text)
	assert.Equal(t, 1, src.pulls)

	tok, err = la.Peek(1)
	require.NoError(t, err)
	assert.Equal(t, "b", tok.Text)
	assert.Equal(t, 2, src.pulls)

	_, err = la.Peek(0)
	require.NoError(t, err)
	assert.Equal(t, 2, src.pulls, "repeat peeks are served from the buffer")
}

func TestLookahead_Advance(t *testing.T) {
	la := NewLookahead(NewLexer(token.NewSource("test", "a b")))

	next, err := la.Peek(1)
	require.NoError(t, err)
	assert.Equal(t, "b", next.Text)

	tok, err := la.Advance()
	require.NoError(t, err)
	assert.Equal(t, "a", tok.Text)

	tok, err = la.Peek(0)
	require.NoError(t, err)
	assert.Equal(t, "b", tok.Text)
}

func TestLookahead_PastEOF(t *testing.T) {
	la := NewLookahead(NewLexer(token.NewSource("test", "a")))

	tok, err := la.Peek(1)
	require.NoError(t, err)
	assert.True(t, tok.IsEOF())

	for i := 0; i < 4; i++ {
		_, err = la.Advance()
		require.NoError(t, err)
	}
	tok, err = la.Peek(1)
	require.NoError(t, err)
	assert.True(t, tok.IsEOF())
}

func TestLookahead_DepthLimit(t *testing.T) {
	la := NewLookahead(NewLexer(token.NewSource("test", "a b c")))

	_, err := la.Peek(MaxLookahead)
	assert.Error(t, err)
	_, err = la.Peek(-1)
	assert.Error(t, err)
}

func TestLookahead_LexErrorIsSticky(t *testing.T) {
	la := NewLookahead(NewLexer(token.NewSource("test", `a "open`)))

	tok, err := la.Peek(0)
	require.NoError(t, err)
	assert.Equal(t, "a", tok.Text)

	_, err = la.Peek(1)
	require.Error(t, err)

	_, err = la.Advance()
	require.NoError(t, err)

	_, err = la.Advance()
	var lexErr *LexError
	require.True(t, errors.As(err, &lexErr))
	assert.Equal(t, LexUnexpectedEndOfSource, lexErr.Kind)
}
