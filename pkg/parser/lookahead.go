package parser

import (
	"fmt"

	"github.com/leapstack-labs/tern/pkg/token"
)

// MaxLookahead is how many unconsumed tokens the grammar may inspect at once.
// Two is enough for every two-character operator and for `op=` detection.
const MaxLookahead = 2

// TokenSource produces tokens one at a time.
type TokenSource interface {
	Next() (token.Token, error)
}

// Lookahead buffers tokens pulled from a TokenSource so the parser can inspect
// upcoming tokens without consuming them. Tokens are pulled lazily, only as
// deep as a Peek asks for.
type Lookahead struct {
	src TokenSource
	buf []token.Token
	err error // sticky lexer failure
}

// NewLookahead wraps src.
func NewLookahead(src TokenSource) *Lookahead {
	return &Lookahead{src: src, buf: make([]token.Token, 0, MaxLookahead)}
}

// Peek returns the token n positions ahead without consuming it. Peek(0) is
// the next token.
func (b *Lookahead) Peek(n int) (token.Token, error) {
	if n < 0 || n >= MaxLookahead {
		return token.Token{}, fmt.Errorf("lookahead offset %d out of range [0, %d)", n, MaxLookahead)
	}
	if err := b.fill(n + 1); err != nil {
		return token.Token{}, err
	}
	return b.buf[n], nil
}

// Advance consumes and returns the next token.
func (b *Lookahead) Advance() (token.Token, error) {
	if err := b.fill(1); err != nil {
		return token.Token{}, err
	}
	tok := b.buf[0]
	if !tok.IsEOF() {
		b.buf = append(b.buf[:0], b.buf[1:]...)
	}
	return tok, nil
}

// Buffered returns how many tokens are currently held.
func (b *Lookahead) Buffered() int {
	return len(b.buf)
}

func (b *Lookahead) fill(n int) error {
	for len(b.buf) < n {
		if b.err != nil {
			return b.err
		}
		if k := len(b.buf); k > 0 && b.buf[k-1].IsEOF() {
			b.buf = append(b.buf, b.buf[k-1])
			continue
		}
		tok, err := b.src.Next()
		if err != nil {
			b.err = err
			return err
		}
		b.buf = append(b.buf, tok)
	}
	return nil
}
