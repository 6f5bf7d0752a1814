package parser

import (
	"github.com/leapstack-labs/tern/pkg/token"
	"github.com/leapstack-labs/tern/pkg/types"
)

// parseType parses a type expression and interns it:
//
//	"[" INT "]" type    fixed array
//	"[" "]" type        slice
//	"*" type            pointer
//	IDENT               bool, i32, u32, f32 or an opaque named type
//	"fn" "(" types ")" ["->" type]
//	"(" types ")"       tuple, () is unit
func (p *Parser) parseType() (*types.Ty, error) {
	tok := p.advance()

	switch {
	case tok.IsPunct('['):
		var (
			length  uint32
			isArray bool
		)
		if n := p.peek(0); n.Kind == token.INT {
			p.advance()
			if n.Int < 0 {
				return nil, custom(n.Pos, ErrArrayLength)
			}
			length, isArray = uint32(n.Int), true
		}
		if err := p.expectPunct(']'); err != nil {
			return nil, err
		}
		elem, err := p.parseType()
		if err != nil {
			return nil, err
		}
		if isArray {
			return p.arena.Array(length, elem), nil
		}
		return p.arena.Slice(elem), nil

	case tok.IsPunct('*'):
		elem, err := p.parseType()
		if err != nil {
			return nil, err
		}
		return p.arena.Pointer(elem), nil

	case tok.Kind == token.IDENT:
		if ty, ok := p.arena.Builtin(tok.Text); ok {
			return ty, nil
		}
		return p.arena.Other(tok.Text), nil

	case tok.IsKeyword(token.Fn):
		if err := p.expectPunct('('); err != nil {
			return nil, err
		}
		params, err := p.parseTypeList()
		if err != nil {
			return nil, err
		}
		ret := p.arena.Unit()
		if p.matchPair('-', '>') {
			if ret, err = p.parseType(); err != nil {
				return nil, err
			}
		}
		return p.arena.Function(params, ret), nil

	case tok.IsPunct('('):
		elems, err := p.parseTypeList()
		if err != nil {
			return nil, err
		}
		return p.arena.Tuple(elems...), nil
	}

	return nil, unexpected(tok, "type")
}

// parseTypeList parses comma separated types up to and including ")".
func (p *Parser) parseTypeList() ([]*types.Ty, error) {
	var list []*types.Ty
	for !p.matchPunct(')') {
		ty, err := p.parseType()
		if err != nil {
			return nil, err
		}
		list = append(list, ty)
		if !p.matchPunct(',') {
			if err := p.expectPunct(')'); err != nil {
				return nil, err
			}
			break
		}
	}
	return list, nil
}
