package lsp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/tern/pkg/token"
)

func TestDocumentStore(t *testing.T) {
	store := NewDocumentStore()
	uri := "file:///test/math.tn"

	assert.Nil(t, store.Get(uri))

	store.Put(newDocument(uri, "fn a() {}", 1))
	doc := store.Get(uri)
	require.NotNil(t, doc)
	assert.Equal(t, "fn a() {}", doc.Content)
	assert.Equal(t, 1, doc.Version)

	store.Put(newDocument(uri, "fn b() {}", 2))
	assert.Equal(t, "fn b() {}", store.Get(uri).Content)
	assert.Equal(t, 2, store.Get(uri).Version)

	store.Put(newDocument("file:///test/a.tn", "", 1))
	assert.Equal(t, []string{"file:///test/a.tn", uri}, store.List())

	store.Close(uri)
	assert.Nil(t, store.Get(uri))
	assert.Equal(t, []string{"file:///test/a.tn"}, store.List())
}

func TestDocument_Positions(t *testing.T) {
	doc := newDocument("file:///x.tn", "let a = 1;\nlet bb = a;\n", 1)

	tests := []struct {
		pos    Position
		offset int
	}{
		{Position{Line: 0, Character: 0}, 0},
		{Position{Line: 0, Character: 4}, 4},
		{Position{Line: 1, Character: 0}, 11},
		{Position{Line: 1, Character: 5}, 16},
		{Position{Line: 2, Character: 0}, 23},
		{Position{Line: 9, Character: 0}, 23},
		{Position{Line: 0, Character: 99}, 23},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.offset, doc.Offset(tt.pos), "offset of %+v", tt.pos)
	}

	assert.Equal(t, Position{Line: 1, Character: 4}, doc.PositionAt(15))
	assert.Equal(t, Position{Line: 0, Character: 0}, doc.PositionAt(-3))
	assert.Equal(t, Position{Line: 2, Character: 0}, doc.PositionAt(100))
	assert.Equal(t, Range{End: Position{Line: 2}}, doc.fullRange())
}

func TestDocument_WordAt(t *testing.T) {
	doc := newDocument("file:///x.tn", "assert sq_2(40) == 9;", 1)

	tests := []struct {
		name string
		char uint32
		word string
		from uint32
		to   uint32
	}{
		{"start of word", 7, "sq_2", 7, 11},
		{"inside word", 9, "sq_2", 7, 11},
		{"end of word", 11, "sq_2", 7, 11},
		{"number", 13, "40", 12, 14},
		{"keyword", 0, "assert", 0, 6},
		{"between operators", 16, "", 16, 16},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			word, rng := doc.WordAt(Position{Character: tt.char})
			assert.Equal(t, tt.word, word)
			assert.Equal(t, tt.from, rng.Start.Character)
			assert.Equal(t, tt.to, rng.End.Character)
		})
	}

	assert.Equal(t, "sq", doc.Prefix(Position{Character: 9}))
	assert.Equal(t, "", doc.Prefix(Position{Character: 7}))
}

func TestPositionConversion(t *testing.T) {
	assert.Equal(t, Position{Line: 2, Character: 4}, toLSP(token.Position{Line: 3, Column: 5}))
	assert.Equal(t, Position{}, toLSP(token.Position{}))
	assert.Equal(t, token.Position{Line: 3, Column: 5}, fromLSP(Position{Line: 2, Character: 4}))
}

func TestURIConversion(t *testing.T) {
	tests := []struct {
		uri  string
		path string
	}{
		{"file:///home/user/math.tn", "/home/user/math.tn"},
		{"file:///tmp/with%20space.tn", "/tmp/with space.tn"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.path, URIToPath(tt.uri))
		assert.Equal(t, tt.uri, PathToURI(tt.path))
	}
	assert.Equal(t, "file:///a.tn", PathToURI("file:///a.tn"))
}
