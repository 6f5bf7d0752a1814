package lsp

import (
	"net/url"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/leapstack-labs/tern/internal/driver"
	"github.com/leapstack-labs/tern/pkg/token"
)

// Document is an open source file. Result is the compilation of Content and
// is replaced whenever the content changes.
type Document struct {
	URI     string
	Content string
	Version int
	Result  *driver.Result

	lines []int // byte offsets of line starts
}

func newDocument(uri, content string, version int) *Document {
	return &Document{URI: uri, Content: content, Version: version, lines: lineOffsets(content)}
}

// DocumentStore holds the open documents.
type DocumentStore struct {
	mu   sync.RWMutex
	docs map[string]*Document
}

// NewDocumentStore creates an empty store.
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{docs: make(map[string]*Document)}
}

// Put stores doc, replacing any document with the same URI.
func (s *DocumentStore) Put(doc *Document) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[doc.URI] = doc
}

// Close forgets a document.
func (s *DocumentStore) Close(uri string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.docs, uri)
}

// Get returns the document for uri, or nil.
func (s *DocumentStore) Get(uri string) *Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.docs[uri]
}

// List returns the URIs of all open documents, sorted.
func (s *DocumentStore) List() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	uris := make([]string, 0, len(s.docs))
	for uri := range s.docs {
		uris = append(uris, uri)
	}
	sort.Strings(uris)
	return uris
}

func lineOffsets(content string) []int {
	offsets := []int{0}
	for i := 0; i < len(content); i++ {
		if content[i] == '\n' {
			offsets = append(offsets, i+1)
		}
	}
	return offsets
}

// Offset converts an editor position to a byte offset, clamped to the
// content.
func (d *Document) Offset(pos Position) int {
	line := int(pos.Line)
	if line >= len(d.lines) {
		return len(d.Content)
	}
	return min(d.lines[line]+int(pos.Character), len(d.Content))
}

// PositionAt converts a byte offset to an editor position.
func (d *Document) PositionAt(offset int) Position {
	offset = max(0, min(offset, len(d.Content)))
	line := sort.Search(len(d.lines), func(i int) bool { return d.lines[i] > offset }) - 1
	return Position{Line: uint32(line), Character: uint32(offset - d.lines[line])}
}

// WordAt returns the identifier under pos and its range. The word is empty
// when pos is not on an identifier.
func (d *Document) WordAt(pos Position) (string, Range) {
	offset := d.Offset(pos)
	start, end := offset, offset
	for start > 0 && isWordChar(d.Content[start-1]) {
		start--
	}
	for end < len(d.Content) && isWordChar(d.Content[end]) {
		end++
	}
	if start == end {
		return "", Range{Start: pos, End: pos}
	}
	return d.Content[start:end], Range{Start: d.PositionAt(start), End: d.PositionAt(end)}
}

// Prefix returns the identifier characters directly before pos.
func (d *Document) Prefix(pos Position) string {
	end := d.Offset(pos)
	start := end
	for start > 0 && isWordChar(d.Content[start-1]) {
		start--
	}
	return d.Content[start:end]
}

// fullRange covers the whole document.
func (d *Document) fullRange() Range {
	return Range{End: d.PositionAt(len(d.Content))}
}

func isWordChar(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

// toLSP converts a source position to an editor position. Sources are
// compiled with a tab width of one, so columns count bytes.
func toLSP(p token.Position) Position {
	if !p.IsValid() {
		return Position{}
	}
	return Position{Line: uint32(p.Line - 1), Character: uint32(max(p.Column-1, 0))}
}

// fromLSP converts an editor position to a source line and column. The
// offset is left unset.
func fromLSP(p Position) token.Position {
	return token.Position{Line: int(p.Line) + 1, Column: int(p.Character) + 1}
}

// URIToPath converts a file:// URI to a file system path.
func URIToPath(uri string) string {
	u, err := url.Parse(uri)
	if err != nil || u.Scheme != "file" {
		return strings.TrimPrefix(uri, "file://")
	}
	return filepath.FromSlash(u.Path)
}

// PathToURI converts a file system path to a file:// URI.
func PathToURI(path string) string {
	if strings.HasPrefix(path, "file://") {
		return path
	}
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(path)}
	return u.String()
}
