package token

// Keyword identifies a reserved word.
type Keyword uint8

// Reserved words. While is reserved but has no grammar rule.
const (
	If Keyword = iota + 1
	Else
	For
	While
	Loop
	Fn
	Yield
	Return
	Break
	True
	False
	In
	Extern
	Struct
	Let
	Range
	Assert
)

var keywords = map[string]Keyword{
	"if":     If,
	"else":   Else,
	"for":    For,
	"while":  While,
	"loop":   Loop,
	"fn":     Fn,
	"yield":  Yield,
	"return": Return,
	"break":  Break,
	"true":   True,
	"false":  False,
	"in":     In,
	"extern": Extern,
	"struct": Struct,
	"let":    Let,
	"range":  Range,
	"assert": Assert,
}

var keywordNames = func() map[Keyword]string {
	m := make(map[Keyword]string, len(keywords))
	for name, kw := range keywords {
		m[kw] = name
	}
	return m
}()

// LookupKeyword returns the keyword spelled by ident, if any.
func LookupKeyword(ident string) (Keyword, bool) {
	kw, ok := keywords[ident]
	return kw, ok
}

// Keywords returns the spelling of every reserved word.
func Keywords() []string {
	out := make([]string, 0, len(keywords))
	for name := range keywords {
		out = append(out, name)
	}
	return out
}

func (k Keyword) String() string {
	if name, ok := keywordNames[k]; ok {
		return name
	}
	return "<invalid keyword>"
}
