package diag

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/tern/pkg/token"
)

func TestParseSeverity(t *testing.T) {
	tests := []struct {
		input string
		want  Severity
		ok    bool
	}{
		{"fatal", SeverityFatal, true},
		{"ERROR", SeverityError, true},
		{"warn", SeverityWarning, true},
		{" info ", SeverityInfo, true},
		{"hint", SeverityHint, true},
		{"loud", SeverityWarning, false},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParseSeverity(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSeverityText(t *testing.T) {
	var s Severity
	require.NoError(t, s.UnmarshalText([]byte("info")))
	assert.Equal(t, SeverityInfo, s)
	assert.Error(t, s.UnmarshalText([]byte("nope")))

	text, err := SeverityFatal.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "fatal", string(text))
}

func TestSeverityAtLeast(t *testing.T) {
	assert.True(t, SeverityFatal.AtLeast(SeverityError))
	assert.True(t, SeverityError.AtLeast(SeverityError))
	assert.False(t, SeverityWarning.AtLeast(SeverityError))
}

func TestPolicy(t *testing.T) {
	p := NewPolicy()
	assert.Equal(t, SeverityFatal, p.GetSeverity(CodeUnresolvedCallee))
	assert.Equal(t, SeverityInfo, p.GetSeverity(CodeMissingInitializer))
	assert.Equal(t, SeverityError, p.GetSeverity(CodeMismatchedTypes))
	assert.Equal(t, SeverityError, p.GetSeverity(Code("made-up")))

	assert.True(t, p.ShouldAbort(SeverityFatal))
	assert.False(t, p.ShouldAbort(SeverityError))

	p.SetSeverity(CodeUnresolvedCallee, SeverityError)
	assert.Equal(t, SeverityError, p.GetSeverity(CodeUnresolvedCallee))

	p.AbortAt = SeverityError
	assert.True(t, p.ShouldAbort(SeverityError))
	assert.False(t, p.ShouldAbort(SeverityWarning))
}

func TestNilPolicyUsesDefaults(t *testing.T) {
	var p *Policy
	assert.Equal(t, SeverityFatal, p.GetSeverity(CodeReturnOutsideFunction))
	assert.True(t, p.ShouldAbort(SeverityFatal))
	assert.False(t, p.ShouldAbort(SeverityError))
}

func TestList(t *testing.T) {
	l := List{
		{Code: CodeMismatchedTypes, Severity: SeverityError, Pos: token.Position{Line: 3, Column: 1}},
		{Code: CodeMissingInitializer, Severity: SeverityInfo, Pos: token.Position{Line: 1, Column: 5}},
		{Code: CodeEmptyArray, Severity: SeverityError, Pos: token.Position{Line: 1, Column: 2}},
	}
	assert.Equal(t, 2, l.Count(SeverityError))
	assert.True(t, l.HasAtLeast(SeverityError))
	assert.False(t, l.HasAtLeast(SeverityFatal))
	assert.Len(t, l.Filter(SeverityWarning), 2)

	l.Sort()
	assert.Equal(t, CodeEmptyArray, l[0].Code)
	assert.Equal(t, CodeMissingInitializer, l[1].Code)
	assert.Equal(t, CodeMismatchedTypes, l[2].Code)
}

func TestDiagnosticString(t *testing.T) {
	d := Diagnostic{
		Code:     CodeNotIterable,
		Severity: SeverityError,
		Message:  "cannot iterate over i32",
		Pos:      token.Position{Line: 2, Column: 7},
		File:     "loop.tn",
	}
	assert.Equal(t, "loop.tn:2:7: error: cannot iterate over i32 [not-iterable]", d.String())
}

func TestAllCodesSorted(t *testing.T) {
	codes := AllCodes()
	require.NotEmpty(t, codes)
	for i := 1; i < len(codes); i++ {
		assert.Less(t, string(codes[i-1].Code), string(codes[i].Code))
	}
}
