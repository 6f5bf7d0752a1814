package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func newTest(mode Mode, tty bool) (*Renderer, *bytes.Buffer, *bytes.Buffer) {
	var out, errOut bytes.Buffer
	return NewRendererWithTTY(&out, &errOut, tty, mode), &out, &errOut
}

func TestEffectiveMode(t *testing.T) {
	tests := []struct {
		mode Mode
		tty  bool
		want Mode
	}{
		{ModeAuto, true, ModeText},
		{ModeAuto, false, ModeMarkdown},
		{"", false, ModeMarkdown},
		{ModeJSON, true, ModeJSON},
		{ModeText, false, ModeText},
	}
	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			r, _, _ := newTest(tt.mode, tt.tty)
			assert.Equal(t, tt.want, r.EffectiveMode())
		})
	}
}

func TestStructured(t *testing.T) {
	for mode, want := range map[Mode]bool{ModeJSON: true, ModeYAML: true, ModeText: false, ModeMarkdown: false} {
		r, _, _ := newTest(mode, false)
		assert.Equal(t, want, r.Structured(), mode)
	}
}

func TestMarkdownOutput(t *testing.T) {
	r, out, errOut := newTest(ModeMarkdown, false)

	r.Header(2, "Results")
	r.StatusLine("a.tn", "ok", "")
	r.StatusLine("b.tn", "failed", "2 errors")
	r.Success("all good")
	r.Error("boom")

	got := out.String()
	assert.Contains(t, got, "## Results\n")
	assert.Contains(t, got, "- **[OK]** a.tn\n")
	assert.Contains(t, got, "- **[FAILED]** b.tn: 2 errors\n")
	assert.Contains(t, got, "**all good**")
	assert.Equal(t, "Error: boom\n", errOut.String())
	assert.NotContains(t, got, "\x1b[")
}

func TestTextOutputWithoutTTYHasNoANSI(t *testing.T) {
	r, out, _ := newTest(ModeText, false)
	r.Header(1, "Check")
	r.StatusLine("a.tn", "ok", "0.1ms")
	r.StatusLine("b.tn", "failed", "")
	r.Warning("careful")

	got := out.String()
	assert.NotContains(t, got, "\x1b[")
	assert.Contains(t, got, "✓ a.tn 0.1ms")
	assert.Contains(t, got, "✗ b.tn")
	assert.Contains(t, got, "! careful")
}

func TestTable(t *testing.T) {
	header := []string{"File", "Status"}
	rows := [][]string{{"a.tn", "ok"}, {"b.tn", "failed"}}

	t.Run("markdown", func(t *testing.T) {
		r, out, _ := newTest(ModeMarkdown, false)
		r.Table(header, rows)
		got := out.String()
		assert.Contains(t, got, "| File | Status |")
		assert.Contains(t, got, "| a.tn | ok |")
	})

	t.Run("text", func(t *testing.T) {
		r, out, _ := newTest(ModeText, false)
		r.Table(header, rows)
		got := out.String()
		assert.Contains(t, got, "┌")
		assert.Contains(t, got, "b.tn")
	})
}

func TestData(t *testing.T) {
	payload := map[string]any{"files": 2, "ok": true}

	t.Run("json", func(t *testing.T) {
		r, out, _ := newTest(ModeJSON, false)
		require.NoError(t, r.Data(payload))
		var got map[string]any
		require.NoError(t, json.Unmarshal(out.Bytes(), &got))
		assert.Equal(t, true, got["ok"])
	})

	t.Run("yaml", func(t *testing.T) {
		r, out, _ := newTest(ModeYAML, false)
		require.NoError(t, r.Data(payload))
		var got map[string]any
		require.NoError(t, yaml.Unmarshal(out.Bytes(), &got))
		assert.Equal(t, 2, got["files"])
		assert.False(t, strings.HasPrefix(out.String(), "{"))
	})
}

func TestHelpers(t *testing.T) {
	assert.Equal(t, "# Top", FormatHeader(0, "Top"))
	assert.Equal(t, "### Deep", FormatHeader(3, "Deep"))
	assert.Equal(t, "- **files**: 3", FormatKeyValue("files", "3"))
	assert.Equal(t, "Type Errors", Title("type-errors"))
}
