package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/leapstack-labs/tern/pkg/diag"
)

// severityDescriptions explains what each default severity means.
var severityDescriptions = map[diag.Severity]string{
	diag.SeverityFatal:   "Stops checking the file under the default policy.",
	diag.SeverityError:   "The construct is dropped or replaced and the file fails.",
	diag.SeverityWarning: "Reported, the file still passes.",
	diag.SeverityInfo:    "Informational.",
	diag.SeverityHint:    "Suggestion.",
}

// generateCodeDocs writes the diagnostic code reference.
func generateCodeDocs(outDir string) error {
	log.Printf("Generating diagnostic docs to %s", outDir)

	if err := os.MkdirAll(outDir, 0750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	codes := diag.AllCodes()
	w := NewMarkdownWriter()
	w.Frontmatter("Diagnostics", "Diagnostic codes reported by the tern type checker")
	w.GeneratedMarker()

	w.Header(1, "Diagnostics")
	w.Paragraph(fmt.Sprintf("The type checker reports **%d diagnostic codes**. Each code has a default severity that can be changed in %s:", len(codes), InlineCode("tern.yaml")))
	w.CodeBlock("yaml", `check:
  abort_at: error
  severity:
    mismatched-types: warning`)

	for sev := diag.SeverityFatal; sev <= diag.SeverityHint; sev++ {
		var rows [][]string
		for _, info := range codes {
			if info.DefaultSeverity == sev {
				rows = append(rows, []string{InlineCode(string(info.Code)), cleanDescription(info.Description)})
			}
		}
		if len(rows) == 0 {
			continue
		}
		w.Header(2, capitalizeFirst(sev.String()))
		w.Paragraph(severityDescriptions[sev])
		w.Table([]string{"Code", "Description"}, rows)
	}

	filename := filepath.Join(outDir, "index.md")
	if err := os.WriteFile(filename, w.Bytes(), 0600); err != nil {
		return err
	}
	log.Printf("  Generated index.md")
	return nil
}

func capitalizeFirst(s string) string {
	if s == "" {
		return s
	}
	return string(s[0]-'a'+'A') + s[1:]
}
