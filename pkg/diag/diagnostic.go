package diag

import (
	"fmt"
	"sort"

	"github.com/leapstack-labs/tern/pkg/token"
)

// Diagnostic is a single finding of the type checker.
type Diagnostic struct {
	Code     Code           `json:"code" yaml:"code"`
	Severity Severity       `json:"severity" yaml:"severity"`
	Message  string         `json:"message" yaml:"message"`
	Pos      token.Position `json:"pos" yaml:"pos"`
	File     string         `json:"file,omitempty" yaml:"file,omitempty"`
}

func (d Diagnostic) String() string {
	loc := d.Pos.String()
	if d.File != "" {
		loc = d.File + ":" + loc
	}
	return fmt.Sprintf("%s: %s: %s [%s]", loc, d.Severity, d.Message, d.Code)
}

// List is an ordered set of diagnostics.
type List []Diagnostic

// Count returns how many diagnostics have exactly severity sev.
func (l List) Count(sev Severity) int {
	n := 0
	for _, d := range l {
		if d.Severity == sev {
			n++
		}
	}
	return n
}

// HasAtLeast reports whether any diagnostic is at least as severe as sev.
func (l List) HasAtLeast(sev Severity) bool {
	for _, d := range l {
		if d.Severity.AtLeast(sev) {
			return true
		}
	}
	return false
}

// Filter returns the diagnostics at least as severe as sev.
func (l List) Filter(sev Severity) List {
	var out List
	for _, d := range l {
		if d.Severity.AtLeast(sev) {
			out = append(out, d)
		}
	}
	return out
}

// Sort orders diagnostics by file and position.
func (l List) Sort() {
	sort.SliceStable(l, func(i, j int) bool {
		if l[i].File != l[j].File {
			return l[i].File < l[j].File
		}
		if l[i].Pos.Line != l[j].Pos.Line {
			return l[i].Pos.Line < l[j].Pos.Line
		}
		return l[i].Pos.Column < l[j].Pos.Column
	})
}
