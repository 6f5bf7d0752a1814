package diag

import "fmt"

// Policy decides the severity of every code and which severities abort a
// compilation.
type Policy struct {
	// AbortAt is the least severe level that aborts checking.
	AbortAt Severity

	// SeverityOverrides changes the default severity of codes.
	SeverityOverrides map[Code]Severity
}

// NewPolicy returns the default policy: only fatal diagnostics abort.
func NewPolicy() *Policy {
	return &Policy{
		AbortAt:           SeverityFatal,
		SeverityOverrides: make(map[Code]Severity),
	}
}

// GetSeverity returns the severity for a code, applying any override.
func (p *Policy) GetSeverity(code Code) Severity {
	if p != nil {
		if sev, ok := p.SeverityOverrides[code]; ok {
			return sev
		}
	}
	return DefaultSeverity(code)
}

// SetSeverity overrides the severity for a code.
func (p *Policy) SetSeverity(code Code, severity Severity) *Policy {
	if p.SeverityOverrides == nil {
		p.SeverityOverrides = make(map[Code]Severity)
	}
	p.SeverityOverrides[code] = severity
	return p
}

// ShouldAbort reports whether a diagnostic of severity sev stops checking.
func (p *Policy) ShouldAbort(sev Severity) bool {
	threshold := SeverityFatal
	if p != nil {
		threshold = p.AbortAt
	}
	return sev.AtLeast(threshold)
}

// AbortError is returned when a diagnostic crosses the policy's abort
// threshold.
type AbortError struct {
	Diagnostic Diagnostic
}

func (e *AbortError) Error() string {
	return fmt.Sprintf("check aborted: %s", e.Diagnostic)
}
