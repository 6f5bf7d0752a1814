package diag

import "sort"

// Code identifies the kind of a diagnostic.
type Code string

// Diagnostic codes emitted by the type checker.
const (
	CodeMismatchedTypes       Code = "mismatched-types"
	CodeUnresolvedIdentifier  Code = "unresolved-identifier"
	CodeUnresolvedCallee      Code = "unresolved-callee"
	CodeNotCallable           Code = "not-callable"
	CodeArityMismatch         Code = "arity-mismatch"
	CodeInvalidOperand        Code = "invalid-operand"
	CodeInvalidIndex          Code = "invalid-index"
	CodeEmptyArray            Code = "empty-array"
	CodeMissingInitializer    Code = "missing-initializer"
	CodeStructUnsupported     Code = "struct-unsupported"
	CodeNonBoolCondition      Code = "non-bool-condition"
	CodeNotIterable           Code = "not-iterable"
	CodeReturnOutsideFunction Code = "return-outside-function"
	CodeUnsupportedConstruct  Code = "unsupported-construct"
)

// CodeInfo documents a diagnostic code for tooling.
type CodeInfo struct {
	Code            Code     `json:"code" yaml:"code"`
	DefaultSeverity Severity `json:"default_severity" yaml:"default_severity"`
	Description     string   `json:"description" yaml:"description"`
}

var codeInfos = map[Code]CodeInfo{
	CodeMismatchedTypes: {
		Code: CodeMismatchedTypes, DefaultSeverity: SeverityError,
		Description: "operand, initializer, argument or return value has an incompatible type",
	},
	CodeUnresolvedIdentifier: {
		Code: CodeUnresolvedIdentifier, DefaultSeverity: SeverityError,
		Description: "identifier is not bound in any enclosing scope",
	},
	CodeUnresolvedCallee: {
		Code: CodeUnresolvedCallee, DefaultSeverity: SeverityFatal,
		Description: "call to a name that is neither a builtin nor a declared function",
	},
	CodeNotCallable: {
		Code: CodeNotCallable, DefaultSeverity: SeverityError,
		Description: "callee is bound to a value that is not a function",
	},
	CodeArityMismatch: {
		Code: CodeArityMismatch, DefaultSeverity: SeverityError,
		Description: "call passes a different number of arguments than the function declares",
	},
	CodeInvalidOperand: {
		Code: CodeInvalidOperand, DefaultSeverity: SeverityError,
		Description: "prefix operator applied to an unsupported type",
	},
	CodeInvalidIndex: {
		Code: CodeInvalidIndex, DefaultSeverity: SeverityError,
		Description: "index base is not an array or slice, or the index is not i32",
	},
	CodeEmptyArray: {
		Code: CodeEmptyArray, DefaultSeverity: SeverityError,
		Description: "element type of an empty array literal cannot be inferred",
	},
	CodeMissingInitializer: {
		Code: CodeMissingInitializer, DefaultSeverity: SeverityInfo,
		Description: "let binding without an initializer is dropped",
	},
	CodeStructUnsupported: {
		Code: CodeStructUnsupported, DefaultSeverity: SeverityInfo,
		Description: "struct declarations are parsed but not checked",
	},
	CodeNonBoolCondition: {
		Code: CodeNonBoolCondition, DefaultSeverity: SeverityError,
		Description: "if condition or assertion is not a bool",
	},
	CodeNotIterable: {
		Code: CodeNotIterable, DefaultSeverity: SeverityError,
		Description: "for loop over a value that is not an array, slice or range",
	},
	CodeReturnOutsideFunction: {
		Code: CodeReturnOutsideFunction, DefaultSeverity: SeverityFatal,
		Description: "return statement outside of a function body",
	},
	CodeUnsupportedConstruct: {
		Code: CodeUnsupportedConstruct, DefaultSeverity: SeverityFatal,
		Description: "construct the checker does not support yet (yield, open ranges, field access)",
	},
}

// Info returns the documentation of a code.
func Info(code Code) (CodeInfo, bool) {
	info, ok := codeInfos[code]
	return info, ok
}

// DefaultSeverity returns the built-in severity of code. Unknown codes are
// errors.
func DefaultSeverity(code Code) Severity {
	if info, ok := codeInfos[code]; ok {
		return info.DefaultSeverity
	}
	return SeverityError
}

// AllCodes returns every code sorted by name.
func AllCodes() []CodeInfo {
	out := make([]CodeInfo, 0, len(codeInfos))
	for _, info := range codeInfos {
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}
