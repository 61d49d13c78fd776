package synth

import (
	"strings"

	"replaygen/internal/diag"
	"replaygen/internal/registry"
)

const memberAccess = "->"

// splitMember splits "pInfo->count" into "pInfo" and "count".
func splitMember(expr string) (string, string, bool) {
	return strings.Cut(expr, memberAccess)
}

// leadingIdentifier returns the identifier a length expression starts with,
// e.g. "pInfo" for "pInfo->count" and "count" for "count".
func leadingIdentifier(expr string) string {
	end := strings.IndexFunc(expr, func(r rune) bool {
		return !(r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9')
	})
	if end < 0 {
		return expr
	}
	return expr[:end]
}

// lengthBindings maps a length parameter name to the intermediate variable
// holding its value. It lives for one Synthesize call.
type lengthBindings map[string]string

// ValidateLengthOrder reports array lengths that refer to a parameter of the
// same command which is not declared before the array. The generated code
// reads such lengths from intermediates that would not exist yet.
func ValidateLengthOrder(cmd registry.Command, severity diag.Severity) diag.List {
	var diagnostics diag.List
	for index, param := range cmd.Params {
		if param.Length == "" {
			continue
		}
		length := param.ArrayLength()
		if length == "" {
			continue
		}

		referenced := leadingIdentifier(length)
		_, position, found := cmd.Param(referenced)
		if !found || position < index {
			continue
		}

		diagnostics.Add(severity, cmd.Name, param.Name,
			"length %q refers to parameter %s which is not declared before %s", length, referenced, param.Name)
	}
	return diagnostics
}

// isLengthOfLater reports whether any parameter after index uses the named
// parameter as its array length.
func isLengthOfLater(cmd registry.Command, index int, name string) bool {
	for _, param := range cmd.Params[index+1:] {
		if param.ArrayLength() == name {
			return true
		}
	}
	return false
}
