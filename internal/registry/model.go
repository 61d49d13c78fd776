// The package describing the API surface consumed by the replay generator:
// commands, their parameters, the features that group them and the type
// registry used to classify parameter types.
package registry

import (
	"strings"
)

const nullTerminated = "null-terminated"

// Parameter describes a single command parameter as declared by the API.
type Parameter struct {
	Name          string
	Type          string // Undecorated base type name.
	PointerDepth  int
	IsConst       bool // Const-qualified pointers are inputs.
	IsStaticArray bool
	ArrayExtent   string // Literal extent of a static array, e.g. "4" or "VK_UUID_SIZE".
	Length        string // Raw length attribute, e.g. "pCount" or "pInfo->count".
	Spelling      string // Full declared type text without the name, when known.
	Optional      bool   // The pointer itself may be null.
}

// Command describes one API entry point.
type Command struct {
	Name       string
	ReturnType string // Empty for void.
	Params     []Parameter
}

// Feature is a named group of commands, e.g. a core version or an extension.
type Feature struct {
	Name     string
	Protect  string // Platform protection symbol, may be empty.
	Commands []string
}

// Document is everything read from an API description.
type Document struct {
	Types    *TypeRegistry
	Commands map[string]Command
	Features []Feature
}

// IsInput reports whether the parameter is read by the callee only.
func (p Parameter) IsInput() bool {
	return p.IsConst
}

// Depth returns the pointer depth used for classification. Static arrays are
// treated as a single level of indirection.
func (p Parameter) Depth() int {
	if p.IsStaticArray {
		return 1
	}
	return p.PointerDepth
}

// IsPointerLike reports whether the parameter is received through memory.
func (p Parameter) IsPointerLike() bool {
	return p.PointerDepth > 0 || p.IsStaticArray
}

// ArrayLength returns the expression giving the element count of the
// parameter, or an empty string when it has none. Member access written as
// "::" in the description is normalized to "->".
func (p Parameter) ArrayLength() string {
	if p.Length != "" {
		result := p.Length
		if strings.Contains(result, nullTerminated) {
			// Plain strings carry no count; string arrays are "count,null-terminated".
			result = ""
			if p.Length != nullTerminated {
				result = strings.Split(p.Length, ",")[0]
			}
		}
		return strings.ReplaceAll(result, "::", "->")
	}

	if p.IsStaticArray {
		return p.ArrayExtent
	}

	return ""
}

// TypeSpelling returns the C type of the parameter as it is passed to the
// API call. Static arrays are spelled as pointers.
func (p Parameter) TypeSpelling() string {
	spelling := p.Spelling
	if spelling == "" {
		var sb strings.Builder
		if p.IsConst {
			sb.WriteString("const ")
		}
		sb.WriteString(p.Type)
		sb.WriteString(strings.Repeat("*", p.PointerDepth))
		spelling = sb.String()
	}

	if p.IsStaticArray {
		spelling += "*"
	}

	return spelling
}

// Param returns the parameter with the given name.
func (c Command) Param(name string) (Parameter, int, bool) {
	for i, param := range c.Params {
		if param.Name == name {
			return param, i, true
		}
	}
	return Parameter{}, -1, false
}

// HasReturnValue reports whether the command returns something other than void.
func (c Command) HasReturnValue() bool {
	return c.ReturnType != "" && strings.TrimSpace(c.ReturnType) != "void"
}
