package classify

import (
	"strings"

	"replaygen/internal/diag"
	"replaygen/internal/registry"
)

// Result is the carrier chosen for a parameter along with anything worth
// reporting about the choice.
type Result struct {
	Carrier     Carrier
	Diagnostics diag.List
}

// Resolve classifies a parameter against the type registry. It is pure: the
// same parameter and registry always give the same result.
func Resolve(param registry.Parameter, types *registry.TypeRegistry) Result {
	var result Result
	category := types.Category(param.Type)
	depth := param.Depth()
	carrier := func(kind Kind) Carrier { return Carrier{Kind: kind, Base: param.Type} }

	if depth > 0 {
		if depth > 1 && category != registry.CategoryChar && category != registry.CategoryOpaque {
			result.Diagnostics.Add(diag.Warning, "", param.Name,
				"processing a multi-dimensional array that is not an array of strings (%s%s)",
				param.Type, strings.Repeat("*", depth))
			if category == registry.CategoryHandle {
				// Recorded as handle ids regardless of depth, they still need remapping.
				result.Carrier = carrier(HandleArray)
			} else {
				result.Carrier = carrier(AddressArray)
			}
			return result
		}

		switch category {
		case registry.CategoryStruct:
			result.Carrier = carrier(StructPointer)
		case registry.CategoryChar:
			if depth > 1 {
				result.Carrier = carrier(StringArray)
			} else {
				result.Carrier = carrier(String)
			}
		case registry.CategoryOpaque:
			switch {
			case param.ArrayLength() != "":
				// Sized untyped memory was recorded as bytes.
				result.Carrier = carrier(ByteArray)
			case depth > 1:
				// Pointer to a pointer to an unknown object, recorded as an address.
				result.Carrier = carrier(AddressArray)
			default:
				result.Diagnostics.Add(diag.Warning, "", param.Name,
					"unrecognized %s* parameter without a length, treating it as a 64-bit object id", param.Type)
				result.Carrier = carrier(OpaqueAddress)
			}
		case registry.CategoryHandle:
			result.Carrier = carrier(HandleArray)
		default:
			result.Carrier = carrier(PointerArray)
		}
		return result
	}

	switch category {
	case registry.CategoryFunctionPointer:
		result.Carrier = carrier(FunctionPointer)
	case registry.CategoryHandle:
		result.Carrier = carrier(HandleScalar)
	case registry.CategoryStruct:
		result.Carrier = carrier(DecodedStruct)
	case registry.CategoryUnknown:
		result.Diagnostics.Add(diag.Notice, "", param.Name,
			"type %s matches no known category, passing it through", param.Type)
		result.Carrier = carrier(Raw)
	default:
		result.Carrier = carrier(Raw)
	}
	return result
}

// ResolveAll classifies every parameter of a command, in order. The returned
// diagnostics carry the command name.
func ResolveAll(cmd registry.Command, types *registry.TypeRegistry) ([]Carrier, diag.List) {
	carriers := make([]Carrier, len(cmd.Params))
	var diagnostics diag.List
	for i, param := range cmd.Params {
		result := Resolve(param, types)
		carriers[i] = result.Carrier
		diagnostics = append(diagnostics, result.Diagnostics...)
	}
	return carriers, diagnostics.ForCommand(cmd.Name)
}
