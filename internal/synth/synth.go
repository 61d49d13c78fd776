// The package building, for one command, the statements that turn decoded
// arguments into a native API call: handle remapping, scratch array
// allocation, the call arguments and the cleanup after the call.
package synth

import (
	"fmt"
	"strings"

	"replaygen/internal/classify"
	"replaygen/internal/diag"
	"replaygen/internal/registry"
)

// Options names the replay framework symbols used by generated code and the
// strictness of the generation.
type Options struct {
	// Struct whose captured values are replaced by replay owned callbacks.
	AllocationCallbacksType string
	// Object mapper member used for handle lookups, e.g. "object_mapper_".
	ObjectMapper string
	// Class owning the Map<Handle>/Add<Handle> member functions.
	MapperClass string
	// Turn untyped pointers without a length into errors.
	StrictOpaquePointers bool
	// Turn length expressions referring to later parameters into errors.
	StrictLengthOrder bool
}

func DefaultOptions() Options {
	return Options{
		AllocationCallbacksType: "VkAllocationCallbacks",
		ObjectMapper:            "object_mapper_",
		MapperClass:             "VulkanObjectMapper",
	}
}

// Result holds the generated fragments for one command. Args are in the
// declared parameter order; Setup runs before the call and Teardown after it.
type Result struct {
	Args        []string
	Setup       []string
	Teardown    []string
	Carriers    []classify.Carrier
	Diagnostics diag.List
}

// Skipped reports whether the command could not be generated.
func (r Result) Skipped() bool {
	return r.Diagnostics.HasErrors()
}

type synthesizer struct {
	cmd     registry.Command
	types   *registry.TypeRegistry
	options Options
	result  Result

	lengths lengthBindings

	// Parameter name to decoded-struct intermediate, for member lengths.
	structs map[string]string

	// Parameter name to struct array intermediate, whose first element
	// holds member lengths.
	structArrays map[string]string
}

// Synthesize builds the call expressions for a command. Parameters are
// processed strictly in declared order.
func Synthesize(cmd registry.Command, types *registry.TypeRegistry, options Options) Result {
	s := &synthesizer{
		cmd:          cmd,
		types:        types,
		options:      options,
		lengths:      make(lengthBindings),
		structs:      make(map[string]string),
		structArrays: make(map[string]string),
	}

	orderSeverity := diag.Warning
	if options.StrictLengthOrder {
		orderSeverity = diag.Error
	}
	s.result.Diagnostics = ValidateLengthOrder(cmd, orderSeverity)

	for index, param := range cmd.Params {
		classified := classify.Resolve(param, types)
		s.result.Carriers = append(s.result.Carriers, classified.Carrier)
		s.result.Diagnostics = append(s.result.Diagnostics, classified.Diagnostics.ForCommand(cmd.Name)...)
		s.parameter(index, param, classified.Carrier)
	}

	return s.result
}

func (s *synthesizer) setup(format string, args ...any) {
	s.result.Setup = append(s.result.Setup, fmt.Sprintf(format, args...))
}

func (s *synthesizer) teardown(format string, args ...any) {
	s.result.Teardown = append(s.result.Teardown, fmt.Sprintf(format, args...))
}

func (s *synthesizer) arg(arg string) {
	s.result.Args = append(s.result.Args, arg)
}

func (s *synthesizer) report(severity diag.Severity, param registry.Parameter, format string, args ...any) {
	s.result.Diagnostics.Add(severity, s.cmd.Name, param.Name, format, args...)
}

func (s *synthesizer) parameter(index int, param registry.Parameter, carrier classify.Carrier) {
	switch {
	case param.IsPointerLike():
		s.pointer(index, param, carrier)
	case carrier.Kind == classify.HandleScalar:
		argName := "in_" + param.Name
		s.setup("%s %s = %s.Map%s(%s);", param.TypeSpelling(), argName, s.options.ObjectMapper, param.Type, param.Name)
		s.arg(argName)
	case carrier.Kind == classify.FunctionPointer:
		s.report(diag.Warning, param, "%s parameter is not supported, no replay code was generated for it", param.Type)
	case carrier.Kind == classify.DecodedStruct:
		s.arg("*" + param.Name + ".decoded_value")
	default:
		s.arg(param.Name)
	}
}

func (s *synthesizer) pointer(index int, param registry.Parameter, carrier classify.Carrier) {
	isInput := param.IsInput()
	paramType := param.TypeSpelling()
	argName := "out_" + param.Name
	if isInput {
		argName = "in_" + param.Name
	}

	length := param.ArrayLength()
	count := ""
	if length != "" {
		count = s.resolveLength(index, param, length)
	}

	category := s.types.Category(param.Type)

	if carrier.Kind == classify.PointerArray && param.Depth() == 1 && length == "" && isLengthOfLater(s.cmd, index, param.Name) {
		// In/out array length. The value is copied to an intermediate so the
		// array it sizes can be allocated from it.
		value := argName + "_value"
		s.setup("%[1]s %[2]s = %[3]s.IsNull() ? static_cast<%[1]s>(0) : *(%[3]s.GetPointer());", param.Type, value, param.Name)
		s.lengths[param.Name] = value
		s.arg("&" + value)
		return
	}

	if category == registry.CategoryOpaque && length == "" {
		s.opaque(param, argName, paramType, isInput)
		return
	}

	if isInput {
		s.input(param, carrier, argName, paramType, count)
	} else {
		s.output(param, carrier, argName, paramType, count)
	}
}

// opaque handles untyped pointers with no length. What they point to is
// unknown, so replay cannot reproduce it faithfully.
func (s *synthesizer) opaque(param registry.Parameter, argName, paramType string, isInput bool) {
	switch {
	case s.options.StrictOpaquePointers:
		s.report(diag.Error, param, "refusing to generate replay code for an unrecognized %s parameter", paramType)
	case param.Depth() > 1:
		// Single level pointers were already reported by the classifier.
		s.report(diag.Warning, param, "generating replay code with an unrecognized %s parameter", paramType)
	}

	if isInput {
		s.setup("%s %s = nullptr;", paramType, argName)
		s.arg(argName)
		return
	}

	value := argName + "_value"
	if param.Depth() > 1 {
		s.setup("%s%s %s = nullptr;", param.Type, strings.Repeat("*", param.Depth()-1), value)
	} else {
		s.setup("%s %s = 0;", classify.AddressType, value)
	}
	s.arg("&" + value)
}

func (s *synthesizer) input(param registry.Parameter, carrier classify.Carrier, argName, paramType, count string) {
	switch {
	case param.Type == s.options.AllocationCallbacksType:
		// Replay supplies its own allocator, the captured one is meaningless.
		s.setup("%s %s = GetAllocationCallbacks(%s);", paramType, argName, param.Name)
		s.arg(argName)
	case carrier.Kind == classify.HandleArray:
		if count == "" {
			count = "1"
		}
		s.setup("%[1]s* %[2]s = %[3]s.IsNull() ? nullptr : AllocateArray<%[1]s>(%[4]s);", param.Type, argName, param.Name, count)
		s.setup("MapHandles<%[1]s>(%[2]s.GetPointer(), %[3]s, %[4]s, &%[5]s::Map%[1]s);", param.Type, param.Name, argName, count, s.options.MapperClass)
		s.teardown("FreeArray<%s>(&%s);", param.Type, argName)
		s.arg(argName)
	case carrier.Kind == classify.StructPointer && count == "":
		// Decoded-struct intermediate. Later parameters may read their
		// array lengths from its members.
		s.setup("%[1]s %[2]s = %[3]s.IsNull() ? %[1]s{} : *(%[3]s.GetPointer());", param.Type, argName, param.Name)
		s.structs[param.Name] = argName
		if !param.Optional {
			s.arg("&" + argName)
			break
		}
		// A null captured pointer must stay null on replay.
		pointerName := argName + "_ptr"
		s.setup("const %[1]s* %[2]s = %[3]s.IsNull() ? nullptr : &%[4]s;", param.Type, pointerName, param.Name, argName)
		s.arg(pointerName)
	default:
		s.setup("%[1]s %[2]s = reinterpret_cast<%[1]s>(%[3]s.GetPointer());", paramType, argName, param.Name)
		if carrier.Kind == classify.StructPointer {
			s.structArrays[param.Name] = argName
		}
		s.arg(argName)
	}
}

func (s *synthesizer) output(param registry.Parameter, carrier classify.Carrier, argName, paramType, count string) {
	isHandle := carrier.Kind == classify.HandleArray

	if count != "" {
		element := param.Type + strings.Repeat("*", param.Depth()-1)
		switch carrier.Kind {
		case classify.ByteArray:
			element = classify.ByteType
		case classify.HandleArray:
			element = param.Type
		}
		s.setup("%[1]s* %[2]s = %[3]s.IsNull() ? nullptr : AllocateArray<%[1]s>(%[4]s);", element, argName, param.Name, count)
		if isHandle {
			s.teardown("AddHandles<%[1]s>(%[2]s.GetPointer(), %[3]s, %[4]s, &%[5]s::Add%[1]s);", param.Type, param.Name, argName, count, s.options.MapperClass)
		}
		s.teardown("FreeArray<%s>(&%s);", element, argName)
		s.arg(argName)
		return
	}

	value := argName + "_value"
	switch {
	case param.Depth() > 1 && !isHandle:
		s.setup("%s%s %s = nullptr;", param.Type, strings.Repeat("*", param.Depth()-1), value)
	case carrier.Kind == classify.StructPointer:
		s.setup("%s %s = {};", param.Type, value)
	default:
		s.setup("%[1]s %[2]s = static_cast<%[1]s>(0);", param.Type, value)
	}
	if isHandle {
		s.teardown("AddHandles<%[1]s>(%[2]s.GetPointer(), &%[3]s, 1, &%[4]s::Add%[1]s);", param.Type, param.Name, value, s.options.MapperClass)
	}
	s.arg("&" + value)
}

// resolveLength rewrites a length expression so that it reads from values
// available in the generated code: in/out length intermediates first, then
// members of decoded-struct intermediates.
func (s *synthesizer) resolveLength(index int, param registry.Parameter, length string) string {
	if bound, found := s.lengths[length]; found {
		return bound
	}

	structName, member, found := splitMember(length)
	if !found {
		return length
	}
	if intermediate, materialized := s.structs[structName]; materialized {
		return intermediate + "." + member
	}
	if intermediate, materialized := s.structArrays[structName]; materialized {
		return intermediate + memberAccess + member
	}

	// Parameters declared later were already reported by ValidateLengthOrder.
	if _, position, declared := s.cmd.Param(structName); !declared || position < index {
		s.report(diag.Error, param, "length %q reads a member of %s, which has no decoded input struct to read it from", length, structName)
	}
	return "in_" + length
}
