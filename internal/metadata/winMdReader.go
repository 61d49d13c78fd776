// The package used for reading Windows Metadata and describing the API calls
// found in it with the generator's command model.
package metadata

import (
	"debug/pe"
	"fmt"
	"slices"
	"strings"

	"github.com/microsoft/go-winmd"
	"github.com/microsoft/go-winmd/flags"

	"replaygen/internal/emit"
	"replaygen/internal/registry"
)

// ECMA-335 parameter attributes.
const (
	paramAttributeIn       = 0x0001
	paramAttributeOut      = 0x0002
	paramAttributeOptional = 0x0010
)

type WinMdReader struct {
	metadata winmd.Metadata
	types    map[string]Type
}

// The map of metadata element types to C type names
var builtInElementTypes map[flags.ElementType]string = map[flags.ElementType]string{
	flags.ElementType_VOID:    "void",
	flags.ElementType_BOOLEAN: "bool",
	flags.ElementType_CHAR:    "wchar_t",
	flags.ElementType_I1:      "int8_t",
	flags.ElementType_I2:      "int16_t",
	flags.ElementType_I4:      "int32_t",
	flags.ElementType_I8:      "int64_t",
	flags.ElementType_U1:      "uint8_t",
	flags.ElementType_U2:      "uint16_t",
	flags.ElementType_U4:      "uint32_t",
	flags.ElementType_U8:      "uint64_t",
	flags.ElementType_R4:      "float",
	flags.ElementType_R8:      "double",
	flags.ElementType_I:       "intptr_t",
	flags.ElementType_U:       "uintptr_t",
}

// Native typedefs that are plain values in C even though the metadata wraps
// them in a struct.
var scalarTypeDefs = []string{"BOOL", "BOOLEAN", "HRESULT", "NTSTATUS", "WPARAM", "LPARAM", "LRESULT"}

// Native string typedefs and their character type.
var stringTypeDefs = map[string]Type{
	"PSTR":   {Name: "char", PointerDepth: 1, IsChar: true},
	"PCSTR":  {Name: "char", PointerDepth: 1, IsChar: true, IsConst: true},
	"PWSTR":  {Name: "wchar_t", PointerDepth: 1, IsChar: true},
	"PCWSTR": {Name: "wchar_t", PointerDepth: 1, IsChar: true, IsConst: true},
}

// Opens the WinMd file under given path
func NewReader(winMdPath string) (*WinMdReader, error) {
	peFile, err := pe.Open(winMdPath)
	if err != nil {
		return nil, fmt.Errorf("could not open metadata file: %w", err)
	}
	defer peFile.Close()

	winmdMetadata, err := winmd.New(peFile)
	if err != nil {
		return nil, fmt.Errorf("could not read metadata: %w", err)
	}

	return &WinMdReader{
		metadata: *winmdMetadata,
		types:    make(map[string]Type),
	}, nil
}

// Tries to get method with given name
func (reader *WinMdReader) TryGetMethod(name string) (element Method, found bool, err error) {
	methodDef, err := reader.tryGetMethodDef(name)
	if err != nil || methodDef == nil {
		return Method{}, false, err
	}

	method, err := reader.getMethod(methodDef)
	if err != nil {
		return Method{}, false, fmt.Errorf("could not read method %s: %w", name, err)
	}
	return method, true, nil
}

func (reader *WinMdReader) getType(sigType winmd.SigType) (Type, error) {
	builtInType, found := builtInElementTypes[sigType.Kind]
	if found {
		return Type{Name: builtInType, IsBuiltIn: true}, nil
	}

	if sigType.Kind == flags.ElementType_PTR {
		innerSigType, _ := sigType.Value.(winmd.SigType)
		innerType, err := reader.getType(innerSigType)
		innerType.PointerDepth++
		return innerType, err
	}

	if sigType.Kind == flags.ElementType_ARRAY || sigType.Kind == flags.ElementType_SZARRAY {
		innerSigType, _ := sigType.Value.(winmd.SigType)
		innerType, err := reader.getType(innerSigType)
		innerType.IsArray = true
		return innerType, err
	}

	typeDef, err := reader.getTypeDef(sigType)
	if err != nil {
		return Type{}, fmt.Errorf("no matching type definition for type was found: %w", err)
	}

	name := typeDef.Name.String()
	if slices.Contains(scalarTypeDefs, name) {
		return Type{Name: name, IsBuiltIn: true}, nil
	}
	if stringType, found := stringTypeDefs[name]; found {
		return stringType, nil
	}
	if known, found := reader.types[name]; found {
		return known, nil
	}

	// Registered before reading fields so self referencing structs terminate.
	retType := Type{Name: name, Properties: make([]Property, 0)}
	reader.types[name] = retType

	for i := typeDef.FieldList.Start; i < typeDef.FieldList.End; i++ {
		field, err := reader.metadata.Tables.Field.Record(i)
		if err != nil {
			return Type{}, fmt.Errorf("no matching field was found: %w", err)
		}
		property, err := reader.getProperty(*field)
		if err != nil {
			return Type{}, fmt.Errorf("no matching type definition for type was found: %w", err)
		}
		retType.Properties = append(retType.Properties, property)
	}

	retType.IsHandle = isNativeHandle(retType)
	reader.types[name] = retType
	return retType, nil
}

// Native typedefs such as HWND are single field structs named "Value"
// wrapping a pointer sized value.
func isNativeHandle(t Type) bool {
	if len(t.Properties) != 1 || t.Properties[0].Name != "Value" {
		return false
	}
	value := t.Properties[0].Type
	return value.PointerDepth > 0 || value.Name == "intptr_t" || value.Name == "uintptr_t"
}

func (reader *WinMdReader) getProperty(field winmd.Field) (Property, error) {
	fieldSignature, err := reader.metadata.FieldSignature(field.Signature)
	if err != nil {
		return Property{}, fmt.Errorf("no matching field signature for field '%s' was found: %w", field.Name.String(), err)
	}
	propertyType, err := reader.getType(fieldSignature.Type)
	if err != nil {
		return Property{}, fmt.Errorf("could not determine property type: %w", err)
	}

	return Property{Name: field.Name.String(), Type: propertyType}, nil
}

func (reader *WinMdReader) getTypeDef(sigType winmd.SigType) (winmd.TypeDef, error) {
	sigTypeIndex, ok := sigType.Value.(winmd.CodedIndex)
	if !ok {
		return winmd.TypeDef{}, fmt.Errorf("unsupported element type %v", sigType.Kind)
	}
	retTypeRef, err := reader.metadata.Tables.TypeRef.Record(sigTypeIndex.Index)
	if err != nil {
		return winmd.TypeDef{}, fmt.Errorf("did not found matching type reference: %w", err)
	}

	typeDef, err := findElementInTable(
		reader.metadata.Tables.TypeDef,
		func(x *winmd.TypeDef) bool {
			return x.Name.String() == retTypeRef.Name.String() && x.Namespace.String() == retTypeRef.Namespace.String()
		})
	if err != nil {
		return winmd.TypeDef{}, err
	}
	if typeDef == nil {
		return winmd.TypeDef{}, fmt.Errorf("did not found matching type definition for %s", retTypeRef.Name.String())
	}

	return *typeDef, nil
}

// Gets the name of the *.dll file that implements given member.
func (reader *WinMdReader) getImportingDll(memberName string) (string, error) {
	implMap, err := findElementInTable(
		reader.metadata.Tables.ImplMap,
		func(implMap *winmd.ImplMap) bool { return implMap.ImportName.String() == memberName })
	if err != nil || implMap == nil {
		return "", err
	}

	dllImport, err := reader.metadata.Tables.ModuleRef.Record(implMap.ImportScope)
	if err != nil {
		return "", err
	}
	return dllImport.Name.String(), nil
}

func (reader *WinMdReader) getMethod(methodDef *winmd.MethodDef) (Method, error) {
	methodSignature, err := reader.metadata.MethodDefSignature(methodDef.Signature)
	if err != nil {
		return Method{}, err
	}

	returnType, err := reader.getType(methodSignature.RetType.Type)
	if err != nil {
		return Method{}, fmt.Errorf("return type: %w", err)
	}

	dllName, err := reader.getImportingDll(methodDef.Name.String())
	if err != nil {
		return Method{}, err
	}

	method := Method{
		Name:       methodDef.Name.String(),
		ReturnType: returnType,
		DllImport:  dllName,
	}

	// The Param table also holds a row for the return value, with sequence 0.
	methodParamListValues := make([]winmd.Param, 0)
	for idx := methodDef.ParamList.Start; idx < methodDef.ParamList.End; idx++ {
		param, err := reader.metadata.Tables.Param.Record(idx)
		if err != nil {
			return Method{}, err
		}
		if param.Sequence > 0 {
			methodParamListValues = append(methodParamListValues, *param)
		}
	}

	if len(methodParamListValues) != len(methodSignature.Param) {
		return Method{}, fmt.Errorf("signature has %d parameters, param table has %d", len(methodSignature.Param), len(methodParamListValues))
	}

	for i, methodParam := range methodSignature.Param {
		paramType, err := reader.getType(methodParam.Type)
		if err != nil {
			return Method{}, fmt.Errorf("parameter %d: %w", i, err)
		}

		attributes := uint16(methodParamListValues[i].Flags)
		if paramType.PointerDepth > 0 && attributes&paramAttributeIn != 0 && attributes&paramAttributeOut == 0 {
			paramType.IsConst = true
		}

		method.Params = append(method.Params, Parameter{
			Name:       methodParamListValues[i].Name.String(),
			Type:       paramType,
			IsOptional: attributes&paramAttributeOptional != 0,
		})
	}

	return method, nil
}

func (reader *WinMdReader) tryGetMethodDef(name string) (*winmd.MethodDef, error) {
	return findElementInTable(
		reader.metadata.Tables.MethodDef,
		func(methodDef *winmd.MethodDef) bool { return methodDef.Name.String() == name })
}

// Finds element in given table and returns it. If element is not found then `nil` is returned.
func findElementInTable[T any, TP winmd.Record[T]](table winmd.Table[T, TP], match func(TP) bool) (TP, error) {
	for idx := uint32(0); idx < table.Len; idx++ {
		element, err := table.Record(winmd.Index(idx))
		if err != nil {
			return nil, err
		}
		if match(element) {
			return element, nil
		}
	}

	return nil, nil
}

// Builds a document out of the given methods. Methods are grouped in one
// feature per importing dll, named after it (e.g. "D3D12_DLL").
func Document(methods []Method, configure ...func(*registry.Builder)) *registry.Document {
	builder := registry.NewBuilder().AddScalars("bool", "intptr_t", "uintptr_t").AddChars("wchar_t")
	builder.AddScalars(scalarTypeDefs...)

	var register func(t Type)
	register = func(t Type) {
		switch {
		case t.IsBuiltIn || t.IsChar:
			return
		case t.IsHandle:
			builder.AddHandles(t.Name)
		case builder.Category(t.Name) == registry.CategoryUnknown:
			builder.AddStructs(t.Name)
			for _, property := range t.Properties {
				register(property.Type)
			}
		}
	}

	document := &registry.Document{Commands: make(map[string]registry.Command)}
	featureIndex := make(map[string]int)
	for _, method := range methods {
		register(method.ReturnType)
		for _, param := range method.Params {
			register(param.Type)
		}

		command := method.Command()
		document.Commands[command.Name] = command

		featureName := "WIN32_METADATA"
		if method.DllImport != "" {
			featureName = emit.HeaderGuard(strings.ToLower(method.DllImport))
		}
		index, found := featureIndex[featureName]
		if !found {
			index = len(document.Features)
			featureIndex[featureName] = index
			document.Features = append(document.Features, registry.Feature{Name: featureName})
		}
		document.Features[index].Commands = append(document.Features[index].Commands, command.Name)
	}

	for _, fn := range configure {
		fn(builder)
	}
	document.Types = builder.Build()
	return document
}
