package metadata

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"

	"replaygen/internal/registry"
)

var handleType = Type{
	Name:       "HANDLE",
	Properties: []Property{{Name: "Value", Type: Type{Name: "void", PointerDepth: 1, IsBuiltIn: true}}},
	IsHandle:   true,
}

var securityAttributes = Type{
	Name: "SECURITY_ATTRIBUTES",
	Properties: []Property{
		{Name: "nLength", Type: Type{Name: "uint32_t", IsBuiltIn: true}},
		{Name: "lpSecurityDescriptor", Type: Type{Name: "void", PointerDepth: 1, IsBuiltIn: true}},
		{Name: "bInheritHandle", Type: Type{Name: "BOOL", IsBuiltIn: true}},
	},
}

var createEvent = Method{
	Name:       "CreateEventW",
	ReturnType: handleType,
	DllImport:  "KERNEL32.dll",
	Params: []Parameter{
		{Name: "lpEventAttributes", Type: Type{Name: securityAttributes.Name, Properties: securityAttributes.Properties, PointerDepth: 1, IsConst: true}, IsOptional: true},
		{Name: "bManualReset", Type: Type{Name: "BOOL", IsBuiltIn: true}},
		{Name: "lpName", Type: stringTypeDefs["PCWSTR"]},
	},
}

func TestMethodCommand(t *testing.T) {
	want := registry.Command{
		Name:       "CreateEventW",
		ReturnType: "HANDLE",
		Params: []registry.Parameter{
			{Name: "lpEventAttributes", Type: "SECURITY_ATTRIBUTES", PointerDepth: 1, IsConst: true, Spelling: "const SECURITY_ATTRIBUTES*", Optional: true},
			{Name: "bManualReset", Type: "BOOL", Spelling: "BOOL"},
			{Name: "lpName", Type: "wchar_t", PointerDepth: 1, IsConst: true, Spelling: "const wchar_t*"},
		},
	}
	if diff := cmp.Diff(want, createEvent.Command()); diff != "" {
		t.Errorf("command mismatch (-want +got):\n%s", diff)
	}

	void := Method{Name: "Sleep", ReturnType: Type{Name: "void", IsBuiltIn: true}}
	assert.Empty(t, void.Command().ReturnType)

	pointer := Method{Name: "GetCommandLineA", ReturnType: Type{Name: "void", PointerDepth: 1, IsBuiltIn: true}}
	assert.Equal(t, "void*", pointer.Command().ReturnType)
}

func TestDocument(t *testing.T) {
	closeHandle := Method{
		Name:       "CloseHandle",
		ReturnType: Type{Name: "BOOL", IsBuiltIn: true},
		DllImport:  "KERNEL32.dll",
		Params:     []Parameter{{Name: "hObject", Type: handleType}},
	}
	present := Method{
		Name:       "Present",
		ReturnType: Type{Name: "HRESULT", IsBuiltIn: true},
		Params:     []Parameter{{Name: "SyncInterval", Type: Type{Name: "uint32_t", IsBuiltIn: true}}},
	}

	document := Document([]Method{createEvent, present, closeHandle}, func(builder *registry.Builder) {
		builder.AddOpaque("IUnknown")
	})

	want := []registry.Feature{
		{Name: "KERNEL32_DLL", Commands: []string{"CreateEventW", "CloseHandle"}},
		{Name: "WIN32_METADATA", Commands: []string{"Present"}},
	}
	if diff := cmp.Diff(want, document.Features); diff != "" {
		t.Errorf("features mismatch (-want +got):\n%s", diff)
	}
	assert.Len(t, document.Commands, 3)

	types := document.Types
	assert.Equal(t, registry.CategoryHandle, types.Category("HANDLE"))
	assert.Equal(t, registry.CategoryStruct, types.Category("SECURITY_ATTRIBUTES"))
	assert.Equal(t, registry.CategoryChar, types.Category("wchar_t"))
	assert.Equal(t, registry.CategoryScalar, types.Category("BOOL"))
	assert.Equal(t, registry.CategoryScalar, types.Category("HRESULT"))
	assert.Equal(t, registry.CategoryOpaque, types.Category("IUnknown"))
}

func TestIsNativeHandle(t *testing.T) {
	tests := []struct {
		name string
		typ  Type
		want bool
	}{
		{name: "pointer value", typ: handleType, want: true},
		{name: "intptr value", typ: Type{Name: "HWND", Properties: []Property{{Name: "Value", Type: Type{Name: "intptr_t"}}}}, want: true},
		{name: "scalar value", typ: Type{Name: "COLORREF", Properties: []Property{{Name: "Value", Type: Type{Name: "uint32_t"}}}}, want: false},
		{name: "struct", typ: securityAttributes, want: false},
		{name: "empty", typ: Type{Name: "EMPTY"}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isNativeHandle(tt.typ))
		})
	}
}
