package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParameterArrayLength(t *testing.T) {
	tests := []struct {
		name  string
		param Parameter
		want  string
	}{
		{name: "no length", param: Parameter{Name: "pInfo", PointerDepth: 1}, want: ""},
		{name: "parameter", param: Parameter{Length: "count"}, want: "count"},
		{name: "member", param: Parameter{Length: "pAllocateInfo->commandBufferCount"}, want: "pAllocateInfo->commandBufferCount"},
		{name: "scoped member", param: Parameter{Length: "pInfo::count"}, want: "pInfo->count"},
		{name: "string", param: Parameter{Length: "null-terminated"}, want: ""},
		{name: "string array", param: Parameter{Length: "enabledLayerCount,null-terminated"}, want: "enabledLayerCount"},
		{name: "static array", param: Parameter{IsStaticArray: true, ArrayExtent: "4"}, want: "4"},
		{name: "length wins over extent", param: Parameter{IsStaticArray: true, ArrayExtent: "4", Length: "count"}, want: "count"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.param.ArrayLength())
		})
	}
}

func TestParameterTypeSpelling(t *testing.T) {
	tests := []struct {
		name  string
		param Parameter
		want  string
	}{
		{name: "value", param: Parameter{Type: "uint32_t"}, want: "uint32_t"},
		{name: "const pointer", param: Parameter{Type: "VkInstanceCreateInfo", PointerDepth: 1, IsConst: true}, want: "const VkInstanceCreateInfo*"},
		{name: "double pointer", param: Parameter{Type: "void", PointerDepth: 2}, want: "void**"},
		{name: "declared spelling", param: Parameter{Type: "char", PointerDepth: 2, Spelling: "const char* const*"}, want: "const char* const*"},
		{name: "static array", param: Parameter{Type: "float", IsConst: true, IsStaticArray: true, ArrayExtent: "4"}, want: "const float*"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.param.TypeSpelling())
		})
	}
}

func TestParameterDepth(t *testing.T) {
	assert.Equal(t, 0, Parameter{Type: "uint32_t"}.Depth())
	assert.Equal(t, 2, Parameter{Type: "char", PointerDepth: 2}.Depth())
	assert.Equal(t, 1, Parameter{Type: "float", IsStaticArray: true}.Depth())

	assert.False(t, Parameter{Type: "uint32_t"}.IsPointerLike())
	assert.True(t, Parameter{Type: "float", IsStaticArray: true}.IsPointerLike())
}

func TestCommand(t *testing.T) {
	cmd := Command{
		Name:       "vkCreateInstance",
		ReturnType: "VkResult",
		Params: []Parameter{
			{Name: "pCreateInfo", Type: "VkInstanceCreateInfo", PointerDepth: 1, IsConst: true},
			{Name: "pInstance", Type: "VkInstance", PointerDepth: 1},
		},
	}

	param, index, found := cmd.Param("pInstance")
	assert.True(t, found)
	assert.Equal(t, 1, index)
	assert.Equal(t, "VkInstance", param.Type)
	assert.False(t, param.IsInput())

	_, index, found = cmd.Param("pMissing")
	assert.False(t, found)
	assert.Equal(t, -1, index)

	assert.True(t, cmd.HasReturnValue())
	assert.False(t, Command{ReturnType: "void"}.HasReturnValue())
	assert.False(t, Command{}.HasReturnValue())
}
