package emit

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"replaygen/internal/classify"
	"replaygen/internal/diag"
	"replaygen/internal/registry"
	"replaygen/internal/synth"
)

var destroyBuffer = registry.Command{
	Name: "vkDestroyBuffer",
	Params: []registry.Parameter{
		{Name: "device", Type: "VkDevice"},
		{Name: "buffer", Type: "VkBuffer"},
		{Name: "pAllocator", Type: "VkAllocationCallbacks", PointerDepth: 1, IsConst: true},
	},
}

var destroyBufferCarriers = []classify.Carrier{
	{Kind: classify.HandleScalar, Base: "VkDevice"},
	{Kind: classify.HandleScalar, Base: "VkBuffer"},
	{Kind: classify.StructPointer, Base: "VkAllocationCallbacks"},
}

func TestDeclaration(t *testing.T) {
	tests := []struct {
		name    string
		cmd     registry.Command
		options DeclarationOptions
		want    string
	}{
		{
			name:    "unaligned",
			cmd:     destroyBuffer,
			options: DeclarationOptions{Prefix: "VulkanReplayConsumer::Process_"},
			want: "void VulkanReplayConsumer::Process_vkDestroyBuffer(\n" +
				"    HandleId device,\n" +
				"    HandleId buffer,\n" +
				"    const StructPointerDecoder<Decoded_VkAllocationCallbacks>& pAllocator)",
		},
		{
			name:    "aligned",
			cmd:     destroyBuffer,
			options: DeclarationOptions{Prefix: "Process_", AlignColumn: 24},
			want: "void Process_vkDestroyBuffer(\n" +
				"    HandleId" + strings.Repeat(" ", 12) + "device,\n" +
				"    HandleId" + strings.Repeat(" ", 12) + "buffer,\n" +
				"    const StructPointerDecoder<Decoded_VkAllocationCallbacks>& pAllocator)",
		},
		{
			name:    "return value",
			cmd:     registry.Command{Name: "vkDeviceWaitIdle", ReturnType: "VkResult", Params: destroyBuffer.Params[:1]},
			options: DeclarationOptions{APICall: "VKAPI_ATTR ", Prefix: "Process_"},
			want: "VKAPI_ATTR void Process_vkDeviceWaitIdle(\n" +
				"    VkResult returnValue,\n" +
				"    HandleId device)",
		},
		{
			name:    "no parameters",
			cmd:     registry.Command{Name: "vkEnumerateInstanceVersion"},
			options: DeclarationOptions{Prefix: "Process_"},
			want:    "void Process_vkEnumerateInstanceVersion()",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, diagnostics := Declaration(tt.cmd, destroyBufferCarriers[:len(tt.cmd.Params)], tt.options)
			assert.Equal(t, tt.want, got)
			assert.Empty(t, diagnostics)
		})
	}
}

func TestDeclarationPointerReturn(t *testing.T) {
	cmd := registry.Command{Name: "vkGetMappedPointer", ReturnType: "void*"}
	got, diagnostics := Declaration(cmd, nil, DeclarationOptions{})

	assert.Equal(t, "void vkGetMappedPointer(\n    void* returnValue)", got)
	require.Len(t, diagnostics, 1)
	assert.Equal(t, diag.Warning, diagnostics[0].Severity)
	assert.Equal(t, "vkGetMappedPointer", diagnostics[0].Command)
}

func TestBody(t *testing.T) {
	tests := []struct {
		name   string
		result synth.Result
		want   string
	}{
		{
			name:   "arguments only",
			result: synth.Result{Args: []string{"commandBuffer", "firstVertex"}},
			want:   "{\n    vkCmdDraw(commandBuffer, firstVertex);\n}\n",
		},
		{
			name: "setup",
			result: synth.Result{
				Setup: []string{"VkBuffer in_buffer = object_mapper_.MapVkBuffer(buffer);"},
				Args:  []string{"in_buffer"},
			},
			want: "{\n" +
				"    VkBuffer in_buffer = object_mapper_.MapVkBuffer(buffer);\n" +
				"\n" +
				"    vkCmdDraw(in_buffer);\n" +
				"}\n",
		},
		{
			name: "setup and teardown",
			result: synth.Result{
				Setup:    []string{"uint32_t* out_pValues = pValues.IsNull() ? nullptr : AllocateArray<uint32_t>(count);"},
				Args:     []string{"count", "out_pValues"},
				Teardown: []string{"FreeArray<uint32_t>(&out_pValues);"},
			},
			want: "{\n" +
				"    uint32_t* out_pValues = pValues.IsNull() ? nullptr : AllocateArray<uint32_t>(count);\n" +
				"\n" +
				"    vkCmdDraw(count, out_pValues);\n" +
				"\n" +
				"    FreeArray<uint32_t>(&out_pValues);\n" +
				"}\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Body("vkCmdDraw", tt.result))
		})
	}
}

func TestHeaderGuard(t *testing.T) {
	assert.Equal(t, "GENERATED_VULKAN_REPLAY_CONSUMER_CPP", HeaderGuard("generated/generated_vulkan_replay_consumer.cpp"))
	assert.Equal(t, "D3D12_DLL", HeaderGuard("d3d12.dll"))
	assert.Equal(t, "MY_FILE_NAME_H", HeaderGuard("my-file name.h"))
}

func TestFileWriter(t *testing.T) {
	var sb strings.Builder
	writer := NewFileWriter(&sb, "out/replay.cpp", FileOptions{
		ProtectFile:        true,
		ProtectFeature:     true,
		ProtectProto:       "#ifndef",
		ProtectProtoSymbol: "VK_NO_PROTOTYPES",
		PrefixText:         []string{`#include "replay.h"`},
	})

	require.NoError(t, writer.Begin())
	require.NoError(t, writer.Feature("VK_VERSION_1_0", "", nil))
	require.NoError(t, writer.Feature("VK_KHR_android_surface", "VK_USE_PLATFORM_ANDROID_KHR", []string{"first\n", "second\n"}))
	require.NoError(t, writer.End())

	want := "#ifndef REPLAY_CPP\n" +
		"#define REPLAY_CPP\n" +
		"#include \"replay.h\"\n" +
		"\n" +
		"#ifndef VK_KHR_android_surface\n" +
		"#ifdef VK_USE_PLATFORM_ANDROID_KHR\n" +
		"#ifndef VK_NO_PROTOTYPES\n" +
		"first\n" +
		"\n" +
		"second\n" +
		"#endif\n" +
		"#endif /* VK_USE_PLATFORM_ANDROID_KHR */\n" +
		"#endif /* VK_KHR_android_surface */\n" +
		"\n" +
		"#endif /* REPLAY_CPP */\n"
	assert.Equal(t, want, sb.String())
}

func TestFileWriterUnprotected(t *testing.T) {
	var sb strings.Builder
	writer := NewFileWriter(&sb, "replay.cpp", FileOptions{})

	require.NoError(t, writer.Begin())
	require.NoError(t, writer.Feature("VK_VERSION_1_0", "", []string{"only\n"}))
	require.NoError(t, writer.End())

	assert.Equal(t, "\nonly\n", sb.String())
}

type failingWriter struct{}

var errWrite = errors.New("disk full")

func (failingWriter) Write([]byte) (int, error) {
	return 0, errWrite
}

func TestFileWriterKeepsFirstError(t *testing.T) {
	writer := NewFileWriter(failingWriter{}, "replay.cpp", FileOptions{ProtectFile: true})

	assert.ErrorIs(t, writer.Begin(), errWrite)
	assert.ErrorIs(t, writer.Feature("VK_VERSION_1_0", "", []string{"x\n"}), errWrite)
	assert.ErrorIs(t, writer.End(), errWrite)
}
