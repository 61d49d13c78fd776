// The package holding the static generation settings: which commands need
// hand written replay code, which types are opaque and how the output file
// is protected.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"replaygen/internal/emit"
	"replaygen/internal/registry"
	"replaygen/internal/synth"
)

type Config struct {
	// API name used to filter registry elements, e.g. "vulkan".
	API string `yaml:"api"`
	// Commands that require hand written replay code and are never generated.
	ExcludedCommands []string `yaml:"excluded_commands"`
	// Types that are pointers to non-API objects recorded as 64-bit address ids.
	ExternalObjectTypes []string `yaml:"external_object_types"`
	CharTypes           []string `yaml:"char_types"`

	AllocationCallbacksType string `yaml:"allocation_callbacks_type"`
	FunctionPointerPrefix   string `yaml:"function_pointer_prefix"`
	ConsumerPrefix          string `yaml:"consumer_prefix"`
	ObjectMapper            string `yaml:"object_mapper"`
	MapperClass             string `yaml:"mapper_class"`

	StrictOpaquePointers bool `yaml:"strict_opaque_pointers"`
	StrictLengthOrder    bool `yaml:"strict_length_order"`

	ProtectFile        bool     `yaml:"protect_file"`
	ProtectFeature     bool     `yaml:"protect_feature"`
	ProtectProto       string   `yaml:"protect_proto"`
	ProtectProtoSymbol string   `yaml:"protect_proto_symbol"`
	APICall            string   `yaml:"apicall"`
	AlignParamColumn   int      `yaml:"align_param_column"`
	PrefixText         []string `yaml:"prefix_text"`
}

// Default returns the settings for generating the Vulkan replay consumer.
func Default() Config {
	options := synth.DefaultOptions()
	return Config{
		API: "vulkan",
		ExcludedCommands: []string{
			"vkGetInstanceProcAddr",
			"vkGetDeviceProcAddr",
			"vkEnumerateInstanceLayerProperties",
			"vkEnumerateDeviceLayerProperties",
			"vkEnumerateInstanceExtensionProperties",
			"vkEnumerateDeviceExtensionProperties",
			"vkEnumerateInstanceVersion",
		},
		ExternalObjectTypes:     []string{"void", "Void", "AHardwareBuffer"},
		CharTypes:               []string{registry.DefaultCharType},
		AllocationCallbacksType: options.AllocationCallbacksType,
		FunctionPointerPrefix:   registry.DefaultFunctionPointerPrefix,
		ConsumerPrefix:          "VulkanReplayConsumer::Process_",
		ObjectMapper:            options.ObjectMapper,
		MapperClass:             options.MapperClass,
		ProtectFile:             true,
		ProtectFeature:          false,
		AlignParamColumn:        48,
	}
}

// Load reads a YAML file over the defaults. Keys missing from the file keep
// their default values.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("could not read config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("could not parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return cfg, nil
}

func (cfg Config) Validate() error {
	switch cfg.ProtectProto {
	case "", "#ifdef", "#ifndef":
	default:
		return fmt.Errorf("protect_proto must be \"#ifdef\" or \"#ifndef\", got %q", cfg.ProtectProto)
	}
	if cfg.ProtectProto != "" && cfg.ProtectProtoSymbol == "" {
		return fmt.Errorf("protect_proto requires protect_proto_symbol")
	}
	if cfg.AlignParamColumn < 0 {
		return fmt.Errorf("align_param_column must not be negative")
	}
	return nil
}

// ConfigureTypes registers the configured opaque and char types and the
// function pointer convention. Pass it to registry.ReadXML.
func (cfg Config) ConfigureTypes(builder *registry.Builder) {
	builder.AddOpaque(cfg.ExternalObjectTypes...)
	builder.AddChars(cfg.CharTypes...)
	builder.FunctionPointerPrefix(cfg.FunctionPointerPrefix)
}

func (cfg Config) SynthOptions() synth.Options {
	return synth.Options{
		AllocationCallbacksType: cfg.AllocationCallbacksType,
		ObjectMapper:            cfg.ObjectMapper,
		MapperClass:             cfg.MapperClass,
		StrictOpaquePointers:    cfg.StrictOpaquePointers,
		StrictLengthOrder:       cfg.StrictLengthOrder,
	}
}

func (cfg Config) DeclarationOptions() emit.DeclarationOptions {
	return emit.DeclarationOptions{
		APICall:     cfg.APICall,
		Prefix:      cfg.ConsumerPrefix,
		AlignColumn: cfg.AlignParamColumn,
	}
}

func (cfg Config) FileOptions() emit.FileOptions {
	return emit.FileOptions{
		ProtectFile:        cfg.ProtectFile,
		ProtectFeature:     cfg.ProtectFeature,
		ProtectProto:       cfg.ProtectProto,
		ProtectProtoSymbol: cfg.ProtectProtoSymbol,
		PrefixText:         cfg.PrefixText,
	}
}
