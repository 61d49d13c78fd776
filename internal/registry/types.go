package registry

import (
	"maps"
	"slices"
	"strings"

	"github.com/samber/lo"
)

// TypeCategory is the classification of a type name, computed once when the
// registry is built.
type TypeCategory int

const (
	CategoryUnknown TypeCategory = iota
	CategoryScalar
	CategoryStruct // Structs and unions.
	CategoryHandle
	CategoryChar
	CategoryOpaque // Untyped memory and external objects recorded as 64-bit addresses.
	CategoryFunctionPointer
)

var categoryNames = map[TypeCategory]string{
	CategoryUnknown:         "unknown",
	CategoryScalar:          "scalar",
	CategoryStruct:          "struct",
	CategoryHandle:          "handle",
	CategoryChar:            "char",
	CategoryOpaque:          "opaque",
	CategoryFunctionPointer: "function pointer",
}

func (c TypeCategory) String() string {
	if name, found := categoryNames[c]; found {
		return name
	}
	return "invalid"
}

// The C scalar types every registry knows about.
var builtInScalars = []string{
	"int", "unsigned", "float", "double", "size_t",
	"int8_t", "uint8_t", "int16_t", "uint16_t",
	"int32_t", "uint32_t", "int64_t", "uint64_t",
}

const (
	DefaultFunctionPointerPrefix = "PFN_"
	DefaultCharType              = "char"
	DefaultOpaqueType            = "void"
)

// TypeRegistry is an immutable snapshot of the known type names and their
// categories. It is safe for concurrent use.
type TypeRegistry struct {
	categories            map[string]TypeCategory
	functionPointerPrefix string
}

// Category returns the category of the given type name. Names the registry
// was never told about are CategoryUnknown, unless they follow the function
// pointer naming convention.
func (registry *TypeRegistry) Category(name string) TypeCategory {
	if category, found := registry.categories[name]; found {
		return category
	}

	if registry.functionPointerPrefix != "" && strings.HasPrefix(name, registry.functionPointerPrefix) {
		return CategoryFunctionPointer
	}

	return CategoryUnknown
}

func (registry *TypeRegistry) IsStruct(name string) bool {
	return registry.Category(name) == CategoryStruct
}

func (registry *TypeRegistry) IsHandle(name string) bool {
	return registry.Category(name) == CategoryHandle
}

// Names returns the sorted names registered with the given category.
func (registry *TypeRegistry) Names(category TypeCategory) []string {
	names := lo.Keys(lo.PickByValues(registry.categories, []TypeCategory{category}))
	slices.Sort(names)
	return names
}

// Builder accumulates type names while an API description is traversed.
// The zero value is not usable, use NewBuilder.
type Builder struct {
	categories            map[string]TypeCategory
	functionPointerPrefix string
}

// NewBuilder returns a builder that already knows the C scalar types, "char"
// and "void".
func NewBuilder() *Builder {
	builder := &Builder{
		categories:            make(map[string]TypeCategory),
		functionPointerPrefix: DefaultFunctionPointerPrefix,
	}

	builder.add(CategoryScalar, builtInScalars...)
	builder.add(CategoryChar, DefaultCharType)
	builder.add(CategoryOpaque, DefaultOpaqueType)
	return builder
}

func (builder *Builder) add(category TypeCategory, names ...string) *Builder {
	for _, name := range names {
		if name != "" {
			builder.categories[name] = category
		}
	}
	return builder
}

func (builder *Builder) AddStructs(names ...string) *Builder {
	return builder.add(CategoryStruct, names...)
}

func (builder *Builder) AddHandles(names ...string) *Builder {
	return builder.add(CategoryHandle, names...)
}

func (builder *Builder) AddScalars(names ...string) *Builder {
	return builder.add(CategoryScalar, names...)
}

func (builder *Builder) AddChars(names ...string) *Builder {
	return builder.add(CategoryChar, names...)
}

func (builder *Builder) AddOpaque(names ...string) *Builder {
	return builder.add(CategoryOpaque, names...)
}

func (builder *Builder) AddFunctionPointers(names ...string) *Builder {
	return builder.add(CategoryFunctionPointer, names...)
}

// FunctionPointerPrefix sets the naming convention used to recognize
// function pointer types that were not registered explicitly. An empty
// prefix disables the convention.
func (builder *Builder) FunctionPointerPrefix(prefix string) *Builder {
	builder.functionPointerPrefix = prefix
	return builder
}

// Category returns the category registered so far for the name.
func (builder *Builder) Category(name string) TypeCategory {
	return builder.categories[name]
}

// Build returns a snapshot of the accumulated names. The builder may keep
// being used afterwards without affecting the snapshot.
func (builder *Builder) Build() *TypeRegistry {
	return &TypeRegistry{
		categories:            maps.Clone(builder.categories),
		functionPointerPrefix: builder.functionPointerPrefix,
	}
}
