// The package deciding which decode-time carrier type receives each command
// parameter of a captured API call.
package classify

import "fmt"

// Kind enumerates the decode carriers.
type Kind int

const (
	// Raw passes the declared type through unchanged.
	Raw Kind = iota
	// StructPointer is an array of, or a pointer to, decoded structs.
	StructPointer
	String
	StringArray
	// ByteArray is untyped memory with a known size, recorded as bytes.
	ByteArray
	// AddressArray is an array of 64-bit addresses.
	AddressArray
	// OpaqueAddress is a single 64-bit address of an unknown object.
	OpaqueAddress
	// HandleArray is an array of 64-bit handle ids.
	HandleArray
	// PointerArray is an array of, or a pointer to, plain values.
	PointerArray
	// FunctionPointer is a function address recorded as a 64-bit value.
	FunctionPointer
	// HandleScalar is a single handle id.
	HandleScalar
	// DecodedStruct is a struct passed by value.
	DecodedStruct
)

var kindNames = [...]string{
	Raw:             "Raw",
	StructPointer:   "StructPointer",
	String:          "String",
	StringArray:     "StringArray",
	ByteArray:       "ByteArray",
	AddressArray:    "AddressArray",
	OpaqueAddress:   "OpaqueAddress",
	HandleArray:     "HandleArray",
	PointerArray:    "PointerArray",
	FunctionPointer: "FunctionPointer",
	HandleScalar:    "HandleScalar",
	DecodedStruct:   "DecodedStruct",
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Names of the decoder framework types the generated code is written against.
const (
	HandleIdType  = "HandleId"
	AddressType   = "uint64_t"
	ByteType      = "uint8_t"
	DecodedPrefix = "Decoded_"
)

// Carrier is the result of classifying a parameter. Base holds the
// parameter's undecorated type name.
type Carrier struct {
	Kind Kind
	Base string
}

// IsWrapped reports whether the carrier is a decoder object, as opposed to a
// plain value that is passed by copy.
func (c Carrier) IsWrapped() bool {
	switch c.Kind {
	case Raw, OpaqueAddress, FunctionPointer, HandleScalar:
		return false
	}
	return true
}

// IsPointer reports whether the carrier wraps memory that was pointed to.
func (c Carrier) IsPointer() bool {
	switch c.Kind {
	case StructPointer, String, StringArray, ByteArray, AddressArray, HandleArray, PointerArray:
		return true
	}
	return false
}

// Name returns the C++ spelling of the carrier type.
func (c Carrier) Name() string {
	switch c.Kind {
	case StructPointer:
		return fmt.Sprintf("StructPointerDecoder<%s%s>", DecodedPrefix, c.Base)
	case String:
		return "StringDecoder"
	case StringArray:
		return "StringArrayDecoder"
	case ByteArray:
		return fmt.Sprintf("PointerDecoder<%s>", ByteType)
	case AddressArray:
		return fmt.Sprintf("PointerDecoder<%s>", AddressType)
	case OpaqueAddress, FunctionPointer:
		return AddressType
	case HandleArray:
		return fmt.Sprintf("PointerDecoder<%s>", HandleIdType)
	case PointerArray:
		return fmt.Sprintf("PointerDecoder<%s>", c.Base)
	case HandleScalar:
		return HandleIdType
	case DecodedStruct:
		return DecodedPrefix + c.Base
	}
	return c.Base
}

// Spelling returns the carrier type with prefix and suffix applied to
// wrapped carriers only, e.g. Spelling("const ", "&").
func (c Carrier) Spelling(prefix, suffix string) string {
	if !c.IsWrapped() {
		return c.Name()
	}
	return prefix + c.Name() + suffix
}

func (c Carrier) String() string {
	return c.Kind.String() + "(" + c.Base + ")"
}
