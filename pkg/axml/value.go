package axml

import "fmt"

// Binary typed-value data types, from ResourceTypes.h.
const (
	typeNull      = 0x00
	typeReference = 0x01
	typeString    = 0x03
	typeFloat     = 0x04
	typeIntDec    = 0x10
	typeIntHex    = 0x11
	typeIntBool   = 0x12
)

// ValueKind discriminates the typed attribute values the decoder produces.
type ValueKind uint8

const (
	KindNull ValueKind = iota
	KindString
	KindInt
	KindBool
	// KindReference is an unresolved resource reference. Resource table
	// resolution is out of scope; callers get the raw reference ID.
	KindReference
	// KindRaw covers the remaining binary types (floats, dimensions,
	// colors); Data holds the undecoded word.
	KindRaw
)

// Value is one typed attribute value. Immutable after decode.
type Value struct {
	Kind    ValueKind
	Str     string // set for KindString
	Data    uint32 // reference ID, integer word, or raw payload
	RawType uint8  // original binary type, set for KindRaw
}

// Int returns the value as a signed integer. Meaningful for KindInt and
// KindBool.
func (v Value) Int() int32 {
	return int32(v.Data)
}

// Bool reports the value as a boolean. Meaningful for KindBool.
func (v Value) Bool() bool {
	return v.Data != 0
}

// IsRef reports whether the value is an unresolved resource reference.
func (v Value) IsRef() bool {
	return v.Kind == KindReference
}

// String renders the value the way aapt prints it: references as
// "@0x7f......" (with an android: marker for framework resources), booleans
// as true/false, hex raw types as 0x words.
func (v Value) String() string {
	switch v.Kind {
	case KindNull:
		return ""
	case KindString:
		return v.Str
	case KindInt:
		return fmt.Sprintf("%d", int32(v.Data))
	case KindBool:
		if v.Data == 0 {
			return "false"
		}
		return "true"
	case KindReference:
		if v.Data>>24 == 0x01 {
			return fmt.Sprintf("@android:0x%08X", v.Data)
		}
		return fmt.Sprintf("@0x%08X", v.Data)
	default:
		return fmt.Sprintf("<0x%X, type 0x%02X>", v.Data, v.RawType)
	}
}

// makeValue maps a binary typed value onto a Value. String indices are
// resolved through the pool by the caller before this point.
func makeValue(dataType uint8, data uint32, str string) Value {
	switch dataType {
	case typeNull:
		return Value{Kind: KindNull}
	case typeString:
		return Value{Kind: KindString, Str: str, Data: data}
	case typeReference:
		return Value{Kind: KindReference, Data: data}
	case typeIntDec, typeIntHex:
		return Value{Kind: KindInt, Data: data}
	case typeIntBool:
		return Value{Kind: KindBool, Data: data}
	default:
		return Value{Kind: KindRaw, Data: data, RawType: dataType}
	}
}
