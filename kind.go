package attrblend

import (
	"fmt"
	"strings"
)

// ValueKind identifies the runtime type of a Value.
// The set is closed: every kind has exactly one kindOps implementation.
type ValueKind uint8

const (
	// KindUnknown is the zero kind. It never resolves.
	KindUnknown ValueKind = iota
	// KindBool is a boolean.
	KindBool
	// KindInt32 is a 32-bit signed integer.
	KindInt32
	// KindInt64 is a 64-bit signed integer.
	KindInt64
	// KindFloat is a 32-bit float.
	KindFloat
	// KindDouble is a 64-bit float.
	KindDouble
	// KindVector2 is a 2-component double vector.
	KindVector2
	// KindVector is a 3-component double vector.
	KindVector
	// KindVector4 is a 4-component double vector.
	KindVector4
	// KindQuat is a rotation quaternion.
	KindQuat
	// KindRotator is a rotation expressed as pitch/yaw/roll degrees.
	KindRotator
	// KindTransform is a rigid transform (rotation, translation, scale).
	KindTransform
	// KindString is free text.
	KindString
	// KindName is an interned token. Tokens compare case-insensitively.
	KindName
	// KindSoftObjectPath is a path-like reference to an object.
	KindSoftObjectPath
	// KindSoftClassPath is a path-like reference to a class.
	KindSoftClassPath

	kindCount
)

var kindNames = [kindCount]string{
	KindUnknown:        "unknown",
	KindBool:           "bool",
	KindInt32:          "int32",
	KindInt64:          "int64",
	KindFloat:          "float",
	KindDouble:         "double",
	KindVector2:        "vector2",
	KindVector:         "vector",
	KindVector4:        "vector4",
	KindQuat:           "quat",
	KindRotator:        "rotator",
	KindTransform:      "transform",
	KindString:         "string",
	KindName:           "name",
	KindSoftObjectPath: "softobjectpath",
	KindSoftClassPath:  "softclasspath",
}

// Kinds returns every concrete kind in declaration order.
func Kinds() []ValueKind {
	kinds := make([]ValueKind, 0, kindCount-1)
	for k := KindBool; k < kindCount; k++ {
		kinds = append(kinds, k)
	}
	return kinds
}

// String returns the lower-case name of the kind.
func (k ValueKind) String() string {
	if k >= kindCount {
		return fmt.Sprintf("ValueKind(%d)", uint8(k))
	}
	return kindNames[k]
}

// MarshalText implements encoding.TextMarshaler.
func (k ValueKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *ValueKind) UnmarshalText(text []byte) error {
	parsed, err := ParseValueKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// ParseValueKind parses a kind name as produced by ValueKind.String.
func ParseValueKind(s string) (ValueKind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for k := KindBool; k < kindCount; k++ {
		if kindNames[k] == s {
			return k, nil
		}
	}
	return KindUnknown, fmt.Errorf("attrblend: unknown value kind %q", s)
}

// Valid reports whether k is a concrete, supported kind.
func (k ValueKind) Valid() bool {
	return k > KindUnknown && k < kindCount
}

// IsText reports whether k is one of the text-like kinds (string, name, paths).
// Text kinds only support None, Copy, Min and Max.
func (k ValueKind) IsText() bool {
	switch k {
	case KindString, KindName, KindSoftObjectPath, KindSoftClassPath:
		return true
	default:
		return false
	}
}

// IsNumeric reports whether arithmetic blend modes are defined for k.
func (k ValueKind) IsNumeric() bool {
	return k.Valid() && !k.IsText()
}

// IsScalar reports whether k holds a single number.
func (k ValueKind) IsScalar() bool {
	switch k {
	case KindBool, KindInt32, KindInt64, KindFloat, KindDouble:
		return true
	default:
		return false
	}
}

// rating orders kinds by how much information they carry.
// It is used to pick the broader of two operand kinds when an output kind
// has to be inferred.
func (k ValueKind) rating() int {
	switch k {
	case KindBool, KindFloat, KindDouble, KindInt32, KindInt64:
		return 1
	case KindVector2:
		return 2
	case KindVector, KindRotator:
		return 3
	case KindVector4, KindQuat:
		return 4
	case KindTransform:
		return 5
	case KindString, KindName:
		return 6
	case KindUnknown:
		return -1
	default:
		return 0
	}
}

// BroaderKind returns whichever of a and b carries more information.
// Ties resolve to b.
func BroaderKind(a, b ValueKind) ValueKind {
	if a.rating() > b.rating() {
		return a
	}
	return b
}
