package attrblend

import (
	"fmt"
	"strings"
)

// PointProperty names one of the fixed fields of a Point.
type PointProperty uint8

const (
	PropertyNone PointProperty = iota
	PropertyPosition
	PropertyRotation
	PropertyScale
	PropertyTransform
	PropertyDensity
	PropertyBoundsMin
	PropertyBoundsMax
	PropertyColor
	PropertySteepness
	PropertySeed

	propertyCount
)

var propertyNames = [propertyCount]string{
	PropertyNone:      "None",
	PropertyPosition:  "Position",
	PropertyRotation:  "Rotation",
	PropertyScale:     "Scale",
	PropertyTransform: "Transform",
	PropertyDensity:   "Density",
	PropertyBoundsMin: "BoundsMin",
	PropertyBoundsMax: "BoundsMax",
	PropertyColor:     "Color",
	PropertySteepness: "Steepness",
	PropertySeed:      "Seed",
}

var propertyKinds = [propertyCount]ValueKind{
	PropertyPosition:  KindVector,
	PropertyRotation:  KindQuat,
	PropertyScale:     KindVector,
	PropertyTransform: KindTransform,
	PropertyDensity:   KindFloat,
	PropertyBoundsMin: KindVector,
	PropertyBoundsMax: KindVector,
	PropertyColor:     KindVector4,
	PropertySteepness: KindFloat,
	PropertySeed:      KindInt32,
}

// BlendableProperties lists the properties blended by the collection
// blenders, in blend order. Transform is left out because it aliases
// Position, Rotation and Scale.
var BlendableProperties = []PointProperty{
	PropertyDensity,
	PropertyBoundsMin,
	PropertyBoundsMax,
	PropertyColor,
	PropertyPosition,
	PropertyRotation,
	PropertyScale,
	PropertySteepness,
	PropertySeed,
}

func (p PointProperty) String() string {
	if p >= propertyCount {
		return fmt.Sprintf("PointProperty(%d)", uint8(p))
	}
	return propertyNames[p]
}

// Kind returns the value kind stored by the property.
func (p PointProperty) Kind() ValueKind {
	if p >= propertyCount {
		return KindUnknown
	}
	return propertyKinds[p]
}

// ParsePointProperty parses a property name, ignoring case.
func ParsePointProperty(s string) (PointProperty, error) {
	for p := PropertyPosition; p < propertyCount; p++ {
		if strings.EqualFold(propertyNames[p], s) {
			return p, nil
		}
	}
	return PropertyNone, fmt.Errorf("attrblend: unknown point property %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (p PointProperty) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *PointProperty) UnmarshalText(text []byte) error {
	parsed, err := ParsePointProperty(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// Property reads one property of the point.
func (pt Point) Property(p PointProperty) Value {
	switch p {
	case PropertyPosition:
		return Vector(pt.Transform.Translation)
	case PropertyRotation:
		return QuatValue(pt.Transform.Rotation)
	case PropertyScale:
		return Vector(pt.Transform.Scale)
	case PropertyTransform:
		return TransformValue(pt.Transform)
	case PropertyDensity:
		return Float(pt.Density)
	case PropertyBoundsMin:
		return Vector(pt.BoundsMin)
	case PropertyBoundsMax:
		return Vector(pt.BoundsMax)
	case PropertyColor:
		return Vector4(pt.Color)
	case PropertySteepness:
		return Float(pt.Steepness)
	case PropertySeed:
		return Int32(pt.Seed)
	default:
		return Value{}
	}
}

// SetProperty stores v, converted to the property kind.
func (pt *Point) SetProperty(p PointProperty, v Value) {
	v = Convert(v, p.Kind())
	switch p {
	case PropertyPosition:
		pt.Transform.Translation = vec3From(v)
	case PropertyRotation:
		pt.Transform.Rotation = v.AsQuat()
	case PropertyScale:
		pt.Transform.Scale = vec3From(v)
	case PropertyTransform:
		pt.Transform = v.xf
	case PropertyDensity:
		pt.Density = v.AsFloat()
	case PropertyBoundsMin:
		pt.BoundsMin = vec3From(v)
	case PropertyBoundsMax:
		pt.BoundsMax = vec3From(v)
	case PropertyColor:
		pt.Color = v.v
	case PropertySteepness:
		pt.Steepness = v.AsFloat()
	case PropertySeed:
		pt.Seed = v.AsInt32()
	}
}
