package config

import (
	"fmt"

	"golang.org/x/image/math/f64"

	"github.com/gogpu/attrblend"
)

// DecodeValue converts a decoded YAML node to a value of kind. A nil node
// yields the zero value.
//
// Scalars accept numbers, booleans and numeric text. Vectors, quaternions
// ([x, y, z, w]) and rotators ([pitch, yaw, roll]) are number lists. A
// transform is a map with optional translation, rotation and scale keys,
// where rotation is a rotator or a quaternion list.
func DecodeValue(kind attrblend.ValueKind, raw any) (attrblend.Value, error) {
	if raw == nil {
		return attrblend.Zero(kind), nil
	}

	switch kind {
	case attrblend.KindBool, attrblend.KindInt32, attrblend.KindInt64,
		attrblend.KindFloat, attrblend.KindDouble:
		v, err := scalar(raw)
		if err != nil {
			return attrblend.Value{}, err
		}
		return attrblend.Convert(v, kind), nil

	case attrblend.KindVector2:
		c, err := floats(raw, 2)
		if err != nil {
			return attrblend.Value{}, err
		}
		return attrblend.Vector2(f64.Vec2{c[0], c[1]}), nil
	case attrblend.KindVector:
		c, err := floats(raw, 3)
		if err != nil {
			return attrblend.Value{}, err
		}
		return attrblend.Vector(f64.Vec3{c[0], c[1], c[2]}), nil
	case attrblend.KindVector4:
		c, err := floats(raw, 4)
		if err != nil {
			return attrblend.Value{}, err
		}
		return attrblend.Vector4(f64.Vec4{c[0], c[1], c[2], c[3]}), nil

	case attrblend.KindQuat:
		q, err := rotation(raw)
		if err != nil {
			return attrblend.Value{}, err
		}
		return attrblend.QuatValue(q), nil
	case attrblend.KindRotator:
		c, err := floats(raw, 3)
		if err != nil {
			return attrblend.Value{}, err
		}
		return attrblend.RotatorValue(attrblend.Rotator{Pitch: c[0], Yaw: c[1], Roll: c[2]}), nil
	case attrblend.KindTransform:
		xf, err := transform(raw)
		if err != nil {
			return attrblend.Value{}, err
		}
		return attrblend.TransformValue(xf), nil

	case attrblend.KindString, attrblend.KindName,
		attrblend.KindSoftObjectPath, attrblend.KindSoftClassPath:
		return attrblend.Convert(attrblend.StringValue(fmt.Sprint(raw)), kind), nil
	}
	return attrblend.Value{}, fmt.Errorf("config: cannot decode %s", kind)
}

// EncodeValue is the inverse of DecodeValue.
func EncodeValue(v attrblend.Value) any {
	switch v.Kind() {
	case attrblend.KindBool:
		return v.AsBool()
	case attrblend.KindInt32, attrblend.KindInt64:
		return v.AsInt64()
	case attrblend.KindFloat, attrblend.KindDouble:
		return v.AsDouble()
	case attrblend.KindVector2:
		c := v.AsVector2()
		return c[:]
	case attrblend.KindVector:
		c := v.AsVector()
		return c[:]
	case attrblend.KindVector4:
		c := v.AsVector4()
		return c[:]
	case attrblend.KindQuat:
		q := v.AsQuat()
		return []float64{q.X, q.Y, q.Z, q.W}
	case attrblend.KindRotator:
		r := v.AsRotator()
		return []float64{r.Pitch, r.Yaw, r.Roll}
	case attrblend.KindTransform:
		xf := v.AsTransform()
		return map[string]any{
			"translation": xf.Translation[:],
			"rotation":    []float64{xf.Rotation.X, xf.Rotation.Y, xf.Rotation.Z, xf.Rotation.W},
			"scale":       xf.Scale[:],
		}
	case attrblend.KindUnknown:
		return nil
	default:
		return v.AsString()
	}
}

func scalar(raw any) (attrblend.Value, error) {
	switch x := raw.(type) {
	case bool:
		return attrblend.Bool(x), nil
	case int:
		return attrblend.Int64(int64(x)), nil
	case int64:
		return attrblend.Int64(x), nil
	case uint64:
		return attrblend.Double(float64(x)), nil
	case float64:
		return attrblend.Double(x), nil
	case string:
		return attrblend.StringValue(x), nil
	}
	return attrblend.Value{}, fmt.Errorf("config: %T is not a scalar", raw)
}

func number(raw any) (float64, error) {
	switch x := raw.(type) {
	case int:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case uint64:
		return float64(x), nil
	case float64:
		return x, nil
	}
	return 0, fmt.Errorf("config: %v is not a number", raw)
}

// floats reads a list of exactly n numbers.
func floats(raw any, n int) ([]float64, error) {
	var list []any
	switch x := raw.(type) {
	case []any:
		list = x
	case []float64:
		return floats(toAny(x), n)
	default:
		return nil, fmt.Errorf("config: expected a list of %d numbers, got %T", n, raw)
	}
	if len(list) != n {
		return nil, fmt.Errorf("config: expected %d components, got %d", n, len(list))
	}
	out := make([]float64, n)
	for i, item := range list {
		f, err := number(item)
		if err != nil {
			return nil, err
		}
		out[i] = f
	}
	return out, nil
}

func toAny(xs []float64) []any {
	out := make([]any, len(xs))
	for i, x := range xs {
		out[i] = x
	}
	return out
}

// rotation reads a quaternion list or a rotator list.
func rotation(raw any) (attrblend.Quat, error) {
	if c, err := floats(raw, 4); err == nil {
		return attrblend.Quat{X: c[0], Y: c[1], Z: c[2], W: c[3]}.Normalize(), nil
	}
	c, err := floats(raw, 3)
	if err != nil {
		return attrblend.Quat{}, fmt.Errorf("config: rotation needs 3 or 4 components: %w", err)
	}
	return attrblend.Rotator{Pitch: c[0], Yaw: c[1], Roll: c[2]}.Quat(), nil
}

func transform(raw any) (attrblend.Transform, error) {
	m, ok := raw.(map[string]any)
	if !ok {
		return attrblend.Transform{}, fmt.Errorf("config: transform must be a map, got %T", raw)
	}
	xf := attrblend.IdentityTransform()
	for key, item := range m {
		switch key {
		case "translation", "position":
			c, err := floats(item, 3)
			if err != nil {
				return xf, fmt.Errorf("config: transform %s: %w", key, err)
			}
			xf.Translation = f64.Vec3{c[0], c[1], c[2]}
		case "scale":
			c, err := floats(item, 3)
			if err != nil {
				return xf, fmt.Errorf("config: transform scale: %w", err)
			}
			xf.Scale = f64.Vec3{c[0], c[1], c[2]}
		case "rotation":
			q, err := rotation(item)
			if err != nil {
				return xf, err
			}
			xf.Rotation = q
		default:
			return xf, fmt.Errorf("config: unknown transform key %q", key)
		}
	}
	return xf, nil
}
