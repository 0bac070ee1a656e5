package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/math/f64"
	"gopkg.in/yaml.v3"

	"github.com/gogpu/attrblend"
)

// node decodes a YAML snippet the way attribute values are decoded.
func node(t *testing.T, src string) any {
	t.Helper()
	var v any
	require.NoError(t, yaml.Unmarshal([]byte(src), &v))
	return v
}

func TestDecodeValue(t *testing.T) {
	tests := []struct {
		name string
		kind attrblend.ValueKind
		src  string
		want string
	}{
		{"int", attrblend.KindInt32, "7", "7"},
		{"float to int", attrblend.KindInt64, "2.9", "2"},
		{"bool", attrblend.KindBool, "true", "true"},
		{"numeric text", attrblend.KindDouble, `"1.5"`, "1.5"},
		{"vector2", attrblend.KindVector2, "[1, 2]", "X=1 Y=2"},
		{"vector", attrblend.KindVector, "[1, 2.5, 3]", "X=1 Y=2.5 Z=3"},
		{"vector4", attrblend.KindVector4, "[1, 2, 3, 4]", "X=1 Y=2 Z=3 W=4"},
		{"quat normalizes", attrblend.KindQuat, "[0, 0, 0, 2]", "X=0 Y=0 Z=0 W=1"},
		{"rotator", attrblend.KindRotator, "[10, 20, 30]", "P=10 Y=20 R=30"},
		{"name", attrblend.KindName, "Knight", "Knight"},
		{"number as text", attrblend.KindString, "12", "12"},
		{"nil", attrblend.KindDouble, "~", "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := DecodeValue(tt.kind, node(t, tt.src))
			require.NoError(t, err)
			assert.Equal(t, tt.kind, v.Kind())
			assert.Equal(t, tt.want, v.String())
		})
	}
}

func TestDecodeTransform(t *testing.T) {
	v, err := DecodeValue(attrblend.KindTransform, node(t, `{position: [1, 2, 3], rotation: [0, 90, 0], scale: [2, 2, 2]}`))
	require.NoError(t, err)
	xf := v.AsTransform()
	assert.Equal(t, f64.Vec3{1, 2, 3}, xf.Translation)
	assert.Equal(t, f64.Vec3{2, 2, 2}, xf.Scale)
	assert.True(t, xf.Rotation.SameRotation(attrblend.Rotator{Yaw: 90}.Quat(), 1e-12))

	partial, err := DecodeValue(attrblend.KindTransform, node(t, `{translation: [0, 0, 1]}`))
	require.NoError(t, err)
	assert.Equal(t, attrblend.IdentityQuat(), partial.AsTransform().Rotation)
	assert.Equal(t, f64.Vec3{1, 1, 1}, partial.AsTransform().Scale)
}

func TestDecodeValueErrors(t *testing.T) {
	tests := []struct {
		name string
		kind attrblend.ValueKind
		src  string
	}{
		{"short vector", attrblend.KindVector, "[1, 2]"},
		{"text component", attrblend.KindVector2, "[1, x]"},
		{"scalar from list", attrblend.KindDouble, "[1]"},
		{"bad rotation", attrblend.KindQuat, "[1, 2]"},
		{"transform list", attrblend.KindTransform, "[1, 2, 3]"},
		{"transform key", attrblend.KindTransform, "{skew: [1, 2, 3]}"},
		{"unknown kind", attrblend.KindUnknown, "1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeValue(tt.kind, node(t, tt.src))
			assert.Error(t, err)
		})
	}
}

func TestEncodeValueRoundTrip(t *testing.T) {
	for _, k := range attrblend.Kinds() {
		t.Run(k.String(), func(t *testing.T) {
			v := attrblend.Convert(attrblend.Vector(f64.Vec3{1, 2, 3}), k)
			data, err := yaml.Marshal(EncodeValue(v))
			require.NoError(t, err)

			back, err := DecodeValue(k, node(t, string(data)))
			require.NoError(t, err)
			if k == attrblend.KindQuat {
				assert.True(t, back.AsQuat().SameRotation(v.AsQuat(), 1e-12))
				return
			}
			assert.Equal(t, v.String(), back.String())
		})
	}
}
