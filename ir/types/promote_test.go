package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReduceType(t *testing.T) {
	tests := []struct {
		name    string
		a, b    Type
		want    Type
		wantErr bool
	}{
		{"same type", I32, I32, I32, false},
		{"integer widening picks wider width", I16, I64, I64, false},
		{"integer and float promotes to float", I32, F64, F64, false},
		{"integer and decimal promotes to decimal", I32, Decimal, Decimal, false},
		{"decimal and float promotes to float", Decimal, F32, F32, false},
		{"null left widens right", Null, I32, I32.Nullable(), false},
		{"null right widens left", I32, Null, I32.Nullable(), false},
		{"nullability is OR-combined", I32.Nullable(), I64, I64.Nullable(), false},
		{"string and integer has no common type", String, I32, Type{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ReduceType(tt.a, tt.b)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, got.Equal(tt.want), "got %s, want %s", got, tt.want)
		})
	}
}

func TestReduceTypeCommutes(t *testing.T) {
	ab, err := ReduceType(I16, F32)
	require.NoError(t, err)
	ba, err := ReduceType(F32, I16)
	require.NoError(t, err)
	assert.True(t, ab.Equal(ba))
}

func TestMustReduceTypePanicsOnNoCommonType(t *testing.T) {
	assert.Panics(t, func() {
		MustReduceType(String, Bool)
	})
}
