// Copyright 2024 Dolthub, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package types

import (
	"fmt"

	"github.com/dolthub-labs/sql-dataflow-compiler/ircompile/errkind"
)

// ReduceType computes the common-promotion type for a binary
// arithmetic/comparison operation:
//
//   - If either side is Null, the result is the other side made
//     nullable.
//   - Nullability is stripped for the promotion step and OR-combined
//     back onto the result.
//   - Integer x Integer -> Integer of max width, signed.
//   - Integer x (Float|Decimal) -> the non-integer side.
//   - Float x Float -> the wider side.
//   - Decimal x Integer -> Decimal; Decimal x Float -> Float.
//   - Same type -> that type.
//   - Otherwise: UnsupportedPromotion.
func ReduceType(a, b Type) (Type, error) {
	null := a.MayBeNull || b.MayBeNull

	if a.Kind == KindNull {
		return b.WithNullable(true), nil
	}
	if b.Kind == KindNull {
		return a.WithNullable(true), nil
	}

	baseA, baseB := a.NotNullable(), b.NotNullable()

	if baseA.Equal(baseB) {
		return baseA.WithNullable(null), nil
	}

	switch {
	case baseA.Kind == KindInteger && baseB.Kind == KindInteger:
		width := baseA.Width
		if baseB.Width > width {
			width = baseB.Width
		}
		return Integer(width, true).WithNullable(null), nil

	case baseA.Kind == KindInteger && (baseB.Kind == KindFloat || baseB.Kind == KindDecimal):
		return baseB.WithNullable(null), nil
	case baseB.Kind == KindInteger && (baseA.Kind == KindFloat || baseA.Kind == KindDecimal):
		return baseA.WithNullable(null), nil

	case baseA.Kind == KindFloat && baseB.Kind == KindFloat:
		width := baseA.Width
		if baseB.Width > width {
			width = baseB.Width
		}
		return Float(width).WithNullable(null), nil

	case baseA.Kind == KindDecimal && baseB.Kind == KindFloat:
		return baseB.WithNullable(null), nil
	case baseB.Kind == KindDecimal && baseA.Kind == KindFloat:
		return baseA.WithNullable(null), nil

	case baseA.Kind == KindDecimal && baseB.Kind == KindDecimal:
		return Decimal.WithNullable(null), nil
	}

	return Type{}, errkind.Fatal(errkind.UnsupportedPromotion.New(a.String(), b.String()))
}

// MustReduceType is ReduceType for call sites that have already
// established the promotion must succeed (e.g. internal IR-cleanup
// passes); it panics instead of returning an error.
func MustReduceType(a, b Type) Type {
	t, err := ReduceType(a, b)
	if err != nil {
		panic(fmt.Sprintf("types: MustReduceType: %v", err))
	}
	return t
}
