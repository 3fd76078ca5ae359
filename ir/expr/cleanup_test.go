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

package expr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dolthub-labs/sql-dataflow-compiler/ir/types"
)

func TestEliminateMulWeightRewritesTopLevelNode(t *testing.T) {
	v := NewLiteral(int64(7), types.I64)
	w := NewLiteral(int64(2), types.Weight)
	mw := NewBinary(MUL_WEIGHT, v, w, types.I64)

	got := EliminateMulWeight(mw)

	bin, ok := got.(*Binary)
	require.True(t, ok, "expected *Binary, got %T", got)
	assert.Equal(t, MUL, bin.Op)
	assert.Same(t, v, bin.Left)

	cast, ok := bin.Right.(*Cast)
	require.True(t, ok, "expected right operand to be wrapped in a Cast, got %T", bin.Right)
	assert.Same(t, w, cast.Inner)
	assert.True(t, cast.Target.Equal(v.Type()), "cast target should match the left operand's type")
}

func TestEliminateMulWeightRecursesIntoSubexpressions(t *testing.T) {
	inner := NewBinary(MUL_WEIGHT,
		NewLiteral(int64(3), types.I64),
		NewLiteral(int64(1), types.Weight),
		types.I64)
	outer := NewIf(
		NewLiteral(true, types.Bool),
		inner,
		NewLiteral(int64(0), types.I64),
	)

	got := EliminateMulWeight(outer)

	ifNode, ok := got.(*If)
	require.True(t, ok)
	thenBin, ok := ifNode.Then.(*Binary)
	require.True(t, ok, "MUL_WEIGHT nested under If.Then should be rewritten")
	assert.Equal(t, MUL, thenBin.Op)
}

func TestEliminateMulWeightLeavesOtherOpsAlone(t *testing.T) {
	add := NewBinary(ADD, NewLiteral(int64(1), types.I64), NewLiteral(int64(2), types.I64), types.I64)
	got := EliminateMulWeight(add)
	bin, ok := got.(*Binary)
	require.True(t, ok)
	assert.Equal(t, ADD, bin.Op)
}

func TestEliminateMulWeightIsIdempotentOnLeavesWithNoSubexpressions(t *testing.T) {
	lit := NewLiteral(int64(42), types.I64)
	assert.Same(t, lit, EliminateMulWeight(lit))

	v := NewVariable("r", types.Tuple(types.I64))
	assert.Same(t, v, EliminateMulWeight(v))
}
