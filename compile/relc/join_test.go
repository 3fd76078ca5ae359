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

package relc

import (
	"testing"

	querypb "github.com/dolthub/vitess/go/vt/proto/query"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dolthub-labs/sql-dataflow-compiler/diag"
	"github.com/dolthub-labs/sql-dataflow-compiler/ir/circuit"
	"github.com/dolthub-labs/sql-dataflow-compiler/relplan"
)

func intField(name string) relplan.Field {
	return relplan.Field{Name: name, Typ: relplan.Type{Wire: querypb.Type_INT64, Nullable: false}}
}

func nullableIntField(name string) relplan.Field {
	return relplan.Field{Name: name, Typ: relplan.Type{Wire: querypb.Type_INT64, Nullable: true}}
}

func newJoinCompiler() *Compiler {
	return New(circuit.NewPartialCircuit(), circuit.NewTableContents(), diag.NopReporter{})
}

func scanNode(name string) *relplan.TableScan {
	return &relplan.TableScan{TableName: name, Sch: []relplan.Field{intField("id")}}
}

func TestCompileJoinInnerEquiKey(t *testing.T) {
	c := newJoinCompiler()
	left := scanNode("t")
	right := scanNode("s")
	cond := &relplan.Call{
		Kind: relplan.CallEq,
		Args: []relplan.ScalarNode{
			&relplan.InputRef{Index: 0, Typ: intField("id").Typ},
			&relplan.InputRef{Index: 1, Typ: intField("id").Typ},
		},
		Typ: relplan.Type{Wire: querypb.Type_UINT8, Nullable: false},
	}
	join := &relplan.Join{
		Left: left, Right: right, Cond: cond, Kind: relplan.JoinInner,
		Sch: []relplan.Field{intField("id"), intField("id")},
	}

	op, err := c.CompileNode(join)
	require.NoError(t, err)
	require.NotNil(t, op)
}

func TestCompileJoinLeftOuterSumsUnmatchedNullPaddedRows(t *testing.T) {
	c := newJoinCompiler()
	left := scanNode("t")
	right := scanNode("s")
	cond := &relplan.Call{
		Kind: relplan.CallEq,
		Args: []relplan.ScalarNode{
			&relplan.InputRef{Index: 0, Typ: intField("id").Typ},
			&relplan.InputRef{Index: 1, Typ: intField("id").Typ},
		},
		Typ: relplan.Type{Wire: querypb.Type_UINT8, Nullable: false},
	}
	join := &relplan.Join{
		Left: left, Right: right, Cond: cond, Kind: relplan.JoinLeft,
		Sch: []relplan.Field{intField("id"), nullableIntField("id")},
	}

	op, err := c.CompileNode(join)
	require.NoError(t, err)

	// LEFT JOIN terminates in Sum(inner-join result, NULL-padded
	// unmatched-left rows); the pad Map reads off the
	// Distinct(L - Distinct(Project_left(join))) derivation.
	sum, ok := op.(*circuit.Sum)
	require.True(t, ok, "expected *circuit.Sum, got %T", op)
	require.Len(t, sum.Operands, 2)

	pad, ok := sum.Operands[1].(*circuit.Map)
	require.True(t, ok, "the unmatched side should end in the NULL-pad Map, got %T", sum.Operands[1])
	_, padReadsDistinct := pad.Child.(*circuit.Distinct)
	assert.True(t, padReadsDistinct)
}

func TestCompileJoinConstantFalseFullShortCircuits(t *testing.T) {
	c := newJoinCompiler()
	left := scanNode("t")
	right := scanNode("s")
	cond := &relplan.Literal{Value: false, Typ: relplan.Type{Wire: querypb.Type_UINT8, Nullable: false}}
	join := &relplan.Join{
		Left: left, Right: right, Cond: cond, Kind: relplan.JoinFull,
		Sch: []relplan.Field{nullableIntField("id"), nullableIntField("id")},
	}

	op, err := c.CompileNode(join)
	require.NoError(t, err)
	require.NotNil(t, op)

	// A constant-FALSE full join should short-circuit to a Sum of the
	// two NULL-padded sides, never touching Index/Join at all.
	sum, ok := op.(*circuit.Sum)
	require.True(t, ok, "expected *circuit.Sum, got %T", op)
	assert.Len(t, sum.Inputs(), 2)
	for _, in := range sum.Inputs() {
		assert.Equal(t, "Map", in.Kind(), "each side should be a direct NULL-pad Map over its own source, not an indexed join")
	}
}

func TestCompileJoinConstantFalseInnerIsEmpty(t *testing.T) {
	c := newJoinCompiler()
	left := scanNode("t")
	right := scanNode("s")
	cond := &relplan.Literal{Value: false, Typ: relplan.Type{Wire: querypb.Type_UINT8, Nullable: false}}
	join := &relplan.Join{
		Left: left, Right: right, Cond: cond, Kind: relplan.JoinInner,
		Sch: []relplan.Field{intField("id"), intField("id")},
	}

	op, err := c.CompileNode(join)
	require.NoError(t, err)

	constant, ok := op.(*circuit.Constant)
	require.True(t, ok, "expected *circuit.Constant, got %T", op)
	assert.Empty(t, constant.Value.Rows)
}

func TestCompileJoinAntiSemiUnimplemented(t *testing.T) {
	c := newJoinCompiler()
	join := &relplan.Join{
		Left: scanNode("t"), Right: scanNode("s"),
		Cond: &relplan.Literal{Value: true, Typ: relplan.Type{Wire: querypb.Type_UINT8}},
		Kind: relplan.JoinSemi,
		Sch:  []relplan.Field{intField("id")},
	}
	_, err := c.CompileNode(join)
	assert.Error(t, err)
}
