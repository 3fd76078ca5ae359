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

func newAggCompiler() *Compiler {
	return New(circuit.NewPartialCircuit(), circuit.NewTableContents(), diag.NopReporter{})
}

func countStarAgg() relplan.AggCall {
	return relplan.AggCall{FuncName: "COUNT", Typ: relplan.Type{Wire: querypb.Type_INT64, Nullable: false}}
}

func sumAgg(idx int) relplan.AggCall {
	return relplan.AggCall{
		FuncName: "SUM",
		Args:     []relplan.ScalarNode{&relplan.InputRef{Index: idx, Typ: intField("amt").Typ}},
		Typ:      relplan.Type{Wire: querypb.Type_INT64, Nullable: true},
	}
}

func TestCompileGroupByEmptyGroupCountStarProducesThreeWaySum(t *testing.T) {
	c := newAggCompiler()
	gb := &relplan.GroupBy{
		Input:    scanNode("t"),
		GroupSet: nil,
		Aggs:     []relplan.AggCall{countStarAgg()},
		Sch:      []relplan.Field{{Name: "n", Typ: countStarAgg().Typ}},
	}

	op, err := c.CompileNode(gb)
	require.NoError(t, err)

	sum, ok := op.(*circuit.Sum)
	require.True(t, ok, "empty-group COUNT(*) should produce the documented Sum(agg, Negate(Map), Constant) shape, got %T", op)
	require.Len(t, sum.Operands, 3)

	_, isMap := sum.Operands[0].(*circuit.Map)
	assert.True(t, isMap, "first term should be the flattened aggregate result")

	neg, ok := sum.Operands[1].(*circuit.Negate)
	require.True(t, ok, "second term should be Negate(...)")
	_, negInputIsMap := neg.Child.(*circuit.Map)
	assert.True(t, negInputIsMap)

	constOp, ok := sum.Operands[2].(*circuit.Constant)
	require.True(t, ok, "third term should be the Constant{z->1} fix-up")
	require.Len(t, constOp.Value.Rows, 1)
	assert.Equal(t, int64(1), constOp.Value.Weights[0])
	assert.Equal(t, int64(0), constOp.Value.Rows[0][0], "COUNT's default-zero should be 0")
}

func TestCompileGroupByNonEmptyGroupSumSkipsEmptyGroupCorrection(t *testing.T) {
	c := newAggCompiler()
	amtField := relplan.Field{Name: "amt", Typ: relplan.Type{Wire: querypb.Type_INT64, Nullable: false}}
	scan := &relplan.TableScan{TableName: "t", Sch: []relplan.Field{intField("id"), amtField}}
	gb := &relplan.GroupBy{
		Input:    scan,
		GroupSet: []int{0},
		Aggs:     []relplan.AggCall{sumAgg(1)},
		Sch:      []relplan.Field{intField("id"), {Name: "total", Typ: sumAgg(1).Typ}},
	}

	op, err := c.CompileNode(gb)
	require.NoError(t, err)

	// Non-empty group sets must not be wrapped in the empty-group
	// Sum fix-up: the result is the flattened Map directly over the
	// Aggregate operator.
	m, ok := op.(*circuit.Map)
	require.True(t, ok, "non-empty GroupBy should return the flattened Map, got %T", op)
	_, isAgg := m.Child.(*circuit.Aggregate)
	assert.True(t, isAgg)
}

func TestCompileGroupByUnknownAggregateFunctionIsUnimplemented(t *testing.T) {
	c := newAggCompiler()
	gb := &relplan.GroupBy{
		Input:    scanNode("t"),
		GroupSet: nil,
		Aggs: []relplan.AggCall{{
			FuncName: "STDDEV",
			Args:     []relplan.ScalarNode{&relplan.InputRef{Index: 0, Typ: intField("id").Typ}},
			Typ:      relplan.Type{Wire: querypb.Type_INT64, Nullable: true},
		}},
		Sch: []relplan.Field{{Name: "s", Typ: relplan.Type{Wire: querypb.Type_INT64, Nullable: true}}},
	}
	_, err := c.CompileNode(gb)
	assert.Error(t, err)
}
