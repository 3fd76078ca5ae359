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

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dolthub-labs/sql-dataflow-compiler/diag"
	"github.com/dolthub-labs/sql-dataflow-compiler/ir/circuit"
	"github.com/dolthub-labs/sql-dataflow-compiler/ir/expr"
	"github.com/dolthub-labs/sql-dataflow-compiler/relplan"
)

func newSortCompiler() *Compiler {
	return New(circuit.NewPartialCircuit(), circuit.NewTableContents(), diag.NopReporter{})
}

func TestCompileSortBuildsCollectSortExpandChain(t *testing.T) {
	c := newSortCompiler()
	n := &relplan.Sort{
		Input:  scanNode("t"),
		Fields: []relplan.SortField{{Index: 0, Asc: true}},
		Limit:  -1,
		Offset: 0,
	}
	op, err := c.CompileNode(n)
	require.NoError(t, err)

	flat, ok := op.(*circuit.FlatMap)
	require.True(t, ok, "Sort should terminate in the exploding FlatMap, got %T", op)
	m, ok := flat.Child.(*circuit.Map)
	require.True(t, ok, "expected the vec_sort Map feeding FlatMap, got %T", flat.Child)
	_, isAgg := m.Child.(*circuit.Aggregate)
	assert.True(t, isAgg, "the Map should read off the row-collecting Aggregate")

	// Every element type along the chain must stay a tuple (the sort
	// Map wraps its Vec in a single-field tuple), so sealing and
	// validating the circuit must neither panic nor error.
	sealed := c.Partial.Seal("sorted")
	assert.NoError(t, sealed.ValidateTopology())
}

func TestCompileSortWithNoFieldsSkipsComparator(t *testing.T) {
	c := newSortCompiler()
	n := &relplan.Sort{
		Input:  scanNode("t"),
		Fields: nil,
		Limit:  2,
		Offset: 0,
	}
	op, err := c.CompileNode(n)
	require.NoError(t, err)
	_, ok := op.(*circuit.FlatMap)
	assert.True(t, ok)
}

func TestCompileSortWithLimitAndOffsetAppliesVecSlice(t *testing.T) {
	c := newSortCompiler()
	n := &relplan.Sort{
		Input:  scanNode("t"),
		Fields: []relplan.SortField{{Index: 0, Asc: false}},
		Limit:  5,
		Offset: 10,
	}
	op, err := c.CompileNode(n)
	require.NoError(t, err)
	flat, ok := op.(*circuit.FlatMap)
	require.True(t, ok)
	m, ok := flat.Child.(*circuit.Map)
	require.True(t, ok)
	tup, ok := m.Fn.Body.(*expr.Tuple)
	require.True(t, ok, "the sort Map should wrap its Vec in a single-field tuple, got %T", m.Fn.Body)
	require.Len(t, tup.Elems, 1)
	apply, ok := tup.Elems[0].(*expr.Apply)
	require.True(t, ok, "LIMIT/OFFSET should apply vec_slice over the sorted vec, got %T", tup.Elems[0])
	assert.Equal(t, "vec_slice", apply.Name)
}
