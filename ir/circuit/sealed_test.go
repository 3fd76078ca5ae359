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

package circuit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dolthub-labs/sql-dataflow-compiler/ir/expr"
	"github.com/dolthub-labs/sql-dataflow-compiler/ir/types"
)

type testOrigin string

func (t testOrigin) String() string { return string(t) }

func TestValidateTopologyAcceptsAppendOrder(t *testing.T) {
	p := NewPartialCircuit()
	elem := types.Tuple(types.I64)
	src := p.Append(NewSource("t", elem, testOrigin("scan")))
	p.RegisterInput("t", src)

	rowVar := expr.NewVariable("r", elem)
	fn := expr.NewClosure("cond", []expr.Param{{Name: "r", Typ: elem}},
		expr.NewUnary(expr.NOT, expr.NewUnary(expr.IS_NULL, expr.NewFieldAccess(rowVar, 0, types.I64), types.Bool), types.Bool))
	filtered := p.Append(NewFilter(fn, src, testOrigin("filter")))
	out := p.Append(NewSink("v", filtered, testOrigin("sink")))
	require.NoError(t, p.RegisterOutput("v", out))

	sealed := p.Seal("test")
	assert.NoError(t, sealed.ValidateTopology())
}

func TestValidateTopologyRejectsOutOfOrderOperators(t *testing.T) {
	elem := types.Tuple(types.I64)
	src := NewSource("t", elem, testOrigin("scan"))
	src.setID(0)

	rowVar := expr.NewVariable("r", elem)
	fn := expr.NewClosure("cond", []expr.Param{{Name: "r", Typ: elem}},
		expr.NewUnary(expr.NOT, expr.NewUnary(expr.IS_NULL, expr.NewFieldAccess(rowVar, 0, types.I64), types.Bool), types.Bool))
	filtered := NewFilter(fn, src, testOrigin("filter"))
	filtered.setID(1)

	// Deliberately out of topological order: the consumer precedes its
	// own producer in Operators().
	sealed := &Sealed{
		Name:      "bad",
		Operators: []Operator{filtered, src},
		Inputs:    map[string]Operator{"t": src},
		Outputs:   map[string]Operator{},
	}
	assert.Error(t, sealed.ValidateTopology())
}

func TestSortedInputsAndOutputsAreNameOrdered(t *testing.T) {
	p := NewPartialCircuit()
	elem := types.Tuple(types.I64)
	b := p.Append(NewSource("b_table", elem, testOrigin("scan-b")))
	a := p.Append(NewSource("a_table", elem, testOrigin("scan-a")))
	p.RegisterInput("b_table", b)
	p.RegisterInput("a_table", a)

	sealed := p.Seal("test")
	inputs := sealed.SortedInputs()
	require.Len(t, inputs, 2)
	assert.Equal(t, "a_table", inputs[0].Name)
	assert.Equal(t, "b_table", inputs[1].Name)
}

func TestSealResetsPartialCircuit(t *testing.T) {
	p := NewPartialCircuit()
	elem := types.Tuple(types.I64)
	src := p.Append(NewSource("t", elem, testOrigin("scan")))
	p.RegisterInput("t", src)
	p.Seal("first")

	assert.Empty(t, p.Operators())
	_, ok := p.Input("t")
	assert.False(t, ok, "Seal should reset the input index")
}

func TestValidateTopologyRejectsUnresolvedAnyElementType(t *testing.T) {
	p := NewPartialCircuit()
	src := p.Append(NewSource("t", types.Tuple(types.Any), testOrigin("scan")))
	p.RegisterInput("t", src)

	sealed := p.Seal("bad")
	err := sealed.ValidateTopology()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Any")
}
