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
	"github.com/dolthub-labs/sql-dataflow-compiler/ir/expr"
	"github.com/dolthub-labs/sql-dataflow-compiler/relplan"
)

func newCompiler() *Compiler {
	return New(circuit.NewPartialCircuit(), circuit.NewTableContents(), diag.NopReporter{})
}

func TestCompileTableScanEmitsAndRegistersSource(t *testing.T) {
	c := newCompiler()
	op, err := c.CompileNode(scanNode("t"))
	require.NoError(t, err)

	src, ok := op.(*circuit.Source)
	require.True(t, ok, "expected *circuit.Source, got %T", op)
	assert.Equal(t, "t", src.Table)

	registered, ok := c.Partial.Input("t")
	require.True(t, ok)
	assert.Same(t, src, registered)
}

func TestCompileTableScanReusesRegisteredSource(t *testing.T) {
	c := newCompiler()
	first, err := c.CompileNode(scanNode("t"))
	require.NoError(t, err)

	// A distinct plan node naming the same table must resolve to the
	// same Source rather than emitting a second one.
	second, err := c.CompileNode(scanNode("t"))
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Len(t, c.Partial.Operators(), 1)
}

func TestCompileTableScanOfViewNameUnwrapsSink(t *testing.T) {
	c := newCompiler()
	producer, err := c.CompileNode(scanNode("t"))
	require.NoError(t, err)

	sink := c.Partial.Append(circuit.NewSink("v", producer, testPlanOrigin("view")))
	require.NoError(t, c.Partial.RegisterOutput("v", sink))

	op, err := c.CompileNode(scanNode("v"))
	require.NoError(t, err)
	assert.Same(t, producer, op, "scanning a declared view should reuse the Sink's underlying producer")
}

func TestCompileProjectEmitsMapWithBinaryAdd(t *testing.T) {
	c := newCompiler()
	proj := &relplan.Project{
		Input: scanNode("t"),
		Exprs: []relplan.ScalarNode{
			&relplan.Call{
				Kind: relplan.CallPlus,
				Args: []relplan.ScalarNode{
					&relplan.InputRef{Index: 0, Typ: intField("id").Typ},
					&relplan.Literal{Value: int64(1), Typ: intField("id").Typ},
				},
				Typ: intField("id").Typ,
			},
		},
		Sch: []relplan.Field{intField("id_plus_one")},
	}

	op, err := c.CompileNode(proj)
	require.NoError(t, err)

	m, ok := op.(*circuit.Map)
	require.True(t, ok, "Project should emit a Map, got %T", op)
	_, isSource := m.Child.(*circuit.Source)
	assert.True(t, isSource)

	tup, ok := m.Fn.Body.(*expr.Tuple)
	require.True(t, ok)
	require.Len(t, tup.Elems, 1)
	bin, ok := tup.Elems[0].(*expr.Binary)
	require.True(t, ok, "the projected field should be a Binary ADD, got %T", tup.Elems[0])
	assert.Equal(t, expr.ADD, bin.Op)
	assert.False(t, bin.Type().MayBeNull)
}

func TestCompileFilterWrapsNullableConditionInWrapBool(t *testing.T) {
	c := newCompiler()
	scan := &relplan.TableScan{TableName: "t", Sch: []relplan.Field{nullableIntField("id")}}
	filter := &relplan.Filter{
		Input: scan,
		Cond: &relplan.Call{
			Kind: relplan.CallEq,
			Args: []relplan.ScalarNode{
				&relplan.InputRef{Index: 0, Typ: nullableIntField("id").Typ},
				&relplan.Literal{Value: int64(1), Typ: intField("id").Typ},
			},
			Typ: relplan.Type{Wire: querypb.Type_UINT8, Nullable: true},
		},
	}

	op, err := c.CompileNode(filter)
	require.NoError(t, err)

	f, ok := op.(*circuit.Filter)
	require.True(t, ok, "expected *circuit.Filter, got %T", op)
	wrap, ok := f.Fn.Body.(*expr.Unary)
	require.True(t, ok, "a nullable condition must be wrapped, got %T", f.Fn.Body)
	assert.Equal(t, expr.WRAP_BOOL, wrap.Op)
	assert.False(t, wrap.Type().MayBeNull)
}

func TestCompileNodeMemoizesAndRevisitIsANoOp(t *testing.T) {
	c := newCompiler()
	scan := scanNode("t")
	proj := &relplan.Project{
		Input: scan,
		Exprs: []relplan.ScalarNode{&relplan.InputRef{Index: 0, Typ: intField("id").Typ}},
		Sch:   []relplan.Field{intField("id")},
	}

	first, err := c.CompileNode(proj)
	require.NoError(t, err)
	count := len(c.Partial.Operators())

	second, err := c.CompileNode(proj)
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Len(t, c.Partial.Operators(), count, "re-visiting a memoized node must not append operators")
}

type testPlanOrigin string

func (t testPlanOrigin) String() string { return string(t) }
