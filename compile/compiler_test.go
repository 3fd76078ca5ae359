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

package compile

import (
	"testing"

	querypb "github.com/dolthub/vitess/go/vt/proto/query"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dolthub-labs/sql-dataflow-compiler/diag"
	"github.com/dolthub-labs/sql-dataflow-compiler/ir/circuit"
	"github.com/dolthub-labs/sql-dataflow-compiler/relplan"
)

func idField() relplan.Field {
	return relplan.Field{Name: "id", Typ: relplan.Type{Wire: querypb.Type_INT64, Nullable: false}}
}

func TestCreateTableForcesSourceEvenWithoutAView(t *testing.T) {
	c := New(nil, nil, nil)
	res, err := c.CompileStatement(&relplan.CreateTable{Name: "t", Sch: []relplan.Field{idField()}})
	require.NoError(t, err)
	assert.Equal(t, ResultNone, res.Kind)

	_, ok := c.Partial.Input("t")
	assert.True(t, ok, "CREATE TABLE should register a Source even with no view scanning it")
}

func TestCreateTableDuplicateIsFatal(t *testing.T) {
	c := New(nil, nil, nil)
	_, err := c.CompileStatement(&relplan.CreateTable{Name: "t", Sch: []relplan.Field{idField()}})
	require.NoError(t, err)

	_, err = c.CompileStatement(&relplan.CreateTable{Name: "t", Sch: []relplan.Field{idField()}})
	assert.Error(t, err)
}

func TestInsertValuesMaterializesIntoTableContents(t *testing.T) {
	c := New(nil, nil, nil)
	_, err := c.CompileStatement(&relplan.CreateTable{Name: "t", Sch: []relplan.Field{idField()}})
	require.NoError(t, err)

	values := &relplan.Values{
		Sch: []relplan.Field{idField()},
		Rows: [][]relplan.ScalarNode{
			{&relplan.Literal{Value: int64(1), Typ: idField().Typ}},
			{&relplan.Literal{Value: nil, Typ: idField().Typ}},
		},
	}
	res, err := c.CompileStatement(&relplan.Insert{TableName: "t", Source: values})
	require.NoError(t, err)
	require.Equal(t, ResultMaterialized, res.Kind)
	require.Len(t, res.Rows, 2)
	assert.Equal(t, int64(1), res.Rows[0].Values[0])
	assert.Nil(t, res.Rows[1].Values[0])
	assert.Equal(t, int64(1), res.Rows[0].Weight)

	entry := c.Tables.Lookup("t")
	require.NotNil(t, entry)
	require.NotNil(t, entry.Content)
	assert.Len(t, entry.Content.Rows, 2)
}

func TestInsertIntoUndeclaredTableIsFatal(t *testing.T) {
	c := New(nil, nil, nil)
	values := &relplan.Values{Sch: []relplan.Field{idField()}}
	_, err := c.CompileStatement(&relplan.Insert{TableName: "missing", Source: values})
	assert.Error(t, err)
}

func TestCreateViewRegistersNamedOutput(t *testing.T) {
	c := New(nil, nil, nil)
	_, err := c.CompileStatement(&relplan.CreateTable{Name: "t", Sch: []relplan.Field{idField()}})
	require.NoError(t, err)

	scan := &relplan.TableScan{TableName: "t", Sch: []relplan.Field{idField()}}
	res, err := c.CompileStatement(&relplan.CreateView{Name: "v", Query: scan})
	require.NoError(t, err)
	assert.Equal(t, ResultViewOperator, res.Kind)
	assert.NotNil(t, res.Operator)

	out, ok := c.Partial.Output("v")
	require.True(t, ok)
	_, isSink := out.(*circuit.Sink)
	assert.True(t, isSink, "a visible view should register a Sink")
}

func TestSetNextViewVisibleFalseUsesNoop(t *testing.T) {
	c := New(nil, nil, nil)
	_, err := c.CompileStatement(&relplan.CreateTable{Name: "t", Sch: []relplan.Field{idField()}})
	require.NoError(t, err)

	c.SetNextViewVisible(false)
	scan := &relplan.TableScan{TableName: "t", Sch: []relplan.Field{idField()}}
	_, err = c.CompileStatement(&relplan.CreateView{Name: "v", Query: scan})
	require.NoError(t, err)

	out, ok := c.Partial.Output("v")
	require.True(t, ok)
	_, isNoop := out.(*circuit.Noop)
	assert.True(t, isNoop, "SetNextViewVisible(false) should register a Noop instead of a Sink")

	// The toggle is consumed, not sticky: the next view should be
	// visible again without a further call.
	_, err = c.CompileStatement(&relplan.CreateView{Name: "v2", Query: scan})
	require.NoError(t, err)
	out2, ok := c.Partial.Output("v2")
	require.True(t, ok)
	_, isSink := out2.(*circuit.Sink)
	assert.True(t, isSink)
}

func TestDuplicateViewNameIsDiagnosticNotError(t *testing.T) {
	collector := &diag.CollectingReporter{}
	c := New(collector, nil, nil)
	_, err := c.CompileStatement(&relplan.CreateTable{Name: "t", Sch: []relplan.Field{idField()}})
	require.NoError(t, err)

	scan := &relplan.TableScan{TableName: "t", Sch: []relplan.Field{idField()}}
	_, err = c.CompileStatement(&relplan.CreateView{Name: "v", Query: scan})
	require.NoError(t, err)

	res, err := c.CompileStatement(&relplan.CreateView{Name: "v", Query: scan})
	require.NoError(t, err, "a duplicate view name must not propagate as an error")
	assert.Equal(t, ResultNone, res.Kind)
	require.Len(t, collector.Diagnostics, 1)
	assert.Equal(t, diag.SeverityWarning, collector.Diagnostics[0].Severity)
}

func TestFinalizeCircuitSealsAndResets(t *testing.T) {
	c := New(nil, nil, nil)
	_, err := c.CompileStatement(&relplan.CreateTable{Name: "t", Sch: []relplan.Field{idField()}})
	require.NoError(t, err)

	sealed, err := c.FinalizeCircuit("main")
	require.NoError(t, err)
	assert.Equal(t, "main", sealed.Name)
	assert.NoError(t, sealed.ValidateTopology())
	assert.Empty(t, c.Partial.Operators(), "FinalizeCircuit should reset the partial circuit")
}
