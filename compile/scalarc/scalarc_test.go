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

package scalarc

import (
	"testing"

	querypb "github.com/dolthub/vitess/go/vt/proto/query"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dolthub-labs/sql-dataflow-compiler/ir/expr"
	"github.com/dolthub-labs/sql-dataflow-compiler/ir/types"
	"github.com/dolthub-labs/sql-dataflow-compiler/relplan"
)

func newRowCompiler(fields ...types.Type) *Compiler {
	rowType := types.Tuple(fields...)
	return New(RowContext{RowVar: expr.NewVariable("r", rowType), RowType: rowType})
}

func i64Typ(nullable bool) relplan.Type {
	return relplan.Type{Wire: querypb.Type_INT64, Nullable: nullable}
}

func TestCompileInputRefResolvesFieldAccess(t *testing.T) {
	c := newRowCompiler(types.I64, types.String)
	got, err := c.Compile(&relplan.InputRef{Index: 1, Typ: relplan.Type{Wire: querypb.Type_VARCHAR}})
	require.NoError(t, err)
	fa, ok := got.(*expr.FieldAccess)
	require.True(t, ok)
	assert.Equal(t, 1, fa.Index)
}

func TestCompileInputRefOutOfRangeIsFatal(t *testing.T) {
	c := newRowCompiler(types.I64)
	_, err := c.Compile(&relplan.InputRef{Index: 5, Typ: i64Typ(false)})
	assert.Error(t, err)
}

func TestCompileLiteralCoercesThroughCast(t *testing.T) {
	c := newRowCompiler(types.I64)
	got, err := c.Compile(&relplan.Literal{Value: "42", Typ: i64Typ(false)})
	require.NoError(t, err)
	lit, ok := got.(*expr.Literal)
	require.True(t, ok)
	assert.Equal(t, int64(42), lit.Value)
}

func TestCompileLiteralNullKeepsNilValue(t *testing.T) {
	c := newRowCompiler(types.I64)
	got, err := c.Compile(&relplan.Literal{Value: nil, Typ: i64Typ(true)})
	require.NoError(t, err)
	lit, ok := got.(*expr.Literal)
	require.True(t, ok)
	assert.Nil(t, lit.Value)
}

func TestCompileComparisonWidensToNullableBool(t *testing.T) {
	c := newRowCompiler(types.I64, types.I64.Nullable())
	cond := &relplan.Call{
		Kind: relplan.CallEq,
		Args: []relplan.ScalarNode{
			&relplan.InputRef{Index: 0, Typ: i64Typ(false)},
			&relplan.InputRef{Index: 1, Typ: i64Typ(true)},
		},
		Typ: i64Typ(false), // declared is not Bool; cast is exercised
	}
	got, err := c.Compile(cond)
	require.NoError(t, err)
	cst, ok := got.(*expr.Cast)
	require.True(t, ok, "comparison cast to a non-Bool declared type should wrap in Cast, got %T", got)
	bin, ok := cst.Inner.(*expr.Binary)
	require.True(t, ok)
	assert.Equal(t, expr.EQ, bin.Op)
	assert.True(t, bin.Type().MayBeNull, "comparing a nullable operand should widen the Bool result to nullable")
}

func TestCompileCaseSwitchedFormBuildsIfChain(t *testing.T) {
	c := newRowCompiler(types.I64)
	n := &relplan.Case{
		Subject: &relplan.InputRef{Index: 0, Typ: i64Typ(false)},
		Branches: []relplan.CaseBranch{
			{Cond: &relplan.Literal{Value: int64(1), Typ: i64Typ(false)}, Then: &relplan.Literal{Value: "one", Typ: relplan.Type{Wire: querypb.Type_VARCHAR}}},
		},
		Else: &relplan.Literal{Value: "other", Typ: relplan.Type{Wire: querypb.Type_VARCHAR}},
		Typ:  relplan.Type{Wire: querypb.Type_VARCHAR},
	}
	got, err := c.Compile(n)
	require.NoError(t, err)
	ifNode, ok := got.(*expr.If)
	require.True(t, ok, "CASE should compile to an If, got %T", got)
	elseLit, ok := ifNode.Else.(*expr.Literal)
	require.True(t, ok)
	assert.Equal(t, "other", elseLit.Value)
}

func TestCompileCaseWithNoElseDefaultsToNullLiteral(t *testing.T) {
	c := newRowCompiler(types.I64)
	n := &relplan.Case{
		Branches: []relplan.CaseBranch{
			{Cond: &relplan.Literal{Value: true, Typ: relplan.Type{Wire: querypb.Type_UINT8}}, Then: &relplan.Literal{Value: int64(1), Typ: i64Typ(true)}},
		},
		Typ: i64Typ(true),
	}
	got, err := c.Compile(n)
	require.NoError(t, err)
	ifNode, ok := got.(*expr.If)
	require.True(t, ok)
	elseLit, ok := ifNode.Else.(*expr.Literal)
	require.True(t, ok)
	assert.Nil(t, elseLit.Value)
}

func TestCompileTupleCompilesEachElement(t *testing.T) {
	c := newRowCompiler(types.I64)
	n := &relplan.Tuple{
		Elems: []relplan.ScalarNode{
			&relplan.Literal{Value: int64(1), Typ: i64Typ(false)},
			&relplan.Literal{Value: int64(2), Typ: i64Typ(false)},
		},
		Typ: i64Typ(false),
	}
	got, err := c.Compile(n)
	require.NoError(t, err)
	tup, ok := got.(*expr.Tuple)
	require.True(t, ok)
	assert.Len(t, tup.Elems, 2)
}

func TestCompileUnknownScalarNodeIsUnimplemented(t *testing.T) {
	c := newRowCompiler(types.I64)
	_, err := c.Compile(nil)
	assert.Error(t, err)
}

func TestBinaryDivideResultAlwaysNullable(t *testing.T) {
	c := newRowCompiler(types.I64, types.I64)
	n := &relplan.Call{
		Kind: relplan.CallDivide,
		Args: []relplan.ScalarNode{
			&relplan.InputRef{Index: 0, Typ: i64Typ(false)},
			&relplan.InputRef{Index: 1, Typ: i64Typ(false)},
		},
		Typ: i64Typ(false),
	}
	got, err := c.Compile(n)
	require.NoError(t, err)
	assert.True(t, got.Type().MayBeNull, "DIV must always be nullable even with non-nullable operands")
}
