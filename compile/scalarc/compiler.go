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

// Package scalarc lowers relplan scalar-expression trees into the
// circuit IR's scalar expression language.
package scalarc

import (
	"fmt"

	"github.com/spf13/cast"

	"github.com/dolthub-labs/sql-dataflow-compiler/ir/expr"
	"github.com/dolthub-labs/sql-dataflow-compiler/ir/types"
	"github.com/dolthub-labs/sql-dataflow-compiler/ircompile/errkind"
	"github.com/dolthub-labs/sql-dataflow-compiler/relplan"
)

// RowContext names the Variable a compiled scalar tree should read
// row fields from, plus the row's own type (needed so InputRef can
// emit a FieldAccess against it).
type RowContext struct {
	RowVar  *expr.Variable
	RowType types.Type // Tuple
}

// Compiler lowers relplan.ScalarNode trees within one RowContext. It
// holds no state across calls: every Compile call is an independent
// per-node visit.
type Compiler struct {
	Row RowContext
}

// New returns a Compiler that resolves InputRef nodes against row.
func New(row RowContext) *Compiler {
	return &Compiler{Row: row}
}

// Compile lowers one relplan.ScalarNode into an ir/expr.Expr.
func (c *Compiler) Compile(n relplan.ScalarNode) (expr.Expr, error) {
	switch n := n.(type) {
	case *relplan.InputRef:
		return c.compileInputRef(n)
	case *relplan.Literal:
		return c.compileLiteral(n)
	case *relplan.Call:
		return c.compileCall(n)
	case *relplan.Case:
		return c.compileCase(n)
	case *relplan.Tuple:
		return c.compileTuple(n)
	default:
		return nil, errkind.Fatal(errkind.Unimplemented.New(fmt.Sprintf("scalar node %T", n)))
	}
}

// compileInputRef resolves field i of the row, or, if i is beyond
// the row's arity, the appropriate entry of the trailing constant
// pool. Constants are modeled as extra trailing fields of RowType,
// the Calcite row+constants convention; there is no separate
// constant-pool type.
func (c *Compiler) compileInputRef(n *relplan.InputRef) (expr.Expr, error) {
	if n.Index < 0 || n.Index >= len(c.Row.RowType.Fields) {
		return nil, errkind.Fatal(errkind.Translation.New(
			fmt.Sprintf("input reference %d out of range for row of arity %d", n.Index, len(c.Row.RowType.Fields))))
	}
	fieldType := c.Row.RowType.Fields[n.Index]
	return expr.NewFieldAccess(c.Row.RowVar, n.Index, fieldType), nil
}

// compileLiteral builds a typed Literal. NULL literals still carry
// the target field type so downstream type checks pass.
func (c *Compiler) compileLiteral(n *relplan.Literal) (expr.Expr, error) {
	t, err := convertType(n.Typ)
	if err != nil {
		return nil, err
	}
	value := n.Value
	if value != nil {
		value, err = coerceLiteral(value, t)
		if err != nil {
			return nil, err
		}
	}
	return expr.NewLiteral(value, t), nil
}

// coerceLiteral uses spf13/cast to bring an upstream literal's boxed
// interface{} into the Go-native representation implied by t: the
// planner hands the compiler loosely-typed constant pool values that
// still need a final coercion before wrapping.
func coerceLiteral(value interface{}, t types.Type) (interface{}, error) {
	switch t.Kind {
	case types.KindInteger:
		if t.Signed {
			return cast.ToInt64E(value)
		}
		return cast.ToUint64E(value)
	case types.KindFloat:
		return cast.ToFloat64E(value)
	case types.KindString, types.KindKeyword:
		return cast.ToStringE(value)
	case types.KindBool:
		return cast.ToBoolE(value)
	default:
		// Decimal, Date, Timestamp, and other boxed types are passed
		// through as-is; the upstream planner already produces the
		// right Go representation for them (decimal.Decimal, etc.).
		return value, nil
	}
}

func (c *Compiler) compileTuple(n *relplan.Tuple) (expr.Expr, error) {
	elems := make([]expr.Expr, len(n.Elems))
	for i, e := range n.Elems {
		ce, err := c.Compile(e)
		if err != nil {
			return nil, err
		}
		elems[i] = ce
	}
	return expr.NewTuple(elems), nil
}

func convertType(t relplan.Type) (types.Type, error) {
	return types.ConvertType(t.Wire, t.Nullable)
}
