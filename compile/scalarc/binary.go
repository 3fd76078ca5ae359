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
	"fmt"

	"github.com/dolthub-labs/sql-dataflow-compiler/ir/expr"
	"github.com/dolthub-labs/sql-dataflow-compiler/ir/types"
	"github.com/dolthub-labs/sql-dataflow-compiler/relplan"
)

// makeBinaryExpression is the central binary-operator builder. For
// non-date operands it computes a common base type via ReduceType,
// casts both operands onto it, builds the typed Binary
// node, then casts the result to the declared output type. Date and
// Timestamp operands bypass common-typing entirely and are dispatched
// to a named runtime function instead (date arithmetic has no
// sensible common base type with a numeric operand).
func makeBinaryExpression(op expr.Opcode, left, right expr.Expr, declared types.Type) (expr.Expr, error) {
	if isDateLike(left.Type()) || isDateLike(right.Type()) {
		return nil, nil // signal: caller should route to the date path
	}
	common, err := types.ReduceType(left.Type(), right.Type())
	if err != nil {
		return nil, err
	}
	bin := expr.NewBinary(op, expr.CastTo(left, common), expr.CastTo(right, common), common)
	return expr.CastTo(bin, declared), nil
}

func isDateLike(t types.Type) bool {
	return t.Kind == types.KindDate || t.Kind == types.KindTimestamp
}

// makeComparisonExpression builds a comparison Binary node. Unlike
// makeBinaryExpression, the result type is always Bool (widened
// nullable if either operand is nullable); the
// common operand type only governs the casts inserted on the
// operands. Date-like operands compare directly without a common
// base.
func makeComparisonExpression(op expr.Opcode, left, right expr.Expr) (expr.Expr, error) {
	if isDateLike(left.Type()) || isDateLike(right.Type()) {
		result := types.Bool.WithNullable(left.Type().MayBeNull || right.Type().MayBeNull)
		return expr.NewBinary(op, left, right, result), nil
	}
	common, err := types.ReduceType(left.Type(), right.Type())
	if err != nil {
		return nil, err
	}
	result := types.Bool.WithNullable(common.MayBeNull)
	return expr.NewBinary(op, expr.CastTo(left, common), expr.CastTo(right, common), result), nil
}

// binaryArith compiles a two-argument arithmetic call through
// makeBinaryExpression, falling back to the named-runtime-function
// path when either operand is date-like.
func (c *Compiler) binaryArith(n *relplan.Call, op expr.Opcode, declared types.Type) (expr.Expr, error) {
	if len(n.Args) != 2 {
		return nil, wrongArity(n, 2)
	}
	left, err := c.Compile(n.Args[0])
	if err != nil {
		return nil, err
	}
	right, err := c.Compile(n.Args[1])
	if err != nil {
		return nil, err
	}
	result, err := makeBinaryExpression(op, left, right, declared)
	if err != nil {
		return nil, err
	}
	if result != nil {
		return result, nil
	}
	return c.dateRuntimeCall(opcodeRuntimeName(op), left, right, declared)
}

// comparison compiles a two-argument comparison call. Comparisons
// always produce Bool (widened nullable if either operand is
// nullable, following the ordinary null-propagation rule), cast to
// declared only if the upstream plan expects something other than
// Bool (e.g. inside a CASE condition slot).
func (c *Compiler) comparison(n *relplan.Call, op expr.Opcode, declared types.Type) (expr.Expr, error) {
	if len(n.Args) != 2 {
		return nil, wrongArity(n, 2)
	}
	left, err := c.Compile(n.Args[0])
	if err != nil {
		return nil, err
	}
	right, err := c.Compile(n.Args[1])
	if err != nil {
		return nil, err
	}
	bin, err := makeComparisonExpression(op, left, right)
	if err != nil {
		return nil, err
	}
	return expr.CastTo(bin, declared), nil
}

// binaryDivide is makeBinaryExpression's DIV special case: the
// result is forced nullable regardless of the operands'
// own nullability (division by zero yields NULL at runtime).
func (c *Compiler) binaryDivide(n *relplan.Call, declared types.Type) (expr.Expr, error) {
	if len(n.Args) != 2 {
		return nil, wrongArity(n, 2)
	}
	left, err := c.Compile(n.Args[0])
	if err != nil {
		return nil, err
	}
	right, err := c.Compile(n.Args[1])
	if err != nil {
		return nil, err
	}
	common, err := types.ReduceType(left.Type(), right.Type())
	if err != nil {
		return nil, err
	}
	result := common.Nullable()
	bin := expr.NewBinary(expr.DIV, expr.CastTo(left, common), expr.CastTo(right, common), result)
	return expr.CastTo(bin, declared.Nullable()), nil
}

// nAryFold left-folds an N-ary PLUS/AND/OR/CONCAT/BIT_* call by
// repeated binary application.
func (c *Compiler) nAryFold(n *relplan.Call, op expr.Opcode, declared types.Type) (expr.Expr, error) {
	if len(n.Args) < 2 {
		return nil, wrongArity(n, 2)
	}
	acc, err := c.Compile(n.Args[0])
	if err != nil {
		return nil, err
	}
	for _, a := range n.Args[1:] {
		rhs, err := c.Compile(a)
		if err != nil {
			return nil, err
		}
		result, err := makeBinaryExpression(op, acc, rhs, acc.Type())
		if err != nil {
			return nil, err
		}
		if result == nil {
			result, err = c.dateRuntimeCall(opcodeRuntimeName(op), acc, rhs, declared)
			if err != nil {
				return nil, err
			}
		}
		acc = result
	}
	return expr.CastTo(acc, declared), nil
}

func (c *Compiler) castCall(n *relplan.Call, declared types.Type) (expr.Expr, error) {
	if len(n.Args) != 1 {
		return nil, wrongArity(n, 1)
	}
	inner, err := c.Compile(n.Args[0])
	if err != nil {
		return nil, err
	}
	return expr.NewCast(inner, declared), nil
}

func (c *Compiler) namedApply(n *relplan.Call, name string, declared types.Type) (expr.Expr, error) {
	args, err := c.compileArgs(n)
	if err != nil {
		return nil, err
	}
	return expr.NewApply(runtimeFnName(name, args, declared), args, declared), nil
}

// dateNamedCall handles EXTRACT, which always routes to a named
// runtime function keyed by the declared result type and the unit keyword
// (e.g. extract_i64_YEAR).
func (c *Compiler) dateNamedCall(n *relplan.Call, base string, declared types.Type) (expr.Expr, error) {
	args, err := c.compileArgs(n)
	if err != nil {
		return nil, err
	}
	if len(args) == 0 {
		return nil, wrongArity(n, 1)
	}
	name := fmt.Sprintf("%s_%s_%s", base, runtimeTypeSuffix(declared), n.Unit)
	return expr.NewApply(name, args, declared), nil
}

// dateOrArith handles FLOOR/CEIL, which take an optional unit keyword
// (date truncation) or act as ordinary numeric functions when Unit is
// empty.
func (c *Compiler) dateOrArith(n *relplan.Call, base string, _ expr.Opcode, declared types.Type) (expr.Expr, error) {
	args, err := c.compileArgs(n)
	if err != nil {
		return nil, err
	}
	if len(args) == 0 {
		return nil, wrongArity(n, 1)
	}
	if n.Unit != "" {
		name := fmt.Sprintf("%s_%s_%s", base, runtimeTypeSuffix(args[0].Type()), n.Unit)
		return expr.NewApply(name, args, declared), nil
	}
	name := fmt.Sprintf("%s_%s", base, runtimeTypeSuffix(declared))
	return expr.NewApply(name, args, declared), nil
}

// dateRuntimeCall builds the named runtime function invocation for
// date/timestamp arithmetic bypassing common-typing, keyed by operand
// type suffixes.
func (c *Compiler) dateRuntimeCall(base string, left, right expr.Expr, declared types.Type) (expr.Expr, error) {
	name := fmt.Sprintf("%s_%s_%s", base, runtimeTypeSuffix(left.Type()), runtimeTypeSuffix(right.Type()))
	return expr.NewApply(name, []expr.Expr{left, right}, declared), nil
}

func (c *Compiler) arrayValueConstructor(n *relplan.Call, declared types.Type) (expr.Expr, error) {
	args, err := c.compileArgs(n)
	if err != nil {
		return nil, err
	}
	elemType := declared
	if declared.Elem != nil {
		elemType = *declared.Elem
	}
	casted := make([]expr.Expr, len(args))
	for i, a := range args {
		casted[i] = expr.CastTo(a, elemType)
	}
	return expr.NewApply("array_value_constructor", casted, declared), nil
}

func (c *Compiler) item(n *relplan.Call, declared types.Type) (expr.Expr, error) {
	if len(n.Args) != 2 {
		return nil, wrongArity(n, 2)
	}
	array, err := c.Compile(n.Args[0])
	if err != nil {
		return nil, err
	}
	idx, err := c.Compile(n.Args[1])
	if err != nil {
		return nil, err
	}
	return expr.NewIndexInto(array, idx, declared), nil
}

// searchExpansion lowers a SEARCH(value, Sarg) pseudo-call into an OR
// chain of equality comparisons against its argument list, the
// minimal SEARCH expansion. Each
// argument after the first is treated as a candidate equal to the
// search subject; a real Sarg range decoder is outside this core's
// scope (it belongs to the upstream optimizer that produces Sarg
// values in the first place), so only the equality-list shape is
// supported here.
func (c *Compiler) searchExpansion(n *relplan.Call, declared types.Type) (expr.Expr, error) {
	if len(n.Args) < 2 {
		return nil, wrongArity(n, 2)
	}
	subject, err := c.Compile(n.Args[0])
	if err != nil {
		return nil, err
	}
	var acc expr.Expr
	for _, candidate := range n.Args[1:] {
		ce, err := c.Compile(candidate)
		if err != nil {
			return nil, err
		}
		eq, err := makeComparisonExpression(expr.EQ, subject, ce)
		if err != nil {
			return nil, err
		}
		if acc == nil {
			acc = eq
		} else {
			acc = expr.NewBinary(expr.OR, acc, eq, types.Bool.WithNullable(acc.Type().MayBeNull || eq.Type().MayBeNull))
		}
	}
	return expr.CastTo(acc, declared), nil
}

func opcodeRuntimeName(op expr.Opcode) string {
	switch op {
	case expr.ADD:
		return "add"
	case expr.SUB:
		return "sub"
	case expr.MUL:
		return "mul"
	case expr.AND:
		return "and"
	case expr.OR:
		return "or"
	case expr.CONCAT:
		return "concat"
	case expr.BW_AND:
		return "bit_and"
	case expr.BW_OR:
		return "bit_or"
	case expr.XOR:
		return "bit_xor"
	default:
		return op.String()
	}
}

// runtimeTypeSuffix names t the way the runtime's primitive names
// spell operand types (extract_i64_YEAR, floor_ts_MONTH, round_d).
func runtimeTypeSuffix(t types.Type) string {
	switch t.Kind {
	case types.KindInteger:
		if t.Signed {
			return fmt.Sprintf("i%d", t.Width)
		}
		return fmt.Sprintf("u%d", t.Width)
	case types.KindFloat:
		return fmt.Sprintf("f%d", t.Width)
	case types.KindDecimal:
		return "d"
	case types.KindDate:
		return "date"
	case types.KindTimestamp:
		return "ts"
	case types.KindString:
		return "str"
	case types.KindGeoPoint:
		return ""
	default:
		return t.Kind.String()
	}
}

func runtimeFnName(base string, args []expr.Expr, declared types.Type) string {
	if len(args) == 0 {
		return fmt.Sprintf("%s_%s", base, runtimeTypeSuffix(declared))
	}
	return fmt.Sprintf("%s_%s", base, runtimeTypeSuffix(args[0].Type()))
}
