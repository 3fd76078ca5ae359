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
	"github.com/dolthub-labs/sql-dataflow-compiler/ircompile/errkind"
	"github.com/dolthub-labs/sql-dataflow-compiler/relplan"
)

// compileCall dispatches a relplan.Call on its closed CallKind set.
func (c *Compiler) compileCall(n *relplan.Call) (expr.Expr, error) {
	declared, err := convertType(n.Typ)
	if err != nil {
		return nil, err
	}

	switch n.Kind {
	case relplan.CallTimes:
		return c.binaryArith(n, expr.MUL, declared)
	case relplan.CallDivide:
		return c.binaryDivide(n, declared)
	case relplan.CallMod:
		return c.binaryArith(n, expr.MOD, declared)
	case relplan.CallPlus:
		return c.nAryFold(n, expr.ADD, declared)
	case relplan.CallMinus:
		return c.binaryArith(n, expr.SUB, declared)
	case relplan.CallLt:
		return c.comparison(n, expr.LT, declared)
	case relplan.CallGt:
		return c.comparison(n, expr.GT, declared)
	case relplan.CallLte:
		return c.comparison(n, expr.LTE, declared)
	case relplan.CallGte:
		return c.comparison(n, expr.GTE, declared)
	case relplan.CallEq:
		return c.comparison(n, expr.EQ, declared)
	case relplan.CallNeq:
		return c.comparison(n, expr.NEQ, declared)
	case relplan.CallIsDistinctFrom:
		return c.comparison(n, expr.IS_DISTINCT, declared)
	case relplan.CallIsNotDistinctFrom:
		distinct, err := c.comparison(n, expr.IS_DISTINCT, types.Bool)
		if err != nil {
			return nil, err
		}
		return expr.CastTo(expr.NewUnary(expr.NOT, distinct, types.Bool), declared), nil
	case relplan.CallOr:
		return c.nAryFold(n, expr.OR, declared)
	case relplan.CallAnd:
		return c.nAryFold(n, expr.AND, declared)
	case relplan.CallNot:
		return c.unary(n, expr.NOT, declared)
	case relplan.CallIsTrue:
		return c.unary(n, expr.IS_TRUE, declared)
	case relplan.CallIsFalse:
		return c.unary(n, expr.IS_FALSE, declared)
	case relplan.CallIsNotTrue:
		return c.unary(n, expr.IS_NOT_TRUE, declared)
	case relplan.CallIsNotFalse:
		return c.unary(n, expr.IS_NOT_FALSE, declared)
	case relplan.CallIsNull:
		return c.unary(n, expr.IS_NULL, declared)
	case relplan.CallIsNotNull:
		isNull, err := c.unary1(n, expr.IS_NULL, types.Bool)
		if err != nil {
			return nil, err
		}
		return expr.CastTo(expr.NewUnary(expr.NOT, isNull, types.Bool), declared), nil
	case relplan.CallUnaryMinus:
		return c.unary(n, expr.NEG, declared)
	case relplan.CallUnaryPlus:
		return c.unary(n, expr.UNARY_PLUS, declared)
	case relplan.CallBitAnd:
		return c.nAryFold(n, expr.BW_AND, declared)
	case relplan.CallBitOr:
		return c.nAryFold(n, expr.BW_OR, declared)
	case relplan.CallBitXor:
		return c.nAryFold(n, expr.XOR, declared)
	case relplan.CallConcat:
		return c.nAryFold(n, expr.CONCAT, declared)
	case relplan.CallCast, relplan.CallReinterpret:
		return c.castCall(n, declared)
	case relplan.CallExtract:
		return c.dateNamedCall(n, "extract", declared)
	case relplan.CallFloor:
		return c.dateOrArith(n, "floor", expr.NEG /* unused for non-date */, declared)
	case relplan.CallCeil:
		return c.dateOrArith(n, "ceil", expr.NEG, declared)
	case relplan.CallTruncate:
		return c.namedApply(n, "truncate", declared)
	case relplan.CallRound:
		return c.namedApply(n, "round", declared)
	case relplan.CallNumericInc:
		return c.namedApply(n, "numeric_inc", declared)
	case relplan.CallSign:
		return c.namedApply(n, "sign", declared)
	case relplan.CallLog10:
		return c.namedApply(n, "log10", declared)
	case relplan.CallLn:
		return c.namedApply(n, "ln", declared)
	case relplan.CallAbs:
		return c.namedApply(n, "abs", declared)
	case relplan.CallPower:
		return c.namedApply(n, "power", declared)
	case relplan.CallCardinality:
		return c.namedApply(n, "cardinality", declared)
	case relplan.CallElement:
		return c.namedApply(n, "element", declared)
	case relplan.CallDivision:
		return c.binaryDivide(n, declared)
	case relplan.CallArrayValueConstructor:
		return c.arrayValueConstructor(n, declared)
	case relplan.CallItem:
		return c.item(n, declared)
	case relplan.CallStPoint:
		return c.namedApply(n, "st_point", declared)
	case relplan.CallStDistance:
		return c.namedApply(n, "st_distance", declared)
	case relplan.CallSearch:
		return c.searchExpansion(n, declared)
	default:
		return nil, errkind.Fatal(errkind.Unimplemented.New(fmt.Sprintf("call kind %v", n.Kind)))
	}
}

func (c *Compiler) compileArgs(n *relplan.Call) ([]expr.Expr, error) {
	args := make([]expr.Expr, len(n.Args))
	for i, a := range n.Args {
		ce, err := c.Compile(a)
		if err != nil {
			return nil, err
		}
		args[i] = ce
	}
	return args, nil
}

func (c *Compiler) unary1(n *relplan.Call, op expr.Opcode, result types.Type) (expr.Expr, error) {
	if len(n.Args) != 1 {
		return nil, wrongArity(n, 1)
	}
	operand, err := c.Compile(n.Args[0])
	if err != nil {
		return nil, err
	}
	return expr.NewUnary(op, operand, result), nil
}

func (c *Compiler) unary(n *relplan.Call, op expr.Opcode, declared types.Type) (expr.Expr, error) {
	e, err := c.unary1(n, op, declared)
	if err != nil {
		return nil, err
	}
	return expr.CastTo(e, declared), nil
}

func wrongArity(n *relplan.Call, want int) error {
	return errkind.Fatal(errkind.Translation.New(
		fmt.Sprintf("call %v expects %d argument(s), got %d", n.Kind, want, len(n.Args))))
}
