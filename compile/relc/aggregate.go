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
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/dolthub-labs/sql-dataflow-compiler/ir/circuit"
	"github.com/dolthub-labs/sql-dataflow-compiler/ir/expr"
	"github.com/dolthub-labs/sql-dataflow-compiler/ir/types"
	"github.com/dolthub-labs/sql-dataflow-compiler/ircompile/errkind"
	"github.com/dolthub-labs/sql-dataflow-compiler/relplan"
)

// compileGroupBy builds group keys from groupSet fields and an Index
// operator keyed by that tuple, builds a per-call fold implementation
// via buildFold, emits Aggregate producing an indexed Z-set, and
// flattens key+value to a tuple cast to the declared output type.
//
// Empty-group correction: when group arity is zero, the result must
// contain the default-zero tuple even on empty input. The three-way
// sum `Sum(agg, Negate(Map(_->z)(agg)), Constant({z->1}))` yields
// {z->1} when agg is empty and {c->1} when non-empty, preserving
// at-most-one-row semantics. The first term must be the real
// aggregate result, not a second relabeling of it: summing two
// identical Map(_->z)(agg) terms with opposite signs would cancel to
// {z->1} unconditionally.
func (c *Compiler) compileGroupBy(n *relplan.GroupBy) (circuit.Operator, error) {
	child, err := c.CompileNode(n.Input)
	if err != nil {
		return nil, err
	}
	elem := rowElemType(child)
	declared, err := schemaTupleType(n.Sch)
	if err != nil {
		return nil, err
	}

	indexed := indexByFields(c.Partial, child, n.GroupSet, origin(n))

	keyFields := make([]types.Type, len(n.GroupSet))
	for i, fi := range n.GroupSet {
		keyFields[i] = elem.Fields[fi]
	}
	keyType := types.Tuple(keyFields...)

	fold, valueType, err := c.buildFold(n.Aggs, elem)
	if err != nil {
		return nil, err
	}

	kvType := types.Tuple(keyType, valueType)
	aggOp := c.Partial.Append(circuit.NewAggregate(fold, kvType, indexed, origin(n)))

	flattened := c.flattenKV(aggOp, keyType, valueType, declared, origin(n))
	if len(n.GroupSet) != 0 {
		return flattened, nil
	}
	return c.emptyGroupCorrection(flattened, fold, declared, origin(n))
}

func (c *Compiler) flattenKV(aggOp circuit.Operator, keyType, valueType, declared types.Type, orig circuit.PlanOrigin) circuit.Operator {
	kvType := types.Tuple(keyType, valueType)
	kvVar := expr.NewVariable("kv", kvType)
	k := expr.NewFieldAccess(kvVar, 0, keyType)
	v := expr.NewFieldAccess(kvVar, 1, valueType)

	var elems []expr.Expr
	for i, f := range keyType.Fields {
		elems = append(elems, expr.CastTo(expr.NewFieldAccess(k, i, f), declared.Fields[i]))
	}
	offset := len(keyType.Fields)
	for i, f := range valueType.Fields {
		elems = append(elems, expr.CastTo(expr.NewFieldAccess(v, i, f), declared.Fields[offset+i]))
	}
	fn := expr.NewClosure("flatten", []expr.Param{{Name: kvVar.Name, Typ: kvType}}, expr.NewTuple(elems))
	return c.Partial.Append(circuit.NewMap(fn, aggOp, orig))
}

func (c *Compiler) emptyGroupCorrection(flattened circuit.Operator, fold circuit.Fold, declared types.Type, orig circuit.PlanOrigin) (circuit.Operator, error) {
	defaultFields := tupleElems(fold.DefaultZero)

	zElems := make([]expr.Expr, len(defaultFields))
	zValues := make([]interface{}, len(defaultFields))
	for i, f := range defaultFields {
		zElems[i] = expr.CastTo(f, declared.Fields[i])
		if lit, ok := f.(*expr.Literal); ok {
			zValues[i] = lit.Value
		}
	}
	z := expr.NewTuple(zElems)

	ignoreVar := expr.NewVariable("_", declared)
	mapToZFn := expr.NewClosure("zero", []expr.Param{{Name: ignoreVar.Name, Typ: declared}}, z)
	mapToZ := c.Partial.Append(circuit.NewMap(mapToZFn, flattened, orig))
	negMapToZ := c.Partial.Append(circuit.NewNegate(mapToZ, orig))

	constZ := c.Partial.Append(circuit.NewConstant(circuit.ZSetLiteral{
		Rows:    [][]interface{}{zValues},
		Weights: []int64{1},
	}, declared, orig))

	return c.Partial.Append(circuit.NewSum([]circuit.Operator{flattened, negMapToZ, constZ}, orig)), nil
}

func tupleElems(e expr.Expr) []expr.Expr {
	if t, ok := e.(*expr.Tuple); ok {
		return t.Elems
	}
	return []expr.Expr{e}
}

// aggCallPlan is one aggregate call's contribution to the shared
// accumulator tuple: the accumulator fields it owns (by offset/width),
// how to step them given the prior accumulator value and the
// compiled argument, and how to finalize them into the call's output
// value.
type aggCallPlan struct {
	offset, width int
	declared      types.Type
	argNode       relplan.ScalarNode
	step          func(acc []expr.Expr, arg expr.Expr) []expr.Expr
	finalize      func(acc []expr.Expr) expr.Expr
	defaultZero   expr.Expr
}

// buildFold compiles aggs into a single Fold sharing one accumulator
// tuple, the way a GroupBy with several SELECT-list aggregate calls
// folds them together in one pass over each group's rows.
func (c *Compiler) buildFold(aggs []relplan.AggCall, rowElem types.Type) (circuit.Fold, types.Type, error) {
	var accTypes []types.Type
	var accInit []expr.Expr
	var calls []aggCallPlan

	for _, agg := range aggs {
		declared, err := types.ConvertType(agg.Typ.Wire, agg.Typ.Nullable)
		if err != nil {
			return circuit.Fold{}, types.Type{}, err
		}
		var argNode relplan.ScalarNode
		if len(agg.Args) > 0 {
			argNode = agg.Args[0]
		}

		plan, inits, atypes, err := buildAggCallPlan(strings.ToUpper(agg.FuncName), declared, argNode, len(accTypes))
		if err != nil {
			return circuit.Fold{}, types.Type{}, err
		}
		accTypes = append(accTypes, atypes...)
		accInit = append(accInit, inits...)
		calls = append(calls, plan)
	}

	return assembleFold(calls, accTypes, accInit, rowElem)
}

// assembleFold wires a list of per-call accumulator plans into one
// shared Init/Step/Finalize/DefaultZero Fold, used both
// by GroupBy's Aggregate and Window's WindowAggregate.
func assembleFold(calls []aggCallPlan, accTypes []types.Type, accInit []expr.Expr, rowElem types.Type) (circuit.Fold, types.Type, error) {
	accType := types.Tuple(accTypes...)

	initClosure := expr.NewClosure("init", nil, expr.NewTuple(accInit))

	accVar := expr.NewVariable("acc", accType)
	rowVar := expr.NewVariable("r", rowElem)
	sc := newScalarCompiler(rowVar, rowElem)
	stepElems := make([]expr.Expr, len(accTypes))
	for _, cp := range calls {
		accFields := make([]expr.Expr, cp.width)
		for w := 0; w < cp.width; w++ {
			accFields[w] = expr.NewFieldAccess(accVar, cp.offset+w, accTypes[cp.offset+w])
		}
		var argExpr expr.Expr
		if cp.argNode != nil {
			ae, err := sc.Compile(cp.argNode)
			if err != nil {
				return circuit.Fold{}, types.Type{}, err
			}
			argExpr = ae
		}
		updated := cp.step(accFields, argExpr)
		for w := 0; w < cp.width; w++ {
			stepElems[cp.offset+w] = updated[w]
		}
	}
	stepClosure := expr.NewClosure("step", []expr.Param{
		{Name: accVar.Name, Typ: accType},
		{Name: rowVar.Name, Typ: rowElem},
	}, expr.NewTuple(stepElems))

	finAccVar := expr.NewVariable("acc", accType)
	finElems := make([]expr.Expr, len(calls))
	defaultZeroElems := make([]expr.Expr, len(calls))
	valueTypes := make([]types.Type, len(calls))
	for i, cp := range calls {
		accFields := make([]expr.Expr, cp.width)
		for w := 0; w < cp.width; w++ {
			accFields[w] = expr.NewFieldAccess(finAccVar, cp.offset+w, accTypes[cp.offset+w])
		}
		finElems[i] = cp.finalize(accFields)
		defaultZeroElems[i] = cp.defaultZero
		valueTypes[i] = cp.declared
	}
	finalizeClosure := expr.NewClosure("finalize", []expr.Param{{Name: finAccVar.Name, Typ: accType}}, expr.NewTuple(finElems))

	fold := circuit.Fold{
		Name:        "agg",
		Init:        initClosure,
		Step:        stepClosure,
		Finalize:    finalizeClosure,
		DefaultZero: expr.NewTuple(defaultZeroElems),
	}
	return fold, types.Tuple(valueTypes...), nil
}

func buildAggCallPlan(fn string, declared types.Type, argNode relplan.ScalarNode, offset int) (aggCallPlan, []expr.Expr, []types.Type, error) {
	switch fn {
	case "COUNT":
		accType := types.I64
		return aggCallPlan{
			offset: offset, width: 1, declared: declared, argNode: nil,
			step: func(acc []expr.Expr, _ expr.Expr) []expr.Expr {
				return []expr.Expr{expr.NewBinary(expr.ADD, acc[0], expr.NewLiteral(int64(1), types.I64), types.I64)}
			},
			finalize:    func(acc []expr.Expr) expr.Expr { return expr.CastTo(acc[0], declared) },
			defaultZero: expr.NewLiteral(int64(0), declared),
		}, []expr.Expr{expr.NewLiteral(int64(0), accType)}, []types.Type{accType}, nil

	case "SUM":
		accType := declared.NotNullable()
		zero := zeroLiteralFor(accType)
		return aggCallPlan{
			offset: offset, width: 1, declared: declared, argNode: argNode,
			step: func(acc []expr.Expr, arg expr.Expr) []expr.Expr {
				return []expr.Expr{expr.NewBinary(expr.ADD, acc[0], expr.CastTo(arg, accType), accType)}
			},
			finalize:    func(acc []expr.Expr) expr.Expr { return expr.CastTo(acc[0], declared) },
			defaultZero: expr.NewLiteral(zeroLiteralFor(declared), declared),
		}, []expr.Expr{expr.NewLiteral(zero, accType)}, []types.Type{accType}, nil

	case "MIN", "MAX":
		name := "agg_min"
		if fn == "MAX" {
			name = "agg_max"
		}
		accType := declared.Nullable()
		return aggCallPlan{
			offset: offset, width: 1, declared: declared, argNode: argNode,
			step: func(acc []expr.Expr, arg expr.Expr) []expr.Expr {
				return []expr.Expr{expr.NewApply(name, []expr.Expr{acc[0], expr.CastTo(arg, accType)}, accType)}
			},
			finalize:    func(acc []expr.Expr) expr.Expr { return expr.CastTo(acc[0], declared) },
			defaultZero: expr.NewLiteral(nil, declared.Nullable()),
		}, []expr.Expr{expr.NewLiteral(nil, accType)}, []types.Type{accType}, nil

	case "AVG":
		return aggCallPlan{
			offset: offset, width: 2, declared: declared, argNode: argNode,
			step: func(acc []expr.Expr, arg expr.Expr) []expr.Expr {
				sum := expr.NewBinary(expr.ADD, acc[0], expr.CastTo(arg, types.F64), types.F64)
				cnt := expr.NewBinary(expr.ADD, acc[1], expr.NewLiteral(int64(1), types.I64), types.I64)
				return []expr.Expr{sum, cnt}
			},
			finalize: func(acc []expr.Expr) expr.Expr {
				div := expr.NewBinary(expr.DIV, acc[0], expr.CastTo(acc[1], types.F64), types.F64.Nullable())
				return expr.CastTo(div, declared)
			},
			defaultZero: expr.NewLiteral(float64(0), declared),
		}, []expr.Expr{expr.NewLiteral(float64(0), types.F64), expr.NewLiteral(int64(0), types.I64)}, []types.Type{types.F64, types.I64}, nil

	default:
		return aggCallPlan{}, nil, nil, errkind.Fatal(errkind.Unimplemented.New(fmt.Sprintf("aggregate function %s", fn)))
	}
}

func zeroLiteralFor(t types.Type) interface{} {
	switch t.Kind {
	case types.KindInteger:
		if t.Signed {
			return int64(0)
		}
		return uint64(0)
	case types.KindFloat:
		return float64(0)
	case types.KindDecimal:
		return decimal.Zero
	default:
		return nil
	}
}
