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

	"github.com/dolthub-labs/sql-dataflow-compiler/compile/scalarc"
	"github.com/dolthub-labs/sql-dataflow-compiler/ir/circuit"
	"github.com/dolthub-labs/sql-dataflow-compiler/ir/expr"
	"github.com/dolthub-labs/sql-dataflow-compiler/ir/types"
	"github.com/dolthub-labs/sql-dataflow-compiler/ircompile/errkind"
	"github.com/dolthub-labs/sql-dataflow-compiler/relplan"
)

// compileWindow lowers each WindowGroup independently against the
// original input row, then stitches the groups' outputs back together
// keyed by the whole original row. Each group's
// Differential/WindowAggregate/Integral chain presents non-incremental
// per-row windowed results over an otherwise-incremental circuit.
func (c *Compiler) compileWindow(n *relplan.Window) (circuit.Operator, error) {
	child, err := c.CompileNode(n.Input)
	if err != nil {
		return nil, err
	}
	elem := rowElemType(child)
	declared, err := schemaTupleType(n.Sch)
	if err != nil {
		return nil, err
	}

	groupOps := make([]circuit.Operator, len(n.Groups))
	groupAggTypes := make([][]types.Type, len(n.Groups))
	for gi, g := range n.Groups {
		op, aggType, err := c.compileWindowGroup(g, child, elem, origin(n))
		if err != nil {
			return nil, err
		}
		groupOps[gi] = op
		groupAggTypes[gi] = aggType.Fields
	}

	acc := groupOps[0]
	accAggTypes := groupAggTypes[0]
	for gi := 1; gi < len(groupOps); gi++ {
		acc = c.joinWindowGroupPair(acc, groupOps[gi], elem, accAggTypes, groupAggTypes[gi], origin(n))
		accAggTypes = append(append([]types.Type{}, accAggTypes...), groupAggTypes[gi]...)
	}

	return castRow(c.Partial, acc, declared, origin(n)), nil
}

// compileWindowGroup indexes child by (partition key, (order value,
// row)), runs the group's calls as a shared fold through
// Differential/WindowAggregate/Integral, and flattens the result back
// to elem's fields plus the group's trailing aggregate fields,
// returning that row operator and the (unflattened) aggregate value
// type for the caller to stitch groups together with.
func (c *Compiler) compileWindowGroup(g relplan.WindowGroup, child circuit.Operator, elem types.Type, orig circuit.PlanOrigin) (circuit.Operator, types.Type, error) {
	rowVar := expr.NewVariable("r", elem)
	partitionFields := make([]types.Type, len(g.PartitionBy))
	partitionElems := make([]expr.Expr, len(g.PartitionBy))
	for i, fi := range g.PartitionBy {
		partitionFields[i] = elem.Fields[fi]
		partitionElems[i] = expr.NewFieldAccess(rowVar, fi, elem.Fields[fi])
	}
	keyType := types.Tuple(partitionFields...)
	orderType := elem.Fields[g.OrderBy]
	if err := checkWindowOrderType(orderType); err != nil {
		return nil, types.Type{}, err
	}

	indexBody := expr.NewTuple([]expr.Expr{
		expr.NewTuple(partitionElems),
		expr.NewTuple([]expr.Expr{expr.NewFieldAccess(rowVar, g.OrderBy, orderType), rowVar}),
	})
	indexFn := expr.NewClosure("index", []expr.Param{{Name: rowVar.Name, Typ: elem}}, indexBody)
	indexed := c.Partial.Append(circuit.NewIndex(indexFn, child, orig))

	fold, aggValueType, err := c.buildWindowFold(g.Calls, elem)
	if err != nil {
		return nil, types.Type{}, err
	}

	sc := newScalarCompiler(rowVar, elem)
	win, err := buildWindowDescriptor(sc, g.Lower, g.Upper, orderType)
	if err != nil {
		return nil, types.Type{}, err
	}

	winValueType := types.Tuple(append([]types.Type{orderType, elem}, aggValueType.Fields...)...)
	kvType := types.Tuple(keyType, winValueType)

	diffed := c.Partial.Append(circuit.NewDifferential(indexed, orig))
	winAgg := c.Partial.Append(circuit.NewWindowAggregate(fold, win, kvType, diffed, orig))
	integrated := c.Partial.Append(circuit.NewIntegral(winAgg, orig))

	kvVar := expr.NewVariable("kv", kvType)
	vVar := expr.NewFieldAccess(kvVar, 1, winValueType)
	rowOut := expr.NewFieldAccess(vVar, 1, elem)
	flatElems := make([]expr.Expr, 0, len(elem.Fields)+len(aggValueType.Fields))
	for i, f := range elem.Fields {
		flatElems = append(flatElems, expr.NewFieldAccess(rowOut, i, f))
	}
	for i, f := range aggValueType.Fields {
		flatElems = append(flatElems, expr.NewFieldAccess(vVar, 2+i, f))
	}
	flatFn := expr.NewClosure("flatten", []expr.Param{{Name: kvVar.Name, Typ: kvType}}, expr.NewTuple(flatElems))
	out := c.Partial.Append(circuit.NewMap(flatFn, integrated, orig))
	return out, aggValueType, nil
}

// buildWindowFold shares the same per-call accumulator plans as
// GroupBy's fold (buildAggCallPlan/assembleFold); only the call type
// (WindowCall vs. AggCall) differs.
func (c *Compiler) buildWindowFold(calls []relplan.WindowCall, rowElem types.Type) (circuit.Fold, types.Type, error) {
	var accTypes []types.Type
	var accInit []expr.Expr
	var plans []aggCallPlan

	for _, call := range calls {
		declared, err := types.ConvertType(call.Typ.Wire, call.Typ.Nullable)
		if err != nil {
			return circuit.Fold{}, types.Type{}, err
		}
		var argNode relplan.ScalarNode
		if len(call.Args) > 0 {
			argNode = call.Args[0]
		}
		plan, inits, atypes, err := buildAggCallPlan(strings.ToUpper(call.FuncName), declared, argNode, len(accTypes))
		if err != nil {
			return circuit.Fold{}, types.Type{}, err
		}
		accTypes = append(accTypes, atypes...)
		accInit = append(accInit, inits...)
		plans = append(plans, plan)
	}

	return assembleFold(plans, accTypes, accInit, rowElem)
}

// checkWindowOrderType enforces the one supported ORDER BY column
// shape: a non-null integer or timestamp. Anything else has no
// incremental window semantics here and is fatal.
func checkWindowOrderType(t types.Type) error {
	if t.MayBeNull {
		return errkind.Fatal(errkind.Translation.New(
			fmt.Sprintf("window ORDER BY column of nullable type %s", t)))
	}
	if t.Kind != types.KindInteger && t.Kind != types.KindTimestamp {
		return errkind.Fatal(errkind.Unimplemented.New(
			fmt.Sprintf("window ORDER BY column of type %s; only integer and timestamp are supported", t)))
	}
	return nil
}

func buildWindowDescriptor(sc *scalarc.Compiler, lower, upper relplan.RelRange, orderType types.Type) (circuit.WindowDescriptor, error) {
	lu, lOff, err := compileRelRangeBound(sc, lower, orderType)
	if err != nil {
		return circuit.WindowDescriptor{}, err
	}
	uu, uOff, err := compileRelRangeBound(sc, upper, orderType)
	if err != nil {
		return circuit.WindowDescriptor{}, err
	}
	return circuit.WindowDescriptor{
		LowerUnbounded: lu,
		LowerOffset:    lOff,
		UpperUnbounded: uu,
		UpperOffset:    uOff,
	}, nil
}

func compileRelRangeBound(sc *scalarc.Compiler, r relplan.RelRange, orderType types.Type) (bool, expr.Expr, error) {
	switch r.Kind {
	case relplan.RangeUnbounded:
		return true, nil, nil
	case relplan.RangeCurrentRow:
		return false, expr.NewLiteral(zeroLiteralFor(orderType.NotNullable()), orderType), nil
	case relplan.RangeBefore, relplan.RangeAfter:
		if r.Offset == nil {
			return false, expr.NewLiteral(zeroLiteralFor(orderType.NotNullable()), orderType), nil
		}
		off, err := sc.Compile(r.Offset)
		if err != nil {
			return false, nil, err
		}
		return false, expr.CastTo(off, orderType), nil
	default:
		return false, nil, errkind.Fatal(errkind.Unimplemented.New("window frame bound kind"))
	}
}

// joinWindowGroupPair stitches two window-group result rows (each
// elem's fields followed by that group's own trailing aggregate
// fields) back together, keyed by the shared elem prefix.
func (c *Compiler) joinWindowGroupPair(left, right circuit.Operator, elem types.Type, leftAgg, rightAgg []types.Type, orig circuit.PlanOrigin) circuit.Operator {
	prefixLen := len(elem.Fields)
	leftIdx := indexByRowPrefixSuffix(c.Partial, left, prefixLen, orig)
	rightIdx := indexByRowPrefixSuffix(c.Partial, right, prefixLen, orig)

	fn := rowJoinClosure(elem, leftAgg, rightAgg)
	outType := types.Tuple(append(append(append([]types.Type{}, elem.Fields...), leftAgg...), rightAgg...)...)
	return c.Partial.Append(circuit.NewJoin(fn, outType, leftIdx, rightIdx, orig))
}

func indexByRowPrefixSuffix(partial *circuit.PartialCircuit, child circuit.Operator, prefixLen int, orig circuit.PlanOrigin) circuit.Operator {
	elem := rowElemType(child)
	rowVar := expr.NewVariable("r", elem)
	keyElems := make([]expr.Expr, prefixLen)
	for i := 0; i < prefixLen; i++ {
		keyElems[i] = expr.NewFieldAccess(rowVar, i, elem.Fields[i])
	}
	var sufElems []expr.Expr
	for i := prefixLen; i < len(elem.Fields); i++ {
		sufElems = append(sufElems, expr.NewFieldAccess(rowVar, i, elem.Fields[i]))
	}
	pair := expr.NewTuple([]expr.Expr{expr.NewTuple(keyElems), expr.NewRawTuple(sufElems)})
	fn := expr.NewClosure("index", []expr.Param{{Name: rowVar.Name, Typ: elem}}, pair)
	return partial.Append(circuit.NewIndex(fn, child, orig))
}

func rowJoinClosure(prefixType types.Type, leftSuffix, rightSuffix []types.Type) *expr.Closure {
	kVar := expr.NewVariable("k", prefixType)
	lVar := expr.NewVariable("l", types.RawTuple(leftSuffix...))
	rVar := expr.NewVariable("r2", types.RawTuple(rightSuffix...))

	var elems []expr.Expr
	for i, f := range prefixType.Fields {
		elems = append(elems, expr.NewFieldAccess(kVar, i, f))
	}
	for i, f := range leftSuffix {
		elems = append(elems, expr.NewFieldAccess(lVar, i, f))
	}
	for i, f := range rightSuffix {
		elems = append(elems, expr.NewFieldAccess(rVar, i, f))
	}
	body := expr.NewTuple(elems)
	return expr.NewClosure("join", []expr.Param{
		{Name: kVar.Name, Typ: prefixType},
		{Name: lVar.Name, Typ: types.RawTuple(leftSuffix...)},
		{Name: rVar.Name, Typ: types.RawTuple(rightSuffix...)},
	}, body)
}
