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
	"github.com/spf13/cast"

	"github.com/dolthub-labs/sql-dataflow-compiler/ir/circuit"
	"github.com/dolthub-labs/sql-dataflow-compiler/ir/expr"
	"github.com/dolthub-labs/sql-dataflow-compiler/ir/types"
	"github.com/dolthub-labs/sql-dataflow-compiler/ircompile/errkind"
	"github.com/dolthub-labs/sql-dataflow-compiler/relplan"
)

// compileJoin analyzes the join condition into equi-key comparisons
// plus a leftover predicate, indexes both sides by the key tuple,
// joins, applies any leftover filter, then, for outer joins,
// unions in the NULL-padded unmatched rows. ANTI/SEMI
// joins are unimplemented.
func (c *Compiler) compileJoin(n *relplan.Join) (circuit.Operator, error) {
	if n.Kind == relplan.JoinAnti || n.Kind == relplan.JoinSemi {
		return nil, errkind.Fatal(errkind.Unimplemented.New("ANTI/SEMI join"))
	}

	left, err := c.CompileNode(n.Left)
	if err != nil {
		return nil, err
	}
	right, err := c.CompileNode(n.Right)
	if err != nil {
		return nil, err
	}
	declared, err := schemaTupleType(n.Sch)
	if err != nil {
		return nil, err
	}

	leftElem := rowElemType(left)
	rightElem := rowElemType(right)

	// The optimizer is assumed never to hand down a constant-FALSE
	// join condition, but detect it anyway rather than cross-joining
	// the two sides for nothing.
	if isConstantFalse(n.Cond) {
		return c.compileAlwaysFalseJoin(n, left, right, leftElem, rightElem, declared)
	}

	eqPairs, leftover := decomposeJoinCond(n.Cond, len(leftElem.Fields))

	leftIdx := make([]int, len(eqPairs))
	rightIdx := make([]int, len(eqPairs))
	keyTypes := make([]types.Type, len(eqPairs))
	for i, p := range eqPairs {
		leftIdx[i], rightIdx[i] = p[0], p[1]
		kt, err := types.ReduceType(leftElem.Fields[p[0]], rightElem.Fields[p[1]])
		if err != nil {
			return nil, err
		}
		keyTypes[i] = kt
	}
	keyType := types.Tuple(keyTypes...)

	leftFiltered := filterNonNullKeys(c.Partial, left, leftIdx, origin(n))
	rightFiltered := filterNonNullKeys(c.Partial, right, rightIdx, origin(n))
	leftIndexed := indexByKeysCast(c.Partial, leftFiltered, leftIdx, keyTypes, origin(n))
	rightIndexed := indexByKeysCast(c.Partial, rightFiltered, rightIdx, keyTypes, origin(n))

	pairFn := joinPairClosure(keyType, leftElem, rightElem)
	joinRaw := c.Partial.Append(circuit.NewJoin(pairFn, types.Tuple(append(append([]types.Type{}, leftElem.Fields...), rightElem.Fields...)...), leftIndexed, rightIndexed, origin(n)))

	result := castRow(c.Partial, joinRaw, declared, origin(n))
	if len(leftover) > 0 {
		result, err = c.applyLeftoverFilter(result, declared, leftover, n)
		if err != nil {
			return nil, err
		}
	}

	// unmatchedSide projects "matched" keys from filtered (the
	// leftover-filtered join), not joinRaw: when an equi-key-less
	// condition folds entirely into a leftover predicate, e.g. a
	// constant-FALSE guard, joinRaw alone is an unconditional cross
	// join and
	// would wrongly mark every row as matched. Both sides compute their
	// unmatched set against the same pre-union filtered join, so the
	// left-unmatched rows summed in below don't feed back into the
	// right-unmatched computation.
	filtered := result
	if n.Kind == relplan.JoinLeft || n.Kind == relplan.JoinFull {
		unmatched, err := c.unmatchedSide(left, filtered, leftElem, rightElem, true, declared, n)
		if err != nil {
			return nil, err
		}
		result = c.Partial.Append(circuit.NewSum([]circuit.Operator{result, unmatched}, origin(n)))
	}
	if n.Kind == relplan.JoinRight || n.Kind == relplan.JoinFull {
		unmatched, err := c.unmatchedSide(right, filtered, leftElem, rightElem, false, declared, n)
		if err != nil {
			return nil, err
		}
		result = c.Partial.Append(circuit.NewSum([]circuit.Operator{result, unmatched}, origin(n)))
	}

	return result, nil
}

// applyLeftoverFilter filters the already-cast joined rows by the
// conjuncts the equi-key analysis could not absorb. The filter is
// compiled against declared using the same field indices the upstream
// plan used over the concatenated left++right schema, since declared
// preserves that same field order (only nullability may widen).
func (c *Compiler) applyLeftoverFilter(joined circuit.Operator, declared types.Type, leftover []relplan.ScalarNode, n *relplan.Join) (circuit.Operator, error) {
	rowVar := expr.NewVariable("r", declared)
	sc := newScalarCompiler(rowVar, declared)

	var cond expr.Expr
	for _, cj := range leftover {
		ce, err := sc.Compile(cj)
		if err != nil {
			return nil, err
		}
		if cond == nil {
			cond = ce
		} else {
			cond = expr.NewBinary(expr.AND, cond, ce, types.Bool.WithNullable(cond.Type().MayBeNull || ce.Type().MayBeNull))
		}
	}
	if cond.Type().MayBeNull {
		cond = expr.NewUnary(expr.WRAP_BOOL, cond, types.Bool)
	}
	fn := expr.NewClosure("cond", []expr.Param{{Name: rowVar.Name, Typ: declared}}, cond)
	return c.Partial.Append(circuit.NewFilter(fn, joined, origin(n))), nil
}

// unmatchedSide derives the "unmatched left"/"unmatched right" set,
// L_un = Distinct(L - Distinct(Project_side(join))), and extends
// each unmatched row with NULLs on the other side. filtered is the
// already leftover-filtered join (declared-typed), so a row only
// counts as matched if it actually survived the join's full condition.
func (c *Compiler) unmatchedSide(side, filtered circuit.Operator, leftElem, rightElem types.Type, isLeft bool, declared types.Type, n *relplan.Join) (circuit.Operator, error) {
	var sideElem, otherElem types.Type
	var count int
	if isLeft {
		sideElem, otherElem = leftElem, rightElem
		count = len(leftElem.Fields)
	} else {
		sideElem, otherElem = rightElem, leftElem
		count = len(rightElem.Fields)
	}

	var projected circuit.Operator
	if isLeft {
		projected = projectPrefix(c.Partial, filtered, count, sideElem, origin(n))
	} else {
		projected = projectSuffix(c.Partial, filtered, len(leftElem.Fields)+len(rightElem.Fields), count, sideElem, origin(n))
	}
	matched := c.Partial.Append(circuit.NewDistinct(projected, origin(n)))

	sideRows := castRow(c.Partial, side, sideElem, origin(n))
	subtracted := c.Partial.Append(circuit.NewSubtract(sideRows, matched, origin(n)))
	unmatched := c.Partial.Append(circuit.NewDistinct(subtracted, origin(n)))

	return extendWithNulls(c.Partial, unmatched, sideElem, otherElem, isLeft, declared, origin(n)), nil
}

// isConstantFalse reports whether cond is a boolean literal FALSE,
// the case compileJoin defensively short-circuits rather than trusts
// the optimizer to have eliminated.
func isConstantFalse(cond relplan.ScalarNode) bool {
	lit, ok := cond.(*relplan.Literal)
	if !ok || lit.Value == nil {
		return false
	}
	b, err := cast.ToBoolE(lit.Value)
	return err == nil && !b
}

// compileAlwaysFalseJoin handles a join condition known to reject
// every row: no cross product is built at all. The inner part of the
// result is empty, and for outer joins every row on the outer side(s)
// is unmatched by construction, NULL-padded directly from that side.
func (c *Compiler) compileAlwaysFalseJoin(n *relplan.Join, left, right circuit.Operator, leftElem, rightElem, declared types.Type) (circuit.Operator, error) {
	var parts []circuit.Operator
	if n.Kind == relplan.JoinLeft || n.Kind == relplan.JoinFull {
		parts = append(parts, extendWithNulls(c.Partial, left, leftElem, rightElem, true, declared, origin(n)))
	}
	if n.Kind == relplan.JoinRight || n.Kind == relplan.JoinFull {
		parts = append(parts, extendWithNulls(c.Partial, right, rightElem, leftElem, false, declared, origin(n)))
	}
	if len(parts) == 0 {
		return c.Partial.Append(circuit.NewConstant(circuit.ZSetLiteral{}, declared, origin(n))), nil
	}
	if len(parts) == 1 {
		return parts[0], nil
	}
	return c.Partial.Append(circuit.NewSum(parts, origin(n))), nil
}

func decomposeJoinCond(cond relplan.ScalarNode, leftArity int) (eqPairs [][2]int, leftover []relplan.ScalarNode) {
	for _, cj := range collectConjuncts(cond) {
		if call, ok := cj.(*relplan.Call); ok && call.Kind == relplan.CallEq && len(call.Args) == 2 {
			if li, ri, ok := splitJoinSides(call.Args[0], call.Args[1], leftArity); ok {
				eqPairs = append(eqPairs, [2]int{li, ri})
				continue
			}
		}
		leftover = append(leftover, cj)
	}
	return eqPairs, leftover
}

func collectConjuncts(n relplan.ScalarNode) []relplan.ScalarNode {
	if call, ok := n.(*relplan.Call); ok && call.Kind == relplan.CallAnd {
		var out []relplan.ScalarNode
		for _, a := range call.Args {
			out = append(out, collectConjuncts(a)...)
		}
		return out
	}
	return []relplan.ScalarNode{n}
}

func splitJoinSides(a, b relplan.ScalarNode, leftArity int) (li, ri int, ok bool) {
	ra, aok := a.(*relplan.InputRef)
	rb, bok := b.(*relplan.InputRef)
	if !aok || !bok {
		return 0, 0, false
	}
	if ra.Index < leftArity && rb.Index >= leftArity {
		return ra.Index, rb.Index - leftArity, true
	}
	if rb.Index < leftArity && ra.Index >= leftArity {
		return rb.Index, ra.Index - leftArity, true
	}
	return 0, 0, false
}

func indexByKeysCast(partial *circuit.PartialCircuit, child circuit.Operator, indices []int, keyTypes []types.Type, orig circuit.PlanOrigin) circuit.Operator {
	elem := rowElemType(child)
	rowVar := expr.NewVariable("r", elem)
	keyElems := make([]expr.Expr, len(indices))
	for i, fi := range indices {
		keyElems[i] = expr.CastTo(expr.NewFieldAccess(rowVar, fi, elem.Fields[fi]), keyTypes[i])
	}
	pair := expr.NewTuple([]expr.Expr{expr.NewTuple(keyElems), rowVar})
	fn := expr.NewClosure("index", []expr.Param{{Name: rowVar.Name, Typ: elem}}, pair)
	return partial.Append(circuit.NewIndex(fn, child, orig))
}

// filterNonNullKeys drops rows with NULL in any named key field:
// outer-join nullability on key columns is removed by the filter.
func filterNonNullKeys(partial *circuit.PartialCircuit, child circuit.Operator, indices []int, orig circuit.PlanOrigin) circuit.Operator {
	if len(indices) == 0 {
		return child
	}
	elem := rowElemType(child)
	rowVar := expr.NewVariable("r", elem)
	var cond expr.Expr
	for _, fi := range indices {
		isNull := expr.NewUnary(expr.IS_NULL, expr.NewFieldAccess(rowVar, fi, elem.Fields[fi]), types.Bool)
		notNull := expr.NewUnary(expr.NOT, isNull, types.Bool)
		if cond == nil {
			cond = notNull
		} else {
			cond = expr.NewBinary(expr.AND, cond, notNull, types.Bool)
		}
	}
	fn := expr.NewClosure("cond", []expr.Param{{Name: rowVar.Name, Typ: elem}}, cond)
	return partial.Append(circuit.NewFilter(fn, child, orig))
}

func joinPairClosure(keyType, leftElem, rightElem types.Type) *expr.Closure {
	kVar := expr.NewVariable("k", keyType)
	lVar := expr.NewVariable("l", leftElem)
	rVar := expr.NewVariable("r", rightElem)
	elems := make([]expr.Expr, 0, len(leftElem.Fields)+len(rightElem.Fields))
	for i, f := range leftElem.Fields {
		elems = append(elems, expr.NewFieldAccess(lVar, i, f))
	}
	for i, f := range rightElem.Fields {
		elems = append(elems, expr.NewFieldAccess(rVar, i, f))
	}
	body := expr.NewTuple(elems)
	return expr.NewClosure("join", []expr.Param{
		{Name: kVar.Name, Typ: keyType},
		{Name: lVar.Name, Typ: leftElem},
		{Name: rVar.Name, Typ: rightElem},
	}, body)
}

func projectPrefix(partial *circuit.PartialCircuit, child circuit.Operator, count int, target types.Type, orig circuit.PlanOrigin) circuit.Operator {
	elem := rowElemType(child)
	rowVar := expr.NewVariable("r", elem)
	elems := make([]expr.Expr, count)
	for i := 0; i < count; i++ {
		elems[i] = expr.CastTo(expr.NewFieldAccess(rowVar, i, elem.Fields[i]), target.Fields[i])
	}
	fn := expr.NewClosure("proj", []expr.Param{{Name: rowVar.Name, Typ: elem}}, expr.NewTuple(elems))
	return partial.Append(circuit.NewMap(fn, child, orig))
}

func projectSuffix(partial *circuit.PartialCircuit, child circuit.Operator, total, count int, target types.Type, orig circuit.PlanOrigin) circuit.Operator {
	elem := rowElemType(child)
	rowVar := expr.NewVariable("r", elem)
	start := total - count
	elems := make([]expr.Expr, count)
	for i := 0; i < count; i++ {
		elems[i] = expr.CastTo(expr.NewFieldAccess(rowVar, start+i, elem.Fields[start+i]), target.Fields[i])
	}
	fn := expr.NewClosure("proj", []expr.Param{{Name: rowVar.Name, Typ: elem}}, expr.NewTuple(elems))
	return partial.Append(circuit.NewMap(fn, child, orig))
}

// extendWithNulls pads an unmatched row (of type sideElem) with NULLs
// for the other side's fields, in output-schema field order, cast to
// declared.
func extendWithNulls(partial *circuit.PartialCircuit, child circuit.Operator, sideElem, otherElem types.Type, sideFirst bool, declared types.Type, orig circuit.PlanOrigin) circuit.Operator {
	elem := rowElemType(child)
	rowVar := expr.NewVariable("r", elem)
	var elems []expr.Expr
	if sideFirst {
		for i, f := range elem.Fields {
			elems = append(elems, expr.CastTo(expr.NewFieldAccess(rowVar, i, f), declared.Fields[i]))
		}
		offset := len(elem.Fields)
		for i := range otherElem.Fields {
			elems = append(elems, expr.NewLiteral(nil, declared.Fields[offset+i]))
		}
	} else {
		for i := range otherElem.Fields {
			elems = append(elems, expr.NewLiteral(nil, declared.Fields[i]))
		}
		offset := len(otherElem.Fields)
		for i, f := range elem.Fields {
			elems = append(elems, expr.CastTo(expr.NewFieldAccess(rowVar, i, f), declared.Fields[offset+i]))
		}
	}
	fn := expr.NewClosure("pad", []expr.Param{{Name: rowVar.Name, Typ: elem}}, expr.NewTuple(elems))
	return partial.Append(circuit.NewMap(fn, child, orig))
}
