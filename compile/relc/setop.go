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
	"github.com/dolthub-labs/sql-dataflow-compiler/ir/circuit"
	"github.com/dolthub-labs/sql-dataflow-compiler/ir/expr"
	"github.com/dolthub-labs/sql-dataflow-compiler/ir/types"
	"github.com/dolthub-labs/sql-dataflow-compiler/ircompile/errkind"
	"github.com/dolthub-labs/sql-dataflow-compiler/relplan"
)

func (c *Compiler) compileSetOp(n *relplan.SetOp) (circuit.Operator, error) {
	declared, err := schemaTupleType(n.Sch)
	if err != nil {
		return nil, err
	}

	switch n.Kind {
	case relplan.SetOpUnion:
		return c.compileUnion(n, declared)
	case relplan.SetOpMinus:
		return c.compileMinus(n, declared)
	case relplan.SetOpIntersect:
		return c.compileIntersect(n, declared)
	default:
		return nil, errkind.Fatal(errkind.Unimplemented.New("set op kind"))
	}
}

// compileUnion casts each input to the declared output element type
// (nullability may widen), sums them, and applies Distinct unless ALL
// was specified.
func (c *Compiler) compileUnion(n *relplan.SetOp, declared types.Type) (circuit.Operator, error) {
	operands := make([]circuit.Operator, len(n.Inputs))
	for i, in := range n.Inputs {
		child, err := c.CompileNode(in)
		if err != nil {
			return nil, err
		}
		operands[i] = castRow(c.Partial, child, declared, origin(n))
	}
	sum := c.Partial.Append(circuit.NewSum(operands, origin(n)))
	if !n.All {
		return c.Partial.Append(circuit.NewDistinct(sum, origin(n))), nil
	}
	return sum, nil
}

// compileMinus treats Inputs[0] as the positive side and every later
// input as negated and summed in; Distinct applies only when !ALL.
func (c *Compiler) compileMinus(n *relplan.SetOp, declared types.Type) (circuit.Operator, error) {
	first, err := c.CompileNode(n.Inputs[0])
	if err != nil {
		return nil, err
	}
	acc := castRow(c.Partial, first, declared, origin(n))
	for _, in := range n.Inputs[1:] {
		child, err := c.CompileNode(in)
		if err != nil {
			return nil, err
		}
		casted := castRow(c.Partial, child, declared, origin(n))
		neg := c.Partial.Append(circuit.NewNegate(casted, origin(n)))
		acc = c.Partial.Append(circuit.NewSum([]circuit.Operator{acc, neg}, origin(n)))
	}
	if !n.All {
		return c.Partial.Append(circuit.NewDistinct(acc, origin(n))), nil
	}
	return acc, nil
}

// compileIntersect chains pairwise intersections left-to-right: index
// both sides by the full row (value = empty raw tuple), join with a
// "return key" closure.
func (c *Compiler) compileIntersect(n *relplan.SetOp, declared types.Type) (circuit.Operator, error) {
	first, err := c.CompileNode(n.Inputs[0])
	if err != nil {
		return nil, err
	}
	acc := castRow(c.Partial, first, declared, origin(n))
	for _, in := range n.Inputs[1:] {
		child, err := c.CompileNode(in)
		if err != nil {
			return nil, err
		}
		right := castRow(c.Partial, child, declared, origin(n))
		acc = c.intersectPair(acc, right, declared, origin(n))
	}
	if !n.All {
		return c.Partial.Append(circuit.NewDistinct(acc, origin(n))), nil
	}
	return acc, nil
}

func (c *Compiler) intersectPair(left, right circuit.Operator, declared types.Type, orig circuit.PlanOrigin) circuit.Operator {
	leftIdx := c.Partial.Append(circuit.NewIndex(fullRowIndexClosure(declared), left, orig))
	rightIdx := c.Partial.Append(circuit.NewIndex(fullRowIndexClosure(declared), right, orig))

	kVar := expr.NewVariable("k", declared)
	lVar := expr.NewVariable("l", types.RawTuple())
	rVar := expr.NewVariable("r2", types.RawTuple())
	pairFn := expr.NewClosure("pair", []expr.Param{
		{Name: kVar.Name, Typ: declared},
		{Name: lVar.Name, Typ: types.RawTuple()},
		{Name: rVar.Name, Typ: types.RawTuple()},
	}, kVar)

	return c.Partial.Append(circuit.NewJoin(pairFn, declared, leftIdx, rightIdx, orig))
}

// fullRowIndexClosure builds the Row -> (Row, RawTuple()) closure used
// to index a relation by its entire row for the intersect lowering.
func fullRowIndexClosure(rowType types.Type) *expr.Closure {
	rowVar := expr.NewVariable("r", rowType)
	body := expr.NewTuple([]expr.Expr{rowVar, expr.NewRawTuple(nil)})
	return expr.NewClosure("index", []expr.Param{{Name: rowVar.Name, Typ: rowType}}, body)
}
