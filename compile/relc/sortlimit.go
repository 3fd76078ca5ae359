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
	"github.com/dolthub-labs/sql-dataflow-compiler/relplan"
)

// compileSort has no dedicated circuit operator: it is built from an
// Index-by-empty-key, an Aggregate whose Fold collects every row
// (respecting its Z-set weight) into a single Vec, a Map applying a
// named vec_sort runtime call against a generated lexicographic
// comparator (expr.Sort/expr.Comparator) and, when LIMIT/OFFSET are
// present, a vec_slice call, and finally a FlatMap exploding the
// sorted Vec back into individual rows. The sort Map wraps its Vec in
// a single-field tuple so its Z-set element stays a tuple; the
// FlatMap reads the Vec back out of field 0, the same shape the
// standalone Uncollect lowering uses.
func (c *Compiler) compileSort(n *relplan.Sort) (circuit.Operator, error) {
	child, err := c.CompileNode(n.Input)
	if err != nil {
		return nil, err
	}
	elem := rowElemType(child)

	indexed := indexByFields(c.Partial, child, nil, origin(n))

	vecType := types.Vec(elem)
	fold := vecCollectFold(elem, vecType)
	kvType := types.Tuple(types.Tuple(), vecType)
	aggOp := c.Partial.Append(circuit.NewAggregate(fold, kvType, indexed, origin(n)))

	kvVar := expr.NewVariable("kv", kvType)
	v := expr.NewFieldAccess(kvVar, 1, vecType)
	sorted := expr.Expr(v)
	if len(n.Fields) > 0 {
		cmp := sortComparatorClosure(elem, n.Fields)
		sorted = expr.NewApply("vec_sort", []expr.Expr{v, cmp}, vecType)
	}
	if n.Offset > 0 || n.Limit >= 0 {
		offset := n.Offset
		if offset < 0 {
			offset = 0
		}
		sorted = expr.NewApply("vec_slice", []expr.Expr{
			sorted,
			expr.NewLiteral(int64(offset), types.I64),
			expr.NewLiteral(int64(n.Limit), types.I64),
		}, vecType)
	}
	mapFn := expr.NewClosure("sort", []expr.Param{{Name: kvVar.Name, Typ: kvType}}, expr.NewTuple([]expr.Expr{sorted}))
	sortedOp := c.Partial.Append(circuit.NewMap(mapFn, aggOp, origin(n)))

	vecRowType := types.Tuple(vecType)
	vecRowVar := expr.NewVariable("r", vecRowType)
	flatBody := expr.NewFieldAccess(vecRowVar, 0, vecType)
	flatFn := expr.NewClosure("expand", []expr.Param{{Name: vecRowVar.Name, Typ: vecRowType}}, flatBody)
	return c.Partial.Append(circuit.NewFlatMap(flatFn, elem, sortedOp, origin(n))), nil
}

// vecCollectFold is the Fold an Aggregate uses to collect an entire
// group's rows into one Vec, via named vec_new/vec_push runtime
// calls.
func vecCollectFold(elem, vecType types.Type) circuit.Fold {
	accVar := expr.NewVariable("acc", vecType)
	rowVar := expr.NewVariable("r", elem)

	initClosure := expr.NewClosure("init", nil, expr.NewApply("vec_new", nil, vecType))
	stepBody := expr.NewApply("vec_push", []expr.Expr{accVar, rowVar}, vecType)
	stepClosure := expr.NewClosure("step", []expr.Param{
		{Name: accVar.Name, Typ: vecType},
		{Name: rowVar.Name, Typ: elem},
	}, stepBody)

	finAccVar := expr.NewVariable("acc", vecType)
	finalizeClosure := expr.NewClosure("finalize", []expr.Param{{Name: finAccVar.Name, Typ: vecType}}, finAccVar)

	return circuit.Fold{
		Name:        "collect",
		Init:        initClosure,
		Step:        stepClosure,
		Finalize:    finalizeClosure,
		DefaultZero: expr.NewApply("vec_new", nil, vecType),
	}
}

// sortComparatorClosure builds the Row -> Sort(Comparator chain)
// closure describing n's ORDER BY fields in priority order, used as
// vec_sort's comparator argument.
func sortComparatorClosure(elem types.Type, fields []relplan.SortField) *expr.Closure {
	rowVar := expr.NewVariable("r", elem)
	var chain *expr.Comparator
	for i := len(fields) - 1; i >= 0; i-- {
		f := fields[i]
		fieldExpr := expr.NewFieldAccess(rowVar, f.Index, elem.Fields[f.Index])
		chain = expr.NewComparator(fieldExpr, f.Asc, chain)
	}
	body := expr.NewSort(chain)
	return expr.NewClosure("cmp", []expr.Param{{Name: rowVar.Name, Typ: elem}}, body)
}
