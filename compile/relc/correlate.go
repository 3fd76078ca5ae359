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

// compileCorrelate lowers the decorrelated-unnest shape (the only
// Correlate shape this core supports): a single
// FlatMap over Outer's rows, exploding the array field and cloning
// every other outer column into each exploded row, with an optional
// trailing ordinality column.
func (c *Compiler) compileCorrelate(n *relplan.Correlate) (circuit.Operator, error) {
	outer, err := c.CompileNode(n.Outer)
	if err != nil {
		return nil, err
	}
	elem := rowElemType(outer)
	declared, err := schemaTupleType(n.Sch)
	if err != nil {
		return nil, err
	}

	arrType := elem.Fields[n.ArrayField]
	itemType := *arrType.Elem

	rowVar := expr.NewVariable("r", elem)
	arr := expr.NewFieldAccess(rowVar, n.ArrayField, arrType)

	combine := correlateCombineClosure(elem, n.ArrayField, itemType, n.WithOrdinality, declared)
	vecExpr := expr.NewApply("unnest_with_outer", []expr.Expr{rowVar, arr, combine}, types.Vec(declared))
	flatFn := expr.NewClosure("expand", []expr.Param{{Name: rowVar.Name, Typ: elem}}, vecExpr)
	return c.Partial.Append(circuit.NewFlatMap(flatFn, declared, outer, origin(n))), nil
}

// correlateCombineClosure builds the (outer, item[, ordinal]) ->
// declared-row closure passed to unnest_with_outer describing how one
// exploded element is paired back up with the rest of its outer row.
func correlateCombineClosure(elem types.Type, arrayField int, itemType types.Type, withOrdinality bool, declared types.Type) *expr.Closure {
	outerVar := expr.NewVariable("outer", elem)
	itemVar := expr.NewVariable("item", itemType)
	ordVar := expr.NewVariable("ord", types.I64)

	var elems []expr.Expr
	idx := 0
	for i, f := range elem.Fields {
		if i == arrayField {
			continue
		}
		elems = append(elems, expr.CastTo(expr.NewFieldAccess(outerVar, i, f), declared.Fields[idx]))
		idx++
	}
	elems = append(elems, expr.CastTo(itemVar, declared.Fields[idx]))
	idx++

	params := []expr.Param{
		{Name: outerVar.Name, Typ: elem},
		{Name: itemVar.Name, Typ: itemType},
	}
	if withOrdinality {
		elems = append(elems, expr.CastTo(ordVar, declared.Fields[idx]))
		params = append(params, expr.Param{Name: ordVar.Name, Typ: types.I64})
	}

	return expr.NewClosure("pair", params, expr.NewTuple(elems))
}
