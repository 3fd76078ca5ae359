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
	"github.com/dolthub-labs/sql-dataflow-compiler/compile/scalarc"
	"github.com/dolthub-labs/sql-dataflow-compiler/ir/circuit"
	"github.com/dolthub-labs/sql-dataflow-compiler/ir/expr"
	"github.com/dolthub-labs/sql-dataflow-compiler/ir/types"
	"github.com/dolthub-labs/sql-dataflow-compiler/relplan"
)

// schemaTupleType converts a relplan schema (upstream wire types) into
// a circuit-IR Tuple type.
func schemaTupleType(sch []relplan.Field) (types.Type, error) {
	fields := make([]types.Type, len(sch))
	for i, f := range sch {
		t, err := types.ConvertType(f.Typ.Wire, f.Typ.Nullable)
		if err != nil {
			return types.Type{}, err
		}
		fields[i] = t
	}
	return types.Tuple(fields...), nil
}

// rowElemType extracts op's row (tuple) type out of its ZSet output
// type.
func rowElemType(op circuit.Operator) types.Type {
	ot := op.OutputType()
	return *ot.Elem
}

// newScalarCompiler builds a scalarc.Compiler resolving InputRef nodes
// against rowVar, whose declared type is rowType.
func newScalarCompiler(rowVar *expr.Variable, rowType types.Type) *scalarc.Compiler {
	return scalarc.New(scalarc.RowContext{RowVar: rowVar, RowType: rowType})
}

// castRow emits a Map casting every field of child's rows onto
// declared, the way every set operation casts its inputs onto a
// declared output element type before combining them.
func castRow(partial *circuit.PartialCircuit, child circuit.Operator, declared types.Type, orig circuit.PlanOrigin) circuit.Operator {
	elem := rowElemType(child)
	if elem.Equal(declared) {
		return child
	}
	rowVar := expr.NewVariable("r", elem)
	elems := make([]expr.Expr, len(declared.Fields))
	for i := range declared.Fields {
		elems[i] = expr.CastTo(expr.NewFieldAccess(rowVar, i, elem.Fields[i]), declared.Fields[i])
	}
	fn := expr.NewClosure("cast", []expr.Param{{Name: rowVar.Name, Typ: elem}}, expr.NewTuple(elems))
	return partial.Append(circuit.NewMap(fn, child, orig))
}

// indexByFields emits an Index keyed by the fields named in idx (in
// order), carrying the whole row as the value.
func indexByFields(partial *circuit.PartialCircuit, child circuit.Operator, idx []int, orig circuit.PlanOrigin) circuit.Operator {
	elem := rowElemType(child)
	rowVar := expr.NewVariable("r", elem)
	keyFields := make([]types.Type, len(idx))
	keyElems := make([]expr.Expr, len(idx))
	for i, fi := range idx {
		keyFields[i] = elem.Fields[fi]
		keyElems[i] = expr.NewFieldAccess(rowVar, fi, elem.Fields[fi])
	}
	pair := expr.NewTuple([]expr.Expr{expr.NewTuple(keyElems), rowVar})
	fn := expr.NewClosure("index", []expr.Param{{Name: rowVar.Name, Typ: elem}}, pair)
	return partial.Append(circuit.NewIndex(fn, child, orig))
}
