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

// Package relc lowers a relational plan (relplan) into the circuit
// IR: a stateful visitor that memoizes on plan-node
// identity, emitting operators into one shared PartialCircuit as it
// walks.
package relc

import (
	"fmt"

	"github.com/dolthub-labs/sql-dataflow-compiler/diag"
	"github.com/dolthub-labs/sql-dataflow-compiler/ir/circuit"
	"github.com/dolthub-labs/sql-dataflow-compiler/ir/expr"
	"github.com/dolthub-labs/sql-dataflow-compiler/ir/types"
	"github.com/dolthub-labs/sql-dataflow-compiler/ircompile/errkind"
	"github.com/dolthub-labs/sql-dataflow-compiler/relplan"
)

// Compiler lowers relplan.Node trees into operators appended to
// Partial, tracking table contents for DML and memoizing plan nodes
// so re-visiting a DAG shared subtree is a no-op.
type Compiler struct {
	Partial  *circuit.PartialCircuit
	Tables   *circuit.TableContents
	Reporter diag.Reporter

	memo map[relplan.Node]circuit.Operator
}

// New returns a Compiler sharing the given partial circuit and table
// contents model across however many statements the caller compiles.
func New(partial *circuit.PartialCircuit, tables *circuit.TableContents, reporter diag.Reporter) *Compiler {
	if reporter == nil {
		reporter = diag.NopReporter{}
	}
	return &Compiler{
		Partial:  partial,
		Tables:   tables,
		Reporter: reporter,
		memo:     map[relplan.Node]circuit.Operator{},
	}
}

// planOrigin is the diagnostics-only PlanOrigin attached to every
// operator this package emits.
type planOrigin struct{ label string }

func (p planOrigin) String() string { return p.label }

func origin(n relplan.Node) circuit.PlanOrigin {
	return planOrigin{label: fmt.Sprintf("%T", n)}
}

// CompileNode lowers n, memoizing on n's identity: re-visiting an
// already-compiled node returns the memoized operator without
// appending anything new.
func (c *Compiler) CompileNode(n relplan.Node) (circuit.Operator, error) {
	if op, ok := c.memo[n]; ok {
		return op, nil
	}
	var op circuit.Operator
	var err error
	switch n := n.(type) {
	case *relplan.TableScan:
		op, err = c.compileTableScan(n)
	case *relplan.Values:
		op, err = c.compileValues(n)
	case *relplan.Project:
		op, err = c.compileProject(n)
	case *relplan.Filter:
		op, err = c.compileFilter(n)
	case *relplan.Join:
		op, err = c.compileJoin(n)
	case *relplan.GroupBy:
		op, err = c.compileGroupBy(n)
	case *relplan.Window:
		op, err = c.compileWindow(n)
	case *relplan.Sort:
		op, err = c.compileSort(n)
	case *relplan.SetOp:
		op, err = c.compileSetOp(n)
	case *relplan.Correlate:
		op, err = c.compileCorrelate(n)
	case *relplan.Uncollect:
		op, err = c.compileUncollect(n)
	default:
		return nil, errkind.Fatal(errkind.Unimplemented.New(fmt.Sprintf("plan node %T", n)))
	}
	if err != nil {
		return nil, err
	}
	c.memo[n] = op
	return op, nil
}

// compileTableScan reuses a previously emitted Source/Sink for the
// named table if one exists, unwrapping a Sink's underlying producer;
// otherwise it emits a fresh Source.
func (c *Compiler) compileTableScan(n *relplan.TableScan) (circuit.Operator, error) {
	if op, ok := c.Partial.Input(n.TableName); ok {
		return unwrapSink(op), nil
	}
	if op, ok := c.Partial.Output(n.TableName); ok {
		return unwrapSink(op), nil
	}
	elem, err := schemaTupleType(n.Sch)
	if err != nil {
		return nil, err
	}
	src := c.Partial.Append(circuit.NewSource(n.TableName, elem, origin(n)))
	c.Partial.RegisterInput(n.TableName, src)
	return src, nil
}

func unwrapSink(op circuit.Operator) circuit.Operator {
	switch o := op.(type) {
	case *circuit.Sink:
		return o.Child
	case *circuit.Noop:
		return o.Child
	default:
		return op
	}
}

// compileProject emits Map(closure Row->Tuple(exprs)), casting each
// projected field to the declared result field type. No distinct.
func (c *Compiler) compileProject(n *relplan.Project) (circuit.Operator, error) {
	child, err := c.CompileNode(n.Input)
	if err != nil {
		return nil, err
	}
	elem := rowElemType(child)
	declared, err := schemaTupleType(n.Sch)
	if err != nil {
		return nil, err
	}

	rowVar := expr.NewVariable("r", elem)
	sc := newScalarCompiler(rowVar, elem)

	elems := make([]expr.Expr, len(n.Exprs))
	for i, e := range n.Exprs {
		ce, err := sc.Compile(e)
		if err != nil {
			return nil, err
		}
		elems[i] = expr.CastTo(ce, declared.Fields[i])
	}
	body := expr.NewTuple(elems)
	fn := expr.NewClosure("proj", []expr.Param{{Name: rowVar.Name, Typ: elem}}, body)
	return c.Partial.Append(circuit.NewMap(fn, child, origin(n))), nil
}

// compileFilter compiles the condition, wraps it with WRAP_BOOL if
// nullable, and emits Filter(closure).
func (c *Compiler) compileFilter(n *relplan.Filter) (circuit.Operator, error) {
	child, err := c.CompileNode(n.Input)
	if err != nil {
		return nil, err
	}
	elem := rowElemType(child)
	rowVar := expr.NewVariable("r", elem)
	sc := newScalarCompiler(rowVar, elem)

	cond, err := sc.Compile(n.Cond)
	if err != nil {
		return nil, err
	}
	if cond.Type().MayBeNull {
		cond = expr.NewUnary(expr.WRAP_BOOL, cond, types.Bool)
	}
	fn := expr.NewClosure("cond", []expr.Param{{Name: rowVar.Name, Typ: elem}}, cond)
	return c.Partial.Append(circuit.NewFilter(fn, child, origin(n))), nil
}

// compileUncollect lowers a standalone Uncollect into a FlatMap over
// field 0 of the input tuple.
func (c *Compiler) compileUncollect(n *relplan.Uncollect) (circuit.Operator, error) {
	child, err := c.CompileNode(n.Input)
	if err != nil {
		return nil, err
	}
	elem := rowElemType(child)
	declared, err := schemaTupleType(n.Sch)
	if err != nil {
		return nil, err
	}

	rowVar := expr.NewVariable("r", elem)
	arr := expr.NewFieldAccess(rowVar, 0, elem.Fields[0])
	fn := expr.NewClosure("expand", []expr.Param{{Name: rowVar.Name, Typ: elem}}, arr)
	return c.Partial.Append(circuit.NewFlatMap(fn, declared, child, origin(n))), nil
}
