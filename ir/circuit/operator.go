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

// Package circuit is the output IR: the small algebra of streaming
// operators relational plans are lowered into, plus the
// partial/sealed circuit containers that own them.
package circuit

import (
	"github.com/dolthub-labs/sql-dataflow-compiler/ir/expr"
	"github.com/dolthub-labs/sql-dataflow-compiler/ir/types"
)

// ID uniquely identifies an operator within one partial/sealed
// circuit. IDs are assigned monotonically by the owning
// PartialCircuit at append time.
type ID int

// PlanOrigin is a diagnostics-only back-reference to the relational
// plan node an operator was lowered from.
type PlanOrigin interface {
	// String is used only for diagnostic messages; no code should
	// switch on its value.
	String() string
}

// Operator is one node of the output circuit DAG. Every
// concrete operator type embeds Base, which supplies the common
// bookkeeping fields.
type Operator interface {
	OpID() ID
	// OutputType is always ZSet(tuple, weight); kept as a method
	// rather than a fixed constant so every operator self-documents
	// its own row shape inside that ZSet.
	OutputType() types.Type
	IsMultiset() bool
	Inputs() []Operator
	Origin() PlanOrigin
	// Kind is a short tag used by TreePrinter and tests; it never
	// affects lowering semantics.
	Kind() string
}

// Base is embedded by every concrete operator and implements the
// bookkeeping portion of the Operator interface.
type Base struct {
	ID        ID
	Elem      types.Type // ZSet element (tuple) type
	Multiset  bool
	In        []Operator
	PlanNode  PlanOrigin
	TagKind   string
}

func (b *Base) setID(id ID) { b.ID = id }

func (b *Base) OpID() ID                 { return b.ID }
func (b *Base) OutputType() types.Type   { return types.NewZSet(b.Elem) }
func (b *Base) IsMultiset() bool         { return b.Multiset }
func (b *Base) Inputs() []Operator       { return b.In }
func (b *Base) Origin() PlanOrigin       { return b.PlanNode }
func (b *Base) Kind() string             { return b.TagKind }

// Source reads a named base table's current contents as a Z-set.
type Source struct {
	Base
	Table string
}

// Sink names an operator's output as an observable view.
type Sink struct {
	Base
	Name  string
	Child Operator
}

// Noop is a Sink whose emission is suppressed (SetNextViewVisible(false)
// was in effect when the view was declared). It still occupies the
// output-operators index under Name, so re-declaring the name is
// still a DuplicateDefinition, but back-ends never see it as a real
// output.
type Noop struct {
	Base
	Name  string
	Child Operator
}

// Map applies a Row->Row' closure to every element, preserving
// weights.
type Map struct {
	Base
	Fn    *expr.Closure
	Child Operator
}

// Filter applies a Row->Bool closure, keeping only truthy rows.
type Filter struct {
	Base
	Fn    *expr.Closure
	Child Operator
}

// Index promotes a Z-set to an indexed Z-set via a Row->(K,V)
// closure.
type Index struct {
	Base
	Fn    *expr.Closure
	Child Operator
}

// MapIndex applies a (K,V)->(K',V') closure to an already-indexed
// Z-set.
type MapIndex struct {
	Base
	Fn    *expr.Closure
	Child Operator
}

// FlatMap expands one row into zero or more rows via a closure.
type FlatMap struct {
	Base
	Fn    *expr.Closure
	Child Operator
}

// Join combines two indexed inputs on matching keys via a
// (K,L,R)->Out pair closure.
type Join struct {
	Base
	Fn          *expr.Closure
	Left, Right Operator
}

// Aggregate folds an indexed input into an indexed Z-set via a named
// fold (init/step/finalize/default-zero), keyed by the index's key.
type Aggregate struct {
	Base
	Fold  Fold
	Child Operator
}

// WindowDescriptor carries the frame bounds a WindowAggregate
// evaluates over, mirroring relplan.RelRange but expressed over the
// circuit IR's own expr/types so circuit packages never import
// relplan.
type WindowDescriptor struct {
	LowerUnbounded bool
	UpperUnbounded bool
	LowerOffset    expr.Expr // nil when LowerUnbounded
	UpperOffset    expr.Expr // nil when UpperUnbounded
}

// WindowAggregate is an incremental windowed fold: wrapped between
// Differential and Integral at the call site to present
// non-incremental semantics.
type WindowAggregate struct {
	Base
	Fold   Fold
	Window WindowDescriptor
	Child  Operator
}

// Fold names the per-group aggregate implementation an Aggregate or
// WindowAggregate operator evaluates. Init/Step/Finalize/DefaultZero
// are closures built by the aggregate-call sub-compiler.
type Fold struct {
	Name        string
	Init        *expr.Closure
	Step        *expr.Closure
	Finalize    *expr.Closure
	DefaultZero expr.Expr
}

// Distinct drops weights, asserting multiplicities are 1 afterward.
type Distinct struct {
	Base
	Child Operator
}

// Sum is Z-set addition of N inputs.
type Sum struct {
	Base
	Operands []Operator
}

// Subtract is binary Z-set subtraction, A-B.
type Subtract struct {
	Base
	A, B Operator
}

// Negate negates every element's weight.
type Negate struct {
	Base
	Child Operator
}

// Differential computes D(stream): the delta between successive
// values of an otherwise non-incremental stream.
type Differential struct {
	Base
	Child Operator
}

// Integral computes I(stream): the running sum of a delta stream.
// I(D(x)) == x; composing it around an otherwise-incremental operator
// makes that operator present non-incremental semantics.
type Integral struct {
	Base
	Child Operator
}

// Constant is a literal Z-set baked into the circuit.
type Constant struct {
	Base
	Value ZSetLiteral
}

// ZSetLiteral is a literal multiset of (row, weight) pairs, the value
// a Constant operator (or VALUES materialization) carries.
type ZSetLiteral struct {
	Rows    [][]interface{}
	Weights []int64
}
