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

package circuit

import (
	"github.com/dolthub-labs/sql-dataflow-compiler/ir/expr"
	"github.com/dolthub-labs/sql-dataflow-compiler/ir/types"
)

func base(kind string, elem types.Type, multiset bool, origin PlanOrigin, in ...Operator) Base {
	return Base{Elem: elem, Multiset: multiset, In: in, PlanNode: origin, TagKind: kind}
}

// NewSource builds a Source reading named table tbl, whose rows have
// tuple type elem.
func NewSource(tbl string, elem types.Type, origin PlanOrigin) *Source {
	return &Source{Base: base("Source", elem, true, origin), Table: tbl}
}

// NewSink builds a Sink observing child under name.
func NewSink(name string, child Operator, origin PlanOrigin) *Sink {
	return &Sink{Base: base("Sink", elemOf(child.OutputType()), child.IsMultiset(), origin, child), Name: name, Child: child}
}

// NewNoop builds a Noop (suppressed Sink) observing child under name.
func NewNoop(name string, child Operator, origin PlanOrigin) *Noop {
	return &Noop{Base: base("Noop", elemOf(child.OutputType()), child.IsMultiset(), origin, child), Name: name, Child: child}
}

// NewMap builds a Map applying fn to every element of child.
func NewMap(fn *expr.Closure, child Operator, origin PlanOrigin) *Map {
	return &Map{Base: base("Map", fn.Body.Type(), child.IsMultiset(), origin, child), Fn: fn, Child: child}
}

// NewFilter builds a Filter applying fn to every element of child.
func NewFilter(fn *expr.Closure, child Operator, origin PlanOrigin) *Filter {
	return &Filter{Base: base("Filter", elemOf(child.OutputType()), child.IsMultiset(), origin, child), Fn: fn, Child: child}
}

// NewIndex builds an Index promoting child to an indexed Z-set via fn
// (Row -> (K,V)); the output tuple type is fn's (K,V) result type.
func NewIndex(fn *expr.Closure, child Operator, origin PlanOrigin) *Index {
	return &Index{Base: base("Index", fn.Body.Type(), child.IsMultiset(), origin, child), Fn: fn, Child: child}
}

// NewMapIndex builds a MapIndex applying fn to every (K,V) pair of an
// already-indexed child.
func NewMapIndex(fn *expr.Closure, child Operator, origin PlanOrigin) *MapIndex {
	return &MapIndex{Base: base("MapIndex", fn.Body.Type(), child.IsMultiset(), origin, child), Fn: fn, Child: child}
}

// NewFlatMap builds a FlatMap expanding every element of child via fn
// (Row -> Vec<Row'>); elem is the declared element type of each
// produced row.
func NewFlatMap(fn *expr.Closure, elem types.Type, child Operator, origin PlanOrigin) *FlatMap {
	return &FlatMap{Base: base("FlatMap", elem, true, origin, child), Fn: fn, Child: child}
}

// NewJoin builds a Join of indexed left/right on matching keys via
// pair closure fn; elem is fn's declared output row type.
func NewJoin(fn *expr.Closure, elem types.Type, left, right Operator, origin PlanOrigin) *Join {
	return &Join{Base: base("Join", elem, true, origin, left, right), Fn: fn, Left: left, Right: right}
}

// NewAggregate builds an Aggregate folding indexed child via fold;
// elem is the declared (K,V') output type.
func NewAggregate(fold Fold, elem types.Type, child Operator, origin PlanOrigin) *Aggregate {
	return &Aggregate{Base: base("Aggregate", elem, false, origin, child), Fold: fold, Child: child}
}

// NewWindowAggregate builds a WindowAggregate folding indexed child
// over win via fold; elem is the declared (K,V') output type.
func NewWindowAggregate(fold Fold, win WindowDescriptor, elem types.Type, child Operator, origin PlanOrigin) *WindowAggregate {
	return &WindowAggregate{Base: base("WindowAggregate", elem, true, origin, child), Fold: fold, Window: win, Child: child}
}

// NewDistinct builds a Distinct dropping child's weights.
func NewDistinct(child Operator, origin PlanOrigin) *Distinct {
	return &Distinct{Base: base("Distinct", elemOf(child.OutputType()), false, origin, child), Child: child}
}

// NewSum builds a Sum of operands; all operands must share the same
// element type, which becomes the Sum's element type.
func NewSum(operands []Operator, origin PlanOrigin) *Sum {
	elem := types.Any
	multiset := false
	if len(operands) > 0 {
		elem = elemOf(operands[0].OutputType())
	}
	for _, o := range operands {
		if o.IsMultiset() {
			multiset = true
		}
	}
	return &Sum{Base: base("Sum", elem, multiset, origin, operands...), Operands: operands}
}

// NewSubtract builds a Subtract of a-b.
func NewSubtract(a, b Operator, origin PlanOrigin) *Subtract {
	return &Subtract{Base: base("Subtract", elemOf(a.OutputType()), true, origin, a, b), A: a, B: b}
}

// NewNegate builds a Negate of child.
func NewNegate(child Operator, origin PlanOrigin) *Negate {
	return &Negate{Base: base("Negate", elemOf(child.OutputType()), child.IsMultiset(), origin, child), Child: child}
}

// NewDifferential builds a Differential of child.
func NewDifferential(child Operator, origin PlanOrigin) *Differential {
	return &Differential{Base: base("Differential", elemOf(child.OutputType()), true, origin, child), Child: child}
}

// NewIntegral builds an Integral of child.
func NewIntegral(child Operator, origin PlanOrigin) *Integral {
	return &Integral{Base: base("Integral", elemOf(child.OutputType()), child.IsMultiset(), origin, child), Child: child}
}

// NewConstant builds a Constant Z-set literal of the declared elem
// type.
func NewConstant(value ZSetLiteral, elem types.Type, origin PlanOrigin) *Constant {
	return &Constant{Base: base("Constant", elem, false, origin), Value: value}
}

// elemOf extracts the tuple element type of a ZSet-kinded type,
// panicking if t is not a ZSet. Every Operator.OutputType() is a
// ZSet, so this is the standard way to recover the row shape.
func elemOf(t types.Type) types.Type {
	if t.Kind != types.KindZSet {
		panic("circuit: expected a ZSet type")
	}
	return *t.Elem
}
