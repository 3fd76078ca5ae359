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

// Package expr is the scalar expression IR emitted by the scalar
// expression compiler and embedded in circuit operator closures.
package expr

import (
	"github.com/dolthub-labs/sql-dataflow-compiler/ir/types"
)

// Expr is a node of the scalar expression tree. Every node carries a
// fully resolved type; the compiler never emits one with an unset
// type.
type Expr interface {
	Type() types.Type
	isExpr()
}

// Literal is a typed constant value.
type Literal struct {
	Value interface{}
	Typ   types.Type
}

func NewLiteral(value interface{}, t types.Type) *Literal { return &Literal{value, t} }
func (l *Literal) Type() types.Type                       { return l.Typ }
func (*Literal) isExpr()                                  {}

// Variable references a named binding in the enclosing Closure's
// parameter list (typically the row variable, "r").
type Variable struct {
	Name string
	Typ  types.Type
}

func NewVariable(name string, t types.Type) *Variable { return &Variable{name, t} }
func (v *Variable) Type() types.Type                  { return v.Typ }
func (*Variable) isExpr()                             {}

// FieldAccess reads field Index of a tuple-typed Inner.
type FieldAccess struct {
	Inner Expr
	Index int
	Typ   types.Type
}

func NewFieldAccess(inner Expr, index int, t types.Type) *FieldAccess {
	return &FieldAccess{inner, index, t}
}
func (f *FieldAccess) Type() types.Type { return f.Typ }
func (*FieldAccess) isExpr()            {}

// Deref dereferences a Ref-typed Inner.
type Deref struct {
	Inner Expr
}

func NewDeref(inner Expr) *Deref {
	if inner.Type().Kind != types.KindRef {
		panic("expr: Deref requires a Ref-typed operand")
	}
	return &Deref{inner}
}
func (d *Deref) Type() types.Type { return *d.Inner.Type().Elem }
func (*Deref) isExpr()            {}

// Ref takes a reference to Inner.
type Ref struct {
	Inner Expr
}

func NewRef(inner Expr) *Ref { return &Ref{inner} }
func (r *Ref) Type() types.Type {
	t := types.NewRef(r.Inner.Type())
	return t
}
func (*Ref) isExpr() {}

// Clone deep-copies Inner at runtime; it does not change the type.
type Clone struct {
	Inner Expr
}

func NewClone(inner Expr) *Clone   { return &Clone{inner} }
func (c *Clone) Type() types.Type  { return c.Inner.Type() }
func (*Clone) isExpr()             {}

// Cast converts Inner to Target, inserted eagerly by the compiler
// wherever the type discipline requires it.
type Cast struct {
	Inner  Expr
	Target types.Type
}

func NewCast(inner Expr, target types.Type) *Cast { return &Cast{inner, target} }
func (c *Cast) Type() types.Type                  { return c.Target }
func (*Cast) isExpr()                             {}

// Binary applies Op to Left and Right, producing a value of
// ResultType.
type Binary struct {
	Op          Opcode
	Left, Right Expr
	ResultType  types.Type
}

func NewBinary(op Opcode, left, right Expr, result types.Type) *Binary {
	return &Binary{op, left, right, result}
}
func (b *Binary) Type() types.Type { return b.ResultType }
func (*Binary) isExpr()            {}

// Unary applies Op to Operand, producing a value of ResultType.
type Unary struct {
	Op         Opcode
	Operand    Expr
	ResultType types.Type
}

func NewUnary(op Opcode, operand Expr, result types.Type) *Unary {
	return &Unary{op, operand, result}
}
func (u *Unary) Type() types.Type { return u.ResultType }
func (*Unary) isExpr()            {}

// If is a ternary conditional; Then and Else must already share a
// common (possibly widened) type by the time this node is built.
type If struct {
	Cond, Then, Else Expr
}

func NewIf(cond, then, els Expr) *If { return &If{cond, then, els} }
func (i *If) Type() types.Type       { return i.Then.Type() }
func (*If) isExpr()                  {}

// Apply calls a named runtime function (e.g. "extract_i64_YEAR") with
// Args, producing ResultType. This is how date/timestamp arithmetic
// and the named numeric builtins (POWER, ABS, LOG10, ...) reach the
// runtime's primitive set.
type Apply struct {
	Name       string
	Args       []Expr
	ResultType types.Type
}

func NewApply(name string, args []Expr, result types.Type) *Apply {
	return &Apply{name, args, result}
}
func (a *Apply) Type() types.Type { return a.ResultType }
func (*Apply) isExpr()            {}

// ApplyMethod calls a method named Name on Receiver with Args.
type ApplyMethod struct {
	Name       string
	Receiver   Expr
	Args       []Expr
	ResultType types.Type
}

func NewApplyMethod(name string, receiver Expr, args []Expr, result types.Type) *ApplyMethod {
	return &ApplyMethod{name, receiver, args, result}
}
func (a *ApplyMethod) Type() types.Type { return a.ResultType }
func (*ApplyMethod) isExpr()            {}

// Param is one typed parameter of a Closure.
type Param struct {
	Name string
	Typ  types.Type
}

// Closure is a typed lambda, the unit every circuit operator wraps
// its per-row logic in. Name is cosmetic and must never affect semantics.
type Closure struct {
	Name   string
	Params []Param
	Body   Expr
}

func NewClosure(name string, params []Param, body Expr) *Closure {
	return &Closure{name, params, body}
}

// Type returns the body's type; the parameter types are not part of
// it. Circuit operators only
// ever inspect Closure.Body.Type() and Closure.Params directly; this
// exists so Closure still satisfies Expr.
func (c *Closure) Type() types.Type { return c.Body.Type() }
func (*Closure) isExpr()            {}

// IndexInto reads Array[Index] at runtime (as opposed to FieldAccess,
// which is a static tuple projection).
type IndexInto struct {
	Array, Index Expr
	Typ          types.Type
}

func NewIndexInto(array, index Expr, t types.Type) *IndexInto {
	return &IndexInto{array, index, t}
}
func (i *IndexInto) Type() types.Type { return i.Typ }
func (*IndexInto) isExpr()            {}

// RawTuple constructs an untyped-at-the-wire tuple value.
type RawTuple struct {
	Elems []Expr
	Typ   types.Type
}

func NewRawTuple(elems []Expr) *RawTuple {
	fields := make([]types.Type, len(elems))
	for i, e := range elems {
		fields[i] = e.Type()
	}
	return &RawTuple{elems, types.RawTuple(fields...)}
}
func (r *RawTuple) Type() types.Type { return r.Typ }
func (*RawTuple) isExpr()            {}

// Tuple constructs a typed tuple value (the shape every circuit
// operator's output row takes).
type Tuple struct {
	Elems []Expr
	Typ   types.Type
}

func NewTuple(elems []Expr) *Tuple {
	fields := make([]types.Type, len(elems))
	for i, e := range elems {
		fields[i] = e.Type()
	}
	return &Tuple{elems, types.Tuple(fields...)}
}
func (t *Tuple) Type() types.Type { return t.Typ }
func (*Tuple) isExpr()            {}

// Struct constructs a named-field struct value of a user type; Path
// identifies the target type's fully qualified name and Fields give
// its member expressions in declaration order. ResultType normally
// resolves to an Any type until a later pass binds the concrete user
// type.
type Struct struct {
	Path       string
	Fields     []Expr
	ResultType types.Type
}

func NewStruct(path string, fields []Expr, result types.Type) *Struct {
	return &Struct{path, fields, result}
}
func (s *Struct) Type() types.Type { return s.ResultType }
func (*Struct) isExpr()            {}

// Sort wraps Inner, a comparator expression, marking it for use as a
// vector sort key (the body of the comparator closure passed to the
// vec_sort runtime call in the Sort/Limit lowering).
type Sort struct {
	Inner Expr
}

func NewSort(inner Expr) *Sort { return &Sort{inner} }
func (s *Sort) Type() types.Type { return s.Inner.Type() }
func (*Sort) isExpr()            {}

// Comparator is one field of a lexicographic comparator chain: a
// field expression to compare, a sort direction, and the rest of
// the chain to fall back to on a tie.
type Comparator struct {
	Field Expr
	Asc   bool
	Rest  *Comparator // nil terminates the chain
}

func NewComparator(field Expr, asc bool, rest *Comparator) *Comparator {
	return &Comparator{field, asc, rest}
}
func (c *Comparator) Type() types.Type { return types.I32 } // conventional <0/0/>0 result
func (*Comparator) isExpr()            {}

// Path is a dotted field-access chain resolved against an Any-typed
// root; used by struct constructors before their field
// types are known.
type Path struct {
	Segments []string
	Typ      types.Type
}

func NewPath(segments []string, t types.Type) *Path { return &Path{segments, t} }
func (p *Path) Type() types.Type                    { return p.Typ }
func (*Path) isExpr()                               {}
