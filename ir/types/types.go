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

// Package types is the closed type system of the circuit IR: a fixed
// set of base kinds with a nullability flag, composite types, and the
// promotion/cast rules every scalar and circuit operator is built
// against.
package types

import "fmt"

// Kind is the closed set of type constructors the circuit IR supports.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindInteger
	KindFloat
	KindDecimal
	KindString
	KindDate
	KindTimestamp
	KindMillisInterval
	KindGeoPoint
	KindKeyword
	KindUSize
	KindRef
	KindTuple
	KindRawTuple
	KindVec
	KindZSet
	KindWeight
	KindAny
	KindUser
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "Null"
	case KindBool:
		return "Bool"
	case KindInteger:
		return "Integer"
	case KindFloat:
		return "Float"
	case KindDecimal:
		return "Decimal"
	case KindString:
		return "String"
	case KindDate:
		return "Date"
	case KindTimestamp:
		return "Timestamp"
	case KindMillisInterval:
		return "MillisInterval"
	case KindGeoPoint:
		return "GeoPoint"
	case KindKeyword:
		return "Keyword"
	case KindUSize:
		return "USize"
	case KindRef:
		return "Ref"
	case KindTuple:
		return "Tuple"
	case KindRawTuple:
		return "RawTuple"
	case KindVec:
		return "Vec"
	case KindZSet:
		return "ZSet"
	case KindWeight:
		return "Weight"
	case KindAny:
		return "Any"
	case KindUser:
		return "User"
	default:
		return "Unknown"
	}
}

// Type is the single type representation shared by the scalar IR and
// the circuit IR. Only the fields relevant to Kind are populated; the
// zero value of the others is ignored.
type Type struct {
	Kind Kind

	// Width is the bit width for Integer (16/32/64) and Float (32/64).
	Width int
	// Signed applies to Integer only.
	Signed bool

	// MayBeNull is the nullability flag. Invariant: always false for
	// KindRef.
	MayBeNull bool

	// Elem is the pointee type for Ref, the element type for Vec, and
	// the (tuple) element type for ZSet.
	Elem *Type

	// Fields holds member types for Tuple and RawTuple.
	Fields []Type

	// Name and Args describe a User(name, args) type.
	Name string
	Args []Type
}

// Null, Bool, USize, Weight, Any are the nullary base types; they are
// safe to share because Type carries no mutable state.
var (
	Null   = Type{Kind: KindNull, MayBeNull: true}
	Bool   = Type{Kind: KindBool}
	USize  = Type{Kind: KindUSize}
	Weight = Type{Kind: KindWeight}
	Any    = Type{Kind: KindAny}
	String = Type{Kind: KindString}
	Date   = Type{Kind: KindDate}
	Timestamp      = Type{Kind: KindTimestamp}
	MillisInterval = Type{Kind: KindMillisInterval}
	GeoPoint       = Type{Kind: KindGeoPoint}
	Keyword        = Type{Kind: KindKeyword}
	Decimal        = Type{Kind: KindDecimal}
)

// Integer constructs a signed/unsigned integer type of the given bit
// width. width must be one of 16, 32, 64.
func Integer(width int, signed bool) Type {
	return Type{Kind: KindInteger, Width: width, Signed: signed}
}

// Float constructs a floating point type of the given bit width.
// width must be one of 32, 64.
func Float(width int) Type {
	return Type{Kind: KindFloat, Width: width}
}

// I16, I32, I64, U16, U32, U64, F32, F64 are the common integer and
// float instantiations.
var (
	I16 = Integer(16, true)
	I32 = Integer(32, true)
	I64 = Integer(64, true)
	U16 = Integer(16, false)
	U32 = Integer(32, false)
	U64 = Integer(64, false)
	F32 = Float(32)
	F64 = Float(64)
)

// NewRef constructs a reference type. Nesting Ref(Ref) is forbidden
// and a Ref is never nullable; NewRef panics loudly on either
// violation instead of building a corrupt type silently.
func NewRef(elem Type) Type {
	if elem.Kind == KindRef {
		panic("types: Ref(Ref) is forbidden")
	}
	return Type{Kind: KindRef, Elem: &elem, MayBeNull: false}
}

// Tuple constructs a tuple type from its member types.
func Tuple(fields ...Type) Type {
	return Type{Kind: KindTuple, Fields: fields}
}

// RawTuple constructs a raw (unnamed, untyped-at-the-wire) tuple.
func RawTuple(fields ...Type) Type {
	return Type{Kind: KindRawTuple, Fields: fields}
}

// Vec constructs a vector type.
func Vec(elem Type) Type {
	return Type{Kind: KindVec, Elem: &elem}
}

// ZSet constructs a Z-set type. elem must be a Tuple or RawTuple;
// NewZSet panics if violated.
func NewZSet(elem Type) Type {
	if elem.Kind != KindTuple && elem.Kind != KindRawTuple {
		panic(fmt.Sprintf("types: ZSet element must be a tuple, got %s", elem.Kind))
	}
	return Type{Kind: KindZSet, Elem: &elem}
}

// User constructs a named generic user type.
func User(name string, args ...Type) Type {
	return Type{Kind: KindUser, Name: name, Args: args}
}

// Nullable returns a copy of t with MayBeNull set to true. Calling it
// on a Ref panics, preserving the Ref-is-never-nullable invariant.
func (t Type) Nullable() Type {
	if t.Kind == KindRef {
		panic("types: Ref types are never nullable")
	}
	t.MayBeNull = true
	return t
}

// NotNullable returns a copy of t with MayBeNull cleared.
func (t Type) NotNullable() Type {
	t.MayBeNull = false
	return t
}

// WithNullable returns a copy of t with MayBeNull set to n.
func (t Type) WithNullable(n bool) Type {
	if n {
		return t.Nullable()
	}
	return t.NotNullable()
}

func (t Type) String() string {
	base := t.baseString()
	if t.MayBeNull {
		return base + "?"
	}
	return base
}

func (t Type) baseString() string {
	switch t.Kind {
	case KindInteger:
		sign := "i"
		if !t.Signed {
			sign = "u"
		}
		return fmt.Sprintf("%s%d", sign, t.Width)
	case KindFloat:
		return fmt.Sprintf("f%d", t.Width)
	case KindRef:
		return fmt.Sprintf("Ref<%s>", t.Elem.String())
	case KindVec:
		return fmt.Sprintf("Vec<%s>", t.Elem.String())
	case KindZSet:
		return fmt.Sprintf("ZSet<%s>", t.Elem.String())
	case KindTuple:
		return fmt.Sprintf("Tuple%s", fieldsString(t.Fields))
	case KindRawTuple:
		return fmt.Sprintf("RawTuple%s", fieldsString(t.Fields))
	case KindUser:
		if len(t.Args) == 0 {
			return t.Name
		}
		return fmt.Sprintf("%s%s", t.Name, fieldsString(t.Args))
	default:
		return t.Kind.String()
	}
}

func fieldsString(fields []Type) string {
	s := "("
	for i, f := range fields {
		if i > 0 {
			s += ", "
		}
		s += f.String()
	}
	return s + ")"
}

// Equal reports whether t and other are structurally identical,
// including nullability.
func (t Type) Equal(other Type) bool {
	if t.Kind != other.Kind || t.MayBeNull != other.MayBeNull {
		return false
	}
	switch t.Kind {
	case KindInteger:
		return t.Width == other.Width && t.Signed == other.Signed
	case KindFloat:
		return t.Width == other.Width
	case KindRef, KindVec, KindZSet:
		return t.Elem.Equal(*other.Elem)
	case KindTuple, KindRawTuple:
		return equalFields(t.Fields, other.Fields)
	case KindUser:
		return t.Name == other.Name && equalFields(t.Args, other.Args)
	default:
		return true
	}
}

func equalFields(a, b []Type) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}

// SameType reports whether t and other are Equal ignoring
// nullability, for comparisons where nullability is handled
// separately from base-type identity.
func SameType(t, other Type) bool {
	return t.NotNullable().Equal(other.NotNullable())
}

// IsNumeric reports whether t's base kind participates in arithmetic
// promotion (Integer, Float, Decimal).
func (t Type) IsNumeric() bool {
	switch t.Kind {
	case KindInteger, KindFloat, KindDecimal:
		return true
	default:
		return false
	}
}
