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

package expr

// EliminateMulWeight rewrites every MUL_WEIGHT(v, w) node reachable
// from e into MUL(v, Cast(w, type(v))), recursively, shrinking the
// runtime primitive set. The sub-expressions of Struct, Sort and
// Comparator nodes are not searched. It is semantics-preserving: evaluating the
// rewritten tree on any row/weight yields the same result as the
// original MUL_WEIGHT node would have.
func EliminateMulWeight(e Expr) Expr {
	switch n := e.(type) {
	case *Binary:
		left := EliminateMulWeight(n.Left)
		right := EliminateMulWeight(n.Right)
		if n.Op == MUL_WEIGHT {
			return NewBinary(MUL, left, NewCast(right, left.Type()), n.ResultType)
		}
		return NewBinary(n.Op, left, right, n.ResultType)
	case *Unary:
		return NewUnary(n.Op, EliminateMulWeight(n.Operand), n.ResultType)
	case *If:
		return NewIf(EliminateMulWeight(n.Cond), EliminateMulWeight(n.Then), EliminateMulWeight(n.Else))
	case *Cast:
		return NewCast(EliminateMulWeight(n.Inner), n.Target)
	case *Deref:
		return NewDeref(EliminateMulWeight(n.Inner))
	case *Ref:
		return NewRef(EliminateMulWeight(n.Inner))
	case *Clone:
		return NewClone(EliminateMulWeight(n.Inner))
	case *FieldAccess:
		return NewFieldAccess(EliminateMulWeight(n.Inner), n.Index, n.Typ)
	case *Apply:
		args := make([]Expr, len(n.Args))
		for i, a := range n.Args {
			args[i] = EliminateMulWeight(a)
		}
		return NewApply(n.Name, args, n.ResultType)
	case *ApplyMethod:
		args := make([]Expr, len(n.Args))
		for i, a := range n.Args {
			args[i] = EliminateMulWeight(a)
		}
		return NewApplyMethod(n.Name, EliminateMulWeight(n.Receiver), args, n.ResultType)
	case *IndexInto:
		return NewIndexInto(EliminateMulWeight(n.Array), EliminateMulWeight(n.Index), n.Typ)
	case *RawTuple:
		elems := make([]Expr, len(n.Elems))
		for i, el := range n.Elems {
			elems[i] = EliminateMulWeight(el)
		}
		return NewRawTuple(elems)
	case *Tuple:
		elems := make([]Expr, len(n.Elems))
		for i, el := range n.Elems {
			elems[i] = EliminateMulWeight(el)
		}
		return NewTuple(elems)
	case *Closure:
		return NewClosure(n.Name, n.Params, EliminateMulWeight(n.Body))
	default:
		// Literal, Variable, Path: no sub-expressions. Struct, Sort,
		// Comparator: returned unchanged, their sub-expressions are
		// not searched.
		return e
	}
}
