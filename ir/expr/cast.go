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

import "github.com/dolthub-labs/sql-dataflow-compiler/ir/types"

// CastTo wraps e in a Cast node targeting t, unless e already has
// exactly type t, in which case e is returned unchanged. This is the
// `cast(expr, target) -> expr` entry point of the type system, used
// throughout the scalar compiler and relational lowering to satisfy
// the eager-cast type discipline.
func CastTo(e Expr, t types.Type) Expr {
	if e.Type().Equal(t) {
		return e
	}
	return NewCast(e, t)
}
