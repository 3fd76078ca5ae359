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

// Package relplan is the input relational plan IR: a concrete Go
// representation of the normalized, decorrelated relational plan
// produced upstream by the parser and optimizer. The compiler
// packages consume relplan.Node/ScalarNode trees and never mutate
// them. The nodes are pure data: plan execution belongs to the
// runtime, not this compiler.
package relplan

import querypb "github.com/dolthub/vitess/go/vt/proto/query"

// Type is the upstream relational type descriptor: a MySQL wire type
// plus a nullability bit. ir/types.ConvertType consumes exactly this
// shape.
type Type struct {
	Wire     querypb.Type
	Nullable bool
}

func (t Type) String() string {
	s := t.Wire.String()
	if t.Nullable {
		return s + " NULL"
	}
	return s + " NOT NULL"
}

// WithNullable returns a copy of t with the nullability bit set to n.
func (t Type) WithNullable(n bool) Type {
	t.Nullable = n
	return t
}
