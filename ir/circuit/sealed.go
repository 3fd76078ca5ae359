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
	"fmt"
	"sort"

	"github.com/dolthub-labs/sql-dataflow-compiler/ir/types"
)

// Sealed is an immutable, named DAG obtained from a PartialCircuit by
// Seal. Back-ends are handed exactly this shape: an
// ordered list of named inputs, an ordered list of named outputs, and
// the full operator set forming a DAG. Serialization and
// rendering to a target language are out of scope.
type Sealed struct {
	Name      string
	Operators []Operator
	Inputs    map[string]Operator // table name -> Source
	Outputs   map[string]Operator // view name -> Sink|Noop
}

// NamedInput is one entry of Sealed's ordered input list.
type NamedInput struct {
	Name string
	Op   Operator
}

// NamedOutput is one entry of Sealed's ordered output list.
type NamedOutput struct {
	Name string
	Op   Operator
}

// SortedInputs returns Inputs as a name-ordered slice, the
// presentation back-ends consume.
func (s *Sealed) SortedInputs() []NamedInput {
	names := make([]string, 0, len(s.Inputs))
	for n := range s.Inputs {
		names = append(names, n)
	}
	sort.Strings(names)
	out := make([]NamedInput, len(names))
	for i, n := range names {
		out[i] = NamedInput{n, s.Inputs[n]}
	}
	return out
}

// SortedOutputs returns Outputs as a name-ordered slice.
func (s *Sealed) SortedOutputs() []NamedOutput {
	names := make([]string, 0, len(s.Outputs))
	for n := range s.Outputs {
		names = append(names, n)
	}
	sort.Strings(names)
	out := make([]NamedOutput, len(names))
	for i, n := range names {
		out[i] = NamedOutput{n, s.Outputs[n]}
	}
	return out
}

// ValidateTopology checks that every operator's inputs appear earlier
// than it in Operators' order (append order is always a valid
// topological order), and that no operator's element type still
// contains an unresolved Any. It returns the first violation found,
// or nil if none.
func (s *Sealed) ValidateTopology() error {
	position := make(map[ID]int, len(s.Operators))
	for i, op := range s.Operators {
		position[op.OpID()] = i
	}
	for i, op := range s.Operators {
		for _, in := range op.Inputs() {
			pos, ok := position[in.OpID()]
			if !ok {
				return fmt.Errorf("operator %d (%s): input %d not present in circuit", op.OpID(), op.Kind(), in.OpID())
			}
			if pos >= i {
				return fmt.Errorf("operator %d (%s): input %d does not appear earlier in topological order", op.OpID(), op.Kind(), in.OpID())
			}
		}
		if elem := op.OutputType(); containsAny(*elem.Elem) {
			return fmt.Errorf("operator %d (%s): element type %s contains an unresolved Any", op.OpID(), op.Kind(), elem.Elem)
		}
	}
	return nil
}

// containsAny walks t looking for an unresolved Any. Any is a
// placeholder type variable; a sealed circuit must have bound every
// one of them to a concrete type before back-ends see it.
func containsAny(t types.Type) bool {
	if t.Kind == types.KindAny {
		return true
	}
	if t.Elem != nil && containsAny(*t.Elem) {
		return true
	}
	for _, f := range t.Fields {
		if containsAny(f) {
			return true
		}
	}
	for _, a := range t.Args {
		if containsAny(a) {
			return true
		}
	}
	return false
}
