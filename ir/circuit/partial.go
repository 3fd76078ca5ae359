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

import "fmt"

// PartialCircuit is an in-progress, mutable DAG of operators. It is
// append-only: operators are never removed or
// mutated once appended, only the two name indices change as views
// and sources are declared. It owns every operator it holds until
// Seal transfers ownership to a Sealed circuit and resets it.
type PartialCircuit struct {
	operators []Operator
	nextID    ID

	inputsByName  map[string]Operator // declared table name -> Source
	outputsByName map[string]Operator // declared view name -> Sink|Noop
}

// NewPartialCircuit returns an empty partial circuit.
func NewPartialCircuit() *PartialCircuit {
	return &PartialCircuit{
		inputsByName:  map[string]Operator{},
		outputsByName: map[string]Operator{},
	}
}

// Append adds op to the circuit, assigning it the next ID, and
// returns it back for convenient chaining at call sites
// (`op := c.Append(circuit.NewMap(...))`).
func (c *PartialCircuit) Append(op Operator) Operator {
	if s, ok := op.(interface{ setID(ID) }); ok {
		s.setID(c.nextID)
		c.nextID++
	}
	c.operators = append(c.operators, op)
	return op
}

// Operators returns every operator appended so far, in append order
// (which is always a valid topological order).
func (c *PartialCircuit) Operators() []Operator {
	return c.operators
}

// RegisterInput records src as the Source for the declared table
// name tbl. Re-registering the same name replaces the prior entry
// (used when a table is dropped and re-created).
func (c *PartialCircuit) RegisterInput(tbl string, src Operator) {
	c.inputsByName[tbl] = src
}

// Input looks up the Source registered for table name tbl.
func (c *PartialCircuit) Input(tbl string) (Operator, bool) {
	op, ok := c.inputsByName[tbl]
	return op, ok
}

// RegisterOutput records out as the Sink/Noop for the declared view
// name. It returns a plain "<name> is already defined" error if name
// is already registered; the circuit invariant is that each named
// output appears once.
func (c *PartialCircuit) RegisterOutput(name string, out Operator) error {
	if _, exists := c.outputsByName[name]; exists {
		return fmt.Errorf("%s is already defined", name)
	}
	c.outputsByName[name] = out
	return nil
}

// Output looks up the Sink/Noop registered for view name.
func (c *PartialCircuit) Output(name string) (Operator, bool) {
	op, ok := c.outputsByName[name]
	return op, ok
}

// HasOutput reports whether name is already a registered view name.
func (c *PartialCircuit) HasOutput(name string) bool {
	_, ok := c.outputsByName[name]
	return ok
}

// Seal produces an immutable Sealed circuit from the operators
// appended so far, then resets this PartialCircuit to empty so the
// next statement starts clean. name is cosmetic,
// carried onto the Sealed value for diagnostics.
func (c *PartialCircuit) Seal(name string) *Sealed {
	sealed := &Sealed{
		Name:      name,
		Operators: c.operators,
		Inputs:    copyNamed(c.inputsByName),
		Outputs:   copyNamed(c.outputsByName),
	}
	c.operators = nil
	c.nextID = 0
	c.inputsByName = map[string]Operator{}
	c.outputsByName = map[string]Operator{}
	return sealed
}

func copyNamed(m map[string]Operator) map[string]Operator {
	out := make(map[string]Operator, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
