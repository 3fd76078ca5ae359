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
	"strings"

	"github.com/sanity-io/litter"
)

// TreePrinter renders an operator tree as ASCII art: WriteNode sets
// the current node's label, WriteChildren attaches already-rendered
// child strings, and String returns the final tree text. It is
// diagnostic pretty-printing only, never a back-end renderer
// producing target-language source text.
type TreePrinter struct {
	node     string
	children []string
}

// NewTreePrinter returns an empty TreePrinter.
func NewTreePrinter() *TreePrinter {
	return &TreePrinter{}
}

// WriteNode sets this node's label.
func (p *TreePrinter) WriteNode(format string, args ...interface{}) {
	p.node = fmt.Sprintf(format, args...)
}

// WriteChildren attaches the already-rendered text of each child.
func (p *TreePrinter) WriteChildren(children ...string) {
	p.children = append(p.children, children...)
}

// String renders the tree rooted at this node.
func (p *TreePrinter) String() string {
	var b strings.Builder
	b.WriteString(p.node)
	b.WriteString("\n")
	for i, child := range p.children {
		last := i == len(p.children)-1
		writeChild(&b, child, last, "")
	}
	return b.String()
}

func writeChild(b *strings.Builder, child string, last bool, prefix string) {
	lines := strings.Split(strings.TrimRight(child, "\n"), "\n")
	for i, line := range lines {
		var connector string
		switch {
		case i == 0 && last:
			connector = " └─ "
		case i == 0 && !last:
			connector = " ├─ "
		case last:
			connector = "     "
		default:
			connector = " │   "
		}
		b.WriteString(prefix)
		b.WriteString(connector)
		b.WriteString(line)
		b.WriteString("\n")
	}
}

// DumpOperator renders op and its inputs as a tree, labeling each
// node with its Kind() and OpID().
func DumpOperator(op Operator) string {
	p := NewTreePrinter()
	p.WriteNode("%s#%d", op.Kind(), op.OpID())
	children := make([]string, 0, len(op.Inputs()))
	for _, in := range op.Inputs() {
		children = append(children, DumpOperator(in))
	}
	p.WriteChildren(children...)
	return p.String()
}

// DumpSealed deep-dumps every operator of a sealed circuit via
// sanity-io/litter, for use in tests and local debugging when
// DumpOperator's tree rendering isn't enough detail to see a
// mismatched closure or literal. This never produces target-language
// source text; it is diagnostic pretty-printing only.
func DumpSealed(s *Sealed) string {
	return litter.Sdump(s.Operators)
}
