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

package relplan

// Statement is the tagged union compile.Compiler.CompileStatement
// accepts: CreateTable, DropTable, CreateView, or
// Insert (the TableModify(Insert) arm; this core only supports the
// insert form of table modification).
type Statement interface {
	isStatement()
}

// CreateTable declares a new base table with the given schema. DDL
// may force Source-operator creation even when no view ever scans
// the table.
type CreateTable struct {
	Name string
	Sch  []Field
}

func (*CreateTable) isStatement() {}

// DropTable removes a previously declared table and its materialized
// contents, if any.
type DropTable struct {
	Name string
}

func (*DropTable) isStatement() {}

// CreateView declares a named view over Query. Whether it is surfaced
// as a visible circuit output or compiled as a suppressed Noop is
// controlled by the compiler's sticky SetNextViewVisible toggle
//, not by this statement itself.
type CreateView struct {
	Name  string
	Query Node
}

func (*CreateView) isStatement() {}

// Insert is the TableModify(Insert) arm of the statement union: rows
// are taken either from a literal Values node or copied wholesale
// from another declared table via a TableScan source (the
// `INSERT INTO t (SELECT * FROM s)` form).
type Insert struct {
	TableName string
	Source    Node
}

func (*Insert) isStatement() {}
