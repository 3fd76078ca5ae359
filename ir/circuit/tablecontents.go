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

import "github.com/dolthub-labs/sql-dataflow-compiler/ir/types"

// TableSchema is the declared row shape of a base table.
type TableSchema struct {
	Name string
	Elem types.Type // always a Tuple
}

// TableEntry is one row of the table-contents side model: a table's
// schema plus, optionally, a materialized Z-set of rows inserted via
// literal VALUES.
type TableEntry struct {
	Schema  TableSchema
	Content *ZSetLiteral // nil until the first INSERT ... VALUES
}

// TableContents is the side model mapping table name to (schema,
// optional materialized Z-set), mutated only by DDL and DML,
// independent of the operator graph except that DDL may force a
// Source to be created even when no view references the table.
type TableContents struct {
	tables map[string]*TableEntry
}

// NewTableContents returns an empty table-contents model.
func NewTableContents() *TableContents {
	return &TableContents{tables: map[string]*TableEntry{}}
}

// CreateTable declares a new table with the given schema. It returns
// false without modifying the model if the table already exists.
func (t *TableContents) CreateTable(name string, elem types.Type) bool {
	if _, exists := t.tables[name]; exists {
		return false
	}
	t.tables[name] = &TableEntry{Schema: TableSchema{Name: name, Elem: elem}}
	return true
}

// DropTable removes a table and its materialized contents, if any.
// It returns false if the table did not exist.
func (t *TableContents) DropTable(name string) bool {
	if _, exists := t.tables[name]; !exists {
		return false
	}
	delete(t.tables, name)
	return true
}

// Lookup returns the TableEntry for name, or nil if it doesn't exist.
func (t *TableContents) Lookup(name string) *TableEntry {
	return t.tables[name]
}

// Insert appends rows (each already weight-1) into table name's
// materialized contents, creating an empty Z-set first if this is the
// table's first insert. It panics if the table was never created;
// callers are expected to have validated this against the upstream
// plan already (TranslationError territory, not a TableContents
// concern).
func (t *TableContents) Insert(name string, rows [][]interface{}) {
	entry, ok := t.tables[name]
	if !ok {
		panic("circuit: Insert into undeclared table " + name)
	}
	if entry.Content == nil {
		entry.Content = &ZSetLiteral{}
	}
	for _, row := range rows {
		entry.Content.Rows = append(entry.Content.Rows, row)
		entry.Content.Weights = append(entry.Content.Weights, 1)
	}
}

// InsertFromSelect copies the materialized contents of table src into
// table dst (the `INSERT INTO t (SELECT * FROM s)` form). It is a
// no-op if src has no materialized contents yet.
func (t *TableContents) InsertFromSelect(dst, src string) {
	srcEntry, ok := t.tables[src]
	if !ok || srcEntry.Content == nil {
		return
	}
	dstEntry, ok := t.tables[dst]
	if !ok {
		panic("circuit: InsertFromSelect into undeclared table " + dst)
	}
	if dstEntry.Content == nil {
		dstEntry.Content = &ZSetLiteral{}
	}
	dstEntry.Content.Rows = append(dstEntry.Content.Rows, srcEntry.Content.Rows...)
	dstEntry.Content.Weights = append(dstEntry.Content.Weights, srcEntry.Content.Weights...)
}
