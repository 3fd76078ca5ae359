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

// Package compile exposes the compiler's external interface
// (ConvertType, CompileStatement, FinalizeCircuit,
// SetNextViewVisible) over compile/relc's relational-to-circuit
// visitor, adding statement-level tracing, the table-contents side
// model, and the sticky view-visibility toggle.
package compile

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/trace"

	"github.com/dolthub-labs/sql-dataflow-compiler/compile/relc"
	"github.com/dolthub-labs/sql-dataflow-compiler/diag"
	"github.com/dolthub-labs/sql-dataflow-compiler/ir/circuit"
	"github.com/dolthub-labs/sql-dataflow-compiler/ir/types"
	"github.com/dolthub-labs/sql-dataflow-compiler/ircompile/errkind"
	"github.com/dolthub-labs/sql-dataflow-compiler/relplan"
)

// TypeResolver lowers an upstream relplan.Type into the core's closed
// type universe. The default resolver is types.ConvertType; callers
// may inject a different one (e.g. one backed by a catalog of
// user-defined types) without the core depending on that catalog.
type TypeResolver func(relplan.Type) (types.Type, error)

// ResultKind tags which arm of a CompileStatement Result is populated.
type ResultKind int

const (
	ResultNone ResultKind = iota
	ResultMaterialized
	ResultViewOperator
)

// MaterializedRow is one (row, weight) entry of a materialized Z-set
// delta, the shape CompileStatement returns for an Insert statement.
type MaterializedRow struct {
	Values []interface{}
	Weight int64
}

// Result is the tagged return value of CompileStatement.
type Result struct {
	Kind     ResultKind
	Rows     []MaterializedRow // populated when Kind == ResultMaterialized
	Operator circuit.Operator  // populated when Kind == ResultViewOperator
}

// Compiler is the single compilation entry point. It is not safe for
// concurrent use by multiple goroutines: it mutates one partial
// circuit, one table-contents model, and one view-visibility toggle
// per statement, strictly sequentially.
type Compiler struct {
	Partial  *circuit.PartialCircuit
	Tables   *circuit.TableContents
	Reporter diag.Reporter
	Tracer   trace.Tracer
	Resolve  TypeResolver

	relc *relc.Compiler

	nextViewVisible bool
}

// New returns a Compiler with a fresh partial circuit and table
// contents model. A nil reporter, tracer, or resolver falls back to a
// no-op/default implementation.
func New(reporter diag.Reporter, tracer trace.Tracer, resolve TypeResolver) *Compiler {
	if reporter == nil {
		reporter = diag.NopReporter{}
	}
	if tracer == nil {
		tracer = trace.NewNoopTracerProvider().Tracer("sql_to_dataflow")
	}
	if resolve == nil {
		resolve = func(t relplan.Type) (types.Type, error) { return types.ConvertType(t.Wire, t.Nullable) }
	}
	partial := circuit.NewPartialCircuit()
	tables := circuit.NewTableContents()
	return &Compiler{
		Partial:         partial,
		Tables:          tables,
		Reporter:        reporter,
		Tracer:          tracer,
		Resolve:         resolve,
		relc:            relc.New(partial, tables, reporter),
		nextViewVisible: true,
	}
}

// ConvertType lowers an upstream relational type descriptor into the
// core's type universe.
func (c *Compiler) ConvertType(t relplan.Type) (types.Type, error) {
	return c.Resolve(t)
}

// SetNextViewVisible is the sticky toggle consumed by the next
// CREATE VIEW statement: when set false, that view's
// Sink is replaced by a suppressed Noop, so the view still memoizes
// and can be referenced by later statements without becoming a named
// circuit output. The toggle reverts to visible=true immediately
// after being consumed.
func (c *Compiler) SetNextViewVisible(visible bool) {
	c.nextViewVisible = visible
}

// CompileStatement compiles one statement, wrapped in a tracing span.
func (c *Compiler) CompileStatement(stmt relplan.Statement) (Result, error) {
	_, span := c.Tracer.Start(context.Background(), "sql_to_dataflow.compile_statement")
	defer span.End()

	switch s := stmt.(type) {
	case *relplan.CreateTable:
		return c.compileCreateTable(s)
	case *relplan.DropTable:
		return c.compileDropTable(s)
	case *relplan.CreateView:
		return c.compileCreateView(s)
	case *relplan.Insert:
		return c.compileInsert(s)
	default:
		return Result{}, errkind.Fatal(errkind.Unimplemented.New(fmt.Sprintf("statement %T", s)))
	}
}

// FinalizeCircuit seals and resets the partial circuit.
func (c *Compiler) FinalizeCircuit(name string) (*circuit.Sealed, error) {
	return c.Partial.Seal(name), nil
}

// compileCreateTable declares a table in the table-contents model and
// forces a Source operator even when nothing yet scans the table.
func (c *Compiler) compileCreateTable(s *relplan.CreateTable) (Result, error) {
	elem, err := c.schemaTupleType(s.Sch)
	if err != nil {
		return Result{}, err
	}
	if !c.Tables.CreateTable(s.Name, elem) {
		return Result{}, errkind.Fatal(errkind.Translation.New(fmt.Sprintf("table %s is already defined", s.Name)))
	}
	if _, ok := c.Partial.Input(s.Name); !ok {
		src := c.Partial.Append(circuit.NewSource(s.Name, elem, stmtOrigin{"CreateTable " + s.Name}))
		c.Partial.RegisterInput(s.Name, src)
	}
	return Result{Kind: ResultNone}, nil
}

func (c *Compiler) compileDropTable(s *relplan.DropTable) (Result, error) {
	if !c.Tables.DropTable(s.Name) {
		return Result{}, errkind.Fatal(errkind.Translation.New(fmt.Sprintf("table %s is not defined", s.Name)))
	}
	return Result{Kind: ResultNone}, nil
}

// compileCreateView lowers Query and registers it as a named circuit
// output, unless the name is already taken: a DuplicateDefinition is
// reported as a diagnostic and the redefinition is dropped, not
// propagated as an error.
func (c *Compiler) compileCreateView(s *relplan.CreateView) (Result, error) {
	visible := c.nextViewVisible
	c.nextViewVisible = true

	if c.Partial.HasOutput(s.Name) {
		c.Reporter.Report(diag.Position{}, diag.SeverityWarning, "duplicate view definition",
			errkind.DuplicateDefinition.New(s.Name).Error())
		return Result{Kind: ResultNone}, nil
	}

	op, err := c.relc.CompileNode(s.Query)
	if err != nil {
		return Result{}, err
	}

	var out circuit.Operator
	if visible {
		out = c.Partial.Append(circuit.NewSink(s.Name, op, stmtOrigin{"CreateView " + s.Name}))
	} else {
		out = c.Partial.Append(circuit.NewNoop(s.Name, op, stmtOrigin{"CreateView " + s.Name}))
	}
	if err := c.Partial.RegisterOutput(s.Name, out); err != nil {
		return Result{}, errkind.Fatal(errkind.DuplicateDefinition.New(s.Name))
	}
	return Result{Kind: ResultViewOperator, Operator: op}, nil
}

// compileInsert materializes rows straight into the table-contents
// model rather than emitting any operator: a literal
// VALUES source is evaluated via relc.MaterializeValues, while an
// `INSERT INTO t (SELECT * FROM s)` source copies s's already
// materialized contents wholesale. The returned Result carries the
// delta just inserted, not the table's full contents.
func (c *Compiler) compileInsert(s *relplan.Insert) (Result, error) {
	entry := c.Tables.Lookup(s.TableName)
	if entry == nil {
		return Result{}, errkind.Fatal(errkind.Translation.New(fmt.Sprintf("insert into undeclared table %s", s.TableName)))
	}

	switch src := s.Source.(type) {
	case *relplan.Values:
		lit, err := relc.MaterializeValues(src, entry.Schema.Elem)
		if err != nil {
			return Result{}, err
		}
		c.Tables.Insert(s.TableName, lit.Rows)
		return Result{Kind: ResultMaterialized, Rows: zsetRows(lit)}, nil
	case *relplan.TableScan:
		srcEntry := c.Tables.Lookup(src.TableName)
		if srcEntry == nil {
			return Result{}, errkind.Fatal(errkind.Translation.New(fmt.Sprintf("insert from undeclared table %s", src.TableName)))
		}
		c.Tables.InsertFromSelect(s.TableName, src.TableName)
		if srcEntry.Content == nil {
			return Result{Kind: ResultMaterialized}, nil
		}
		return Result{Kind: ResultMaterialized, Rows: zsetRows(srcEntry.Content)}, nil
	default:
		return Result{}, errkind.Fatal(errkind.Unimplemented.New(fmt.Sprintf("insert source %T", src)))
	}
}

func zsetRows(lit *circuit.ZSetLiteral) []MaterializedRow {
	rows := make([]MaterializedRow, len(lit.Rows))
	for i, r := range lit.Rows {
		rows[i] = MaterializedRow{Values: r, Weight: lit.Weights[i]}
	}
	return rows
}

// schemaTupleType converts a relplan schema into a circuit-IR Tuple
// type via the compiler's injected TypeResolver.
func (c *Compiler) schemaTupleType(sch []relplan.Field) (types.Type, error) {
	fields := make([]types.Type, len(sch))
	for i, f := range sch {
		t, err := c.ConvertType(f.Typ)
		if err != nil {
			return types.Type{}, err
		}
		fields[i] = t
	}
	return types.Tuple(fields...), nil
}

// stmtOrigin is the diagnostics-only PlanOrigin attached to operators
// emitted directly by statement compilation (as opposed to those
// emitted by compile/relc's visitor, which carries its own).
type stmtOrigin struct{ label string }

func (s stmtOrigin) String() string { return s.label }
