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

package scalarc

import (
	"github.com/dolthub-labs/sql-dataflow-compiler/ir/expr"
	"github.com/dolthub-labs/sql-dataflow-compiler/ir/types"
	"github.com/dolthub-labs/sql-dataflow-compiler/relplan"
)

// compileCase lowers both SQL CASE forms, building
// a right-to-left chain of If nodes ending at ELSE (or a declared-type
// NULL literal when no ELSE was given):
//
//   - switched form (Subject != nil): each branch compares Subject
//     against its Cond by equality.
//   - condition form (Subject == nil): each branch's Cond is the
//     predicate directly, WRAP_BOOL-wrapped so a NULL predicate is
//     treated as false rather than propagating NULL through the If.
func (c *Compiler) compileCase(n *relplan.Case) (expr.Expr, error) {
	declared, err := convertType(n.Typ)
	if err != nil {
		return nil, err
	}

	var subject expr.Expr
	if n.Subject != nil {
		subject, err = c.Compile(n.Subject)
		if err != nil {
			return nil, err
		}
	}

	acc, err := c.caseElse(n.Else, declared)
	if err != nil {
		return nil, err
	}

	for i := len(n.Branches) - 1; i >= 0; i-- {
		branch := n.Branches[i]

		then, err := c.Compile(branch.Then)
		if err != nil {
			return nil, err
		}
		then = expr.CastTo(then, declared)

		cond, err := c.caseBranchCond(subject, branch.Cond)
		if err != nil {
			return nil, err
		}
		if cond.Type().MayBeNull {
			cond = expr.NewUnary(expr.WRAP_BOOL, cond, types.Bool)
		}

		acc = expr.NewIf(cond, then, acc)
	}

	return acc, nil
}

func (c *Compiler) caseElse(elseNode relplan.ScalarNode, declared types.Type) (expr.Expr, error) {
	if elseNode == nil {
		return expr.NewLiteral(nil, declared), nil
	}
	e, err := c.Compile(elseNode)
	if err != nil {
		return nil, err
	}
	return expr.CastTo(e, declared), nil
}

func (c *Compiler) caseBranchCond(subject expr.Expr, condNode relplan.ScalarNode) (expr.Expr, error) {
	if subject == nil {
		return c.Compile(condNode)
	}
	when, err := c.Compile(condNode)
	if err != nil {
		return nil, err
	}
	return makeComparisonExpression(expr.EQ, subject, when)
}
