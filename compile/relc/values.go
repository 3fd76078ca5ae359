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

package relc

import (
	"fmt"

	"github.com/spf13/cast"

	"github.com/dolthub-labs/sql-dataflow-compiler/ir/circuit"
	"github.com/dolthub-labs/sql-dataflow-compiler/ir/types"
	"github.com/dolthub-labs/sql-dataflow-compiler/ircompile/errkind"
	"github.com/dolthub-labs/sql-dataflow-compiler/relplan"
)

// compileValues materializes a constant Z-set of n's rows, cast to
// the declared column types, and emits a Constant operator. The DML
// form, which hands the materialized Z-set straight to the
// table-contents model instead, is handled separately by
// MaterializeValues, called directly from statement compilation.
func (c *Compiler) compileValues(n *relplan.Values) (circuit.Operator, error) {
	elem, err := schemaTupleType(n.Sch)
	if err != nil {
		return nil, err
	}
	lit, err := MaterializeValues(n, elem)
	if err != nil {
		return nil, err
	}
	return c.Partial.Append(circuit.NewConstant(*lit, elem, origin(n))), nil
}

// MaterializeValues evaluates every row of a Values node into a
// circuit.ZSetLiteral of weight-1 rows, cast to elem's field types.
// Only literal entries are supported: VALUES rows in this core are
// always constant-foldable by the time they reach the compiler, since
// general expression evaluation is the runtime's concern, not this
// core's.
func MaterializeValues(n *relplan.Values, elem types.Type) (*circuit.ZSetLiteral, error) {
	lit := &circuit.ZSetLiteral{}
	for _, row := range n.Rows {
		vals := make([]interface{}, len(row))
		for i, e := range row {
			v, err := evalLiteral(e, elem.Fields[i])
			if err != nil {
				return nil, err
			}
			vals[i] = v
		}
		lit.Rows = append(lit.Rows, vals)
		lit.Weights = append(lit.Weights, 1)
	}
	return lit, nil
}

func evalLiteral(n relplan.ScalarNode, target types.Type) (interface{}, error) {
	lit, ok := n.(*relplan.Literal)
	if !ok {
		return nil, errkind.Fatal(errkind.Unimplemented.New(
			fmt.Sprintf("non-literal VALUES entry %T", n)))
	}
	if lit.Value == nil {
		return nil, nil
	}
	switch target.Kind {
	case types.KindInteger:
		if target.Signed {
			return cast.ToInt64E(lit.Value)
		}
		return cast.ToUint64E(lit.Value)
	case types.KindFloat:
		return cast.ToFloat64E(lit.Value)
	case types.KindString, types.KindKeyword:
		return cast.ToStringE(lit.Value)
	case types.KindBool:
		return cast.ToBoolE(lit.Value)
	default:
		return lit.Value, nil
	}
}
