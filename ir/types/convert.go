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

package types

import (
	"fmt"

	querypb "github.com/dolthub/vitess/go/vt/proto/query"

	"github.com/dolthub-labs/sql-dataflow-compiler/ircompile/errkind"
)

// ConvertType lowers an upstream wire type (querypb.Type, the enum
// the MySQL-dialect planner emits) plus a nullability bit into the
// circuit IR's Type.
func ConvertType(wire querypb.Type, mayBeNull bool) (Type, error) {
	var base Type
	switch wire {
	case querypb.Type_NULL_TYPE:
		return Null, nil
	case querypb.Type_UINT8:
		// The upstream planner has no boolean wire type; it encodes
		// BOOLEAN as an unsigned tinyint, so predicates and comparison
		// results arrive declared as UINT8.
		base = Bool
	case querypb.Type_INT8, querypb.Type_INT16:
		base = I16
	case querypb.Type_UINT16:
		base = U16
	case querypb.Type_INT24, querypb.Type_INT32:
		base = I32
	case querypb.Type_UINT24, querypb.Type_UINT32:
		base = U32
	case querypb.Type_INT64:
		base = I64
	case querypb.Type_UINT64:
		base = U64
	case querypb.Type_FLOAT32:
		base = F32
	case querypb.Type_FLOAT64:
		base = F64
	case querypb.Type_DECIMAL:
		base = Decimal
	case querypb.Type_YEAR:
		base = U16
	case querypb.Type_CHAR, querypb.Type_VARCHAR, querypb.Type_TEXT,
		querypb.Type_BINARY, querypb.Type_VARBINARY, querypb.Type_BLOB,
		querypb.Type_BIT, querypb.Type_ENUM, querypb.Type_SET, querypb.Type_JSON:
		base = String
	case querypb.Type_DATE:
		base = Date
	case querypb.Type_DATETIME, querypb.Type_TIMESTAMP:
		base = Timestamp
	case querypb.Type_TIME:
		base = MillisInterval
	case querypb.Type_GEOMETRY:
		base = GeoPoint
	default:
		return Type{}, errkind.Fatal(errkind.Unimplemented.New(
			fmt.Sprintf("wire type %s has no circuit-IR equivalent", wire)))
	}
	return base.WithNullable(mayBeNull), nil
}
