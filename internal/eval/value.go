/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package eval

import "github.com/shopspring/decimal"

// Kind enumerates the runtime kinds a Value may hold.
type Kind int

const (
	KindUnknown Kind = iota // sentinel for unregistered identifiers
	KindBool
	KindDecimal
	KindString // intermediate only; never produced by Evaluate
)

// Value is the tagged carrier used by the evaluator and the variable store.
// Decimals are fixed-point (128-bit coefficient) via shopspring/decimal.
type Value struct {
	kind Kind
	b    bool
	d    decimal.Decimal
	s    string
}

// Bool wraps a boolean.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Dec wraps a decimal.
func Dec(d decimal.Decimal) Value { return Value{kind: KindDecimal, d: d} }

// Str wraps a string. Strings only occur as intermediates.
func Str(s string) Value { return Value{kind: KindString, s: s} }

// Unknown is the sentinel for identifiers absent from the symbol table.
func Unknown() Value { return Value{kind: KindUnknown} }

func (v Value) Kind() Kind { return v.kind }

// AsBool returns the boolean payload. Unknown coerces to false in boolean
// context, reported as ok.
func (v Value) AsBool() (val bool, ok bool) {
	switch v.kind {
	case KindBool:
		return v.b, true
	case KindUnknown:
		return false, true
	default:
		return false, false
	}
}

// AsDecimal returns the decimal payload.
func (v Value) AsDecimal() (decimal.Decimal, bool) {
	if v.kind != KindDecimal {
		return decimal.Decimal{}, false
	}
	return v.d, true
}

// String returns the canonical text form: "true"/"false" for booleans,
// the shortest decimal rendering for numbers.
func (v Value) String() string {
	switch v.kind {
	case KindBool:
		if v.b {
			return "true"
		}
		return "false"
	case KindDecimal:
		return v.d.String()
	case KindString:
		return v.s
	default:
		return "unknown"
	}
}

// ParseLiteral converts a canonical string back into a Value: "true"/"false"
// become booleans, anything decimal-parseable becomes a decimal, the rest a
// string.
func ParseLiteral(s string) Value {
	switch s {
	case "true":
		return Bool(true)
	case "false":
		return Bool(false)
	}
	if d, err := decimal.NewFromString(s); err == nil {
		return Dec(d)
	}
	return Str(s)
}
