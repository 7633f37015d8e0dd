/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package eval implements the small infix expression language used by
// `if <expr>` conditions and the right-hand side of `set` assignments.
//
// Supported: decimal literals, `true`/`false`, identifiers bound through
// Register, `+ - * /` with standard precedence, the comparisons
// `= != < <= > >=`, the connectives `and`, `or`, `not`, and parentheses.
// Assignment is never tokenized here; the interpreter splits `set lhs = rhs`
// before calling Evaluate.
//
// The Evaluator is an explicit instance owned by its caller. The caller must
// Reset and re-Register the symbol table before each Evaluate; identifier
// state does not persist across scripts.
package eval

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Error is an evaluation failure with the offending position in the input.
type Error struct {
	Pos int
	Msg string
}

func (e *Error) Error() string { return fmt.Sprintf("expression error at %d: %s", e.Pos, e.Msg) }

func errAt(pos int, format string, args ...any) *Error {
	return &Error{Pos: pos, Msg: fmt.Sprintf(format, args...)}
}

// Evaluator holds the identifier table and per-invocation flags.
type Evaluator struct {
	// IncludeUnknowns makes unregistered identifiers resolve to the Unknown
	// sentinel (substituted by UnknownDefault when set) instead of erroring.
	IncludeUnknowns bool
	// UnknownDefault is substituted for Unknown identifiers when non-zero.
	UnknownDefault Value

	idents map[string]Value
}

// New returns an evaluator with an empty symbol table.
func New() *Evaluator {
	return &Evaluator{idents: make(map[string]Value)}
}

// Reset drops every registered identifier.
func (e *Evaluator) Reset() {
	e.idents = make(map[string]Value)
}

// Register binds an identifier to a value for subsequent Evaluate calls.
func (e *Evaluator) Register(name string, v Value) {
	e.idents[name] = v
}

// Registered reports whether name is currently bound.
func (e *Evaluator) Registered(name string) bool {
	_, ok := e.idents[name]
	return ok
}

// reservedWords are part of the expression language and can never be
// variable names.
var reservedWords = map[string]struct{}{
	"true": {}, "false": {}, "and": {}, "or": {}, "not": {},
}

// Reserved reports whether name is a keyword of the expression language.
func Reserved(name string) bool {
	_, ok := reservedWords[name]
	return ok
}

// Evaluate tokenizes and evaluates expr against the current symbol table.
func (e *Evaluator) Evaluate(expr string) (Value, error) {
	toks, err := tokenize(expr)
	if err != nil {
		return Value{}, err
	}
	p := &parser{ev: e, toks: toks}
	v, err := p.parseOr()
	if err != nil {
		return Value{}, err
	}
	if t := p.peek(); t.kind != tokEOF {
		return Value{}, errAt(t.pos, "unexpected %q", t.text)
	}
	return v, nil
}

// EvaluateBool evaluates expr and coerces the result to a boolean.
// Unknown coerces to false; any other non-boolean result is an error.
func (e *Evaluator) EvaluateBool(expr string) (bool, error) {
	v, err := e.Evaluate(expr)
	if err != nil {
		return false, err
	}
	b, ok := v.AsBool()
	if !ok {
		return false, errAt(0, "expected a boolean result, got %s", v.String())
	}
	return b, nil
}

type tokKind int

const (
	tokEOF tokKind = iota
	tokNumber
	tokIdent
	tokOp
	tokLParen
	tokRParen
)

type token struct {
	kind tokKind
	text string
	pos  int
}

func tokenize(src string) ([]token, error) {
	var toks []token
	i := 0
	for i < len(src) {
		c := src[i]
		switch {
		case c == ' ' || c == '\t':
			i++
		case c == '(':
			toks = append(toks, token{tokLParen, "(", i})
			i++
		case c == ')':
			toks = append(toks, token{tokRParen, ")", i})
			i++
		case c == '+' || c == '-' || c == '*' || c == '/' || c == '=':
			toks = append(toks, token{tokOp, string(c), i})
			i++
		case c == '!':
			if i+1 < len(src) && src[i+1] == '=' {
				toks = append(toks, token{tokOp, "!=", i})
				i += 2
			} else {
				return nil, errAt(i, "stray '!'")
			}
		case c == '<' || c == '>':
			if i+1 < len(src) && src[i+1] == '=' {
				toks = append(toks, token{tokOp, src[i : i+2], i})
				i += 2
			} else {
				toks = append(toks, token{tokOp, string(c), i})
				i++
			}
		case isDigit(c) || (c == '.' && i+1 < len(src) && isDigit(src[i+1])):
			j := i
			for j < len(src) && (isDigit(src[j]) || src[j] == '.') {
				j++
			}
			toks = append(toks, token{tokNumber, src[i:j], i})
			i = j
		case isLetter(c) || c == '_':
			j := i
			for j < len(src) && (isLetter(src[j]) || isDigit(src[j]) || src[j] == '_') {
				j++
			}
			toks = append(toks, token{tokIdent, src[i:j], i})
			i = j
		default:
			return nil, errAt(i, "unexpected character %q", string(c))
		}
	}
	toks = append(toks, token{tokEOF, "", len(src)})
	return toks, nil
}

func isDigit(b byte) bool  { return b >= '0' && b <= '9' }
func isLetter(b byte) bool { return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') }

type parser struct {
	ev   *Evaluator
	toks []token
	idx  int
}

func (p *parser) peek() token { return p.toks[p.idx] }

func (p *parser) next() token {
	t := p.toks[p.idx]
	if t.kind != tokEOF {
		p.idx++
	}
	return t
}

func (p *parser) parseOr() (Value, error) {
	left, err := p.parseAnd()
	if err != nil {
		return Value{}, err
	}
	for {
		t := p.peek()
		if t.kind != tokIdent || t.text != "or" {
			return left, nil
		}
		p.next()
		right, err := p.parseAnd()
		if err != nil {
			return Value{}, err
		}
		lb, lok := left.AsBool()
		rb, rok := right.AsBool()
		if !lok || !rok {
			return Value{}, errAt(t.pos, "'or' requires boolean operands")
		}
		left = Bool(lb || rb)
	}
}

func (p *parser) parseAnd() (Value, error) {
	left, err := p.parseNot()
	if err != nil {
		return Value{}, err
	}
	for {
		t := p.peek()
		if t.kind != tokIdent || t.text != "and" {
			return left, nil
		}
		p.next()
		right, err := p.parseNot()
		if err != nil {
			return Value{}, err
		}
		lb, lok := left.AsBool()
		rb, rok := right.AsBool()
		if !lok || !rok {
			return Value{}, errAt(t.pos, "'and' requires boolean operands")
		}
		left = Bool(lb && rb)
	}
}

func (p *parser) parseNot() (Value, error) {
	t := p.peek()
	if t.kind == tokIdent && t.text == "not" {
		p.next()
		v, err := p.parseNot()
		if err != nil {
			return Value{}, err
		}
		b, ok := v.AsBool()
		if !ok {
			return Value{}, errAt(t.pos, "'not' requires a boolean operand")
		}
		return Bool(!b), nil
	}
	return p.parseComparison()
}

func (p *parser) parseComparison() (Value, error) {
	left, err := p.parseTerm()
	if err != nil {
		return Value{}, err
	}
	for {
		t := p.peek()
		if t.kind != tokOp {
			return left, nil
		}
		switch t.text {
		case "=", "!=", "<", "<=", ">", ">=":
		default:
			return left, nil
		}
		p.next()
		right, err := p.parseTerm()
		if err != nil {
			return Value{}, err
		}
		left, err = compare(t, left, right)
		if err != nil {
			return Value{}, err
		}
	}
}

func compare(t token, left, right Value) (Value, error) {
	ld, lnum := left.AsDecimal()
	rd, rnum := right.AsDecimal()
	switch t.text {
	case "=", "!=":
		var eq bool
		switch {
		case lnum && rnum:
			eq = ld.Equal(rd)
		case left.Kind() == KindBool || right.Kind() == KindBool ||
			left.Kind() == KindUnknown || right.Kind() == KindUnknown:
			lb, lok := left.AsBool()
			rb, rok := right.AsBool()
			if !lok || !rok {
				return Value{}, errAt(t.pos, "operands of %q are not comparable", t.text)
			}
			eq = lb == rb
		default:
			return Value{}, errAt(t.pos, "operands of %q are not comparable", t.text)
		}
		if t.text == "!=" {
			eq = !eq
		}
		return Bool(eq), nil
	default:
		if !lnum || !rnum {
			return Value{}, errAt(t.pos, "%q requires numeric operands", t.text)
		}
		cmp := ld.Cmp(rd)
		switch t.text {
		case "<":
			return Bool(cmp < 0), nil
		case "<=":
			return Bool(cmp <= 0), nil
		case ">":
			return Bool(cmp > 0), nil
		default: // ">="
			return Bool(cmp >= 0), nil
		}
	}
}

func (p *parser) parseTerm() (Value, error) {
	left, err := p.parseFactor()
	if err != nil {
		return Value{}, err
	}
	for {
		t := p.peek()
		if t.kind != tokOp || (t.text != "+" && t.text != "-") {
			return left, nil
		}
		p.next()
		right, err := p.parseFactor()
		if err != nil {
			return Value{}, err
		}
		ld, lok := left.AsDecimal()
		rd, rok := right.AsDecimal()
		if !lok || !rok {
			return Value{}, errAt(t.pos, "%q requires numeric operands", t.text)
		}
		if t.text == "+" {
			left = Dec(ld.Add(rd))
		} else {
			left = Dec(ld.Sub(rd))
		}
	}
}

func (p *parser) parseFactor() (Value, error) {
	left, err := p.parseUnary()
	if err != nil {
		return Value{}, err
	}
	for {
		t := p.peek()
		if t.kind != tokOp || (t.text != "*" && t.text != "/") {
			return left, nil
		}
		p.next()
		right, err := p.parseUnary()
		if err != nil {
			return Value{}, err
		}
		ld, lok := left.AsDecimal()
		rd, rok := right.AsDecimal()
		if !lok || !rok {
			return Value{}, errAt(t.pos, "%q requires numeric operands", t.text)
		}
		if t.text == "*" {
			left = Dec(ld.Mul(rd))
		} else {
			if rd.IsZero() {
				return Value{}, errAt(t.pos, "division by zero")
			}
			left = Dec(ld.Div(rd))
		}
	}
}

func (p *parser) parseUnary() (Value, error) {
	t := p.peek()
	if t.kind == tokOp && t.text == "-" {
		p.next()
		v, err := p.parseUnary()
		if err != nil {
			return Value{}, err
		}
		d, ok := v.AsDecimal()
		if !ok {
			return Value{}, errAt(t.pos, "unary '-' requires a numeric operand")
		}
		return Dec(d.Neg()), nil
	}
	return p.parseAtom()
}

func (p *parser) parseAtom() (Value, error) {
	t := p.next()
	switch t.kind {
	case tokNumber:
		d, err := decimal.NewFromString(t.text)
		if err != nil {
			return Value{}, errAt(t.pos, "bad number %q", t.text)
		}
		return Dec(d), nil
	case tokIdent:
		switch t.text {
		case "true":
			return Bool(true), nil
		case "false":
			return Bool(false), nil
		case "and", "or", "not":
			return Value{}, errAt(t.pos, "unexpected %q", t.text)
		}
		if v, ok := p.ev.idents[strings.ToLower(t.text)]; ok {
			return v, nil
		}
		if p.ev.IncludeUnknowns {
			if p.ev.UnknownDefault.Kind() != KindUnknown {
				return p.ev.UnknownDefault, nil
			}
			return Unknown(), nil
		}
		return Value{}, errAt(t.pos, "unknown identifier %q", t.text)
	case tokLParen:
		v, err := p.parseOr()
		if err != nil {
			return Value{}, err
		}
		c := p.next()
		if c.kind != tokRParen {
			return Value{}, errAt(c.pos, "expected ')'")
		}
		return v, nil
	case tokEOF:
		return Value{}, errAt(t.pos, "unexpected end of expression")
	default:
		return Value{}, errAt(t.pos, "unexpected %q", t.text)
	}
}
