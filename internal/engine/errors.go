/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package engine

import "fmt"

// FaultKind classifies interpretation failures.
type FaultKind int

const (
	FaultUnknownFork FaultKind = iota
	FaultMissingResource
	FaultMalformedCommand
	FaultNonBooleanCondition
	FaultEvaluation
)

func (k FaultKind) String() string {
	switch k {
	case FaultUnknownFork:
		return "unknown fork"
	case FaultMissingResource:
		return "missing resource"
	case FaultMalformedCommand:
		return "malformed command"
	case FaultNonBooleanCondition:
		return "non-boolean condition"
	case FaultEvaluation:
		return "evaluation error"
	default:
		return "interpret error"
	}
}

// InterpretError is a fatal failure while evaluating a fork. Under strict
// mode it propagates; otherwise the offending construct is skipped.
type InterpretError struct {
	Kind FaultKind
	Fork string
	Msg  string
}

func (e *InterpretError) Error() string {
	s := e.Kind.String()
	if e.Fork != "" {
		s += fmt.Sprintf(" (fork %q)", e.Fork)
	}
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	return s
}
