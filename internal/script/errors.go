/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package script

import "fmt"

// ErrorKind classifies parse failures.
type ErrorKind int

const (
	ErrFileNotFound ErrorKind = iota
	ErrEmptyFile
	ErrDuplicateFork
	ErrEmptyForkName
	ErrUnbalancedIf
	ErrMultipleOnLine
)

func (k ErrorKind) String() string {
	switch k {
	case ErrFileNotFound:
		return "file not found"
	case ErrEmptyFile:
		return "empty file"
	case ErrDuplicateFork:
		return "duplicate fork"
	case ErrEmptyForkName:
		return "empty fork name"
	case ErrUnbalancedIf:
		return "unbalanced if/endif"
	case ErrMultipleOnLine:
		return "multiple if/endif on one line"
	default:
		return "parse error"
	}
}

// ParseError is a fatal failure of the file parsing stage. Whether it is
// raised or swallowed is decided by the caller's strict-errors flag.
type ParseError struct {
	Kind ErrorKind
	Path string
	Fork string // offending fork, when applicable
	Msg  string
}

func (e *ParseError) Error() string {
	s := e.Kind.String()
	if e.Fork != "" {
		s += fmt.Sprintf(" (fork %q)", e.Fork)
	}
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	if e.Path != "" {
		s += " in " + e.Path
	}
	return s
}

func parseErr(kind ErrorKind, path, fork, format string, args ...any) *ParseError {
	return &ParseError{Kind: kind, Path: path, Fork: fork, Msg: fmt.Sprintf(format, args...)}
}
