/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package script parses game files into per-fork conditional trees.
//
// A game file is UTF-8 plain text. Lines starting with '@' open a fork; text
// above the first '@' line is the options header. Within a fork, `if` /
// `endif` pairs nest into a ParseNode tree; `//` comments are stripped first.
//
// Two scanning exemptions apply throughout: tokens inside a `{ }` output
// literal on the same line are ignored, and any line containing '@' (an
// option line) is exempt from comment and if/endif scanning. The second rule
// intentionally also shields lines whose '@' sits inside braced output text;
// that matches the original engine and is a documented limitation.
package script

import (
	"os"
	"regexp"
	"sort"
	"strings"
)

var (
	reIf    = regexp.MustCompile(`\bif\b`)
	reEndif = regexp.MustCompile(`\bendif\b`)
)

// Parse reads and parses the game file at path.
func Parse(path string) (*Game, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, parseErr(ErrFileNotFound, path, "", "%v", err)
	}
	return ParseString(string(data), path)
}

// ParseString parses game file content. path is recorded for relative
// resource resolution and error messages only.
func ParseString(src, path string) (*Game, error) {
	if strings.TrimSpace(src) == "" {
		return nil, parseErr(ErrEmptyFile, path, "", "no content")
	}

	lines := strings.Split(src, "\n")
	for i, l := range lines {
		l = strings.TrimSuffix(l, "\r")
		lines[i] = strings.TrimRight(l, " \t")
	}

	g := &Game{Path: path, Forks: NewForkTable()}

	// Partition by fork headers.
	type entry struct {
		name string
		body []string
	}
	var entries []entry
	var header []string
	for _, l := range lines {
		if strings.HasPrefix(l, "@") {
			name := NormalizeName(l[1:])
			if name == "" {
				return nil, parseErr(ErrEmptyForkName, path, "", "header %q", l)
			}
			for _, e := range entries {
				if e.name == name {
					return nil, parseErr(ErrDuplicateFork, path, name, "")
				}
			}
			entries = append(entries, entry{name: name})
			continue
		}
		if len(entries) == 0 {
			header = append(header, l)
			continue
		}
		entries[len(entries)-1].body = append(entries[len(entries)-1].body, l)
	}
	g.Header = strings.Join(header, "\n")
	if len(entries) == 0 {
		return nil, parseErr(ErrEmptyFile, path, "", "no fork headers")
	}

	for _, e := range entries {
		body := stripComments(strings.Join(e.body, "\n"))
		root, err := buildTree(body, path, e.name)
		if err != nil {
			return nil, err
		}
		if err := g.Forks.Add(e.name, root); err != nil {
			return nil, parseErr(ErrDuplicateFork, path, e.name, "")
		}
	}
	return g, nil
}

// stripComments removes `//` comments from an entry body. A `//` counts as a
// comment only when it is outside `{ }` on its line and the line contains no
// '@'. Deletion restarts the scan because indices move; the result is stable
// under repeated application.
func stripComments(entry string) string {
	for {
		removed := false
		from := 0
		for {
			p := strings.Index(entry[from:], "//")
			if p < 0 {
				break
			}
			p += from
			lineStart := strings.LastIndexByte(entry[:p], '\n') + 1
			lineEnd := strings.IndexByte(entry[p:], '\n')
			if lineEnd < 0 {
				lineEnd = len(entry)
			} else {
				lineEnd += p
			}
			line := entry[lineStart:lineEnd]
			if strings.ContainsRune(line, '@') || insideBraces(line, p-lineStart) {
				from = p + 2
				continue
			}
			entry = entry[:p] + entry[lineEnd:]
			removed = true
			break
		}
		if !removed {
			return entry
		}
	}
}

// insideBraces reports whether offset off in line falls inside a `{ }` span.
func insideBraces(line string, off int) bool {
	depth := 0
	for i := 0; i < off && i < len(line); i++ {
		switch line[i] {
		case '{':
			depth++
		case '}':
			if depth > 0 {
				depth--
			}
		}
	}
	return depth > 0
}

type matchKind int

const (
	matchIf matchKind = iota
	matchEndif
)

type match struct {
	kind matchKind
	pos  int
}

// buildTree scans if/endif tokens in an entry body and folds the text between
// them into a ParseNode tree rooted at a single unconditional node.
func buildTree(body, path, fork string) (*ParseNode, error) {
	ifs := tokenPositions(body, reIf)
	endifs := tokenPositions(body, reEndif)

	if len(ifs) != len(endifs) {
		return nil, parseErr(ErrUnbalancedIf, path, fork, "%d if, %d endif", len(ifs), len(endifs))
	}

	root := &ParseNode{}
	if len(ifs) == 0 {
		root.Text = body
		return root, nil
	}

	var ms []match
	for _, p := range ifs {
		ms = append(ms, match{matchIf, p})
	}
	for _, p := range endifs {
		ms = append(ms, match{matchEndif, p})
	}
	sort.Slice(ms, func(i, j int) bool { return ms[i].pos < ms[j].pos })

	cur := root
	bound := 0
	for _, m := range ms {
		if m.pos < bound {
			return nil, parseErr(ErrMultipleOnLine, path, fork, "at offset %d", m.pos)
		}
		if txt := body[bound:m.pos]; strings.TrimSpace(txt) != "" {
			cur.Children = append(cur.Children, &ParseNode{Text: txt, parent: cur})
		}
		lineEnd := strings.IndexByte(body[m.pos:], '\n')
		if lineEnd < 0 {
			lineEnd = len(body)
		} else {
			lineEnd += m.pos
		}
		switch m.kind {
		case matchIf:
			child := &ParseNode{Condition: body[m.pos:lineEnd], parent: cur}
			cur.Children = append(cur.Children, child)
			cur = child
		case matchEndif:
			if cur.parent == nil {
				return nil, parseErr(ErrUnbalancedIf, path, fork, "endif with no open if")
			}
			cur = cur.parent
		}
		bound = lineEnd
		if bound < len(body) {
			bound++ // past the newline
		}
	}
	if cur != root {
		return nil, parseErr(ErrUnbalancedIf, path, fork, "unclosed if")
	}
	if txt := body[bound:]; strings.TrimSpace(txt) != "" {
		root.Children = append(root.Children, &ParseNode{Text: txt, parent: root})
	}
	return root, nil
}

// tokenPositions finds re matches in body, skipping matches inside `{ }` and
// matches on option lines (any line containing '@').
func tokenPositions(body string, re *regexp.Regexp) []int {
	var out []int
	for _, loc := range re.FindAllStringIndex(body, -1) {
		p := loc[0]
		lineStart := strings.LastIndexByte(body[:p], '\n') + 1
		lineEnd := strings.IndexByte(body[p:], '\n')
		if lineEnd < 0 {
			lineEnd = len(body)
		} else {
			lineEnd += p
		}
		line := body[lineStart:lineEnd]
		if strings.ContainsRune(line, '@') || insideBraces(line, p-lineStart) {
			continue
		}
		out = append(out, p)
	}
	return out
}
