/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package script

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func mustParse(t *testing.T, src string) *Game {
	t.Helper()
	g, err := ParseString(src, "test.txt")
	if err != nil {
		t.Fatalf("ParseString error: %v", err)
	}
	return g
}

func parseKind(t *testing.T, src string) ErrorKind {
	t.Helper()
	_, err := ParseString(src, "test.txt")
	if err == nil {
		t.Fatalf("expected parse error")
	}
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("error is not a ParseError: %v", err)
	}
	return pe.Kind
}

func TestParseMinimalFork(t *testing.T) {
	g := mustParse(t, "@start\n{Hello, world.}")
	if g.Forks.Len() != 1 {
		t.Fatalf("forks = %d, want 1", g.Forks.Len())
	}
	root, ok := g.Forks.Get("start")
	if !ok {
		t.Fatalf("fork start missing")
	}
	if root.Condition != "" {
		t.Fatalf("root must be unconditional, got %q", root.Condition)
	}
	if strings.TrimSpace(root.Text) != "{Hello, world.}" {
		t.Fatalf("root text = %q", root.Text)
	}
}

func TestHeaderAndForkOrder(t *testing.T) {
	g := mustParse(t, "option-color fff\nwindow-width 800\n@ First Fork \n{a}\n@second\n{b}")
	if g.Header != "option-color fff\nwindow-width 800" {
		t.Fatalf("header = %q", g.Header)
	}
	names := g.Forks.Names()
	if len(names) != 2 || names[0] != "firstfork" || names[1] != "second" {
		t.Fatalf("names = %v", names)
	}
	first, _ := g.Forks.First()
	if first != "firstfork" {
		t.Fatalf("first = %q", first)
	}
}

func TestForkNameNormalization(t *testing.T) {
	if NormalizeName(" The  End ") != "theend" {
		t.Fatalf("NormalizeName: %q", NormalizeName(" The  End "))
	}
}

func TestDuplicateForkIsFatal(t *testing.T) {
	if k := parseKind(t, "@a\nx\n@ A \ny"); k != ErrDuplicateFork {
		t.Fatalf("kind = %v", k)
	}
}

func TestEmptyForkNameIsFatal(t *testing.T) {
	if k := parseKind(t, "@\nx"); k != ErrEmptyForkName {
		t.Fatalf("kind = %v", k)
	}
}

func TestEmptyFileIsFatal(t *testing.T) {
	if k := parseKind(t, "   \n\t\n"); k != ErrEmptyFile {
		t.Fatalf("kind = %v", k)
	}
	if k := parseKind(t, "just header text, no forks"); k != ErrEmptyFile {
		t.Fatalf("kind = %v", k)
	}
}

func TestFileNotFound(t *testing.T) {
	_, err := Parse(filepath.Join(t.TempDir(), "missing.txt"))
	var pe *ParseError
	if !errors.As(err, &pe) || pe.Kind != ErrFileNotFound {
		t.Fatalf("err = %v", err)
	}
}

func TestParseFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "game.txt")
	if err := os.WriteFile(path, []byte("@start\r\n{hi}\r\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	g, err := Parse(path)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	root, _ := g.Forks.Get("start")
	if strings.Contains(root.Text, "\r") {
		t.Fatalf("carriage returns not stripped: %q", root.Text)
	}
	if g.Path != path {
		t.Fatalf("path = %q", g.Path)
	}
}

func TestIfTreeConstruction(t *testing.T) {
	src := `@start
set x = 2
if x > 1
{big}
if x > 10
{huge}
endif
{after}
endif
tail`
	g := mustParse(t, src)
	root, _ := g.Forks.Get("start")

	// root: [text(set x = 2), if(x > 1), text(tail)]
	if len(root.Children) != 3 {
		t.Fatalf("root children = %d, want 3", len(root.Children))
	}
	if strings.TrimSpace(root.Children[0].Text) != "set x = 2" {
		t.Fatalf("child 0 text = %q", root.Children[0].Text)
	}
	outer := root.Children[1]
	if outer.Condition != "if x > 1" {
		t.Fatalf("outer condition = %q", outer.Condition)
	}
	if strings.TrimSpace(root.Children[2].Text) != "tail" {
		t.Fatalf("child 2 text = %q", root.Children[2].Text)
	}

	// outer: [text({big}), if(x > 10), text({after})]
	if len(outer.Children) != 3 {
		t.Fatalf("outer children = %d, want 3", len(outer.Children))
	}
	inner := outer.Children[1]
	if inner.Condition != "if x > 10" {
		t.Fatalf("inner condition = %q", inner.Condition)
	}
	if len(inner.Children) != 1 || strings.TrimSpace(inner.Children[0].Text) != "{huge}" {
		t.Fatalf("inner children = %+v", inner.Children)
	}
	if strings.TrimSpace(outer.Children[2].Text) != "{after}" {
		t.Fatalf("outer trailing text = %q", outer.Children[2].Text)
	}
}

// Pre-order concatenation of text leaves plus condition/endif lines must
// reconstruct the entry up to whitespace.
func TestTreePartitionsEntryText(t *testing.T) {
	src := `@start
alpha
if a
beta
endif
gamma`
	g := mustParse(t, src)
	root, _ := g.Forks.Get("start")
	var got []string
	root.Walk(func(n *ParseNode) bool {
		if n.Condition != "" {
			got = append(got, strings.TrimSpace(n.Condition))
		}
		if strings.TrimSpace(n.Text) != "" {
			got = append(got, strings.TrimSpace(n.Text))
		}
		return true
	})
	want := []string{"alpha", "if a", "beta", "gamma"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Fatalf("pre-order spans = %v, want %v", got, want)
	}
}

func TestUnbalancedIfFatal(t *testing.T) {
	if k := parseKind(t, "@a\nif x\n{y}"); k != ErrUnbalancedIf {
		t.Fatalf("kind = %v", k)
	}
	if k := parseKind(t, "@a\n{y}\nendif"); k != ErrUnbalancedIf {
		t.Fatalf("kind = %v", k)
	}
}

func TestEndifBeforeIfFatal(t *testing.T) {
	if k := parseKind(t, "@a\nendif\nif x\n{y}"); k != ErrUnbalancedIf {
		t.Fatalf("kind = %v", k)
	}
}

func TestTwoTokensOnOneLineFatal(t *testing.T) {
	if k := parseKind(t, "@a\nif a\nif b\nx\nendif endif"); k != ErrMultipleOnLine {
		t.Fatalf("kind = %v", k)
	}
}

func TestCommentStripping(t *testing.T) {
	src := "@start\nline one // trailing comment\n// whole line comment\n{keep // this}\nGo@next // kept, option line\n@next\nx"
	g := mustParse(t, src)
	root, _ := g.Forks.Get("start")
	txt := root.Text
	if strings.Contains(txt, "trailing comment") {
		t.Fatalf("trailing comment kept: %q", txt)
	}
	if strings.Contains(txt, "whole line comment") {
		t.Fatalf("whole-line comment kept: %q", txt)
	}
	if !strings.Contains(txt, "{keep // this}") {
		t.Fatalf("comment inside braces must be preserved: %q", txt)
	}
	if !strings.Contains(txt, "Go@next // kept, option line") {
		t.Fatalf("comment on option line must be preserved: %q", txt)
	}
}

func TestCommentStrippingIdempotent(t *testing.T) {
	entry := "a // x\n{b // y}\nc@d // z\nplain"
	once := stripComments(entry)
	twice := stripComments(once)
	if once != twice {
		t.Fatalf("not idempotent: %q vs %q", once, twice)
	}
}

func TestIfInsideBracesIsText(t *testing.T) {
	g := mustParse(t, "@start\n{what if it rains}\n")
	root, _ := g.Forks.Get("start")
	if len(root.Children) != 0 {
		t.Fatalf("braced 'if' must not open a block: %+v", root.Children)
	}
	if !strings.Contains(root.Text, "what if it rains") {
		t.Fatalf("text = %q", root.Text)
	}
}

func TestIfOnOptionLineIsText(t *testing.T) {
	// 'if' on a line containing '@' is exempt from tokenization.
	g := mustParse(t, "@start\nwhat if@next\n@next\nx")
	root, _ := g.Forks.Get("start")
	if len(root.Children) != 0 {
		t.Fatalf("option-line 'if' must not open a block: %+v", root.Children)
	}
}

func TestIfAsSubstringNotTokenized(t *testing.T) {
	g := mustParse(t, "@start\nthe gift endifies nothing\n")
	root, _ := g.Forks.Get("start")
	if len(root.Children) != 0 {
		t.Fatalf("substrings must not tokenize: %+v", root.Children)
	}
}
