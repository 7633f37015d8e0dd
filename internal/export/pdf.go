/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package export renders a parsed game file into a readable PDF listing:
// header options, every fork's conditional tree with conditions indented,
// and the option cross-references. An authoring aid, not a play surface.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"forktale/internal/script"
)

// PDFOptions controls the listing export.
type PDFOptions struct {
	Title    string  // document title; defaults to the game file name
	FontSize float64 // body size in points; default 10
}

// WriteGamePDF renders g to a PDF at outPath.
func WriteGamePDF(g *script.Game, outPath string, opt PDFOptions) error {
	if g == nil {
		return fmt.Errorf("game is nil")
	}
	if opt.FontSize <= 0 {
		opt.FontSize = 10
	}
	title := opt.Title
	if title == "" {
		title = filepath.Base(g.Path)
	}

	pdf := gofpdf.New("P", "pt", "A4", "")
	pdf.SetTitle(title, true)
	pdf.SetAuthor("Forktale", false)
	pdf.SetMargins(48, 54, 48)
	pdf.AddPage()

	// Built-in Helvetica keeps text vector without embedding
	pdf.SetFont("Helvetica", "B", opt.FontSize+6)
	pdf.MultiCell(0, opt.FontSize+10, title, "", "L", false)
	pdf.Ln(4)

	body := func(style string, indent float64, text string) {
		pdf.SetFont("Courier", style, opt.FontSize)
		pdf.SetX(pdf.GetX() + indent)
		pdf.MultiCell(0, opt.FontSize+3, text, "", "L", false)
		pdf.SetX(pdf.GetX() - indent)
	}

	if strings.TrimSpace(g.Header) != "" {
		pdf.SetFont("Helvetica", "B", opt.FontSize+2)
		pdf.MultiCell(0, opt.FontSize+6, "Options header", "", "L", false)
		body("", 0, strings.TrimSpace(g.Header))
		pdf.Ln(6)
	}

	for _, name := range g.Forks.Names() {
		root, _ := g.Forks.Get(name)
		pdf.SetFont("Helvetica", "B", opt.FontSize+2)
		pdf.MultiCell(0, opt.FontSize+6, "@"+name, "", "L", false)
		writeNode(pdf, body, root, 0, opt)
		pdf.Ln(6)
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("ensure output dir: %w", err)
	}
	if err := pdf.OutputFileAndClose(outPath); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

func writeNode(pdf *gofpdf.Fpdf, body func(string, float64, string), n *script.ParseNode, depth int, opt PDFOptions) {
	indent := float64(depth) * 14
	if n.Condition != "" {
		body("B", indent, strings.TrimSpace(n.Condition))
	}
	for _, line := range strings.Split(n.Text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		body("", indent, line)
	}
	childDepth := depth
	if n.Condition != "" {
		childDepth++
	}
	for _, c := range n.Children {
		writeNode(pdf, body, c, childDepth, opt)
	}
	if n.Condition != "" {
		body("B", indent, "endif")
	}
}
