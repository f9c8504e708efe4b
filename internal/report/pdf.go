package report

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/go-pdf/fpdf"
	"github.com/ternarybob/arbor"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

const (
	pageWidth  = 190.0
	pageBottom = 297.0 - 15.0
	bodySize   = 9.0
	tableSize  = 8.0
	lineHeight = 5.0
)

// PDFRenderer turns the markdown summary into an A4 document.
type PDFRenderer struct {
	logger arbor.ILogger
}

// NewPDFRenderer creates a renderer
func NewPDFRenderer(logger arbor.ILogger) *PDFRenderer {
	return &PDFRenderer{logger: logger}
}

// RenderPDF converts markdown to PDF bytes. title becomes the document title metadata.
func (p *PDFRenderer) RenderPDF(markdown, title string) ([]byte, error) {
	doc := fpdf.New("P", "mm", "A4", "")
	doc.SetMargins(10, 10, 10)
	doc.SetAutoPageBreak(true, 10)
	doc.SetTitle(title, true)
	doc.SetCreator("condor", true)
	doc.AddPage()
	doc.SetFont("Arial", "", bodySize)

	md := goldmark.New(goldmark.WithExtensions(extension.Table))
	source := []byte(markdown)
	root := md.Parser().Parse(text.NewReader(source))

	w := &pdfWriter{
		pdf:    doc,
		source: source,
		tr:     doc.UnicodeTranslatorFromDescriptor(""),
	}
	if err := ast.Walk(root, w.walk); err != nil {
		return nil, fmt.Errorf("failed to render PDF: %w", err)
	}
	if err := doc.Error(); err != nil {
		return nil, fmt.Errorf("failed to render PDF: %w", err)
	}

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		p.logger.Error().Err(err).Msg("Failed to write PDF output")
		return nil, fmt.Errorf("failed to write PDF output: %w", err)
	}

	p.logger.Debug().Int("pdf_size", buf.Len()).Msg("PDF rendered")
	return buf.Bytes(), nil
}

type pdfWriter struct {
	pdf       *fpdf.Fpdf
	source    []byte
	tr        func(string) string
	bold      bool
	listLevel int
}

func (w *pdfWriter) setFont() {
	style := ""
	if w.bold {
		style = "B"
	}
	w.pdf.SetFont("Arial", style, bodySize)
}

func (w *pdfWriter) walk(n ast.Node, entering bool) (ast.WalkStatus, error) {
	switch node := n.(type) {
	case *ast.Heading:
		if entering {
			w.pdf.Ln(4)
			size := 10.0
			switch node.Level {
			case 1:
				size = 15
			case 2:
				size = 12
			case 3:
				size = 10.5
			}
			w.pdf.SetFont("Arial", "B", size)
		} else {
			w.pdf.Ln(7)
			w.setFont()
		}
	case *ast.Paragraph:
		if !entering {
			w.pdf.Ln(6)
		}
	case *ast.Text:
		if entering {
			w.pdf.Write(lineHeight, w.tr(string(node.Segment.Value(w.source))))
			if node.SoftLineBreak() {
				w.pdf.Write(lineHeight, " ")
			}
		}
	case *ast.Emphasis:
		w.bold = entering && node.Level == 2
		w.setFont()
	case *ast.CodeSpan:
		if entering {
			w.pdf.SetFont("Courier", "", bodySize)
			w.pdf.Write(lineHeight, w.tr(string(node.Text(w.source))))
			w.setFont()
		}
		return ast.WalkSkipChildren, nil
	case *ast.List:
		if entering {
			w.listLevel++
		} else {
			w.listLevel--
			if w.listLevel == 0 {
				w.pdf.Ln(2)
			}
		}
	case *ast.ListItem:
		if entering {
			w.pdf.Ln(lineHeight)
			w.pdf.SetX(12 + float64(w.listLevel)*4)
			w.pdf.Write(lineHeight, "- ")
		}
	case *extast.Table:
		if entering {
			w.table(w.rows(node))
		}
		return ast.WalkSkipChildren, nil
	}
	return ast.WalkContinue, nil
}

func (w *pdfWriter) rows(table *extast.Table) [][]string {
	var rows [][]string
	for child := table.FirstChild(); child != nil; child = child.NextSibling() {
		var row []string
		for cell := child.FirstChild(); cell != nil; cell = cell.NextSibling() {
			row = append(row, w.tr(strings.TrimSpace(string(cell.Text(w.source)))))
		}
		rows = append(rows, row)
	}
	return rows
}

// table draws rows with the first row as a shaded header. Cells are clipped
// to one line; columns share the page width in proportion to their widest cell.
func (w *pdfWriter) table(rows [][]string) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return
	}
	cols := len(rows[0])
	widths := w.columnWidths(rows, cols)
	rowHeight := lineHeight + 1

	w.pdf.Ln(2)
	for i, row := range rows {
		if w.pdf.GetY()+rowHeight > pageBottom {
			w.pdf.AddPage()
		}
		fill := i == 0
		if fill {
			w.pdf.SetFont("Arial", "B", tableSize)
			w.pdf.SetFillColor(230, 230, 230)
		} else {
			w.pdf.SetFont("Arial", "", tableSize)
		}
		for j := 0; j < cols; j++ {
			cell := ""
			if j < len(row) {
				cell = w.clip(row[j], widths[j]-2)
			}
			align := "L"
			if i > 0 && j > 0 && numeric(cell) {
				align = "R"
			}
			w.pdf.CellFormat(widths[j], rowHeight, cell, "1", 0, align, fill, 0, "")
		}
		w.pdf.Ln(-1)
	}
	w.pdf.Ln(3)
	w.setFont()
}

func (w *pdfWriter) columnWidths(rows [][]string, cols int) []float64 {
	w.pdf.SetFont("Arial", "B", tableSize)
	widths := make([]float64, cols)
	total := 0.0
	for _, row := range rows {
		for j := 0; j < cols && j < len(row); j++ {
			if cw := w.pdf.GetStringWidth(row[j]) + 4; cw > widths[j] {
				widths[j] = cw
			}
		}
	}
	for j := range widths {
		if widths[j] < 14 {
			widths[j] = 14
		}
		total += widths[j]
	}
	if total > pageWidth {
		for j := range widths {
			widths[j] *= pageWidth / total
		}
	}
	return widths
}

func (w *pdfWriter) clip(s string, width float64) string {
	if w.pdf.GetStringWidth(s) <= width {
		return s
	}
	for len(s) > 1 && w.pdf.GetStringWidth(s+"...") > width {
		s = s[:len(s)-1]
	}
	return s + "..."
}

func numeric(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if (c < '0' || c > '9') && c != '.' && c != ',' && c != '-' && c != '%' {
			return false
		}
	}
	return true
}
