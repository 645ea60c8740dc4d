package render

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Document is a minimal WordprocessingML document: a sequence of paragraphs
// and tables in the default font.
type Document struct {
	Font   string
	blocks []block
}

type block interface {
	writeXML(sb *strings.Builder, font string)
}

// Run is a span of text with one format.
type Run struct {
	Text  string
	Bold  bool
	Size  int    // points; 0 keeps the style default
	Color string // hex RGB such as "0066CC"; empty for default
}

// Paragraph is a block of runs.
type Paragraph struct {
	Runs   []Run
	Center bool
}

// Table is a grid of cells. Each cell may hold several lines of text.
type Table struct {
	Rows       [][]string
	HeaderRows int
	CellSize   int
}

// NewDocument creates an empty document using font for every run.
func NewDocument(font string) *Document {
	return &Document{Font: font}
}

// Add appends a paragraph with a single run.
func (d *Document) Add(r Run) {
	d.blocks = append(d.blocks, Paragraph{Runs: []Run{r}})
}

// AddParagraph appends p.
func (d *Document) AddParagraph(p Paragraph) {
	d.blocks = append(d.blocks, p)
}

// AddTable appends t.
func (d *Document) AddTable(t Table) {
	d.blocks = append(d.blocks, t)
}

// Spacer appends an empty paragraph.
func (d *Document) Spacer() {
	d.blocks = append(d.blocks, Paragraph{})
}

// Build writes the document to path, creating the parent directory.
func (d *Document) Build(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := d.WriteTo(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// WriteTo writes the .docx package to w.
func (d *Document) WriteTo(w io.Writer) error {
	zw := zip.NewWriter(w)

	parts := []struct {
		name    string
		content string
	}{
		{"[Content_Types].xml", contentTypesXML},
		{"_rels/.rels", rootRelsXML},
		{"word/_rels/document.xml.rels", documentRelsXML},
		{"word/styles.xml", d.stylesXML()},
		{"word/document.xml", d.documentXML()},
	}
	for _, p := range parts {
		fw, err := zw.Create(p.name)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", p.name, err)
		}
		if _, err := io.WriteString(fw, p.content); err != nil {
			return fmt.Errorf("failed to write %s: %w", p.name, err)
		}
	}
	return zw.Close()
}

// Bytes returns the encoded document.
func (d *Document) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := d.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (d *Document) documentXML() string {
	var sb strings.Builder
	sb.WriteString(xml.Header)
	sb.WriteString(`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`)
	for _, b := range d.blocks {
		b.writeXML(&sb, d.Font)
	}
	sb.WriteString(`<w:sectPr><w:pgSz w:w="12240" w:h="15840"/><w:pgMar w:top="1440" w:right="1440" w:bottom="1440" w:left="1440"/></w:sectPr>`)
	sb.WriteString(`</w:body></w:document>`)
	return sb.String()
}

func (d *Document) stylesXML() string {
	font := escapeXML(d.Font)
	return xml.Header + `<w:styles xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">` +
		`<w:docDefaults><w:rPrDefault><w:rPr>` +
		`<w:rFonts w:ascii="` + font + `" w:hAnsi="` + font + `" w:cs="` + font + `"/><w:sz w:val="22"/>` +
		`</w:rPr></w:rPrDefault></w:docDefaults>` +
		`<w:style w:type="table" w:styleId="TableGrid"><w:name w:val="Table Grid"/><w:tblPr><w:tblBorders>` +
		`<w:top w:val="single" w:sz="4"/><w:left w:val="single" w:sz="4"/><w:bottom w:val="single" w:sz="4"/>` +
		`<w:right w:val="single" w:sz="4"/><w:insideH w:val="single" w:sz="4"/><w:insideV w:val="single" w:sz="4"/>` +
		`</w:tblBorders></w:tblPr></w:style></w:styles>`
}

func (p Paragraph) writeXML(sb *strings.Builder, font string) {
	sb.WriteString("<w:p>")
	if p.Center {
		sb.WriteString(`<w:pPr><w:jc w:val="center"/></w:pPr>`)
	}
	for _, r := range p.Runs {
		r.writeXML(sb, font)
	}
	sb.WriteString("</w:p>")
}

func (r Run) writeXML(sb *strings.Builder, font string) {
	sb.WriteString("<w:r><w:rPr>")
	if font != "" {
		f := escapeXML(font)
		fmt.Fprintf(sb, `<w:rFonts w:ascii="%s" w:hAnsi="%s" w:cs="%s"/>`, f, f, f)
	}
	if r.Bold {
		sb.WriteString("<w:b/>")
	}
	if r.Color != "" {
		fmt.Fprintf(sb, `<w:color w:val="%s"/>`, escapeXML(r.Color))
	}
	if r.Size > 0 {
		// Word sizes are in half-points.
		fmt.Fprintf(sb, `<w:sz w:val="%d"/><w:szCs w:val="%d"/>`, r.Size*2, r.Size*2)
	}
	sb.WriteString("</w:rPr>")

	for i, line := range strings.Split(r.Text, "\n") {
		if i > 0 {
			sb.WriteString("<w:br/>")
		}
		sb.WriteString(`<w:t xml:space="preserve">`)
		sb.WriteString(escapeXML(line))
		sb.WriteString("</w:t>")
	}
	sb.WriteString("</w:r>")
}

func (t Table) writeXML(sb *strings.Builder, font string) {
	sb.WriteString(`<w:tbl><w:tblPr><w:tblStyle w:val="TableGrid"/><w:tblW w:w="5000" w:type="pct"/></w:tblPr>`)
	for i, row := range t.Rows {
		sb.WriteString("<w:tr>")
		for _, cell := range row {
			sb.WriteString("<w:tc>")
			Paragraph{Runs: []Run{{Text: cell, Bold: i < t.HeaderRows, Size: t.CellSize}}}.writeXML(sb, font)
			sb.WriteString("</w:tc>")
		}
		sb.WriteString("</w:tr>")
	}
	sb.WriteString("</w:tbl>")
	// Word requires a paragraph between adjacent tables and before sectPr.
	sb.WriteString("<w:p/>")
}

func escapeXML(s string) string {
	var buf bytes.Buffer
	_ = xml.EscapeText(&buf, []byte(s))
	return buf.String()
}

const contentTypesXML = xml.Header + `<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">` +
	`<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>` +
	`<Default Extension="xml" ContentType="application/xml"/>` +
	`<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>` +
	`<Override PartName="/word/styles.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.styles+xml"/>` +
	`</Types>`

const rootRelsXML = xml.Header + `<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
	`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>` +
	`</Relationships>`

const documentRelsXML = xml.Header + `<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
	`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/styles" Target="styles.xml"/>` +
	`</Relationships>`
