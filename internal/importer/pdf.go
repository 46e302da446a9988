package importer

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/snapedit/internal/doctree"
	pdflib "github.com/ledongthuc/pdf"
)

// PDFImporter reads PDFs one page per section. PDFs carry no reliable
// outline, so sections are titled by their first line of text.
type PDFImporter struct{}

func (PDFImporter) Import(r io.Reader, filename string) (*doctree.DocTree, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read pdf: %w", err)
	}
	reader, err := pdflib.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}

	tree := &doctree.DocTree{Title: trimExt(filename, ".pdf")}
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("pdf page %d: %w", i, err)
		}
		if node := pageNode(i, text); node != nil {
			tree.Children = append(tree.Children, node)
		}
	}
	return tree, nil
}

func pageNode(page int, text string) *doctree.DocNode {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	title, body, _ := strings.Cut(text, "\n")
	title = strings.TrimSpace(title)
	if title == "" || len(title) > 80 {
		title = fmt.Sprintf("Page %d", page)
		body = text
	}
	return &doctree.DocNode{Title: title, Text: strings.TrimSpace(body), Page: page}
}
