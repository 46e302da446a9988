package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/dgallion1/snapedit/internal/doctree"
)

// CSVImporter reads one asset per row. The header names the columns:
// "section" and "name" are required, "type" and "summary" are optional.
// Rows with an empty name only contribute the section (and its summary).
type CSVImporter struct{}

func (CSVImporter) Import(r io.Reader, filename string) (*doctree.DocTree, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return &doctree.DocTree{Title: trimExt(filename, ".csv")}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("parse csv header: %w", err)
	}
	col := func(name string) int {
		return slices.IndexFunc(header, func(h string) bool { return strings.EqualFold(strings.TrimSpace(h), name) })
	}
	sectionCol, nameCol, typeCol, summaryCol := col("section"), col("name"), col("type"), col("summary")
	if sectionCol < 0 || nameCol < 0 {
		return nil, fmt.Errorf("csv header needs section and name columns, got %v", header)
	}
	cell := func(row []string, i int) string {
		if i < 0 || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	tree := &doctree.DocTree{Title: trimExt(filename, ".csv")}
	sections := make(map[string]*doctree.DocNode)
	for line := 2; ; line++ {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse csv line %d: %w", line, err)
		}
		title := cell(row, sectionCol)
		if title == "" {
			return nil, fmt.Errorf("csv line %d: empty section", line)
		}
		sec, ok := sections[title]
		if !ok {
			sec = &doctree.DocNode{Title: title, Page: line}
			sections[title] = sec
			tree.Children = append(tree.Children, sec)
		}
		if s := cell(row, summaryCol); s != "" && sec.Text == "" {
			sec.Text = s
		}
		if name := cell(row, nameCol); name != "" {
			sec.Children = append(sec.Children, &doctree.DocNode{Title: name, Kind: strings.ToLower(cell(row, typeCol)), Page: line})
		}
	}
	return tree, nil
}
