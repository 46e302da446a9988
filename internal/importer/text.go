package importer

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/snapedit/internal/doctree"
)

// TextImporter reads plain text. Each blank-line separated block is a
// section titled by its first line; an indented line ("  - name") inside a
// block is an asset of that section.
type TextImporter struct{}

func (TextImporter) Import(r io.Reader, filename string) (*doctree.DocTree, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	tree := &doctree.DocTree{Title: trimExt(filename, ".txt")}
	var cur *doctree.DocNode
	var body []string
	flush := func() {
		if cur != nil {
			cur.Text = strings.Join(body, "\n")
			tree.Children = append(tree.Children, cur)
		}
		cur, body = nil, nil
	}

	for scanner.Scan() {
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == "":
			flush()
		case cur == nil:
			cur = &doctree.DocNode{Title: trimmed}
		case line != trimmed && strings.HasPrefix(trimmed, "- "):
			cur.Children = append(cur.Children, &doctree.DocNode{Title: strings.TrimSpace(trimmed[2:])})
		default:
			body = append(body, trimmed)
		}
	}
	flush()
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read text: %w", err)
	}
	return tree, nil
}
