// Package importer seeds a course from a source document. Headings become
// sections, subheadings become assets and body text becomes summaries.
package importer

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dgallion1/snapedit/internal/doctree"
)

// Importer converts raw document bytes into a heading tree.
type Importer interface {
	Import(r io.Reader, filename string) (*doctree.DocTree, error)
}

// ForFile returns the importer for a filename.
func ForFile(filename string) (Importer, error) {
	switch ext := strings.ToLower(filepath.Ext(filename)); ext {
	case ".txt":
		return TextImporter{}, nil
	case ".md", ".markdown":
		return MarkdownImporter{}, nil
	case ".csv":
		return CSVImporter{}, nil
	case ".html", ".htm":
		return HTMLImporter{}, nil
	case ".pdf":
		return PDFImporter{}, nil
	case ".docx":
		return DOCXImporter{}, nil
	default:
		return nil, fmt.Errorf("unsupported file extension: %q", ext)
	}
}

// LoadCourse imports the file at path as a course.
func LoadCourse(path string) (*doctree.Course, error) {
	imp, err := ForFile(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open seed: %w", err)
	}
	defer f.Close()

	name := filepath.Base(path)
	tree, err := imp.Import(f, name)
	if err != nil {
		return nil, fmt.Errorf("import %s: %w", name, err)
	}
	c := doctree.CourseFromTree(tree)
	if len(c.Sections) < 2 {
		return nil, fmt.Errorf("import %s: no sections found", name)
	}
	return c, nil
}

// DemoCourse returns a course with n topics of two assets each.
func DemoCourse(n int) *doctree.Course {
	tree := &doctree.DocTree{Title: "Demo course"}
	kinds := []string{"page", "forum", "assign", "quiz"}
	for i := 1; i <= n; i++ {
		node := &doctree.DocNode{
			Title: fmt.Sprintf("Topic %d", i),
			Text:  fmt.Sprintf("What topic %d covers.", i),
		}
		for j := 0; j < 2; j++ {
			node.Children = append(node.Children, &doctree.DocNode{
				Title: fmt.Sprintf("Activity %d.%d", i, j+1),
				Kind:  kinds[(i+j)%len(kinds)],
			})
		}
		tree.Children = append(tree.Children, node)
	}
	return doctree.CourseFromTree(tree)
}

func trimExt(filename string, exts ...string) string {
	for _, ext := range exts {
		if strings.HasSuffix(strings.ToLower(filename), ext) {
			return filename[:len(filename)-len(ext)]
		}
	}
	return filename
}

// outline builds a heading tree from a flat run of headings and text
// blocks. Text belongs to the most recent heading.
type outline struct {
	root  *doctree.DocNode
	stack []outlineLevel
	text  []string
}

type outlineLevel struct {
	node  *doctree.DocNode
	level int
}

func newOutline() *outline {
	root := &doctree.DocNode{}
	return &outline{root: root, stack: []outlineLevel{{node: root}}}
}

func (o *outline) Heading(level int, title string) {
	o.flush()
	node := &doctree.DocNode{Title: title}
	for len(o.stack) > 1 && o.stack[len(o.stack)-1].level >= level {
		o.stack = o.stack[:len(o.stack)-1]
	}
	parent := o.stack[len(o.stack)-1].node
	parent.Children = append(parent.Children, node)
	o.stack = append(o.stack, outlineLevel{node: node, level: level})
}

func (o *outline) Text(t string) {
	if t = strings.TrimSpace(t); t != "" {
		o.text = append(o.text, t)
	}
}

func (o *outline) flush() {
	if len(o.text) == 0 {
		return
	}
	top := o.stack[len(o.stack)-1].node
	t := strings.Join(o.text, "\n\n")
	if top.Text != "" {
		t = top.Text + "\n\n" + t
	}
	top.Text = t
	o.text = o.text[:0]
}

// Nodes returns the top-level nodes. A document without headings yields a
// single text node.
func (o *outline) Nodes() []*doctree.DocNode {
	o.flush()
	if len(o.root.Children) == 0 && o.root.Text != "" {
		return []*doctree.DocNode{{Text: o.root.Text}}
	}
	if o.root.Text != "" {
		return append([]*doctree.DocNode{{Text: o.root.Text}}, o.root.Children...)
	}
	return o.root.Children
}
