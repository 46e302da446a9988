package importer

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestMarkdownImporter_HeadingHierarchy(t *testing.T) {
	input := `# Course

Intro text.

## Week 1

Getting started.

### Reading list

## Week 2

- one
- two
`
	tree, err := MarkdownImporter{}.Import(strings.NewReader(input), "course.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tree.Title != "course" {
		t.Errorf("expected title %q, got %q", "course", tree.Title)
	}
	if len(tree.Children) != 1 {
		t.Fatalf("expected 1 top-level child, got %d", len(tree.Children))
	}
	h1 := tree.Children[0]
	if h1.Text != "Intro text." {
		t.Errorf("expected intro text, got %q", h1.Text)
	}
	if len(h1.Children) != 2 {
		t.Fatalf("expected 2 h2 children, got %d", len(h1.Children))
	}
	if got := h1.Children[0].Children[0].Title; got != "Reading list" {
		t.Errorf("expected subheading %q, got %q", "Reading list", got)
	}
	if got := h1.Children[1].Text; got != "- one\n- two" {
		t.Errorf("expected list source, got %q", got)
	}
}

func TestMarkdownImporter_CodeBlockKeepsFences(t *testing.T) {
	input := "# API\n\n```\nGET /api/users\n```\n\nAfter.\n"
	tree, err := MarkdownImporter{}.Import(strings.NewReader(input), "api.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	text := tree.Children[0].Text
	if !strings.Contains(text, "```\nGET /api/users\n```") {
		t.Errorf("expected fenced code, got %q", text)
	}
	if !strings.HasSuffix(text, "After.") {
		t.Errorf("expected trailing paragraph, got %q", text)
	}
}

func TestMarkdownImporter_NoHeadings(t *testing.T) {
	tree, err := MarkdownImporter{}.Import(strings.NewReader("Just text.\n\nMore text."), "plain.markdown")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tree.Title != "plain" {
		t.Errorf("expected title %q, got %q", "plain", tree.Title)
	}
	if len(tree.Children) != 1 || tree.Children[0].Title != "" {
		t.Fatalf("expected a single text node, got %+v", tree.Children)
	}
	if tree.Children[0].Text != "Just text.\n\nMore text." {
		t.Errorf("unexpected text %q", tree.Children[0].Text)
	}
}

func TestHTMLImporter(t *testing.T) {
	input := `<html><head><title>Biology</title><style>p{}</style></head><body>
<nav><p>skip me</p></nav>
<p>Welcome.</p>
<h2>Cells</h2><p>All about   cells.</p>
<h3>Membranes</h3>
<h2>Genetics</h2><ul><li>DNA</li><li>RNA</li></ul>
</body></html>`
	tree, err := HTMLImporter{}.Import(strings.NewReader(input), "bio.html")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tree.Title != "Biology" {
		t.Errorf("expected title from <title>, got %q", tree.Title)
	}
	if len(tree.Children) != 3 {
		t.Fatalf("expected preamble and 2 sections, got %d", len(tree.Children))
	}
	if tree.Children[0].Text != "Welcome." {
		t.Errorf("expected preamble text, got %q", tree.Children[0].Text)
	}
	cells := tree.Children[1]
	if cells.Text != "All about cells." || len(cells.Children) != 1 {
		t.Errorf("unexpected cells node %+v", cells)
	}
	if tree.Children[2].Text != "DNA\n\nRNA" {
		t.Errorf("unexpected list text %q", tree.Children[2].Text)
	}
}

func TestTextImporter(t *testing.T) {
	input := "Week 1\nReading and setup.\n  - Syllabus\n  - Forum\n\nWeek 2\nPractice.\n"
	tree, err := TextImporter{}.Import(strings.NewReader(input), "notes.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tree.Title != "notes" {
		t.Errorf("expected title %q, got %q", "notes", tree.Title)
	}
	if len(tree.Children) != 2 {
		t.Fatalf("expected 2 sections, got %d", len(tree.Children))
	}
	w1 := tree.Children[0]
	if w1.Title != "Week 1" || w1.Text != "Reading and setup." {
		t.Errorf("unexpected section %+v", w1)
	}
	if len(w1.Children) != 2 || w1.Children[1].Title != "Forum" {
		t.Errorf("expected 2 assets, got %+v", w1.Children)
	}
}

func TestCSVImporter(t *testing.T) {
	input := "Section,Name,Type,Summary\nWeek 1,Syllabus,Page,Start here\nWeek 1,Forum,forum,\nWeek 2,,,\n"
	tree, err := CSVImporter{}.Import(strings.NewReader(input), "plan.csv")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tree.Children) != 2 {
		t.Fatalf("expected 2 sections, got %d", len(tree.Children))
	}
	w1 := tree.Children[0]
	if w1.Text != "Start here" || len(w1.Children) != 2 {
		t.Errorf("unexpected section %+v", w1)
	}
	if w1.Children[0].Kind != "page" || w1.Children[1].Page != 3 {
		t.Errorf("unexpected assets %+v %+v", w1.Children[0], w1.Children[1])
	}
	if len(tree.Children[1].Children) != 0 {
		t.Errorf("expected empty section, got %+v", tree.Children[1].Children)
	}
}

func TestCSVImporter_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"missing columns", "title,kind\nA,page\n"},
		{"empty section", "section,name\n,Forum\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := (CSVImporter{}).Import(strings.NewReader(tt.input), "x.csv"); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestPageNode(t *testing.T) {
	n := pageNode(3, "  Photosynthesis\nLight and water.\n")
	if n.Title != "Photosynthesis" || n.Text != "Light and water." || n.Page != 3 {
		t.Errorf("unexpected node %+v", n)
	}
	if pageNode(1, " \n ") != nil {
		t.Error("expected nil for a blank page")
	}
	long := strings.Repeat("x", 100)
	if n := pageNode(2, long); n.Title != "Page 2" || n.Text != long {
		t.Errorf("unexpected node %+v", n)
	}
}

func TestForFile(t *testing.T) {
	for _, name := range []string{"a.md", "a.MARKDOWN", "a.txt", "a.csv", "a.htm", "a.html", "a.pdf", "a.docx"} {
		if _, err := ForFile(name); err != nil {
			t.Errorf("%s: %v", name, err)
		}
	}
	if _, err := ForFile("a.odt"); err == nil {
		t.Error("expected error for .odt")
	}
}

func TestLoadCourse(t *testing.T) {
	path := filepath.Join(t.TempDir(), "course.md")
	input := "# Chemistry\n\nWelcome.\n\n## Atoms\n\n### Reading\n\n## Bonds\n"
	if err := os.WriteFile(path, []byte(input), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err := LoadCourse(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Title != "Chemistry" {
		t.Errorf("expected course title from h1, got %q", c.Title)
	}
	if len(c.Sections) != 3 {
		t.Fatalf("expected general and 2 sections, got %d", len(c.Sections))
	}
	if c.Sections[0].Summary != "Welcome." {
		t.Errorf("expected general summary, got %q", c.Sections[0].Summary)
	}
	if a := c.Sections[1].Assets; len(a) != 1 || a[0].Name != "Reading" || a[0].Section != 1 {
		t.Errorf("unexpected assets %+v", a)
	}
}

func TestLoadCourse_NoSections(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.md")
	if err := os.WriteFile(path, []byte("just text"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadCourse(path); err == nil {
		t.Error("expected error")
	}
}

func TestDemoCourse(t *testing.T) {
	c := DemoCourse(5)
	if len(c.Sections) != 6 {
		t.Fatalf("expected 6 sections, got %d", len(c.Sections))
	}
	seen := map[int]bool{}
	for i, s := range c.Sections {
		if s.Number != i {
			t.Errorf("section %d numbered %d", i, s.Number)
		}
		for _, a := range s.Assets {
			if seen[a.ID] {
				t.Errorf("duplicate asset id %d", a.ID)
			}
			seen[a.ID] = true
		}
	}
}
