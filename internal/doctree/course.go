package doctree

import "strings"

// Course is the authoritative section list held by a backend.
type Course struct {
	ID        int
	ShortName string
	Title     string
	Sections  []*Section
}

// Renumber assigns section numbers from list position and re-parents assets.
func (c *Course) Renumber() {
	for i, s := range c.Sections {
		s.Number = i
		for _, a := range s.Assets {
			a.Section = i
		}
	}
}

// Chapters returns the table-of-contents entries for every section.
func (c *Course) Chapters() []Chapter {
	out := make([]Chapter, len(c.Sections))
	for i, s := range c.Sections {
		out[i] = Chapter{Number: s.Number, Title: s.Title, Hidden: s.Hidden()}
	}
	return out
}

// MaxAssetID returns the largest asset id in the course.
func (c *Course) MaxAssetID() int {
	max := 0
	for _, s := range c.Sections {
		for _, a := range s.Assets {
			if a.ID > max {
				max = a.ID
			}
		}
	}
	return max
}

// CourseFromTree converts an imported heading tree into a course. Section 0
// is the general section and carries any text that precedes the first
// heading. Each top-level heading becomes a section, its subheadings become
// "page" assets and its text becomes the section summary.
func CourseFromTree(tree *DocTree) *Course {
	c := &Course{Title: tree.Title}
	general := &Section{Title: "General", Visibility: Visible, Loaded: true}
	c.Sections = append(c.Sections, general)

	nodes := tree.Children
	// A single wrapping heading (typically the document h1) is the course
	// title; its children are the sections.
	if len(nodes) == 1 && len(nodes[0].Children) > 0 {
		if nodes[0].Title != "" {
			c.Title = nodes[0].Title
		}
		general.Summary = nodes[0].Text
		nodes = nodes[0].Children
	}

	nextID := 1
	for _, n := range nodes {
		if n.Title == "" {
			general.Summary = joinText(general.Summary, n.Text)
			continue
		}
		s := &Section{Title: n.Title, Summary: n.Text, Visibility: Visible, Loaded: true}
		for _, child := range n.Children {
			s.Assets = append(s.Assets, &Asset{
				ID:         nextID,
				Name:       assetName(child),
				Kind:       assetKind(child),
				Visibility: Visible,
			})
			nextID++
		}
		c.Sections = append(c.Sections, s)
	}
	c.Renumber()
	return c
}

func assetName(n *DocNode) string {
	if n.Title != "" {
		return n.Title
	}
	name, _, _ := strings.Cut(strings.TrimSpace(n.Text), "\n")
	return name
}

func assetKind(n *DocNode) string {
	if n.Kind != "" {
		return n.Kind
	}
	return "page"
}

func joinText(a, b string) string {
	switch {
	case a == "":
		return b
	case b == "":
		return a
	}
	return a + "\n\n" + b
}
