package doctree

import "fmt"

// Visibility of a section or asset to learners.
type Visibility string

const (
	Visible Visibility = "visible"
	Hidden  Visibility = "hidden"
)

// Section is a top-level ordered container within a course.
type Section struct {
	Number      int        // Ordinal, unique and contiguous over the rendered set
	Title       string     // Heading as shown in the table of contents
	Summary     string     // Markdown summary (may be empty)
	Visibility  Visibility // Visible or Hidden
	Highlighted bool       // Marked as the current section
	Loaded      bool       // False for table-of-contents placeholders
	Assets      []*Asset   // Ordered activities and resources
}

// Hidden reports whether the section is hidden from learners.
func (s *Section) Hidden() bool {
	return s.Visibility == Hidden
}

// Asset returns the asset with the given id and its index, or nil and -1.
func (s *Section) Asset(id int) (*Asset, int) {
	for i, a := range s.Assets {
		if a.ID == id {
			return a, i
		}
	}
	return nil, -1
}

// Asset is a leaf activity or resource belonging to exactly one section.
type Asset struct {
	ID         int        // Course module id
	Name       string     // Instance name
	Kind       string     // Module type, e.g. "page", "forum", "label"
	Visibility Visibility // Visible or Hidden
	Section    int        // Number of the owning section
}

// DOMID returns the element id of the asset row.
func (a *Asset) DOMID() string {
	return fmt.Sprintf("module-%d", a.ID)
}

// Chapter is a table-of-contents entry. Chapters exist for every section of
// the course, loaded or not.
type Chapter struct {
	Number int
	Title  string
	Hidden bool
}

// SectionID returns the element id used for section n.
func SectionID(n int) string {
	return fmt.Sprintf("section-%d", n)
}

// DocTree is the root of a parsed source document used to seed a course.
type DocTree struct {
	Title    string     // Document title (from metadata or filename)
	Children []*DocNode // Top-level sections
}

// DocNode is a recursive heading node in the source document.
type DocNode struct {
	Title    string     // Heading (empty for leaf text)
	Text     string     // Text content of this node (may be empty for container nodes)
	Page     int        // Source page/line (0 if N/A)
	Kind     string     // Module type when the node becomes an asset ("page" if empty)
	Children []*DocNode // Subheadings
}
