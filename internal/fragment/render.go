package fragment

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"strings"

	"github.com/dgallion1/snapedit/internal/doctree"
	"github.com/yuin/goldmark"
)

//go:embed templates/*.html
var templateFS embed.FS

// NavLink describes the previous or next section in a section footer.
type NavLink struct {
	Number int
	Title  string
	Dimmed bool // neighbor is hidden
}

// Navigation is the data for a section footer.
type Navigation struct {
	Previous *NavLink
	Next     *NavLink
}

// Searchable is a table-of-contents search entry for an asset.
type Searchable struct {
	ID      int
	Section int
	Name    string
}

// TOC is the data for the whole table of contents.
type TOC struct {
	Chapters    []doctree.Chapter
	Searchables []Searchable
}

type actionData struct {
	CourseID    int
	Number      int
	Marker      int
	Hidden      bool
	Highlighted bool
}

type assetData struct {
	ID     int
	Name   string
	Kind   string
	Hidden bool
}

type sectionData struct {
	Number      int
	Title       string
	Summary     template.HTML
	Hidden      bool
	Highlighted bool
	Actions     actionData
	Assets      []assetData
}

type pageData struct {
	Title    string
	CourseID int
	Format   string
	TOC      TOC
	Sections []sectionData
	AddLinks []string
}

// Renderer renders course fragments from the embedded templates.
type Renderer struct {
	tmpl *template.Template
	md   goldmark.Markdown
}

func NewRenderer() *Renderer {
	return &Renderer{
		tmpl: template.Must(template.ParseFS(templateFS, "templates/*.html")),
		md:   goldmark.New(),
	}
}

// Page renders a full course page. Only sections with Loaded set are
// rendered; the others appear in the table of contents only.
func (r *Renderer) Page(c *doctree.Course, format string) (string, error) {
	data := pageData{
		Title:    c.Title,
		CourseID: c.ID,
		Format:   format,
		TOC:      CourseTOC(c),
		AddLinks: []string{"page", "forum", "assign"},
	}
	for _, s := range c.Sections {
		if !s.Loaded {
			continue
		}
		sd, err := r.sectionData(c.ID, s)
		if err != nil {
			return "", err
		}
		data.Sections = append(data.Sections, sd)
	}
	return r.execute("page", data)
}

// Section renders a single section list item.
func (r *Renderer) Section(courseID int, s *doctree.Section) (string, error) {
	sd, err := r.sectionData(courseID, s)
	if err != nil {
		return "", err
	}
	return r.execute("section", sd)
}

// Actions renders the editing controls of a section.
func (r *Renderer) Actions(courseID int, s *doctree.Section) (string, error) {
	return r.execute("actions", actionsFor(courseID, s))
}

// Assets renders asset rows in order.
func (r *Renderer) Assets(assets ...*doctree.Asset) (string, error) {
	var buf strings.Builder
	for _, a := range assets {
		out, err := r.execute("asset", assetFor(a))
		if err != nil {
			return "", err
		}
		buf.WriteString(out)
	}
	return buf.String(), nil
}

// TOC renders the table of contents container.
func (r *Renderer) TOC(toc TOC) (string, error) {
	return r.execute("toc", toc)
}

// Chapters renders the chapter list of the table of contents.
func (r *Renderer) Chapters(chapters []doctree.Chapter) (string, error) {
	return r.execute("chapters", chapters)
}

// RenderNavigation renders a section footer.
func (r *Renderer) RenderNavigation(_ context.Context, nav Navigation) (string, error) {
	return r.execute("navigation", nav)
}

// CourseTOC builds the table-of-contents data for a course.
func CourseTOC(c *doctree.Course) TOC {
	toc := TOC{Chapters: c.Chapters()}
	for _, s := range c.Sections {
		for _, a := range s.Assets {
			toc.Searchables = append(toc.Searchables, Searchable{ID: a.ID, Section: s.Number, Name: a.Name})
		}
	}
	return toc
}

func (r *Renderer) sectionData(courseID int, s *doctree.Section) (sectionData, error) {
	var summary bytes.Buffer
	if s.Summary != "" {
		if err := r.md.Convert([]byte(s.Summary), &summary); err != nil {
			return sectionData{}, fmt.Errorf("render summary of section %d: %w", s.Number, err)
		}
	}
	sd := sectionData{
		Number:      s.Number,
		Title:       s.Title,
		Summary:     template.HTML(summary.String()),
		Hidden:      s.Hidden(),
		Highlighted: s.Highlighted,
		Actions:     actionsFor(courseID, s),
	}
	for _, a := range s.Assets {
		sd.Assets = append(sd.Assets, assetFor(a))
	}
	return sd, nil
}

func actionsFor(courseID int, s *doctree.Section) actionData {
	marker := s.Number
	if s.Highlighted {
		marker = 0
	}
	return actionData{
		CourseID:    courseID,
		Number:      s.Number,
		Marker:      marker,
		Hidden:      s.Hidden(),
		Highlighted: s.Highlighted,
	}
}

func assetFor(a *doctree.Asset) assetData {
	return assetData{ID: a.ID, Name: a.Name, Kind: a.Kind, Hidden: a.Visibility == doctree.Hidden}
}

func (r *Renderer) execute(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return buf.String(), nil
}
