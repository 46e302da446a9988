// Package page holds the editor's view of a course page: an ordered index
// of the loaded sections, which is the source of truth, and the DOM
// projection derived from it.
package page

import (
	"bytes"
	"fmt"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"github.com/dgallion1/snapedit/internal/doctree"
	"github.com/dgallion1/snapedit/internal/fragment"
	"github.com/dgallion1/snapedit/internal/tracker"
	"golang.org/x/net/html"
)

// Options control how sections are projected.
type Options struct {
	PartialRender  bool // sections are loaded on demand; numbers follow the TOC
	NumberedTitles bool // prefix section titles with "N. "
}

// Page serializes access to the document. No lock is held across network
// calls; callers do local work inside Update or View.
type Page struct {
	mu  sync.Mutex
	doc *Doc
}

// Parse builds a page from the initial course page markup.
func Parse(markup string, opts Options) (*Page, error) {
	dom, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("parse page: %w", err)
	}
	d := &Doc{dom: dom, opts: opts}
	if err := d.index(); err != nil {
		return nil, err
	}
	return &Page{doc: d}, nil
}

// Update runs fn with exclusive access to the document.
func (p *Page) Update(fn func(d *Doc) error) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return fn(p.doc)
}

// View runs fn with exclusive access to the document for reading.
func (p *Page) View(fn func(d *Doc)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fn(p.doc)
}

// MarkBusy implements tracker.Marker.
func (p *Page) MarkBusy(trigger *html.Node, subScope string, busy bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	sel := p.doc.dom.FindNodes(trigger)
	if sel.Length() == 0 {
		// Detached trigger, e.g. a row removed by the request it started.
		sel = goquery.NewDocumentFromNode(trigger).Selection
	}
	if subScope != "" {
		sel = sel.Find(subScope)
	}
	if busy {
		sel.AddClass(tracker.BusyClass)
	} else {
		sel.RemoveClass(tracker.BusyClass)
	}
}

// HTML renders the current document.
func (p *Page) HTML() (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	var buf bytes.Buffer
	for _, n := range p.doc.dom.Nodes {
		if err := html.Render(&buf, n); err != nil {
			return "", fmt.Errorf("render page: %w", err)
		}
	}
	return buf.String(), nil
}

type entry struct {
	sec  *doctree.Section
	node *html.Node
}

// Doc is the unlocked document state. It is only reachable through Page.
type Doc struct {
	dom      *goquery.Document
	opts     Options
	sections []*entry // page order
	chapters []doctree.Chapter
	current  int
	focused  string
}

func (d *Doc) index() error {
	d.sections = nil
	var firstErr error
	d.container().ChildrenFiltered("li.section.main").Each(func(_ int, li *goquery.Selection) {
		s, err := fragment.SectionFromNode(li.Get(0))
		if err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("index sections: %w", err)
			}
			return
		}
		d.sections = append(d.sections, &entry{sec: s, node: li.Get(0)})
	})
	if firstErr != nil {
		return firstErr
	}
	chapters, err := fragment.ChaptersFrom(d.dom.Find("#chapters"))
	if err != nil {
		return fmt.Errorf("index chapters: %w", err)
	}
	d.chapters = chapters
	if len(d.sections) > 0 {
		d.current = d.sections[0].sec.Number
	}
	return nil
}

// DOM exposes the projection for selector based lookups.
func (d *Doc) DOM() *goquery.Document { return d.dom }

// Options returns the projection options.
func (d *Doc) Options() Options { return d.opts }

// Selection wraps an element of the page.
func (d *Doc) Selection(n *html.Node) *goquery.Selection {
	return d.dom.FindNodes(n)
}

func (d *Doc) container() *goquery.Selection {
	return d.dom.Find(".course-content > ul").First()
}

func (d *Doc) loadingIndicator() *goquery.Selection {
	return d.dom.Find(".course-content .sk-fading-circle").First()
}

// Sections returns the loaded sections in page order.
func (d *Doc) Sections() []*doctree.Section {
	out := make([]*doctree.Section, len(d.sections))
	for i, e := range d.sections {
		out[i] = e.sec
	}
	return out
}

// Numbers returns the loaded section numbers in page order.
func (d *Doc) Numbers() []int {
	out := make([]int, len(d.sections))
	for i, e := range d.sections {
		out[i] = e.sec.Number
	}
	return out
}

func (d *Doc) lookup(n int) (*entry, int) {
	for i, e := range d.sections {
		if e.sec.Number == n {
			return e, i
		}
	}
	return nil, -1
}

// Has reports whether section n is loaded.
func (d *Doc) Has(n int) bool {
	e, _ := d.lookup(n)
	return e != nil
}

// Section returns loaded section n or nil.
func (d *Doc) Section(n int) *doctree.Section {
	if e, _ := d.lookup(n); e != nil {
		return e.sec
	}
	return nil
}

// SectionNode returns the element of loaded section n (empty when absent).
func (d *Doc) SectionNode(n int) *goquery.Selection {
	if e, _ := d.lookup(n); e != nil {
		return d.Selection(e.node)
	}
	return d.dom.Find("#section-none")
}

// SectionOf returns the section containing node.
func (d *Doc) SectionOf(n *html.Node) (*doctree.Section, bool) {
	li := d.Selection(n).Closest("li.section.main")
	if li.Length() == 0 {
		return nil, false
	}
	for _, e := range d.sections {
		if e.node == li.Get(0) {
			return e.sec, true
		}
	}
	return nil, false
}

// Total is the number of sections in the course: the chapter count when
// sections load on demand, the loaded count otherwise.
func (d *Doc) Total() int {
	if d.opts.PartialRender {
		return len(d.chapters)
	}
	return len(d.sections)
}

// Chapters returns the table-of-contents entries.
func (d *Doc) Chapters() []doctree.Chapter {
	return append([]doctree.Chapter(nil), d.chapters...)
}

// ChapterTitle returns the table-of-contents title of section n, falling
// back to the loaded section title.
func (d *Doc) ChapterTitle(n int) string {
	for _, c := range d.chapters {
		if c.Number == n {
			return c.Title
		}
	}
	if s := d.Section(n); s != nil {
		return s.Title
	}
	return ""
}

// SectionHidden reports whether section n is hidden, consulting the loaded
// section first and the chapter list otherwise.
func (d *Doc) SectionHidden(n int) bool {
	if s := d.Section(n); s != nil {
		return s.Hidden()
	}
	for _, c := range d.chapters {
		if c.Number == n {
			return c.Hidden
		}
	}
	return false
}

// DisplayTitle is the title shown in the section heading.
func (d *Doc) DisplayTitle(s *doctree.Section) string {
	if d.opts.NumberedTitles && s.Number > 0 {
		return fmt.Sprintf("%d. %s", s.Number, s.Title)
	}
	return s.Title
}

// Project rewrites the element of s from the model: id, title, classes
// and the attributes that route actions to the section.
func (d *Doc) Project(s *doctree.Section) {
	e := d.entryFor(s)
	if e == nil {
		return
	}
	sel := d.Selection(e.node)
	sel.SetAttr("id", doctree.SectionID(s.Number))
	sel.SetAttr("aria-label", s.Title)
	sel.Find(".content .sectionname").First().SetText(d.DisplayTitle(s))
	sel.Find(".snap-drop.section-drop").SetAttr("data-title", s.Title)
	setClass(sel, "hidden", s.Hidden())
	setClass(sel, "current", s.Highlighted)
	sel.Find("a.section-modchooser-link").SetAttr("data-section", fmt.Sprint(s.Number))
	d.projectHighlightLink(sel, s)
	for _, a := range s.Assets {
		a.Section = s.Number
	}
}

func (d *Doc) projectHighlightLink(sel *goquery.Selection, s *doctree.Section) {
	link := sel.Find(".snap-section-editing .snap-highlight").First()
	if link.Length() == 0 {
		return
	}
	marker := s.Number
	if s.Highlighted {
		marker = 0
	}
	link.SetAttr("href", markerRe.ReplaceAllString(link.AttrOr("href", ""), fmt.Sprintf("${1}%d", marker)))
	link.SetAttr("aria-pressed", fmt.Sprint(s.Highlighted))
}

func (d *Doc) entryFor(s *doctree.Section) *entry {
	for _, e := range d.sections {
		if e.sec == s {
			return e
		}
	}
	return nil
}

// setClass leaves elements already in the wanted state untouched; goquery
// rewrites the whole class attribute on every add or remove.
func setClass(sel *goquery.Selection, class string, on bool) {
	sel.Each(func(_ int, el *goquery.Selection) {
		if el.HasClass(class) == on {
			return
		}
		if on {
			el.AddClass(class)
		} else {
			el.RemoveClass(class)
		}
	})
}
