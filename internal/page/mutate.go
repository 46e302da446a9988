package page

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
	"sort"

	"github.com/PuerkitoBio/goquery"
	"github.com/dgallion1/snapedit/internal/doctree"
	"github.com/dgallion1/snapedit/internal/fragment"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var markerRe = regexp.MustCompile(`([?&]marker=)-?\d+`)

// ErrSectionNotFound is returned when an operation names a section that is
// not loaded.
var ErrSectionNotFound = errors.New("section not loaded")

// ErrAssetNotFound is returned when an operation names an unknown asset.
var ErrAssetNotFound = errors.New("asset not found")

// InsertSection adds a fetched section to the page next to the loaded
// section sibling, before it when before is set. A negative sibling places
// the section first, right after the loading indicator.
func (d *Doc) InsertSection(f *fragment.Section, sibling int, before bool) error {
	if d.Has(f.Model.Number) {
		return fmt.Errorf("insert section %d: already loaded", f.Model.Number)
	}
	e := &entry{sec: f.Model, node: f.Node}
	ul := d.container()
	if ul.Length() == 0 {
		return errors.New("insert section: page has no section list")
	}
	if sibling < 0 {
		parent := ul.Get(0)
		parent.InsertBefore(f.Node, parent.FirstChild)
		d.sections = slices.Insert(d.sections, 0, e)
		return nil
	}
	ref, i := d.lookup(sibling)
	if ref == nil {
		return fmt.Errorf("insert section %d next to %d: %w", f.Model.Number, sibling, ErrSectionNotFound)
	}
	if before {
		ref.node.Parent.InsertBefore(f.Node, ref.node)
		d.sections = slices.Insert(d.sections, i, e)
	} else {
		ref.node.Parent.InsertBefore(f.Node, ref.node.NextSibling)
		d.sections = slices.Insert(d.sections, i+1, e)
	}
	return nil
}

// RemoveSection removes loaded section n and its assets from the page.
func (d *Doc) RemoveSection(n int) (*doctree.Section, error) {
	e, i := d.lookup(n)
	if e == nil {
		return nil, fmt.Errorf("remove section %d: %w", n, ErrSectionNotFound)
	}
	if e.node.Parent != nil {
		e.node.Parent.RemoveChild(e.node)
	}
	d.sections = slices.Delete(d.sections, i, i+1)
	if d.current == n {
		d.current = -1
	}
	return e.sec, nil
}

// MoveSectionBefore places loaded section from directly before loaded
// section before.
func (d *Doc) MoveSectionBefore(from, before int) error {
	if from == before {
		return nil
	}
	e, i := d.lookup(from)
	if e == nil {
		return fmt.Errorf("move section %d: %w", from, ErrSectionNotFound)
	}
	if ref, _ := d.lookup(before); ref == nil {
		return fmt.Errorf("move section %d before %d: %w", from, before, ErrSectionNotFound)
	}
	d.sections = slices.Delete(d.sections, i, i+1)
	ref, j := d.lookup(before)
	e.node.Parent.RemoveChild(e.node)
	ref.node.Parent.InsertBefore(e.node, ref.node)
	d.sections = slices.Insert(d.sections, j, e)
	return nil
}

// MoveSectionLast places loaded section from after every other loaded
// section.
func (d *Doc) MoveSectionLast(from int) error {
	e, i := d.lookup(from)
	if e == nil {
		return fmt.Errorf("move section %d: %w", from, ErrSectionNotFound)
	}
	if i == len(d.sections)-1 {
		return nil
	}
	last := d.sections[len(d.sections)-1]
	d.sections = append(slices.Delete(d.sections, i, i+1), e)
	e.node.Parent.RemoveChild(e.node)
	last.node.Parent.InsertBefore(e.node, last.node.NextSibling)
	return nil
}

// SortSections orders the index and the section elements by number.
func (d *Doc) SortSections() {
	sort.SliceStable(d.sections, func(i, j int) bool {
		return d.sections[i].sec.Number < d.sections[j].sec.Number
	})
	if len(d.sections) < 2 || d.inDOMOrder() {
		return
	}
	parent := d.sections[0].node.Parent
	if parent == nil {
		return
	}
	for _, e := range d.sections {
		parent.RemoveChild(e.node)
	}
	// Sections go back ahead of whatever element followed them.
	var anchor *html.Node
	for c := parent.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			anchor = c
			break
		}
	}
	for _, e := range d.sections {
		parent.InsertBefore(e.node, anchor)
	}
}

// inDOMOrder reports whether the section elements already follow the index.
func (d *Doc) inDOMOrder() bool {
	nodes := d.container().ChildrenFiltered("li.section.main").Nodes
	if len(nodes) != len(d.sections) {
		return false
	}
	for i, e := range d.sections {
		if nodes[i] != e.node {
			return false
		}
	}
	return true
}

// Renumber assigns new numbers to loaded sections. numbers maps old to new
// numbers; sections absent from the map keep theirs.
func (d *Doc) Renumber(numbers map[int]int) {
	if n, ok := numbers[d.current]; ok {
		d.current = n
	}
	for _, e := range d.sections {
		if n, ok := numbers[e.sec.Number]; ok {
			e.sec.Number = n
		}
	}
}

// ReplaceActions swaps the editing controls of section n.
func (d *Doc) ReplaceActions(n int, markup string) error {
	sel := d.SectionNode(n)
	if sel.Length() == 0 {
		return fmt.Errorf("replace actions of section %d: %w", n, ErrSectionNotFound)
	}
	nodes, err := fragment.ParseNodes(markup, atom.Div)
	if err != nil {
		return err
	}
	sel.Find(".snap-section-editing").First().ReplaceWithNodes(nodes...)
	return nil
}

// ReplaceFooter swaps the navigation footer of section n.
func (d *Doc) ReplaceFooter(n int, markup string) error {
	sel := d.SectionNode(n)
	if sel.Length() == 0 {
		return fmt.Errorf("replace footer of section %d: %w", n, ErrSectionNotFound)
	}
	nodes, err := fragment.ParseNodes(markup, atom.Div)
	if err != nil {
		return err
	}
	footer := sel.ChildrenFiltered(".section_footer")
	if footer.Length() == 0 {
		sel.AppendNodes(nodes...)
		return nil
	}
	footer.ReplaceWithNodes(nodes...)
	return nil
}

// Footer returns the navigation footer of section n.
func (d *Doc) Footer(n int) *goquery.Selection {
	return d.SectionNode(n).ChildrenFiltered(".section_footer")
}

// ReplaceTOC swaps the contents of the table of contents.
func (d *Doc) ReplaceTOC(markup string) error {
	chapters, children, err := fragment.ParseTOC(markup)
	if err != nil {
		return err
	}
	toc := d.dom.Find("#course-toc").First()
	if toc.Length() == 0 {
		return errors.New("replace toc: page has no table of contents")
	}
	toc.Empty()
	toc.AppendNodes(children...)
	d.chapters = chapters
	d.markVisibleChapter()
	return nil
}

// ReplaceChapters swaps the chapter list of the table of contents.
func (d *Doc) ReplaceChapters(markup string) error {
	chapters, node, err := fragment.ParseChapters(markup)
	if err != nil {
		return err
	}
	old := d.dom.Find("#chapters").First()
	if old.Length() == 0 {
		return errors.New("replace chapters: page has no chapter list")
	}
	old.ReplaceWithNodes(node)
	d.chapters = chapters
	d.markVisibleChapter()
	return nil
}

// SetSectionVisibility updates the visibility of loaded section n.
func (d *Doc) SetSectionVisibility(n int, v doctree.Visibility) error {
	s := d.Section(n)
	if s == nil {
		return fmt.Errorf("set visibility of section %d: %w", n, ErrSectionNotFound)
	}
	s.Visibility = v
	setClass(d.SectionNode(n), "hidden", s.Hidden())
	return nil
}

// SetHighlight marks section n as highlighted (or clears it) and clears the
// highlight of every other section.
func (d *Doc) SetHighlight(n int, on bool) {
	for _, e := range d.sections {
		if e.sec.Number == 0 && n != 0 {
			continue
		}
		e.sec.Highlighted = on && e.sec.Number == n
		sel := d.Selection(e.node)
		setClass(sel, "current", e.sec.Highlighted)
		d.projectHighlightLink(sel, e.sec)
	}
}

// Asset returns the asset with the given id and the section holding it.
func (d *Doc) Asset(id int) (*doctree.Asset, *doctree.Section) {
	for _, e := range d.sections {
		if a, _ := e.sec.Asset(id); a != nil {
			return a, e.sec
		}
	}
	return nil, nil
}

// AssetNode returns the row of asset id.
func (d *Doc) AssetNode(id int) *goquery.Selection {
	return d.dom.Find(fmt.Sprintf("li#module-%d.snap-asset", id))
}

// RemoveAsset removes the asset row and its table-of-contents searchable.
func (d *Doc) RemoveAsset(id int) error {
	a, s := d.Asset(id)
	if a == nil {
		return fmt.Errorf("remove asset %d: %w", id, ErrAssetNotFound)
	}
	_, i := s.Asset(id)
	s.Assets = slices.Delete(s.Assets, i, i+1)
	d.AssetNode(id).Remove()
	d.dom.Find(fmt.Sprintf(`#toc-searchables li[data-id="%d"]`, id)).Remove()
	return nil
}

// SetAssetVisibility toggles the draft state of an asset row.
func (d *Doc) SetAssetVisibility(id int, v doctree.Visibility) error {
	a, _ := d.Asset(id)
	if a == nil {
		return fmt.Errorf("set visibility of asset %d: %w", id, ErrAssetNotFound)
	}
	a.Visibility = v
	setClass(d.AssetNode(id), "draft", v == doctree.Hidden)
	return nil
}

// ReplaceAsset swaps the row of asset id with the given rows.
func (d *Doc) ReplaceAsset(id int, rows []*fragment.Asset) error {
	a, s := d.Asset(id)
	if a == nil {
		return fmt.Errorf("replace asset %d: %w", id, ErrAssetNotFound)
	}
	_, i := s.Asset(id)
	models := make([]*doctree.Asset, len(rows))
	nodes := make([]*html.Node, len(rows))
	for j, r := range rows {
		r.Model.Section = s.Number
		models[j] = r.Model
		nodes[j] = r.Node
	}
	s.Assets = slices.Replace(s.Assets, i, i+1, models...)
	d.AssetNode(id).ReplaceWithNodes(nodes...)
	return nil
}

// MoveAsset moves asset id into section, before asset beforeID or to the end
// of the section when beforeID is zero.
func (d *Doc) MoveAsset(id, beforeID, section int) error {
	a, from := d.Asset(id)
	if a == nil {
		return fmt.Errorf("move asset %d: %w", id, ErrAssetNotFound)
	}
	to := d.Section(section)
	if to == nil {
		return fmt.Errorf("move asset %d to section %d: %w", id, section, ErrSectionNotFound)
	}
	if beforeID == id {
		return nil
	}
	var ref *goquery.Selection
	if beforeID != 0 {
		if b, _ := to.Asset(beforeID); b == nil {
			return fmt.Errorf("move asset %d before %d: %w", id, beforeID, ErrAssetNotFound)
		}
		ref = d.AssetNode(beforeID)
	} else {
		ref = d.SectionNode(section).Find("ul.section > li.snap-drop.asset-drop").First()
	}

	_, i := from.Asset(id)
	from.Assets = slices.Delete(from.Assets, i, i+1)
	insertAt := len(to.Assets)
	if beforeID != 0 {
		_, insertAt = to.Asset(beforeID)
	}
	to.Assets = slices.Insert(to.Assets, insertAt, a)
	a.Section = section

	row := d.AssetNode(id)
	if ref.Length() > 0 {
		ref.BeforeSelection(row)
	} else {
		d.SectionNode(section).Find("ul.section").First().AppendSelection(row)
	}
	return nil
}

// AddAssetDrops appends an end-of-section drop zone to every section asset
// list that lacks one.
func (d *Doc) AddAssetDrops() {
	d.container().Find("li.section.main ul.section").Each(func(_ int, ul *goquery.Selection) {
		if ul.ChildrenFiltered("li.snap-drop.asset-drop").Length() > 0 {
			return
		}
		ul.AppendNodes(dropNode())
	})
}

func dropNode() *html.Node {
	n := &html.Node{Type: html.ElementNode, Data: "li", DataAtom: atom.Li}
	n.Attr = []html.Attribute{{Key: "class", Val: "snap-drop asset-drop"}}
	return n
}
