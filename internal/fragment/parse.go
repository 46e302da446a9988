package fragment

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/dgallion1/snapedit/internal/doctree"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var modtypeRe = regexp.MustCompile(`\bmodtype_([a-z0-9_]+)`)

// Section is a parsed section fragment: the model and its detached element.
type Section struct {
	Model *doctree.Section
	Node  *html.Node
}

// Asset is a parsed asset row.
type Asset struct {
	Model *doctree.Asset
	Node  *html.Node
}

// ParseNodes parses markup as the children of an element of the given kind.
func ParseNodes(markup string, context atom.Atom) ([]*html.Node, error) {
	ctx := &html.Node{Type: html.ElementNode, Data: context.String(), DataAtom: context}
	nodes, err := html.ParseFragment(strings.NewReader(markup), ctx)
	if err != nil {
		return nil, fmt.Errorf("parse fragment: %w", err)
	}
	return nodes, nil
}

// ParseSection parses a rendered section fragment.
func ParseSection(markup string) (*Section, error) {
	nodes, err := ParseNodes(markup, atom.Ul)
	if err != nil {
		return nil, err
	}
	for _, n := range nodes {
		if n.Type != html.ElementNode || n.DataAtom != atom.Li {
			continue
		}
		if !strings.HasPrefix(attr(n, "id"), "section-") {
			continue
		}
		s, err := SectionFromNode(n)
		if err != nil {
			return nil, err
		}
		return &Section{Model: s, Node: n}, nil
	}
	return nil, fmt.Errorf("parse section: no section element in fragment")
}

// SectionFromNode reads the section model from a rendered section element.
func SectionFromNode(n *html.Node) (*doctree.Section, error) {
	sel := selection(n)
	num, err := SectionNumber(sel.AttrOr("id", ""))
	if err != nil {
		return nil, err
	}
	title, ok := sel.Attr("aria-label")
	if !ok {
		title = strings.TrimSpace(sel.Find(".sectionname").First().Text())
	}
	s := &doctree.Section{
		Number:      num,
		Title:       title,
		Visibility:  doctree.Visible,
		Highlighted: sel.HasClass("current"),
		Loaded:      true,
	}
	if sel.HasClass("hidden") || sel.HasClass("draft") {
		s.Visibility = doctree.Hidden
	}
	sel.Find("li.snap-asset").Each(func(_ int, a *goquery.Selection) {
		asset, err := AssetFromNode(a.Get(0))
		if err != nil {
			return
		}
		asset.Section = num
		s.Assets = append(s.Assets, asset)
	})
	return s, nil
}

// ParseAssets parses rendered asset rows, such as a duplicate response.
func ParseAssets(markup string) ([]*Asset, error) {
	nodes, err := ParseNodes(markup, atom.Ul)
	if err != nil {
		return nil, err
	}
	var out []*Asset
	for _, n := range nodes {
		if n.Type != html.ElementNode || !selection(n).HasClass("snap-asset") {
			continue
		}
		a, err := AssetFromNode(n)
		if err != nil {
			return nil, err
		}
		out = append(out, &Asset{Model: a, Node: n})
	}
	return out, nil
}

// AssetFromNode reads the asset model from a rendered asset row.
func AssetFromNode(n *html.Node) (*doctree.Asset, error) {
	sel := selection(n)
	id, err := ModuleID(sel.AttrOr("id", ""))
	if err != nil {
		return nil, err
	}
	a := &doctree.Asset{
		ID:         id,
		Name:       strings.TrimSpace(sel.Find(".instancename").First().Text()),
		Visibility: doctree.Visible,
	}
	if m := modtypeRe.FindStringSubmatch(sel.AttrOr("class", "")); m != nil {
		a.Kind = m[1]
	}
	if sel.HasClass("draft") {
		a.Visibility = doctree.Hidden
	}
	return a, nil
}

// ParseChapters parses a rendered chapter list and returns its entries and
// the list element.
func ParseChapters(markup string) ([]doctree.Chapter, *html.Node, error) {
	nodes, err := ParseNodes(markup, atom.Div)
	if err != nil {
		return nil, nil, err
	}
	for _, n := range nodes {
		if n.Type == html.ElementNode && attr(n, "id") == "chapters" {
			chapters, err := ChaptersFrom(selection(n))
			return chapters, n, err
		}
	}
	return nil, nil, fmt.Errorf("parse chapters: no chapter list in fragment")
}

// ParseTOC parses a rendered table of contents container and returns its
// chapters and its child nodes.
func ParseTOC(markup string) ([]doctree.Chapter, []*html.Node, error) {
	nodes, err := ParseNodes(markup, atom.Div)
	if err != nil {
		return nil, nil, err
	}
	for _, n := range nodes {
		if n.Type != html.ElementNode || attr(n, "id") != "course-toc" {
			continue
		}
		chapters, err := ChaptersFrom(selection(n).Find("#chapters"))
		if err != nil {
			return nil, nil, err
		}
		var children []*html.Node
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			children = append(children, c)
		}
		return chapters, children, nil
	}
	return nil, nil, fmt.Errorf("parse toc: no course-toc element in fragment")
}

// ChaptersFrom reads chapter entries from a chapter list selection.
func ChaptersFrom(list *goquery.Selection) ([]doctree.Chapter, error) {
	var chapters []doctree.Chapter
	var firstErr error
	list.ChildrenFiltered("li").Each(func(_ int, li *goquery.Selection) {
		link := li.Find("a.chapter-title").First()
		num, err := strconv.Atoi(link.AttrOr("section-number", ""))
		if err != nil {
			num, err = SectionNumber(strings.TrimPrefix(link.AttrOr("href", ""), "#"))
		}
		if err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("chapter %d: %w", len(chapters), err)
			}
			return
		}
		chapters = append(chapters, doctree.Chapter{
			Number: num,
			Title:  strings.TrimSpace(link.Text()),
			Hidden: li.HasClass("draft"),
		})
	})
	return chapters, firstErr
}

// SectionNumber parses "section-N".
func SectionNumber(id string) (int, error) {
	rest, ok := strings.CutPrefix(id, "section-")
	if !ok {
		return 0, fmt.Errorf("not a section id: %q", id)
	}
	n, err := strconv.Atoi(rest)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("bad section number in %q", id)
	}
	return n, nil
}

// ModuleID parses "module-N".
func ModuleID(id string) (int, error) {
	rest, ok := strings.CutPrefix(id, "module-")
	if !ok {
		return 0, fmt.Errorf("not a module id: %q", id)
	}
	n, err := strconv.Atoi(rest)
	if err != nil {
		return 0, fmt.Errorf("bad module id in %q", id)
	}
	return n, nil
}

func selection(n *html.Node) *goquery.Selection {
	return goquery.NewDocumentFromNode(n).Selection
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
