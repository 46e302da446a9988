package editor

import (
	"context"
	"regexp"
	"strconv"

	"github.com/PuerkitoBio/goquery"
	"github.com/dgallion1/snapedit/internal/backend"
	"github.com/dgallion1/snapedit/internal/fragment"
	"github.com/dgallion1/snapedit/internal/page"
	"golang.org/x/net/html"
)

// searchableRe matches table-of-contents search links: #section-S&module-ID.
var searchableRe = regexp.MustCompile(`^#section-(\d+)(?:&module-(\d+))?$`)

type route func(ctx context.Context) error

// Click routes a click on node to the behavior it triggers. Clicks on
// elements with no behavior are ignored.
func (e *Editor) Click(ctx context.Context, node *html.Node) error {
	var r route
	e.page.View(func(d *page.Doc) {
		r = e.resolve(d, d.Selection(node))
	})
	if r == nil {
		return nil
	}
	return r(ctx)
}

func (e *Editor) resolve(d *page.Doc, sel *goquery.Selection) route {
	if sel.Length() == 0 {
		return nil
	}
	if sel.Closest("a.snap-footer-alert-cancel").Length() > 0 {
		return func(context.Context) error { return e.CancelMove() }
	}
	if r := e.resolveNavigation(sel); r != nil {
		return r
	}
	if link := sel.Closest("a.section-modchooser-link"); link.Length() > 0 {
		n, err := strconv.Atoi(link.AttrOr("data-section", ""))
		if err != nil {
			return nil
		}
		return func(context.Context) error {
			e.SetModChooserSection(n)
			return nil
		}
	}

	if sel.Closest(".snap-drop.section-drop-end").Length() > 0 {
		total := d.Total()
		return func(ctx context.Context) error { return e.Drop(ctx, Target{Section: total}) }
	}

	section := sel.Closest("li.section.main")
	n, err := fragment.SectionNumber(section.AttrOr("id", ""))
	if err != nil {
		return nil
	}

	if sel.Closest(".snap-drop.section-drop").Length() > 0 {
		return func(ctx context.Context) error { return e.Drop(ctx, Target{Section: n}) }
	}
	if sel.Closest("li.snap-drop.asset-drop").Length() > 0 {
		return func(ctx context.Context) error { return e.Drop(ctx, Target{Section: n}) }
	}

	if actions := sel.Closest(".snap-section-editing"); actions.Length() > 0 {
		switch {
		case sel.Closest("a.snap-move").Length() > 0:
			return func(context.Context) error { return e.StartSectionMove(n) }
		case sel.Closest("a.snap-visibility").Length() > 0:
			return func(ctx context.Context) error { return e.ToggleVisibility(ctx, n) }
		case sel.Closest("a.snap-highlight").Length() > 0:
			return func(ctx context.Context) error { return e.ToggleHighlight(ctx, n) }
		case sel.Closest("a.snap-delete").Length() > 0:
			return func(ctx context.Context) error { return e.DeleteSection(ctx, n) }
		}
		return nil
	}

	row := sel.Closest("li.snap-asset")
	if row.Length() == 0 {
		return nil
	}
	id, err := fragment.ModuleID(row.AttrOr("id", ""))
	if err != nil {
		return nil
	}
	if box := sel.Closest("input.js-snap-asset-move"); box.Length() > 0 {
		_, checked := box.Attr("checked")
		return func(context.Context) error { return e.ToggleAssetMove(id, !checked) }
	}
	if btn := sel.Closest(".snap-asset-actions [data-action]"); btn.Length() > 0 {
		action, err := backend.ParseModuleAction(btn.AttrOr("data-action", ""))
		if err != nil {
			return nil
		}
		return func(ctx context.Context) error { return e.AssetAction(ctx, id, action) }
	}
	if d.BodyHasClass("snap-move-asset") {
		return func(ctx context.Context) error { return e.Drop(ctx, Target{Section: n, Before: id}) }
	}
	return nil
}

// resolveNavigation routes table-of-contents and footer links.
func (e *Editor) resolveNavigation(sel *goquery.Selection) route {
	if !e.cfg.Navigable() {
		return nil
	}
	if link := sel.Closest("#chapters a.chapter-title"); link.Length() > 0 {
		return e.goTo(link.AttrOr("section-number", ""), "")
	}
	if link := sel.Closest("nav.section_footer a.previous_section, nav.section_footer a.next_section"); link.Length() > 0 {
		return e.goTo(link.AttrOr("section-number", ""), "")
	}
	if link := sel.Closest("#toc-searchables a"); link.Length() > 0 {
		m := searchableRe.FindStringSubmatch(link.AttrOr("href", ""))
		if m == nil {
			return nil
		}
		focus := ""
		if m[2] != "" {
			focus = "module-" + m[2]
		}
		return e.goTo(m[1], focus)
	}
	return nil
}

func (e *Editor) goTo(number, focusID string) route {
	n, err := strconv.Atoi(number)
	if err != nil {
		return nil
	}
	return func(ctx context.Context) error { return e.GoToSection(ctx, n, focusID) }
}
