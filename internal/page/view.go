package page

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const (
	visibleClass        = "state-visible"
	visibleChapterClass = "snap-visible-section"
	alertLoadingClass   = "snap-footer-alert-loading"
)

// Alert is the state of the footer alert.
type Alert struct {
	Visible  bool
	Title    string
	Loading  bool
	SRNotice string
}

// Body returns the body element.
func (d *Doc) Body() *goquery.Selection {
	return d.dom.Find("body").First()
}

// SetBodyClass adds or removes a class on the body.
func (d *Doc) SetBodyClass(class string, on bool) {
	setClass(d.Body(), class, on)
}

// BodyHasClass reports whether the body carries class.
func (d *Doc) BodyHasClass(class string) bool {
	return d.Body().HasClass(class)
}

// Format returns the course format named by the body id.
func (d *Doc) Format() string {
	return strings.TrimPrefix(d.Body().AttrOr("id", ""), "page-course-view-")
}

// SetLoading shows or hides the loading indicator. Showing it hides the
// visible section.
func (d *Doc) SetLoading(on bool) {
	ind := d.loadingIndicator()
	if on {
		ind.RemoveAttr("hidden")
		d.container().ChildrenFiltered("li.section.main").RemoveClass(visibleClass)
		return
	}
	ind.SetAttr("hidden", "")
}

// Loading reports whether the loading indicator is shown.
func (d *Doc) Loading() bool {
	_, hidden := d.loadingIndicator().Attr("hidden")
	return d.loadingIndicator().Length() > 0 && !hidden
}

// ShowSection makes section n the current location: the only visible
// section, with its chapter marked in the table of contents.
func (d *Doc) ShowSection(n int) {
	d.current = n
	d.container().ChildrenFiltered("li.section.main").RemoveClass(visibleClass)
	d.SectionNode(n).AddClass(visibleClass)
	d.markVisibleChapter()
}

// Current returns the number of the current section, or -1.
func (d *Doc) Current() int {
	return d.current
}

// Visible returns the numbers of sections carrying the visible state.
func (d *Doc) Visible() []int {
	var out []int
	for _, e := range d.sections {
		if d.Selection(e.node).HasClass(visibleClass) {
			out = append(out, e.sec.Number)
		}
	}
	return out
}

func (d *Doc) markVisibleChapter() {
	items := d.dom.Find("#chapters > li")
	items.RemoveClass(visibleChapterClass)
	items.Each(func(_ int, li *goquery.Selection) {
		if li.Find("a.chapter-title").AttrOr("section-number", "") == fmt.Sprint(d.current) {
			li.AddClass(visibleChapterClass)
		}
	})
}

// Focus moves focus to the element with the given id and clears the table
// of contents search results.
func (d *Doc) Focus(id string) {
	el := d.dom.Find("#" + id)
	if el.Length() == 0 {
		return
	}
	el.SetAttr("tabindex", "-1")
	d.dom.Find("#toc-search-results").Empty()
	d.focused = id
}

// Focused returns the id of the last focused element.
func (d *Doc) Focused() string {
	return d.focused
}

func (d *Doc) alert() *goquery.Selection {
	return d.dom.Find("#snap-footer-alert").First()
}

// ShowAlert shows the footer alert with title.
func (d *Doc) ShowAlert(title string) {
	a := d.alert()
	a.Find(".snap-footer-alert-title").SetText(title)
	a.RemoveAttr("hidden")
}

// SetAlertLoading toggles the spinner of the footer alert.
func (d *Doc) SetAlertLoading(on bool) {
	setClass(d.alert(), alertLoadingClass, on)
}

// SetAlertSRNotice sets the screen reader notice of the footer alert.
func (d *Doc) SetAlertSRNotice(text string) {
	d.alert().Find(".snap-footer-alert-sr").SetText(text)
}

// HideAlert hides and resets the footer alert.
func (d *Doc) HideAlert() {
	a := d.alert()
	a.SetAttr("hidden", "")
	a.RemoveClass(alertLoadingClass)
	a.Find(".snap-footer-alert-title").SetText("")
	a.Find(".snap-footer-alert-sr").SetText("")
}

// Alert returns the footer alert state.
func (d *Doc) Alert() Alert {
	a := d.alert()
	_, hidden := a.Attr("hidden")
	return Alert{
		Visible:  a.Length() > 0 && !hidden,
		Title:    a.Find(".snap-footer-alert-title").Text(),
		Loading:  a.HasClass(alertLoadingClass),
		SRNotice: a.Find(".snap-footer-alert-sr").Text(),
	}
}

var sectionParamRe = regexp.MustCompile(`([?&]section=)\d+`)

// SetModChooserSection points the add-activity links at section n.
func (d *Doc) SetModChooserSection(n int) {
	d.dom.Find("#snap-modchooser a.snap-modchooser-addlink").Each(func(_ int, a *goquery.Selection) {
		href := a.AttrOr("href", "")
		a.SetAttr("href", sectionParamRe.ReplaceAllString(href, fmt.Sprintf("${1}%d", n)))
	})
}
