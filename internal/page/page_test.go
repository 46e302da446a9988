package page

import (
	"strings"
	"testing"

	"github.com/dgallion1/snapedit/internal/doctree"
	"github.com/dgallion1/snapedit/internal/fragment"
	"github.com/dgallion1/snapedit/internal/tracker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCourse(n int, loaded func(int) bool) *doctree.Course {
	c := &doctree.Course{ID: 2, Title: "Demo"}
	for i := 0; i < n; i++ {
		c.Sections = append(c.Sections, &doctree.Section{
			Title:      "Topic " + string(rune('A'+i)),
			Visibility: doctree.Visible,
			Loaded:     loaded(i),
			Assets: []*doctree.Asset{
				{ID: 10 + i, Name: "Asset", Kind: "page", Visibility: doctree.Visible},
			},
		})
	}
	c.Renumber()
	return c
}

func all(int) bool { return true }

func newPage(t *testing.T, c *doctree.Course, opts Options) *Page {
	t.Helper()
	markup, err := fragment.NewRenderer().Page(c, "topics")
	require.NoError(t, err)
	p, err := Parse(markup, opts)
	require.NoError(t, err)
	return p
}

func domNumbers(d *Doc) []string {
	var ids []string
	for _, n := range d.container().ChildrenFiltered("li.section.main").Nodes {
		for _, a := range n.Attr {
			if a.Key == "id" {
				ids = append(ids, a.Val)
			}
		}
	}
	return ids
}

func TestParse_IndexesSectionsAndChapters(t *testing.T) {
	p := newPage(t, testCourse(4, func(i int) bool { return i%2 == 0 }), Options{PartialRender: true})
	p.View(func(d *Doc) {
		assert.Equal(t, []int{0, 2}, d.Numbers())
		assert.Len(t, d.Chapters(), 4)
		assert.Equal(t, 4, d.Total())
		assert.Equal(t, "Topic B", d.ChapterTitle(1))
		assert.Equal(t, "topics", d.Format())
	})
}

func TestInsertSection_KeepsIndexAndDOMInStep(t *testing.T) {
	c := testCourse(4, func(i int) bool { return i == 2 })
	p := newPage(t, c, Options{PartialRender: true})
	r := fragment.NewRenderer()

	insert := func(n, sibling int, before bool) {
		markup, err := r.Section(2, c.Sections[n])
		require.NoError(t, err)
		f, err := fragment.ParseSection(markup)
		require.NoError(t, err)
		require.NoError(t, p.Update(func(d *Doc) error { return d.InsertSection(f, sibling, before) }))
	}
	insert(1, 2, true)
	insert(3, 2, false)

	p.View(func(d *Doc) {
		assert.Equal(t, []int{1, 2, 3}, d.Numbers())
		assert.Equal(t, []string{"section-1", "section-2", "section-3"}, domNumbers(d))
	})

	err := p.Update(func(d *Doc) error {
		f, _ := fragment.ParseSection(`<li id="section-3" class="section main"></li>`)
		return d.InsertSection(f, 1, false)
	})
	assert.Error(t, err, "already loaded sections are not inserted twice")
}

func TestMoveSectionBefore_AndSort(t *testing.T) {
	p := newPage(t, testCourse(5, all), Options{})
	require.NoError(t, p.Update(func(d *Doc) error { return d.MoveSectionBefore(4, 1) }))
	p.View(func(d *Doc) {
		assert.Equal(t, []int{0, 4, 1, 2, 3}, d.Numbers())
		assert.Equal(t, []string{"section-0", "section-4", "section-1", "section-2", "section-3"}, domNumbers(d))
	})

	require.NoError(t, p.Update(func(d *Doc) error {
		d.SortSections()
		return nil
	}))
	p.View(func(d *Doc) {
		assert.Equal(t, []int{0, 1, 2, 3, 4}, d.Numbers())
		assert.Equal(t, []string{"section-0", "section-1", "section-2", "section-3", "section-4"}, domNumbers(d))
	})

	err := p.Update(func(d *Doc) error { return d.MoveSectionBefore(9, 1) })
	assert.ErrorIs(t, err, ErrSectionNotFound)
}

func TestMoveSectionLast(t *testing.T) {
	p := newPage(t, testCourse(4, all), Options{})
	require.NoError(t, p.Update(func(d *Doc) error { return d.MoveSectionLast(1) }))
	p.View(func(d *Doc) {
		assert.Equal(t, []int{0, 2, 3, 1}, d.Numbers())
		assert.Equal(t, []string{"section-0", "section-2", "section-3", "section-1"}, domNumbers(d))
		assert.True(t, d.container().Children().Last().HasClass("section-drop-end"))
	})
	require.NoError(t, p.Update(func(d *Doc) error { return d.MoveSectionLast(1) }))
	p.View(func(d *Doc) { assert.Equal(t, []int{0, 2, 3, 1}, d.Numbers()) })

	err := p.Update(func(d *Doc) error { return d.MoveSectionLast(9) })
	assert.ErrorIs(t, err, ErrSectionNotFound)
}

func TestProject_UnchangedSectionKeepsMarkup(t *testing.T) {
	p := newPage(t, testCourse(3, all), Options{})
	require.NoError(t, p.Update(func(d *Doc) error {
		// Irregular spacing survives as long as no class changes.
		d.SectionNode(1).SetAttr("class", "section  main")
		return nil
	}))
	before, err := p.HTML()
	require.NoError(t, err)

	require.NoError(t, p.Update(func(d *Doc) error {
		for _, s := range d.Sections() {
			d.Project(s)
		}
		return nil
	}))
	after, err := p.HTML()
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestProject_RewritesRoutingAttributes(t *testing.T) {
	p := newPage(t, testCourse(3, all), Options{NumberedTitles: true})
	require.NoError(t, p.Update(func(d *Doc) error {
		s := d.Section(2)
		s.Number = 5
		s.Title = "Renamed"
		d.Project(s)
		return nil
	}))
	p.View(func(d *Doc) {
		sel := d.SectionNode(5)
		require.Equal(t, 1, sel.Length())
		assert.Equal(t, "5. Renamed", sel.Find(".sectionname").Text())
		assert.Equal(t, "Renamed", sel.AttrOr("aria-label", ""))
		assert.Equal(t, "5", sel.Find(".section-modchooser-link").AttrOr("data-section", ""))
		assert.True(t, strings.HasSuffix(sel.Find(".snap-highlight").AttrOr("href", ""), "marker=5"))
		a, _ := d.Asset(12)
		assert.Equal(t, 5, a.Section)
	})
}

func TestSetHighlight_ClearsOthers(t *testing.T) {
	p := newPage(t, testCourse(4, all), Options{})
	require.NoError(t, p.Update(func(d *Doc) error {
		d.SetHighlight(1, true)
		d.SetHighlight(3, true)
		return nil
	}))
	p.View(func(d *Doc) {
		assert.False(t, d.Section(1).Highlighted)
		assert.False(t, d.SectionNode(1).HasClass("current"))
		assert.Equal(t, "false", d.SectionNode(1).Find(".snap-highlight").AttrOr("aria-pressed", ""))
		assert.True(t, d.Section(3).Highlighted)
		assert.True(t, strings.HasSuffix(d.SectionNode(3).Find(".snap-highlight").AttrOr("href", ""), "marker=0"))
	})
}

func TestAssets_MoveRemoveReplace(t *testing.T) {
	p := newPage(t, testCourse(3, all), Options{})
	require.NoError(t, p.Update(func(d *Doc) error {
		d.AddAssetDrops()
		d.AddAssetDrops()
		return nil
	}))
	p.View(func(d *Doc) {
		assert.Equal(t, 3, d.DOM().Find("li.snap-drop.asset-drop").Length())
	})

	require.NoError(t, p.Update(func(d *Doc) error { return d.MoveAsset(10, 0, 2) }))
	require.NoError(t, p.Update(func(d *Doc) error { return d.MoveAsset(11, 12, 2) }))
	p.View(func(d *Doc) {
		s := d.Section(2)
		require.Len(t, s.Assets, 3)
		assert.Equal(t, []int{11, 12, 10}, []int{s.Assets[0].ID, s.Assets[1].ID, s.Assets[2].ID})
		rows := d.SectionNode(2).Find("li.snap-asset")
		assert.Equal(t, "module-11", rows.Eq(0).AttrOr("id", ""))
		assert.Equal(t, "module-10", rows.Eq(2).AttrOr("id", ""))
		assert.True(t, rows.Eq(2).Next().HasClass("asset-drop"))
		assert.Empty(t, d.Section(0).Assets)
	})

	require.NoError(t, p.Update(func(d *Doc) error { return d.RemoveAsset(12) }))
	p.View(func(d *Doc) {
		assert.Equal(t, 0, d.AssetNode(12).Length())
		assert.Equal(t, 0, d.DOM().Find(`#toc-searchables li[data-id="12"]`).Length())
	})

	rows, err := fragment.ParseAssets(`<li id="module-11" class="snap-asset modtype_page"></li><li id="module-13" class="snap-asset modtype_page draft"></li>`)
	require.NoError(t, err)
	require.NoError(t, p.Update(func(d *Doc) error { return d.ReplaceAsset(11, rows) }))
	p.View(func(d *Doc) {
		a, s := d.Asset(13)
		require.NotNil(t, a)
		assert.Equal(t, 2, s.Number)
		assert.Equal(t, 1, d.AssetNode(13).Length())
	})
}

func TestMarkBusy(t *testing.T) {
	p := newPage(t, testCourse(2, all), Options{})
	trigger := p.doc.AssetNode(10).Get(0)
	tr := tracker.New(p, nil)

	require.True(t, tr.Start("asset_hide", trigger, ".snap-edit-asset-more"))
	p.View(func(d *Doc) {
		assert.True(t, d.AssetNode(10).Find(".snap-edit-asset-more").HasClass(tracker.BusyClass))
		assert.False(t, d.AssetNode(10).HasClass(tracker.BusyClass))
	})
	tr.Complete("asset_hide")
	p.View(func(d *Doc) {
		assert.False(t, d.AssetNode(10).Find(".snap-edit-asset-more").HasClass(tracker.BusyClass))
	})
}

func TestLoadingShowSectionAndAlert(t *testing.T) {
	p := newPage(t, testCourse(3, all), Options{})
	require.NoError(t, p.Update(func(d *Doc) error {
		d.ShowSection(1)
		d.SetLoading(true)
		return nil
	}))
	p.View(func(d *Doc) {
		assert.True(t, d.Loading())
		assert.Empty(t, d.Visible())
	})
	require.NoError(t, p.Update(func(d *Doc) error {
		d.SetLoading(false)
		d.ShowSection(2)
		d.ShowAlert(`Moving "Topic A"`)
		d.SetAlertLoading(true)
		return nil
	}))
	p.View(func(d *Doc) {
		assert.False(t, d.Loading())
		assert.Equal(t, []int{2}, d.Visible())
		assert.Equal(t, 1, d.DOM().Find("#chapters li.snap-visible-section").Length())
		assert.Equal(t, Alert{Visible: true, Title: `Moving "Topic A"`, Loading: true}, d.Alert())
		d.HideAlert()
		assert.Equal(t, Alert{}, d.Alert())
	})

	out, err := p.HTML()
	require.NoError(t, err)
	assert.Contains(t, out, `id="snap-footer-alert"`)
}
