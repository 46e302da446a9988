package editor

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgallion1/snapedit/internal/backend"
	"github.com/dgallion1/snapedit/internal/doctree"
	"github.com/dgallion1/snapedit/internal/fragment"
	"github.com/dgallion1/snapedit/internal/page"
	"golang.org/x/net/html"
)

var errDuplicate = errors.New("request already in progress")

// SectionAction runs action on section n.
func (e *Editor) SectionAction(ctx context.Context, action backend.SectionAction, n int) error {
	switch action {
	case backend.SectionVisibility:
		return e.ToggleVisibility(ctx, n)
	case backend.SectionHighlight:
		return e.ToggleHighlight(ctx, n)
	case backend.SectionDelete:
		return e.DeleteSection(ctx, n)
	}
	panic(fmt.Sprintf("editor: unknown section action %q", action))
}

func sectionActionLabel(action backend.SectionAction) string {
	switch action {
	case backend.SectionVisibility:
		return "change section visibility"
	case backend.SectionHighlight:
		return "highlight section"
	case backend.SectionDelete:
		return "delete section"
	}
	panic(fmt.Sprintf("editor: unknown section action %q", action))
}

func assetActionLabel(action backend.ModuleAction) string {
	switch action {
	case backend.ModuleShow, backend.ModuleHide:
		return "change asset visibility"
	case backend.ModuleDelete:
		return "delete asset"
	case backend.ModuleDuplicate:
		return "duplicate asset"
	}
	panic(fmt.Sprintf("editor: unknown module action %q", action))
}

// ToggleVisibility hides a visible section or shows a hidden one.
func (e *Editor) ToggleVisibility(ctx context.Context, n int) error {
	var trigger *html.Node
	var hidden, found bool
	e.page.View(func(d *page.Doc) {
		if s := d.Section(n); s != nil {
			found, hidden = true, s.Hidden()
			trigger = firstNode(d.SectionNode(n).Find(".snap-section-editing .snap-visibility"))
		}
	})
	if !found {
		return fmt.Errorf("toggle visibility of section %d: %w", n, page.ErrSectionNotFound)
	}
	value := 0
	if hidden {
		value = 1
	}
	resp, err := e.sectionAction(ctx, backend.SectionVisibility, n, value, trigger)
	if err != nil {
		return ignoreDuplicate(err)
	}

	vis := doctree.Hidden
	if value == 1 {
		vis = doctree.Visible
	}
	err = e.page.Update(func(d *page.Doc) error {
		if err := d.ReplaceActions(n, resp.ActionModel); err != nil {
			return err
		}
		if err := d.ReplaceTOC(resp.TOC); err != nil {
			return err
		}
		return d.SetSectionVisibility(n, vis)
	})
	if err != nil {
		return err
	}
	return e.nav.Refresh(ctx, n-1, n+1)
}

// ToggleHighlight marks section n as the highlighted section, or clears
// the highlight when it already is.
func (e *Editor) ToggleHighlight(ctx context.Context, n int) error {
	var trigger *html.Node
	var highlighted, found bool
	e.page.View(func(d *page.Doc) {
		if s := d.Section(n); s != nil {
			found, highlighted = true, s.Highlighted
			trigger = firstNode(d.SectionNode(n).Find(".snap-section-editing .snap-highlight"))
		}
	})
	if !found {
		return fmt.Errorf("toggle highlight of section %d: %w", n, page.ErrSectionNotFound)
	}
	value := 1
	if highlighted {
		value = 0
	}
	resp, err := e.sectionAction(ctx, backend.SectionHighlight, n, value, trigger)
	if err != nil {
		return ignoreDuplicate(err)
	}
	return e.page.Update(func(d *page.Doc) error {
		if err := d.ReplaceActions(n, resp.ActionModel); err != nil {
			return err
		}
		if err := d.ReplaceTOC(resp.TOC); err != nil {
			return err
		}
		d.SetHighlight(n, value == 1)
		return nil
	})
}

// DeleteSection deletes section n and its assets after confirmation.
func (e *Editor) DeleteSection(ctx context.Context, n int) error {
	key := backend.SectionDelete.Key()
	if e.tracker.Ajaxing(key) {
		return nil
	}
	var trigger *html.Node
	var title string
	var found bool
	e.page.View(func(d *page.Doc) {
		if s := d.Section(n); s != nil {
			found, title = true, s.Title
			trigger = firstNode(d.SectionNode(n).Find(".snap-section-editing .snap-delete"))
		}
	})
	if !found {
		return fmt.Errorf("delete section %d: %w", n, page.ErrSectionNotFound)
	}
	if !e.confirm.Confirm(ctx, "Delete section", fmt.Sprintf("Are you sure you want to delete %q and all its content?", title)) {
		e.log.Debug("section delete declined", "section", n)
		return nil
	}

	e.page.Update(func(d *page.Doc) error {
		d.ShowAlert(fmt.Sprintf("Deleting section %q", title))
		d.SetAlertLoading(true)
		return nil
	})
	defer e.page.Update(func(d *page.Doc) error {
		d.HideAlert()
		return nil
	})

	resp, err := e.sectionAction(ctx, backend.SectionDelete, n, 0, trigger)
	if err != nil {
		return ignoreDuplicate(err)
	}

	var current int
	err = e.page.Update(func(d *page.Doc) error {
		if err := d.ReplaceTOC(resp.TOC); err != nil {
			return err
		}
		if _, err := d.RemoveSection(n); err != nil {
			return err
		}
		e.renumberer.Renumber(d, Delete{Number: n})
		current = d.Current()
		return nil
	})
	if err != nil {
		return err
	}
	if err := e.nav.Refresh(ctx); err != nil {
		return err
	}
	if current < 0 {
		return e.GoToSection(ctx, max(n-1, 0), "")
	}
	return nil
}

// AssetAction runs action on asset id. Deleting asks for confirmation.
func (e *Editor) AssetAction(ctx context.Context, id int, action backend.ModuleAction) error {
	label := assetActionLabel(action)
	key := action.Key()
	if e.tracker.Ajaxing(key) {
		return nil
	}
	var trigger *html.Node
	var name string
	e.page.View(func(d *page.Doc) {
		if a, _ := d.Asset(id); a != nil {
			name = a.Name
			trigger = firstNode(d.AssetNode(id))
		}
	})
	if trigger == nil {
		return fmt.Errorf("%s %d: %w", label, id, page.ErrAssetNotFound)
	}
	if action == backend.ModuleDelete &&
		!e.confirm.Confirm(ctx, "Delete asset", fmt.Sprintf("Are you sure you want to delete %q?", name)) {
		e.log.Debug("asset delete declined", "asset", id)
		return nil
	}
	if !e.tracker.Start(key, trigger, ".snap-edit-asset-more") {
		return nil
	}
	defer e.tracker.Complete(key)

	markup, err := e.be.EditModule(ctx, action, id)
	if err != nil {
		e.failed(label, err)
		return fmt.Errorf("%s %d: %w", label, id, err)
	}

	return e.page.Update(func(d *page.Doc) error {
		switch action {
		case backend.ModuleDelete:
			return d.RemoveAsset(id)
		case backend.ModuleShow:
			return d.SetAssetVisibility(id, doctree.Visible)
		case backend.ModuleHide:
			return d.SetAssetVisibility(id, doctree.Hidden)
		case backend.ModuleDuplicate:
			rows, err := fragment.ParseAssets(markup)
			if err != nil {
				return err
			}
			if len(rows) == 0 {
				return fmt.Errorf("%s %d: empty response", label, id)
			}
			return d.ReplaceAsset(id, rows)
		}
		panic(fmt.Sprintf("editor: unknown module action %q", action))
	})
}

// sectionAction sends action for section n under its tracker key.
func (e *Editor) sectionAction(ctx context.Context, action backend.SectionAction, n, value int, trigger *html.Node) (*backend.SectionActionResponse, error) {
	label := sectionActionLabel(action)
	key := action.Key()
	if !e.tracker.Start(key, trigger, "") {
		return nil, errDuplicate
	}
	defer e.tracker.Complete(key)

	resp, err := e.be.SectionAction(ctx, action, n, value)
	if err != nil {
		e.failed(label, err)
		return nil, fmt.Errorf("%s %d: %w", label, n, err)
	}
	return resp, nil
}

func ignoreDuplicate(err error) error {
	if errors.Is(err, errDuplicate) {
		return nil
	}
	return err
}
