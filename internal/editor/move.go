package editor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/dgallion1/snapedit/internal/backend"
	"github.com/dgallion1/snapedit/internal/page"
	"golang.org/x/net/html"
)

// Target is where selected items are dropped: before section Section for a
// section move; into section Section before asset Before (0 for the end of
// the section) for an asset move.
type Target struct {
	Section int
	Before  int
}

// StartSectionMove selects loaded section n for moving.
func (e *Editor) StartSectionMove(n int) error {
	var title string
	var found bool
	e.page.View(func(d *page.Doc) {
		if s := d.Section(n); s != nil {
			title, found = s.Title, true
		}
	})
	if !found {
		return fmt.Errorf("move section %d: %w", n, page.ErrSectionNotFound)
	}
	if err := e.session.StartSection(ItemRef{Kind: KindSection, ID: n, Title: title}); err != nil {
		return err
	}
	e.cancelAbortTimer()
	e.stopMarkers()
	e.applySession()
	return nil
}

// ToggleAssetMove selects or deselects asset id. Deselecting the last asset
// ends the session without any request.
func (e *Editor) ToggleAssetMove(id int, checked bool) error {
	var name string
	var found bool
	e.page.View(func(d *page.Doc) {
		if a, _ := d.Asset(id); a != nil {
			name, found = a.Name, true
		}
	})
	if !found {
		return fmt.Errorf("move asset %d: %w", id, page.ErrAssetNotFound)
	}
	before := e.session.State()
	emptied, err := e.session.ToggleAsset(ItemRef{Kind: KindAsset, ID: id, Title: name}, checked)
	if err != nil {
		return err
	}
	if emptied {
		e.stopMoving()
		return nil
	}
	if before.Mode != AssetMove {
		e.cancelAbortTimer()
		e.stopMarkers()
	}
	e.applySession()
	return nil
}

// CancelMove abandons the open session. A session being committed cannot
// be cancelled.
func (e *Editor) CancelMove() error {
	if err := e.session.Abort(); err != nil {
		return err
	}
	e.stopMoving()
	return nil
}

// Drop commits the open session at t.
func (e *Editor) Drop(ctx context.Context, t Target) error {
	items, mode, err := e.session.Commit()
	if errors.Is(err, ErrMoveInProgress) {
		e.log.Debug("drop ignored, move in progress")
		return nil
	}
	if err != nil {
		return err
	}

	var b Batch
	switch mode {
	case SectionMove:
		from := items[0].ID
		if t.Section == from || t.Section == from+1 {
			// Dropped where it already is.
			e.session.Finish()
			e.stopMoving()
			return nil
		}
		b = e.sectionBatch(from, t)
	case AssetMove:
		b = e.assetBatch(items, t)
	default:
		panic(fmt.Sprintf("editor: unknown move mode %d", mode))
	}

	e.page.Update(func(d *page.Doc) error {
		d.SetAlertLoading(true)
		return nil
	})
	err = e.queue.Drain(ctx, b)
	e.page.Update(func(d *page.Doc) error {
		d.SetAlertLoading(false)
		return nil
	})
	switch {
	case err == nil:
		e.session.Finish()
		e.stopMoving()
		return nil
	case errors.Is(err, ErrMoveInProgress):
		return nil
	}

	e.failed("move", err)
	gen := e.session.Fail()
	e.page.Update(func(d *page.Doc) error {
		d.SetAlertSRNotice("Failed to move")
		return nil
	})
	e.scheduleAbort(gen)
	return err
}

func (e *Editor) sectionBatch(from int, t Target) Batch {
	target := SectionTarget(from, t.Section)
	var trigger *html.Node
	e.page.View(func(d *page.Doc) {
		drop := d.SectionNode(t.Section).Find(".snap-drop.section-drop")
		if drop.Length() == 0 {
			drop = d.DOM().Find(".snap-drop.section-drop-end")
		}
		trigger = firstNode(drop)
	})
	return Batch{
		Items:   []ItemRef{{Kind: KindSection, ID: from}},
		Trigger: trigger,
		Request: func(item ItemRef) backend.MoveRequest {
			return backend.SectionMove(item.ID, target)
		},
		// The page is rearranged only after the chapter list arrives; a
		// failed fetch leaves it in its pre-move order.
		Last: func(ctx context.Context) error {
			chapters, err := e.be.FetchChapters(ctx)
			if err != nil {
				return fmt.Errorf("fetch chapters: %w", err)
			}
			err = e.page.Update(func(d *page.Doc) error {
				if err := d.ReplaceChapters(chapters); err != nil {
					return err
				}
				switch {
				case d.Has(t.Section):
					if err := d.MoveSectionBefore(from, t.Section); err != nil {
						return err
					}
				case t.Section >= d.Total():
					if err := d.MoveSectionLast(from); err != nil {
						return err
					}
				}
				e.renumberer.Renumber(d, Move{From: from, To: target})
				d.ShowSection(target)
				return nil
			})
			if err != nil {
				return err
			}
			return e.nav.Refresh(ctx)
		},
	}
}

func (e *Editor) assetBatch(items []ItemRef, t Target) Batch {
	var trigger *html.Node
	e.page.View(func(d *page.Doc) {
		if t.Before != 0 {
			trigger = firstNode(d.AssetNode(t.Before))
		} else {
			trigger = firstNode(d.SectionNode(t.Section).Find("li.snap-drop.asset-drop"))
		}
	})
	return Batch{
		Items:   items,
		Trigger: trigger,
		Request: func(item ItemRef) backend.MoveRequest {
			return backend.AssetMove(item.ID, t.Before, t.Section)
		},
		Apply: func(_ int, item ItemRef) error {
			return e.page.Update(func(d *page.Doc) error {
				if err := d.MoveAsset(item.ID, t.Before, t.Section); err != nil {
					return err
				}
				row := d.AssetNode(item.ID)
				row.RemoveClass("asset-moving")
				row.Find("input.js-snap-asset-move").RemoveAttr("checked")
				return nil
			})
		},
	}
}

func (e *Editor) scheduleAbort(gen uint64) {
	e.timerMu.Lock()
	defer e.timerMu.Unlock()
	if e.abortTimer != nil {
		e.abortTimer.Stop()
	}
	e.abortTimer = time.AfterFunc(e.failureDelay, func() {
		if e.session.Reset(gen) {
			e.stopMarkers()
		}
	})
}

func (e *Editor) cancelAbortTimer() {
	e.timerMu.Lock()
	defer e.timerMu.Unlock()
	if e.abortTimer != nil {
		e.abortTimer.Stop()
		e.abortTimer = nil
	}
}

// applySession projects the session onto the page.
func (e *Editor) applySession() {
	st := e.session.State()
	if !st.Active() {
		return
	}
	e.page.Update(func(d *page.Doc) error {
		d.SetBodyClass("snap-move-inprogress", true)
		d.SetBodyClass("snap-move-section", st.Mode == SectionMove)
		d.SetBodyClass("snap-move-asset", st.Mode == AssetMove)
		for _, s := range d.Sections() {
			moving := st.Has(KindSection, s.Number)
			setClass(d.SectionNode(s.Number), "section-moving", moving)
			for _, a := range s.Assets {
				row := d.AssetNode(a.ID)
				selected := st.Has(KindAsset, a.ID)
				setClass(row, "asset-moving", selected)
				box := row.Find("input.js-snap-asset-move")
				if selected {
					box.SetAttr("checked", "")
				} else {
					box.RemoveAttr("checked")
				}
			}
		}
		d.DOM().Find("#chapters > li").Each(func(_ int, li *goquery.Selection) {
			n := li.Find("a.chapter-title").AttrOr("section-number", "")
			setClass(li, "section-moving", st.Mode == SectionMove && n == fmt.Sprint(st.Items[0].ID))
		})
		updateDropMessages(d, st)
		d.ShowAlert(st.Caption())
		return nil
	})
}

// stopMoving ends the session and clears its markers.
func (e *Editor) stopMoving() {
	e.cancelAbortTimer()
	e.session.Abort()
	e.stopMarkers()
}

func (e *Editor) stopMarkers() {
	e.page.Update(func(d *page.Doc) error {
		d.SetBodyClass("snap-move-inprogress", false)
		d.SetBodyClass("snap-move-section", false)
		d.SetBodyClass("snap-move-asset", false)
		d.DOM().Find(".section-moving").RemoveClass("section-moving")
		d.DOM().Find(".asset-moving").RemoveClass("asset-moving")
		d.DOM().Find("input.js-snap-asset-move").RemoveAttr("checked")
		updateDropMessages(d, SessionState{})
		d.HideAlert()
		return nil
	})
}

// updateDropMessages labels the section drop zones while a section is
// being moved.
func updateDropMessages(d *page.Doc, st SessionState) {
	for _, s := range d.Sections() {
		drop := d.SectionNode(s.Number).Find(".snap-drop.section-drop")
		if st.Mode != SectionMove || len(st.Items) == 0 {
			drop.RemoveAttr("aria-label")
			drop.SetText("")
			continue
		}
		msg := fmt.Sprintf("Place %q before %q", st.Items[0].Title, s.Title)
		drop.SetAttr("aria-label", msg)
		drop.SetText(msg)
	}
	end := d.DOM().Find(".snap-drop.section-drop-end")
	if st.Mode != SectionMove || len(st.Items) == 0 {
		end.RemoveAttr("aria-label")
		end.SetText("")
		return
	}
	msg := fmt.Sprintf("Place %q at the end", st.Items[0].Title)
	end.SetAttr("aria-label", msg)
	end.SetText(msg)
}

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

func firstNode(sel *goquery.Selection) *html.Node {
	if sel.Length() == 0 {
		return nil
	}
	return sel.Get(0)
}
