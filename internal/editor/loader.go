package editor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/dgallion1/snapedit/internal/fragment"
	"github.com/dgallion1/snapedit/internal/page"
)

// SectionFetcher fetches the rendered fragment of a section.
type SectionFetcher interface {
	FetchSection(ctx context.Context, n int) (string, error)
}

// SectionLoader inserts sections into the page the first time they are
// needed. A section is fetched at most once at a time.
type SectionLoader struct {
	page    *page.Page
	fetcher SectionFetcher
	log     *slog.Logger
	// loaded runs after a section was inserted, outside the page lock.
	loaded func(ctx context.Context, n int)

	mu      sync.Mutex
	loading map[int]struct{}
}

func NewSectionLoader(pg *page.Page, fetcher SectionFetcher, log *slog.Logger) *SectionLoader {
	return &SectionLoader{
		page:    pg,
		fetcher: fetcher,
		log:     log,
		loading: make(map[int]struct{}),
	}
}

// Loading returns the section numbers with a fetch outstanding.
func (l *SectionLoader) Loading() []int {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]int, 0, len(l.loading))
	for n := range l.loading {
		out = append(out, n)
	}
	return out
}

// Request loads section n unless it is on the page or already being
// fetched, then focuses focusID when it is set.
func (l *SectionLoader) Request(ctx context.Context, n int, focusID string) error {
	if !l.claim(n) {
		return nil
	}
	inserted := false
	defer func() {
		l.mu.Lock()
		delete(l.loading, n)
		l.mu.Unlock()
		l.page.Update(func(d *page.Doc) error {
			d.SetLoading(false)
			return nil
		})
		if inserted && l.loaded != nil {
			l.loaded(ctx, n)
		}
	}()

	l.page.Update(func(d *page.Doc) error {
		d.SetLoading(true)
		return nil
	})
	markup, err := l.fetcher.FetchSection(ctx, n)
	if err != nil {
		return fmt.Errorf("load section %d: %w", n, err)
	}
	f, err := fragment.ParseSection(markup)
	if err != nil {
		return fmt.Errorf("load section %d: %w", n, err)
	}
	if f.Model.Number != n {
		return fmt.Errorf("load section %d: fragment is section %d", n, f.Model.Number)
	}

	err = l.page.Update(func(d *page.Doc) error {
		sibling := nearestSibling(d.Numbers(), n)
		if err := d.InsertSection(f, sibling, sibling > n); err != nil {
			return err
		}
		if t := d.ChapterTitle(n); t != "" {
			f.Model.Title = t
		}
		d.Project(f.Model)
		d.Selection(f.Node).Find(".snap-drop.section-drop").AddClass("partial-render")
		d.AddAssetDrops()
		d.ShowSection(n)
		if focusID != "" {
			d.Focus(focusID)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("load section %d: %w", n, err)
	}
	inserted = true
	l.log.Debug("section loaded", "section", n)
	return nil
}

// claim adds n to the load set unless it is loaded or already loading.
func (l *SectionLoader) claim(n int) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.loading[n]; ok {
		l.log.Debug("section already loading", "section", n)
		return false
	}
	var loaded bool
	l.page.View(func(d *page.Doc) { loaded = d.Has(n) })
	if loaded {
		return false
	}
	l.loading[n] = struct{}{}
	return true
}

// nearestSibling returns the loaded section closest to n, or -1 when none
// is loaded. On a tie the one first in page order wins.
func nearestSibling(loaded []int, n int) int {
	best, bestDist := -1, 0
	for _, m := range loaded {
		d := m - n
		if d < 0 {
			d = -d
		}
		if best < 0 || d < bestDist {
			best, bestDist = m, d
		}
	}
	return best
}
