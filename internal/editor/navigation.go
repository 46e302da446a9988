package editor

import (
	"context"
	"fmt"

	"github.com/dgallion1/snapedit/internal/fragment"
	"github.com/dgallion1/snapedit/internal/page"
	"golang.org/x/sync/errgroup"
)

// NavRenderer renders the navigation footer of a section.
type NavRenderer interface {
	RenderNavigation(ctx context.Context, nav fragment.Navigation) (string, error)
}

// NavigationRefresher rewrites the previous/next footers of sections.
type NavigationRefresher struct {
	page     *page.Page
	renderer NavRenderer
}

type navJob struct {
	number int
	nav    fragment.Navigation
}

// Refresh re-renders the footers of the given loaded sections, or of every
// loaded section when none is given. Footers are replaced as their renders
// finish; Refresh returns once all are done.
func (r *NavigationRefresher) Refresh(ctx context.Context, numbers ...int) error {
	var jobs []navJob
	r.page.View(func(d *page.Doc) {
		if len(numbers) == 0 {
			numbers = d.Numbers()
		}
		total := d.Total()
		for _, n := range numbers {
			if !d.Has(n) {
				continue
			}
			jobs = append(jobs, navJob{number: n, nav: navigationFor(d, n, total)})
		}
	})

	g, gctx := errgroup.WithContext(ctx)
	for _, job := range jobs {
		job := job
		g.Go(func() error {
			markup, err := r.renderer.RenderNavigation(gctx, job.nav)
			if err != nil {
				return fmt.Errorf("section %d: %w", job.number, err)
			}
			return r.page.Update(func(d *page.Doc) error {
				if !d.Has(job.number) {
					return nil
				}
				return d.ReplaceFooter(job.number, markup)
			})
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("refresh navigation: %w", err)
	}
	return nil
}

func navigationFor(d *page.Doc, n, total int) fragment.Navigation {
	var nav fragment.Navigation
	if n > 0 {
		nav.Previous = &fragment.NavLink{Number: n - 1, Title: d.ChapterTitle(n - 1), Dimmed: d.SectionHidden(n - 1)}
	}
	if n+1 < total {
		nav.Next = &fragment.NavLink{Number: n + 1, Title: d.ChapterTitle(n + 1), Dimmed: d.SectionHidden(n + 1)}
	}
	return nav
}
