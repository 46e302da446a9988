// Package editor keeps a course page in step with the editing backend: it
// moves sections and assets, loads sections on demand and repairs section
// numbering and navigation after every change.
package editor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/dgallion1/snapedit/internal/backend"
	"github.com/dgallion1/snapedit/internal/config"
	"github.com/dgallion1/snapedit/internal/fragment"
	"github.com/dgallion1/snapedit/internal/page"
	"github.com/dgallion1/snapedit/internal/tracker"
)

// Backend is the editing service the page synchronizes with.
type Backend interface {
	Mover
	SectionFetcher
	EditModule(ctx context.Context, action backend.ModuleAction, id int) (string, error)
	SectionAction(ctx context.Context, action backend.SectionAction, n, value int) (*backend.SectionActionResponse, error)
	FetchChapters(ctx context.Context) (string, error)
	FetchPage(ctx context.Context) (string, error)
}

// Confirmer asks the user before a destructive action is sent.
type Confirmer interface {
	Confirm(ctx context.Context, title, message string) bool
}

// Notifier shows a short-lived failure notice.
type Notifier interface {
	Notify(action, message string)
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(ctx context.Context, title, message string) bool

func (f ConfirmFunc) Confirm(ctx context.Context, title, message string) bool {
	return f(ctx, title, message)
}

type logNotifier struct{ log *slog.Logger }

func (n logNotifier) Notify(action, message string) {
	n.log.Warn("action failed", "action", action, "message", message)
}

// Option configures an Editor.
type Option func(*Editor)

func WithLogger(log *slog.Logger) Option { return func(e *Editor) { e.log = log } }

func WithConfirmer(c Confirmer) Option { return func(e *Editor) { e.confirm = c } }

func WithNotifier(n Notifier) Option { return func(e *Editor) { e.notify = n } }

func WithNavRenderer(r NavRenderer) Option { return func(e *Editor) { e.navRenderer = r } }

// WithFailureDelay sets how long a failed move stays on screen.
func WithFailureDelay(d time.Duration) Option { return func(e *Editor) { e.failureDelay = d } }

// Editor drives one course page.
type Editor struct {
	cfg          config.Course
	page         *page.Page
	be           Backend
	tracker      *tracker.Tracker
	session      *MoveSession
	queue        *MoveQueue
	loader       *SectionLoader
	renumberer   *Renumberer
	nav          *NavigationRefresher
	navRenderer  NavRenderer
	confirm      Confirmer
	notify       Notifier
	log          *slog.Logger
	failureDelay time.Duration

	timerMu    sync.Mutex
	abortTimer *time.Timer
}

// PageOptions returns how a page of the configured course is projected.
func PageOptions(cfg config.Course) page.Options {
	return page.Options{
		PartialRender:  cfg.PartialRender,
		NumberedTitles: cfg.PartialRender && cfg.NumberedTitles(),
	}
}

// New prepares pg for editing.
func New(cfg config.Course, pg *page.Page, be Backend, opts ...Option) *Editor {
	e := &Editor{
		cfg:          cfg,
		page:         pg,
		be:           be,
		session:      &MoveSession{},
		failureDelay: 2 * time.Second,
		confirm:      ConfirmFunc(func(context.Context, string, string) bool { return false }),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.log == nil {
		e.log = slog.Default()
	}
	if e.notify == nil {
		e.notify = logNotifier{e.log}
	}
	if e.navRenderer == nil {
		e.navRenderer = fragment.NewRenderer()
	}
	e.tracker = tracker.New(pg, e.log)
	e.queue = NewMoveQueue(be, e.tracker, e.log)
	e.renumberer = &Renumberer{log: e.log}
	e.nav = &NavigationRefresher{page: pg, renderer: e.navRenderer}
	e.loader = NewSectionLoader(pg, be, e.log)
	e.loader.loaded = e.sectionLoaded

	pg.Update(func(d *page.Doc) error {
		d.AddAssetDrops()
		if cfg.PartialRender {
			d.DOM().Find(".snap-drop.section-drop").AddClass("partial-render")
		}
		d.SetBodyClass("snap-course-listening", true)
		return nil
	})
	return e
}

// Open fetches the course page from the backend and prepares it.
func Open(ctx context.Context, cfg config.Course, be Backend, opts ...Option) (*Editor, error) {
	markup, err := be.FetchPage(ctx)
	if err != nil {
		return nil, fmt.Errorf("open course %d: %w", cfg.ID, err)
	}
	pg, err := page.Parse(markup, PageOptions(cfg))
	if err != nil {
		return nil, fmt.Errorf("open course %d: %w", cfg.ID, err)
	}
	e := New(cfg, pg, be, opts...)
	if err := e.nav.Refresh(ctx); err != nil {
		return nil, fmt.Errorf("open course %d: %w", cfg.ID, err)
	}
	return e, nil
}

// Page returns the edited page.
func (e *Editor) Page() *page.Page { return e.page }

// Tracker returns the request tracker.
func (e *Editor) Tracker() *tracker.Tracker { return e.tracker }

// Session returns a copy of the move session.
func (e *Editor) Session() SessionState { return e.session.State() }

// Loader returns the section loader.
func (e *Editor) Loader() *SectionLoader { return e.loader }

// RefreshNavigation re-renders the footers of the given sections, or of all.
func (e *Editor) RefreshNavigation(ctx context.Context, numbers ...int) error {
	return e.nav.Refresh(ctx, numbers...)
}

// GoToSection makes section n current, loading it first when sections load
// on demand, and focuses focusID when set.
func (e *Editor) GoToSection(ctx context.Context, n int, focusID string) error {
	loading := false
	if e.cfg.PartialRender {
		if err := e.loader.Request(ctx, n, focusID); err != nil {
			e.notify.Notify("load section", err.Error())
			return err
		}
		// Another caller's fetch of n is still running; it shows the
		// section when it lands.
		loading = slices.Contains(e.loader.Loading(), n)
	}
	return e.page.Update(func(d *page.Doc) error {
		if !d.Has(n) {
			if loading {
				return nil
			}
			return fmt.Errorf("go to section %d: %w", n, page.ErrSectionNotFound)
		}
		d.ShowSection(n)
		if focusID != "" {
			d.Focus(focusID)
		}
		return nil
	})
}

func (e *Editor) sectionLoaded(ctx context.Context, n int) {
	if e.session.State().Mode == SectionMove {
		e.applySession()
	}
	if err := e.nav.Refresh(ctx, n); err != nil {
		e.log.Warn("navigation refresh failed", "section", n, "error", err)
	}
}

// SetModChooserSection routes the add-activity links to section n.
func (e *Editor) SetModChooserSection(n int) {
	e.page.Update(func(d *page.Doc) error {
		d.SetModChooserSection(n)
		return nil
	})
}

func (e *Editor) failed(action string, err error) {
	var apiErr *backend.APIError
	msg := err.Error()
	if errors.As(err, &apiErr) {
		msg = apiErr.Message
	}
	e.notify.Notify(action, msg)
}
