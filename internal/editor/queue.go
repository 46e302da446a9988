package editor

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dgallion1/snapedit/internal/backend"
	"github.com/dgallion1/snapedit/internal/tracker"
	"golang.org/x/net/html"
)

const moveKey = "move"

// Mover sends a single move request.
type Mover interface {
	Move(ctx context.Context, req backend.MoveRequest) error
}

// MoveError reports the item whose move failed. Items before it were moved
// and stay moved.
type MoveError struct {
	Index int
	Item  ItemRef
	Err   error
}

func (e *MoveError) Error() string {
	return fmt.Sprintf("move item %d (%q): %v", e.Index, e.Item.Title, e.Err)
}

func (e *MoveError) Unwrap() error { return e.Err }

// Batch is one drop: the items in order, how to build each request, how to
// apply a moved item locally and what to run after the last one.
type Batch struct {
	Items   []ItemRef
	Trigger *html.Node
	Request func(item ItemRef) backend.MoveRequest
	Apply   func(i int, item ItemRef) error
	Last    func(ctx context.Context) error
}

// MoveQueue sends the moves of a batch strictly one after another.
type MoveQueue struct {
	mover   Mover
	tracker *tracker.Tracker
	log     *slog.Logger
}

func NewMoveQueue(mover Mover, t *tracker.Tracker, log *slog.Logger) *MoveQueue {
	return &MoveQueue{mover: mover, tracker: t, log: log}
}

// Drain sends every item of b, applying each locally before sending the
// next. The first failure stops the queue; later items are dropped. Last
// runs only when every item succeeded.
func (q *MoveQueue) Drain(ctx context.Context, b Batch) error {
	if !q.tracker.Start(moveKey, b.Trigger, "") {
		q.log.Debug("move queue busy, skipping drop", "items", len(b.Items))
		return ErrMoveInProgress
	}
	defer q.tracker.Complete(moveKey)

	for i, item := range b.Items {
		req := b.Request(item)
		if err := q.mover.Move(ctx, req); err != nil {
			if i+1 < len(b.Items) {
				q.log.Info("dropping unsent moves", "count", len(b.Items)-i-1)
			}
			return &MoveError{Index: i, Item: item, Err: err}
		}
		q.log.Debug("moved", "class", req.Class, "id", req.ID, "index", i)
		if b.Apply != nil {
			if err := b.Apply(i, item); err != nil {
				return &MoveError{Index: i, Item: item, Err: err}
			}
		}
	}
	if b.Last != nil {
		return b.Last(ctx)
	}
	return nil
}

// SectionTarget converts the number of the section a section is dropped
// before into the number it ends up with once it is removed from current.
func SectionTarget(current, domTarget int) int {
	if domTarget < current {
		return domTarget
	}
	return domTarget - 1
}
