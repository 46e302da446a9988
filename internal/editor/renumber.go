package editor

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/dgallion1/snapedit/internal/page"
)

// Change is the mutation a renumbering follows.
type Change interface{ change() }

// Move is a section moved from one number to another.
type Move struct{ From, To int }

// Delete is a deleted section.
type Delete struct{ Number int }

// NoChange renumbers without a mutation.
type NoChange struct{}

func (Move) change()     {}
func (Delete) change()   {}
func (NoChange) change() {}

const placeholder = -1

// MoveOrder applies c to the ordered ids. Moving past the end pads the
// order with placeholders.
func MoveOrder(ids []int, c Change) []int {
	out := slices.Clone(ids)
	switch c := c.(type) {
	case NoChange:
	case Move:
		i := slices.Index(out, c.From)
		if i < 0 {
			return out
		}
		out = slices.Delete(out, i, i+1)
		to := max(c.To, 0)
		for len(out) < to {
			out = append(out, placeholder)
		}
		out = slices.Insert(out, to, c.From)
	case Delete:
		if i := slices.Index(out, c.Number); i >= 0 {
			out = slices.Delete(out, i, i+1)
		}
	default:
		panic(fmt.Sprintf("editor: unknown change %T", c))
	}
	return out
}

// Renumberer restores contiguous section numbers after a mutation.
type Renumberer struct {
	log *slog.Logger
}

// Renumber recomputes the numbers of the loaded sections and rewrites
// their elements. When sections load on demand the numbers come from
// replaying c over the table of contents; otherwise from page position.
// Renumbering a consistent page changes nothing.
func (r *Renumberer) Renumber(d *page.Doc, c Change) {
	var numbers map[int]int
	if d.Options().PartialRender {
		numbers = partialNumbers(d, c)
	} else {
		numbers = make(map[int]int)
		for i, n := range d.Numbers() {
			numbers[n] = i
		}
	}
	d.Renumber(numbers)
	for _, s := range d.Sections() {
		if t := d.ChapterTitle(s.Number); t != "" {
			s.Title = t
		}
		d.Project(s)
	}
	d.SortSections()
	r.log.Debug("renumbered sections", "change", fmt.Sprintf("%T%+v", c, c), "numbers", d.Numbers())
}

func partialNumbers(d *page.Doc, c Change) map[int]int {
	size := d.Total()
	for _, n := range d.Numbers() {
		size = max(size, n+1)
	}
	ids := make([]int, size)
	for i := range ids {
		ids[i] = i
	}
	numbers := make(map[int]int, size)
	for i, id := range MoveOrder(ids, c) {
		if id != placeholder {
			numbers[id] = i
		}
	}
	return numbers
}
