package editor

import (
	"errors"
	"fmt"
	"slices"
	"sync"
)

var (
	// ErrNoActiveSession is returned when a drop arrives with nothing selected.
	ErrNoActiveSession = errors.New("no active move session")
	// ErrMoveInProgress is returned when a move is already being committed.
	// Callers ignore it.
	ErrMoveInProgress = errors.New("move already in progress")
)

// State of a move session.
type State int

const (
	Idle State = iota
	Selecting
	Moving
	Committing
	Aborting
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Selecting:
		return "selecting"
	case Moving:
		return "moving"
	case Committing:
		return "committing"
	case Aborting:
		return "aborting"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Mode is what a session moves.
type Mode int

const (
	NoMode Mode = iota
	SectionMove
	AssetMove
)

// ItemKind distinguishes the items of a session.
type ItemKind int

const (
	KindSection ItemKind = iota
	KindAsset
)

// ItemRef identifies a selected item: a section number or an asset id.
type ItemRef struct {
	Kind  ItemKind
	ID    int
	Title string
}

// SessionState is a copy of the session.
type SessionState struct {
	State State
	Mode  Mode
	Items []ItemRef
	Gen   uint64
}

// MoveSession holds the one move in progress. Items are non-empty whenever
// the session is not idle.
type MoveSession struct {
	mu    sync.Mutex
	state State
	mode  Mode
	items []ItemRef
	gen   uint64
}

// StartSection begins moving a section, replacing any session that is not
// being committed.
func (s *MoveSession) StartSection(item ItemRef) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == Committing {
		return ErrMoveInProgress
	}
	s.begin(SectionMove)
	s.items = []ItemRef{item}
	s.state = Moving
	return nil
}

// ToggleAsset adds or removes an asset. Selecting an asset while a section
// move is open replaces it with an asset move. It reports whether the
// session was emptied and has returned to idle.
func (s *MoveSession) ToggleAsset(item ItemRef, checked bool) (emptied bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == Committing {
		return false, ErrMoveInProgress
	}
	if s.mode != AssetMove || s.state == Idle || s.state == Aborting {
		if !checked {
			return false, nil
		}
		s.begin(AssetMove)
	}
	i := slices.IndexFunc(s.items, func(r ItemRef) bool { return r.ID == item.ID })
	switch {
	case checked && i < 0:
		s.items = append(s.items, item)
	case !checked && i >= 0:
		s.items = slices.Delete(s.items, i, i+1)
	}
	if len(s.items) == 0 {
		s.reset()
		return true, nil
	}
	s.state = Moving
	return false, nil
}

func (s *MoveSession) begin(mode Mode) {
	s.gen++
	s.mode = mode
	s.items = nil
	s.state = Selecting
}

// Commit hands the items over for moving.
func (s *MoveSession) Commit() ([]ItemRef, Mode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case Moving:
	case Committing:
		return nil, NoMode, ErrMoveInProgress
	default:
		return nil, NoMode, ErrNoActiveSession
	}
	s.state = Committing
	return slices.Clone(s.items), s.mode, nil
}

// Finish ends a committed session.
func (s *MoveSession) Finish() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == Committing {
		s.reset()
	}
}

// Fail marks a committed session as failing. The session stays visible
// until Reset with the returned generation.
func (s *MoveSession) Fail() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == Committing {
		s.state = Aborting
	}
	return s.gen
}

// Abort cancels a session that is not being committed.
func (s *MoveSession) Abort() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == Committing {
		return ErrMoveInProgress
	}
	s.reset()
	return nil
}

// Reset returns the session to idle if it is still generation gen. It
// reports whether it did.
func (s *MoveSession) Reset(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen || s.state == Committing {
		return false
	}
	s.reset()
	return true
}

func (s *MoveSession) reset() {
	s.state = Idle
	s.mode = NoMode
	s.items = nil
}

// State returns a copy of the session.
func (s *MoveSession) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return SessionState{State: s.state, Mode: s.mode, Items: slices.Clone(s.items), Gen: s.gen}
}

// Caption is the footer alert text for the session.
func (st SessionState) Caption() string {
	switch len(st.Items) {
	case 0:
		return ""
	case 1:
		return fmt.Sprintf("Moving %q", st.Items[0].Title)
	}
	return fmt.Sprintf("Moving %d objects", len(st.Items))
}

// Active reports whether a session is open.
func (st SessionState) Active() bool {
	return st.State != Idle
}

// Has reports whether the session holds the item.
func (st SessionState) Has(kind ItemKind, id int) bool {
	return slices.ContainsFunc(st.Items, func(r ItemRef) bool { return r.Kind == kind && r.ID == id })
}
