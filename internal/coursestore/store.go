// Package coursestore is the in-memory course held by the development
// backend. It is the source of truth the editor synchronizes with.
package coursestore

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/dgallion1/snapedit/internal/backend"
	"github.com/dgallion1/snapedit/internal/doctree"
)

var (
	ErrSectionNotFound = errors.New("section not found")
	ErrAssetNotFound   = errors.New("asset not found")
	ErrGeneralSection  = errors.New("the general section cannot be moved or deleted")
)

// Store is a thread-safe course.
type Store struct {
	mu     sync.Mutex
	course *doctree.Course
}

func New(c *doctree.Course) *Store {
	c.Renumber()
	return &Store{course: c}
}

// Course returns a copy of the course.
func (s *Store) Course() *doctree.Course {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *s.course
	c.Sections = make([]*doctree.Section, len(s.course.Sections))
	for i, sec := range s.course.Sections {
		c.Sections[i] = cloneSection(sec)
	}
	return &c
}

// Section returns a copy of section n.
func (s *Store) Section(n int) (*doctree.Section, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sec, err := s.section(n)
	if err != nil {
		return nil, err
	}
	return cloneSection(sec), nil
}

// MoveSection moves section from so that it ends up numbered to.
func (s *Store) MoveSection(from, to int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.section(from); err != nil {
		return err
	}
	if from == 0 || to == 0 {
		return ErrGeneralSection
	}
	if to >= len(s.course.Sections) {
		return fmt.Errorf("move section %d to %d: %w", from, to, ErrSectionNotFound)
	}
	sec := s.course.Sections[from]
	s.course.Sections = slices.Delete(s.course.Sections, from, from+1)
	s.course.Sections = slices.Insert(s.course.Sections, to, sec)
	s.course.Renumber()
	return nil
}

// MoveAsset moves asset id into section, before asset beforeID or to the end
// of the section when beforeID is zero.
func (s *Store) MoveAsset(id, beforeID, section int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	to, err := s.section(section)
	if err != nil {
		return err
	}
	from, i, err := s.asset(id)
	if err != nil {
		return err
	}
	if beforeID != 0 {
		if b, _ := to.Asset(beforeID); b == nil {
			return fmt.Errorf("move before asset %d: %w", beforeID, ErrAssetNotFound)
		}
	}
	if beforeID == id {
		return nil
	}
	a := from.Assets[i]
	from.Assets = slices.Delete(from.Assets, i, i+1)
	at := len(to.Assets)
	if beforeID != 0 {
		_, at = to.Asset(beforeID)
	}
	to.Assets = slices.Insert(to.Assets, at, a)
	a.Section = to.Number
	return nil
}

// SetVisibility shows or hides section n.
func (s *Store) SetVisibility(n int, visible bool) (*doctree.Section, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sec, err := s.section(n)
	if err != nil {
		return nil, err
	}
	sec.Visibility = doctree.Hidden
	if visible {
		sec.Visibility = doctree.Visible
	}
	return cloneSection(sec), nil
}

// SetHighlight marks section n as the highlighted one, or clears the
// highlight. At most one section is highlighted.
func (s *Store) SetHighlight(n int, on bool) (*doctree.Section, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sec, err := s.section(n)
	if err != nil {
		return nil, err
	}
	for _, other := range s.course.Sections {
		other.Highlighted = false
	}
	sec.Highlighted = on
	return cloneSection(sec), nil
}

// DeleteSection removes section n and its assets.
func (s *Store) DeleteSection(n int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.section(n); err != nil {
		return err
	}
	if n == 0 {
		return ErrGeneralSection
	}
	s.course.Sections = slices.Delete(s.course.Sections, n, n+1)
	s.course.Renumber()
	return nil
}

// EditModule performs action on asset id. Duplicate returns the original
// followed by the copy; delete returns nothing; show and hide return the
// updated asset.
func (s *Store) EditModule(action backend.ModuleAction, id int) ([]*doctree.Asset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sec, i, err := s.asset(id)
	if err != nil {
		return nil, err
	}
	a := sec.Assets[i]
	switch action {
	case backend.ModuleShow:
		a.Visibility = doctree.Visible
	case backend.ModuleHide:
		a.Visibility = doctree.Hidden
	case backend.ModuleDelete:
		sec.Assets = slices.Delete(sec.Assets, i, i+1)
		return nil, nil
	case backend.ModuleDuplicate:
		cp := *a
		cp.ID = s.course.MaxAssetID() + 1
		cp.Name = a.Name + " (copy)"
		sec.Assets = slices.Insert(sec.Assets, i+1, &cp)
		orig, dup := *a, cp
		return []*doctree.Asset{&orig, &dup}, nil
	default:
		panic(fmt.Sprintf("coursestore: unknown module action %q", action))
	}
	cp := *a
	return []*doctree.Asset{&cp}, nil
}

func (s *Store) section(n int) (*doctree.Section, error) {
	if n < 0 || n >= len(s.course.Sections) {
		return nil, fmt.Errorf("section %d: %w", n, ErrSectionNotFound)
	}
	return s.course.Sections[n], nil
}

func (s *Store) asset(id int) (*doctree.Section, int, error) {
	for _, sec := range s.course.Sections {
		if _, i := sec.Asset(id); i >= 0 {
			return sec, i, nil
		}
	}
	return nil, -1, fmt.Errorf("asset %d: %w", id, ErrAssetNotFound)
}

func cloneSection(sec *doctree.Section) *doctree.Section {
	cp := *sec
	cp.Assets = make([]*doctree.Asset, len(sec.Assets))
	for i, a := range sec.Assets {
		ac := *a
		cp.Assets[i] = &ac
	}
	return &cp
}
