package backend

import (
	"errors"
	"fmt"
)

// ErrInvalidAction is returned when an action name is not one of the known
// variants.
var ErrInvalidAction = errors.New("invalid action")

// SectionAction is an action performed on a whole section.
type SectionAction string

const (
	SectionVisibility SectionAction = "visibility"
	SectionHighlight  SectionAction = "highlight"
	SectionDelete     SectionAction = "delete"
)

// ParseSectionAction validates a section action name.
func ParseSectionAction(s string) (SectionAction, error) {
	switch a := SectionAction(s); a {
	case SectionVisibility, SectionHighlight, SectionDelete:
		return a, nil
	}
	return "", fmt.Errorf("section action %q: %w", s, ErrInvalidAction)
}

func (a SectionAction) String() string { return string(a) }

// Key is the request tracker key of the action.
func (a SectionAction) Key() string { return "section_" + string(a) }

// ModuleAction is an action performed on a single asset.
type ModuleAction string

const (
	ModuleShow      ModuleAction = "show"
	ModuleHide      ModuleAction = "hide"
	ModuleDelete    ModuleAction = "delete"
	ModuleDuplicate ModuleAction = "duplicate"
)

// ParseModuleAction validates a module action name.
func ParseModuleAction(s string) (ModuleAction, error) {
	switch a := ModuleAction(s); a {
	case ModuleShow, ModuleHide, ModuleDelete, ModuleDuplicate:
		return a, nil
	}
	return "", fmt.Errorf("module action %q: %w", s, ErrInvalidAction)
}

func (a ModuleAction) String() string { return string(a) }

// Key is the request tracker key of the action.
func (a ModuleAction) Key() string { return "asset_" + string(a) }

// ItemClass names the kind of item a move request carries.
type ItemClass string

const (
	ClassResource ItemClass = "resource"
	ClassSection  ItemClass = "section"
)

// MoveRequest moves one item. Assets use BeforeID (0 for the end of the
// section) and SectionID; sections use Value as the target number.
type MoveRequest struct {
	Class     ItemClass `json:"class"`
	Field     string    `json:"field"`
	ID        int       `json:"id"`
	BeforeID  int       `json:"beforeId,omitempty"`
	SectionID int       `json:"sectionId,omitempty"`
	Value     int       `json:"value"`
}

// AssetMove builds the request moving asset id before beforeID in section.
func AssetMove(id, beforeID, section int) MoveRequest {
	return MoveRequest{Class: ClassResource, Field: "move", ID: id, BeforeID: beforeID, SectionID: section}
}

// SectionMove builds the request moving section current to target.
func SectionMove(current, target int) MoveRequest {
	return MoveRequest{Class: ClassSection, Field: "move", ID: current, Value: target}
}

// SectionActionResponse carries the markup re-rendered after a section
// action: the section's editing controls and the table of contents.
type SectionActionResponse struct {
	ActionModel string `json:"actionmodel"`
	TOC         string `json:"toc"`
}
