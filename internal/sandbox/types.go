package sandbox

import "golang.org/x/net/html"

// MutationType names the kind of change a MutationRecord describes.
type MutationType string

const (
	MutationChildList     MutationType = "childList"
	MutationAttributes    MutationType = "attributes"
	MutationCharacterData MutationType = "characterData"
)

// MutationRecord describes one committed change to the document.
type MutationRecord struct {
	Type          MutationType
	Target        *html.Node
	AttributeName string // set for MutationAttributes
	Added         int    // child nodes added, for MutationChildList
	Removed       int    // child nodes removed, for MutationChildList
}

// ObserverOptions selects which mutations an observer receives.
type ObserverOptions struct {
	Attributes    bool
	ChildList     bool
	CharacterData bool
	// Subtree extends observation from the body to all descendants.
	Subtree bool
}

// AllMutations watches everything under the body.
var AllMutations = ObserverOptions{Attributes: true, ChildList: true, CharacterData: true, Subtree: true}

// MutationCallback receives the records of one mutation batch.
type MutationCallback func(records []MutationRecord)

// ClickEvent is dispatched to click listeners.
type ClickEvent struct {
	Target *html.Node

	defaultPrevented bool
}

// PreventDefault suppresses the default navigation of the click.
func (e *ClickEvent) PreventDefault() { e.defaultPrevented = true }

// DefaultPrevented reports whether a listener called PreventDefault.
func (e *ClickEvent) DefaultPrevented() bool { return e.defaultPrevented }

// ClickListener handles a click event.
type ClickListener func(ev *ClickEvent)

// Layout measures the rendered height of a body.
type Layout interface {
	ScrollHeight(body *html.Node) int
}
