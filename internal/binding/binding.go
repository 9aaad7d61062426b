package binding

import (
	"fmt"
	"sync"

	"github.com/vincent99/deckmanagerd/internal/capability"
)

// Binding maps one InputRef on one page to a capability invocation, with
// optional rendering overrides. This is the fuller field set from the
// specification's Binding model (Page, ButtonImageAlt, IconColor,
// IconColorAlt included) rather than the older, slimmer variant seen in
// some reference snapshots — see DESIGN.md's Open Question decision.
type Binding struct {
	Page            int                  `json:"page"`
	Input           InputRef             `json:"input"`
	Capability      capability.Capability `json:"capability"`
	Icon            *string              `json:"icon,omitempty"`
	IconColor       *string              `json:"icon_color,omitempty"`
	IconColorAlt    *string              `json:"icon_color_alt,omitempty"`
	Label           *string              `json:"label,omitempty"`
	ButtonImage     *string              `json:"button_image,omitempty"`
	ButtonImageAlt  *string              `json:"button_image_alt,omitempty"`
	ShowLabel       *bool                `json:"show_label,omitempty"`
}

// Matches reports whether this binding applies to the given page and input.
func (b Binding) Matches(page int, input InputRef) bool {
	return b.Page == page && b.Input.Equal(input)
}

// Table is the in-memory, concurrency-safe set of all bindings, keyed
// implicitly by (page, input) uniqueness (spec.md's invariant: at most one
// binding per page/input pair). Grounded on the teacher's AppState-style
// mutex-protected shared slice (`commands.rs`'s `Arc<Mutex<Vec<Binding>>>`
// translated to Go's sync.RWMutex idiom).
type Table struct {
	mu       sync.RWMutex
	bindings []Binding
}

// NewTable returns an empty binding table.
func NewTable() *Table {
	return &Table{}
}

// All returns a copy of every binding currently in the table.
func (t *Table) All() []Binding {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Binding, len(t.bindings))
	copy(out, t.bindings)
	return out
}

// ForPage returns only the bindings active on the given page.
func (t *Table) ForPage(page int) []Binding {
	t.mu.RLock()
	defer t.mu.RUnlock()
	var out []Binding
	for _, b := range t.bindings {
		if b.Page == page {
			out = append(out, b)
		}
	}
	return out
}

// Lookup finds the binding for (page, input), if any.
func (t *Table) Lookup(page int, input InputRef) (Binding, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, b := range t.bindings {
		if b.Matches(page, input) {
			return b, true
		}
	}
	return Binding{}, false
}

// Set installs b, replacing any existing binding for the same (page, input)
// pair. Mirrors `set_binding`'s retain-then-push sequence.
func (t *Table) Set(b Binding) error {
	if err := b.Input.Validate(); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.bindings = removeMatch(t.bindings, b.Page, b.Input)
	t.bindings = append(t.bindings, b)
	return nil
}

// Remove deletes the binding for (page, input), if one exists.
func (t *Table) Remove(page int, input InputRef) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.bindings = removeMatch(t.bindings, page, input)
}

// ReplaceAll atomically swaps in a full new binding set (used when loading
// from the bindings store).
func (t *Table) ReplaceAll(bindings []Binding) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.bindings = append([]Binding(nil), bindings...)
}

func removeMatch(bindings []Binding, page int, input InputRef) []Binding {
	out := bindings[:0:0]
	for _, b := range bindings {
		if !b.Matches(page, input) {
			out = append(out, b)
		}
	}
	return out
}

func (b Binding) String() string {
	return fmt.Sprintf("page=%d input=%s capability=%s", b.Page, b.Input, b.Capability.ID())
}
