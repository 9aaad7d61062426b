package plugin

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/vincent99/deckmanagerd/internal/capability"
	"github.com/vincent99/deckmanagerd/internal/logging"
)

var log = logging.For("plugin")

// Registry holds every registered plugin and the per-plugin enable flag.
// Reads (Apply*, Capabilities) take the read lock; registration and
// enable/disable take the write lock — the same RWMutex discipline the
// teacher uses for its Hub client maps.
type Registry struct {
	mu      sync.RWMutex
	plugins []Plugin
	enabled map[string]bool
	owner   map[capability.ID]Plugin
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		enabled: make(map[string]bool),
		owner:   make(map[capability.ID]Plugin),
	}
}

// Register adds a plugin to the registry. Core plugins start enabled and
// cannot be disabled; non-core plugins start disabled until SetEnabled is
// called (typically from persisted plugin state, see bindingstore).
func (r *Registry) Register(p Plugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, d := range p.Capabilities() {
		id := capability.ID(d.ID)
		if existing, ok := r.owner[id]; ok {
			return fmt.Errorf("plugin: capability %s already owned by %s", id, existing.ID())
		}
		r.owner[id] = p
	}

	r.plugins = append(r.plugins, p)
	r.enabled[p.ID()] = p.Core()
	return nil
}

// SetEnabled enables or disables a non-core plugin. Core plugins ignore
// disable requests — they are always active.
func (r *Registry) SetEnabled(id string, enabled bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.plugins {
		if p.ID() == id {
			if p.Core() {
				r.enabled[id] = true
				return
			}
			r.enabled[id] = enabled
			log.WithFields(map[string]any{"plugin": id, "enabled": enabled}).Info("plugin state changed")
			return
		}
	}
}

// IsEnabled reports whether the named plugin is currently enabled.
func (r *Registry) IsEnabled(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.enabled[id]
}

// Plugins lists every registered plugin's id, name, core flag, and enabled
// state, in registration order, for the command surface's get_plugins
// response.
type PluginInfo struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Core    bool   `json:"core"`
	Enabled bool   `json:"enabled"`
}

func (r *Registry) Plugins() []PluginInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]PluginInfo, 0, len(r.plugins))
	for _, p := range r.plugins {
		out = append(out, PluginInfo{ID: p.ID(), Name: p.Name(), Core: p.Core(), Enabled: r.enabled[p.ID()]})
	}
	return out
}

// Capabilities lists the descriptors owned by currently-enabled plugins
// only, sorted by ID for a stable command-surface response.
func (r *Registry) Capabilities() []capability.Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []capability.Descriptor
	for _, p := range r.plugins {
		if !r.enabled[p.ID()] {
			continue
		}
		out = append(out, p.Capabilities()...)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ErrNotOwned is returned when a capability has no owning, enabled plugin.
type ErrNotOwned struct{ ID capability.ID }

func (e ErrNotOwned) Error() string {
	return fmt.Sprintf("plugin: no enabled plugin owns capability %s", e.ID)
}

// resolve finds the enabled owner of cap.Type, or ErrNotOwned.
func (r *Registry) resolve(id capability.ID) (Plugin, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.owner[id]
	if !ok || !r.enabled[p.ID()] {
		return nil, ErrNotOwned{ID: id}
	}
	return p, nil
}

// ApplyButton routes a button-press (or encoder-press) invocation of cap to
// its owning plugin, per spec.md's "Ownership" routing rule.
func (r *Registry) ApplyButton(ctx context.Context, cap capability.Capability) error {
	p, err := r.resolve(cap.Type)
	if err != nil {
		return err
	}
	return p.ApplyButton(ctx, cap)
}

// ApplyEncoder routes an encoder-rotation invocation of cap to its owning
// plugin.
func (r *Registry) ApplyEncoder(ctx context.Context, cap capability.Capability, delta int) error {
	p, err := r.resolve(cap.Type)
	if err != nil {
		return err
	}
	return p.ApplyEncoder(ctx, cap, delta)
}

// IsActive reports whether cap's owning, enabled plugin considers it
// currently "active", for alt-image selection in the renderer. An
// unowned or disabled capability is never active.
func (r *Registry) IsActive(cap capability.Capability) bool {
	p, err := r.resolve(cap.Type)
	if err != nil {
		return false
	}
	return p.IsActive(cap)
}
