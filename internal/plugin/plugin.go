// Package plugin defines the capability-handler trait object and the
// registry that routes a capability invocation to the plugin that owns it.
// Grounded on original_source/src-tauri/src/plugin/{mod,registry,types}.rs,
// translated from a Rust trait object to a Go interface.
package plugin

import (
	"context"

	"github.com/vincent99/deckmanagerd/internal/capability"
)

// Plugin is the capability-handler contract every built-in and optional
// plugin implements. A plugin owns a fixed set of capability IDs and is
// asked to apply them on button press or encoder rotation/press.
type Plugin interface {
	// ID is the plugin's stable identifier, e.g. "core", "elgato", "obs".
	ID() string

	// Name is the human-readable plugin name for the command surface.
	Name() string

	// Core reports whether this plugin is always enabled regardless of
	// user configuration (spec.md: "core plugin forced enabled").
	Core() bool

	// Capabilities lists the capability descriptors this plugin owns.
	Capabilities() []capability.Descriptor

	// Owns reports whether this plugin handles the given capability ID.
	Owns(id capability.ID) bool

	// ApplyButton is invoked on a button press or an encoder press for a
	// capability this plugin owns.
	ApplyButton(ctx context.Context, cap capability.Capability) error

	// ApplyEncoder is invoked on encoder rotation, with delta the signed
	// number of detents since the last invocation (usually ±1).
	ApplyEncoder(ctx context.Context, cap capability.Capability, delta int) error

	// IsActive reports whether cap's bound state is currently "on"
	// (muted, streaming, light on, ...), used by the renderer to select
	// a binding's alt image/color variant over its default.
	IsActive(cap capability.Capability) bool
}
