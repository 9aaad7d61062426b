package commandsurface

import (
	"encoding/json"
	"fmt"

	"github.com/vincent99/deckmanagerd/internal/binding"
	"github.com/vincent99/deckmanagerd/internal/bindingstore"
	"github.com/vincent99/deckmanagerd/internal/hidengine"
	"github.com/vincent99/deckmanagerd/internal/plugin"
	"github.com/vincent99/deckmanagerd/internal/statemanager"
)

// Engine is the subset of hidengine.Engine the command surface needs,
// kept as a local interface so this package never has to know how the
// engine drives its connect/read loop.
type Engine interface {
	DeviceInfo() hidengine.DeviceInfo
	CurrentPage() int
	SetCurrentPage(page int)
	PageCount() int
	RequestImageSync()
}

// State is the subset of statemanager.Manager the command surface needs.
type State interface {
	State() statemanager.SystemState
	CheckNow()
}

// Dependencies bundles every shared component the command surface's
// handlers read or mutate. All fields are required except KeyLightStates.
type Dependencies struct {
	Bindings    *binding.Table
	Store       *bindingstore.Store
	PluginState *bindingstore.PluginStateStore
	Registry    *plugin.Registry
	Engine      Engine
	State       State

	// KeyLightStates, if set, supplies the `key_lights` map for
	// get_system_state / state:change payloads (spec.md §6), keyed
	// "ip:port" -> on/off. Nil omits the field entirely.
	KeyLightStates func() map[string]bool
}

// systemStatePayload is the JSON shape returned by get_system_state and
// carried in state:change events, per spec.md §6.
type systemStatePayload struct {
	IsMuted    bool            `json:"is_muted"`
	IsMicMuted bool            `json:"is_mic_muted"`
	IsPlaying  bool            `json:"is_playing"`
	KeyLights  map[string]bool `json:"key_lights,omitempty"`
}

type commandSet struct {
	deps Dependencies
}

func newCommandSet(deps Dependencies) *commandSet {
	return &commandSet{deps: deps}
}

// systemStateSnapshot builds the combined payload from the polled
// SystemState plus whatever key-light states are currently cached.
func (cs *commandSet) systemStateSnapshot() systemStatePayload {
	st := cs.deps.State.State()
	p := systemStatePayload{IsMuted: st.IsMuted, IsMicMuted: st.IsMicMuted, IsPlaying: st.IsPlaying}
	if cs.deps.KeyLightStates != nil {
		p.KeyLights = cs.deps.KeyLightStates()
	}
	return p
}

// setBindingParams is set_binding's parameter shape: the full binding
// record to install, replacing any existing binding at (page, input).
type setBindingParams = binding.Binding

type removeBindingParams struct {
	Page  int            `json:"page"`
	Input binding.InputRef `json:"input"`
}

type setCurrentPageParams struct {
	Page int `json:"page"`
}

type setPluginEnabledParams struct {
	ID      string `json:"id"`
	Enabled bool   `json:"enabled"`
}

// dispatch executes one named command against raw parameters (nil for
// commands that take none) and returns its JSON-serializable result.
func (cs *commandSet) dispatch(name string, params json.RawMessage) (any, error) {
	switch name {
	case "get_device_info":
		return cs.deps.Engine.DeviceInfo(), nil

	case "get_bindings":
		return cs.deps.Bindings.All(), nil

	case "get_capabilities":
		return cs.deps.Registry.Capabilities(), nil

	case "set_binding":
		var b setBindingParams
		if err := json.Unmarshal(params, &b); err != nil {
			return nil, fmt.Errorf("invalid set_binding params: %w", err)
		}
		if err := cs.deps.Bindings.Set(b); err != nil {
			return nil, err
		}
		cs.deps.Engine.RequestImageSync()
		return nil, nil

	case "remove_binding":
		var p removeBindingParams
		if err := json.Unmarshal(params, &p); err != nil {
			return nil, fmt.Errorf("invalid remove_binding params: %w", err)
		}
		cs.deps.Bindings.Remove(p.Page, p.Input)
		cs.deps.Engine.RequestImageSync()
		return nil, nil

	case "save_bindings":
		if err := cs.deps.Store.Save(cs.deps.Bindings); err != nil {
			return nil, err
		}
		return nil, nil

	case "sync_button_images":
		cs.deps.Engine.RequestImageSync()
		return nil, nil

	case "get_system_state":
		// Triggers an immediate poll (spec.md §4.12) but, since the poll
		// runs on the state manager's own loop, returns the last-known
		// snapshot immediately rather than blocking for the fresh one —
		// the caller observes the refreshed value via the subsequent
		// state:change broadcast.
		cs.deps.State.CheckNow()
		return cs.systemStateSnapshot(), nil

	case "get_current_page":
		return cs.deps.Engine.CurrentPage(), nil

	case "set_current_page":
		var p setCurrentPageParams
		if err := json.Unmarshal(params, &p); err != nil {
			return nil, fmt.Errorf("invalid set_current_page params: %w", err)
		}
		cs.deps.Engine.SetCurrentPage(p.Page)
		return nil, nil

	case "get_page_count":
		return cs.deps.Engine.PageCount(), nil

	case "get_plugins":
		return cs.deps.Registry.Plugins(), nil

	case "set_plugin_enabled":
		var p setPluginEnabledParams
		if err := json.Unmarshal(params, &p); err != nil {
			return nil, fmt.Errorf("invalid set_plugin_enabled params: %w", err)
		}
		cs.deps.Registry.SetEnabled(p.ID, p.Enabled)
		enabled := make(map[string]bool)
		for _, info := range cs.deps.Registry.Plugins() {
			enabled[info.ID] = info.Enabled
		}
		if err := cs.deps.PluginState.Save(enabled); err != nil {
			return nil, err
		}
		return nil, nil

	default:
		return nil, fmt.Errorf("unknown command %q", name)
	}
}
