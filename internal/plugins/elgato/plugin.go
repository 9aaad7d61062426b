package elgato

import (
	"context"
	"strconv"
	"sync"

	"github.com/vincent99/deckmanagerd/internal/capability"
)

// Plugin is the optional Elgato Key Light plugin. It is disabled by
// default and keyed by "elgato" for enable/disable via the plugin
// registry.
type Plugin struct {
	mu          sync.Mutex
	controllers map[string]*Controller // keyed by "ip:port"
}

// New returns a new, empty Elgato plugin instance.
func New() *Plugin {
	return &Plugin{controllers: make(map[string]*Controller)}
}

func (p *Plugin) ID() string   { return "elgato" }
func (p *Plugin) Name() string { return "Elgato Key Light" }
func (p *Plugin) Core() bool   { return false }

func (p *Plugin) Owns(id capability.ID) bool { return id == capability.ElgatoKeyLight }

func (p *Plugin) Capabilities() []capability.Descriptor {
	for _, d := range capability.Descriptors() {
		if d.ID == string(capability.ElgatoKeyLight) {
			return []capability.Descriptor{d}
		}
	}
	return nil
}

func (p *Plugin) controllerFor(cap capability.Capability) *Controller {
	cap = cap.WithKeyLightDefaults()
	key := cap.IP + ":" + strconv.Itoa(cap.Port)
	p.mu.Lock()
	defer p.mu.Unlock()
	c, ok := p.controllers[key]
	if !ok {
		c = NewController(cap.IP, cap.Port)
		p.controllers[key] = c
	}
	return c
}

func (p *Plugin) ApplyButton(ctx context.Context, cap capability.Capability) error {
	c := p.controllerFor(cap)
	switch cap.KeyLightAction {
	case capability.KeyLightToggle, "":
		return c.Toggle(ctx)
	case capability.KeyLightOn:
		return c.SetOn(ctx, true)
	case capability.KeyLightOff:
		return c.SetOn(ctx, false)
	case capability.KeyLightSetBrightness:
		// SetBrightness is a no-op on a discrete press; it is an
		// encoder-rotation action, matching capability.rs's apply_button.
		return nil
	}
	return nil
}

func (p *Plugin) ApplyEncoder(ctx context.Context, cap capability.Capability, delta int) error {
	if cap.KeyLightAction != capability.KeyLightSetBrightness && cap.KeyLightAction != "" {
		return nil
	}
	c := p.controllerFor(cap)
	return c.AdjustBrightness(ctx, capability.DefaultKeyLightBrightnessStep*delta)
}

// IsActive reports whether the light this capability addresses is
// currently on.
func (p *Plugin) IsActive(cap capability.Capability) bool {
	c := p.controllerFor(cap)
	return c.IsOn(context.Background())
}

// States snapshots the last-known on/off state of every light this plugin
// has addressed so far, keyed by "ip:port", for state:change's key_lights
// field. It never hits the network — a light that hasn't been addressed
// yet (and so has no cached state) is simply absent from the map.
func (p *Plugin) States() map[string]bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make(map[string]bool, len(p.controllers))
	for key, c := range p.controllers {
		if on, ok := c.CachedOn(); ok {
			out[key] = on
		}
	}
	return out
}
