// Command deckmanagerd is the macro-keypad control-surface daemon: it
// drives the HID engine, the background plugins, and the GUI-facing
// command surface. Bootstrap sequence grounded on the teacher's
// server/main.go (config load, listener bind before any blocking
// hardware init, background loops started last, signal-driven shutdown).
package main

import (
	"context"
	"flag"
	"net"
	"net/http"
	"os"
	"path/filepath"

	"github.com/vincent99/deckmanagerd/internal/appconfig"
	"github.com/vincent99/deckmanagerd/internal/bindingstore"
	"github.com/vincent99/deckmanagerd/internal/commandsurface"
	"github.com/vincent99/deckmanagerd/internal/hidengine"
	"github.com/vincent99/deckmanagerd/internal/hotplug"
	"github.com/vincent99/deckmanagerd/internal/imagecache"
	"github.com/vincent99/deckmanagerd/internal/logging"
	"github.com/vincent99/deckmanagerd/internal/plugin"
	"github.com/vincent99/deckmanagerd/internal/plugins/core"
	"github.com/vincent99/deckmanagerd/internal/plugins/elgato"
	"github.com/vincent99/deckmanagerd/internal/plugins/obs"
	"github.com/vincent99/deckmanagerd/internal/render"
	"github.com/vincent99/deckmanagerd/internal/singleinstance"
	"github.com/vincent99/deckmanagerd/internal/statemanager"

	"os/signal"
	"syscall"
)

var log = logging.For("main")

func main() {
	hidden := flag.Bool("hidden", false, "start with the GUI window hidden")
	verbose := flag.Bool("verbose", false, "enable debug logging")
	flag.Parse()
	logging.SetVerbose(*verbose)

	stateDir := runtimeDir()

	lock, err := singleinstance.Acquire(filepath.Join(stateDir, "deckmanagerd.lock"))
	if err != nil {
		if pid, ok := singleinstance.RunningPID(filepath.Join(stateDir, "deckmanagerd.lock")); ok {
			log.WithField("pid", pid).Fatal("main: another instance is already running")
		}
		log.WithError(err).Fatal("main: cannot acquire single-instance lock")
	}
	defer lock.Release()

	result := appconfig.Load("config.default.yaml", "config.yaml")
	cfg := result.Config

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// --- Plugin registry: core is always enabled; elgato/obs start per
	// the persisted plugin-state file, falling back to Core()'s default. ---
	registry := plugin.NewRegistry()
	pluginState := bindingstore.NewPluginStateStore(filepath.Join(stateDir, "plugins.toml"))
	persistedEnabled := pluginState.Load()

	corePlugin := core.New(cfg.RateLimitWindowDur)
	elgatoPlugin := elgato.New()
	obsPlugin := obs.New()

	for _, p := range []plugin.Plugin{corePlugin, elgatoPlugin, obsPlugin} {
		if err := registry.Register(p); err != nil {
			log.WithError(err).Fatal("main: plugin registration conflict")
		}
	}
	for id, enabled := range persistedEnabled {
		registry.SetEnabled(id, enabled)
	}

	// --- Bindings: load from disk, falling back to an empty table, which
	// is itself a valid starting point per spec.md §4.11. ---
	store := bindingstore.New(filepath.Join(stateDir, "bindings.toml"))
	bindings, err := store.Load()
	if err != nil {
		log.WithError(err).Fatal("main: bindings load")
	}

	// --- Renderer ---
	cache, err := imagecache.New(cfg.ImageCache.Capacity, cfg.ImageCacheURLTTLDur)
	if err != nil {
		log.WithError(err).Fatal("main: image cache init")
	}
	font, err := render.LoadFont(cfg.Render.FontPath)
	if err != nil {
		log.WithError(err).Fatal("main: font load")
	}
	renderer := render.New(cache, font, cfg.Render.KeyWidth, cfg.Render.KeyHeight)

	// --- Command surface hub: constructed before the engine/state manager
	// since both need it as their event sink. Its Engine/State dependencies
	// are patched in below, before Handler starts accepting connections. ---
	hub := commandsurface.New(commandsurface.Dependencies{
		Bindings:    bindings,
		Store:       store,
		PluginState: pluginState,
		Registry:    registry,
		KeyLightStates: elgatoPlugin.States,
	})

	// --- State manager: polls wpctl/playerctl and forwards state:change
	// events to the command surface's broadcast. ---
	var engine *hidengine.Engine
	stateMgr := statemanager.New(
		func(st statemanager.SystemState) {
			hub.EmitEvent("state:change", struct {
				IsMuted    bool            `json:"is_muted"`
				IsMicMuted bool            `json:"is_mic_muted"`
				IsPlaying  bool            `json:"is_playing"`
				KeyLights  map[string]bool `json:"key_lights,omitempty"`
			}{st.IsMuted, st.IsMicMuted, st.IsPlaying, elgatoPlugin.States()})
		},
		func() {
			if engine != nil {
				engine.RequestImageSync()
			}
		},
	)

	// --- Hot-plug monitor: best-effort wakeup hint for the HID engine's
	// connect-wait loop. ---
	vendorID := cfg.HID.VendorID
	if vendorID == 0 {
		vendorID = hidengine.DefaultVendorID
	}
	hotplugMon := hotplug.New(vendorID)

	// --- HID engine ---
	engine = hidengine.New(bindings, registry, renderer, hub, hotplugMon,
		vendorID, cfg.HID.ProductID,
		cfg.Swipe.MinDistance,
	)

	hub.SetEngine(engine)
	hub.SetState(stateMgr)

	// --- Command surface listener: bind before starting any background
	// loop, mirroring the teacher's "HTTP server first" order. Dependencies
	// are fully wired by this point, so it's safe to start accepting. ---
	ln, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		log.WithError(err).Fatal("main: listen")
	}
	log.WithField("addr", cfg.Addr).Info("main: command surface listening")
	go func() {
		if err := http.Serve(ln, hub.Handler()); err != nil {
			log.WithError(err).Error("main: command surface server exited")
		}
	}()

	// Advertise the initial window-visibility preference (--hidden) as a
	// broadcast to the clients connected at this moment; it is not stored
	// or replayed, so a GUI that connects later does not receive it.
	hub.EmitEvent("streamdeck:startup", struct {
		Hidden bool `json:"hidden"`
	}{*hidden})

	go stateMgr.Run(ctx)
	go hotplugMon.Run(ctx)

	log.Info("main: starting HID engine")
	go engine.Run(ctx)

	// Persist the starting state of dynamically-controlled fields (the
	// plugin-enabled map) immediately so a first-ever launch writes a
	// well-formed plugins.toml rather than waiting for the first toggle.
	if len(persistedEnabled) == 0 {
		enabled := make(map[string]bool)
		for _, info := range registry.Plugins() {
			enabled[info.ID] = info.Enabled
		}
		if err := pluginState.Save(enabled); err != nil {
			log.WithError(err).Warn("main: initial plugin state save failed")
		}
	}

	<-ctx.Done()
	log.Info("main: shutting down")
	ln.Close()

	// Best-effort final save: the GUI's own save_bindings command is the
	// primary persistence path, this just protects in-memory edits that
	// were never explicitly saved before a signal-driven exit.
	if err := store.Save(bindings); err != nil {
		log.WithError(err).Warn("main: final bindings save failed")
	}
}

// runtimeDir returns the directory deckmanagerd persists its lock,
// bindings, and plugin-state files in, creating it if necessary.
func runtimeDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	} else {
		dir = filepath.Join(dir, "deckmanagerd")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		log.WithError(err).Warn("main: cannot create runtime dir, falling back to cwd")
		return "."
	}
	return dir
}
