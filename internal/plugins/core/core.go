// Package core implements the always-enabled built-in plugin: system
// audio/microphone control, media transport, and shell-exec capabilities.
// Grounded on original_source/src-tauri/src/core/{audio,media,commands}.rs
// and capability.rs's apply_button/apply_encoder dispatch rules.
package core

import (
	"context"
	"os/exec"
	"strings"
	"time"

	"github.com/vincent99/deckmanagerd/internal/capability"
	"github.com/vincent99/deckmanagerd/internal/logging"
	"github.com/vincent99/deckmanagerd/internal/shellsec"
)

var log = logging.For("plugin.core")

const defaultRateLimitWindow = 200 * time.Millisecond

// Plugin is the core built-in capability handler. It is always registered
// and always enabled (Core() returns true) — spec.md's "core plugin forced
// enabled" invariant.
type Plugin struct {
	mixer      *audioMixer
	micMixer   *audioMixer
	limiter    *shellsec.RateLimiter
	tracker    *processTracker
}

// New returns the core plugin. rateLimitWindow is the RunCommand/LaunchApp/
// OpenURL per-command rate-limit window (spec.md's 200ms default); a zero
// value falls back to the default.
func New(rateLimitWindow time.Duration) *Plugin {
	if rateLimitWindow <= 0 {
		rateLimitWindow = defaultRateLimitWindow
	}
	return &Plugin{
		mixer:    &audioMixer{},
		micMixer: &audioMixer{},
		limiter:  shellsec.NewRateLimiter(rateLimitWindow),
		tracker:  newProcessTracker(),
	}
}

func (p *Plugin) ID() string   { return "core" }
func (p *Plugin) Name() string { return "Core" }
func (p *Plugin) Core() bool   { return true }

func (p *Plugin) ownedIDs() []capability.ID {
	return []capability.ID{
		capability.SystemAudio, capability.Mute, capability.VolumeUp, capability.VolumeDown,
		capability.Microphone, capability.MicMute, capability.MicVolumeUp, capability.MicVolumeDown,
		capability.MediaPlayPause, capability.MediaNext, capability.MediaPrevious, capability.MediaStop,
		capability.RunCommand, capability.LaunchApp, capability.OpenURL,
	}
}

func (p *Plugin) Owns(id capability.ID) bool {
	for _, owned := range p.ownedIDs() {
		if owned == id {
			return true
		}
	}
	return false
}

func (p *Plugin) Capabilities() []capability.Descriptor {
	var out []capability.Descriptor
	owned := p.ownedIDs()
	for _, d := range capability.Descriptors() {
		for _, id := range owned {
			if d.ID == string(id) {
				out = append(out, d)
				break
			}
		}
	}
	return out
}

func stepOrDefault(step float64, def float64) float64 {
	if step == 0 {
		return def
	}
	return step
}

// ApplyButton handles a button press or encoder press for a capability
// this plugin owns. Note SystemAudio and Microphone — encoder-rotation
// capabilities by nature — fall back to toggling mute when bound to a
// button, matching capability.rs's apply_button behavior for those
// variants rather than silently doing nothing.
func (p *Plugin) ApplyButton(ctx context.Context, cap capability.Capability) error {
	switch cap.Type {
	case capability.SystemAudio:
		return p.mixer.toggleMute(ctx, defaultSinkTarget)
	case capability.Mute:
		return p.mixer.toggleMute(ctx, defaultSinkTarget)
	case capability.VolumeUp:
		return p.mixer.adjustVolume(ctx, defaultSinkTarget, stepOrDefault(cap.Step, capability.DefaultOBSAudioStep))
	case capability.VolumeDown:
		return p.mixer.adjustVolume(ctx, defaultSinkTarget, -stepOrDefault(cap.Step, capability.DefaultOBSAudioStep))
	case capability.Microphone:
		return p.micMixer.toggleMute(ctx, defaultSourceTarget)
	case capability.MicMute:
		return p.micMixer.toggleMute(ctx, defaultSourceTarget)
	case capability.MicVolumeUp:
		return p.micMixer.adjustVolume(ctx, defaultSourceTarget, stepOrDefault(cap.Step, capability.DefaultOBSAudioStep))
	case capability.MicVolumeDown:
		return p.micMixer.adjustVolume(ctx, defaultSourceTarget, -stepOrDefault(cap.Step, capability.DefaultOBSAudioStep))
	case capability.MediaPlayPause:
		return mediaPlayPause(ctx)
	case capability.MediaNext:
		return mediaNext(ctx)
	case capability.MediaPrevious:
		return mediaPrevious(ctx)
	case capability.MediaStop:
		return mediaStop(ctx)
	case capability.RunCommand:
		return runCommand(ctx, p.limiter, p.tracker, cap)
	case capability.LaunchApp:
		return launchApp(ctx, p.limiter, cap)
	case capability.OpenURL:
		return openURL(ctx, p.limiter, cap)
	default:
		log.WithField("capability", cap.Type).Warn("core: unhandled button capability")
		return nil
	}
}

// ApplyEncoder handles encoder rotation. delta is the signed detent count
// since the last call (normally ±1). Only SystemAudio and Microphone have
// SupportsEncoder set in the capability descriptors, so only those two
// respond here; an event that doesn't match a capability's natural input
// type is silently ignored rather than delegated to ApplyButton, per
// capability.rs's apply_encoder (VolumeUp/VolumeDown/MicVolumeUp/
// MicVolumeDown have no encoder arm there).
func (p *Plugin) ApplyEncoder(ctx context.Context, cap capability.Capability, delta int) error {
	switch cap.Type {
	case capability.SystemAudio:
		step := stepOrDefault(cap.Step, capability.DefaultOBSAudioStep)
		return p.mixer.adjustVolume(ctx, defaultSinkTarget, step*float64(delta))
	case capability.Microphone:
		step := stepOrDefault(cap.Step, capability.DefaultOBSAudioStep)
		return p.micMixer.adjustVolume(ctx, defaultSourceTarget, step*float64(delta))
	case capability.VolumeUp, capability.VolumeDown, capability.MicVolumeUp, capability.MicVolumeDown:
		return nil
	default:
		// Discrete capabilities fire once per detent regardless of direction.
		return p.ApplyButton(ctx, cap)
	}
}

// IsActive reports the current on/off state behind cap's alt-image
// selection: mute state for audio capabilities, playback state for media
// transport, and a running/toggled flag for a toggled RunCommand. Shell
// and URL/app-launch capabilities with no persistent state are never
// active.
func (p *Plugin) IsActive(cap capability.Capability) bool {
	ctx := context.Background()
	switch cap.Type {
	case capability.SystemAudio, capability.Mute, capability.VolumeUp, capability.VolumeDown:
		_, muted, err := p.mixer.volume(ctx, defaultSinkTarget)
		return err == nil && muted
	case capability.Microphone, capability.MicMute, capability.MicVolumeUp, capability.MicVolumeDown:
		_, muted, err := p.micMixer.volume(ctx, defaultSourceTarget)
		return err == nil && muted
	case capability.MediaPlayPause:
		out, err := exec.CommandContext(ctx, "playerctl", "status").Output()
		return err == nil && strings.TrimSpace(string(out)) == "Playing"
	case capability.RunCommand:
		if !cap.Toggle {
			return false
		}
		return p.tracker.running(cap.Command)
	default:
		return false
	}
}
