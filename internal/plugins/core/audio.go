package core

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"sync"

	"github.com/vincent99/deckmanagerd/internal/statemanager"
)

// audioMixer wraps the `wpctl` (PipeWire) CLI the way spec.md treats OS
// audio control: an opaque external tool invoked with a fixed argv, never a
// shell string. Grounded on statemanager's polling idiom and on the
// no-library-for-fixed-CLI-tools justification in
// DESIGN.md.
type audioMixer struct {
	mu sync.Mutex
}

const (
	defaultSinkTarget   = "@DEFAULT_AUDIO_SINK@"
	defaultSourceTarget = "@DEFAULT_AUDIO_SOURCE@"
)

// adjustVolume is a read-modify-write: the current level is queried,
// delta is added and clamped to [0,1], and the absolute result is written
// back. wpctl has no relative-adjustment mode that clamps correctly at
// both ends, so the three steps happen here rather than in a single CLI
// invocation.
func (m *audioMixer) adjustVolume(ctx context.Context, target string, delta float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	current, _, err := m.volumeLocked(ctx, target)
	if err != nil {
		return err
	}
	next := clampVolume(current + delta)
	arg := fmt.Sprintf("%.3f", next)
	return runTool(ctx, "wpctl", "set-volume", target, arg)
}

func clampVolume(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func (m *audioMixer) toggleMute(ctx context.Context, target string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return runTool(ctx, "wpctl", "set-mute", target, "toggle")
}

// volume returns the current linear volume [0,1] and mute state of target.
func (m *audioMixer) volume(ctx context.Context, target string) (level float64, muted bool, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.volumeLocked(ctx, target)
}

// volumeLocked is volume's body, callable from adjustVolume which already
// holds m.mu.
func (m *audioMixer) volumeLocked(ctx context.Context, target string) (level float64, muted bool, err error) {
	out, err := exec.CommandContext(ctx, "wpctl", "get-volume", target).Output()
	if err != nil {
		return 0, false, fmt.Errorf("core: wpctl get-volume: %w", err)
	}
	level, _ = statemanager.ParseVolumeLevel(string(out))
	muted = bytes.Contains(out, []byte("MUTED"))
	return level, muted, nil
}

func runTool(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("core: %s %v: %w (%s)", name, args, err, strings.TrimSpace(string(out)))
	}
	return nil
}
