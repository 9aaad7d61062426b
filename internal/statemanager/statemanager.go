// Package statemanager runs the single background loop that polls
// OS-level audio/media state and publishes change events, grounded on the
// teacher's ticker+change-detection+broadcast idiom (its now-removed
// runAirSensorLoop/runLightSensorLoop pair) applied to wpctl/playerctl
// instead of I2C sensor reads.
package statemanager

import (
	"context"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/vincent99/deckmanagerd/internal/logging"
)

var log = logging.For("statemanager")

const (
	tickInterval     = 100 * time.Millisecond
	unconditionalEvery = 20 // ticks, ~2s at 100ms
)

// SystemState is the polled snapshot broadcast to the command surface and
// consulted by the renderer for alt-icon selection.
type SystemState struct {
	IsMuted    bool `json:"is_muted"`
	IsMicMuted bool `json:"is_mic_muted"`
	IsPlaying  bool `json:"is_playing"`
}

// Manager owns the polling loop and the last-known SystemState.
type Manager struct {
	mu        sync.RWMutex
	state     SystemState
	checkNow  chan struct{}
	onChange  func(SystemState)
	requestSync func()
}

// New returns a Manager. onChange is invoked whenever a polled boolean
// flips (used to emit a `state:change` command-surface event);
// requestSync is invoked alongside it to request an image sync, matching
// spec.md §4.8's "emit a state:change event... and request an image sync".
func New(onChange func(SystemState), requestSync func()) *Manager {
	if onChange == nil {
		onChange = func(SystemState) {}
	}
	if requestSync == nil {
		requestSync = func() {}
	}
	return &Manager{
		checkNow:    make(chan struct{}, 1),
		onChange:    onChange,
		requestSync: requestSync,
	}
}

// State returns the last-known snapshot.
func (m *Manager) State() SystemState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// CheckNow sets the "check now" flag consumed on the manager's next tick,
// used by the command surface's get_system_state handler to trigger an
// immediate poll.
func (m *Manager) CheckNow() {
	select {
	case m.checkNow <- struct{}{}:
	default:
	}
}

// Run drives the poll loop until ctx is canceled. One tick every 100ms;
// an immediate poll on a pending CheckNow flag, else an unconditional
// poll every 20 ticks (~2s).
func (m *Manager) Run(ctx context.Context) {
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	tickCount := 0
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			tickCount++
			select {
			case <-m.checkNow:
				m.poll(ctx)
				tickCount = 0
			default:
				if tickCount >= unconditionalEvery {
					m.poll(ctx)
					tickCount = 0
				}
			}
		}
	}
}

func (m *Manager) poll(ctx context.Context) {
	next := SystemState{
		IsMuted:    queryMute(ctx, defaultSinkTarget),
		IsMicMuted: queryMute(ctx, defaultSourceTarget),
		IsPlaying:  queryPlaying(ctx),
	}

	m.mu.Lock()
	changed := next != m.state
	m.state = next
	m.mu.Unlock()

	if changed {
		m.onChange(next)
		m.requestSync()
	}
}

const (
	defaultSinkTarget   = "@DEFAULT_AUDIO_SINK@"
	defaultSourceTarget = "@DEFAULT_AUDIO_SOURCE@"
)

// queryMute shells out to `wpctl get-volume <target>` and checks for the
// trailing "[MUTED]" marker wireplumber prints.
func queryMute(ctx context.Context, target string) bool {
	out, err := exec.CommandContext(ctx, "wpctl", "get-volume", target).Output()
	if err != nil {
		log.WithError(err).WithField("target", target).Debug("statemanager: wpctl query failed")
		return false
	}
	return strings.Contains(string(out), "[MUTED]")
}

// queryPlaying shells out to `playerctl status`, treating any error
// (no player running, playerctl not installed) as "not playing".
func queryPlaying(ctx context.Context) bool {
	out, err := exec.CommandContext(ctx, "playerctl", "status").Output()
	if err != nil {
		return false
	}
	return strings.TrimSpace(string(out)) == "Playing"
}

// ParseVolumeLevel extracts the numeric volume level from `wpctl
// get-volume` output (e.g. "Volume: 0.45" or "Volume: 0.45 [MUTED]") —
// the first whitespace-delimited token that parses as a float. Exported
// for internal/plugins/core's read-modify-write volume adjustment.
func ParseVolumeLevel(output string) (float64, bool) {
	fields := strings.Fields(output)
	for _, f := range fields {
		if v, err := strconv.ParseFloat(f, 64); err == nil {
			return v, true
		}
	}
	return 0, false
}
