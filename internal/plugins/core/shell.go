package core

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"sync"

	"github.com/vincent99/deckmanagerd/internal/capability"
	"github.com/vincent99/deckmanagerd/internal/shellsec"
)

// processTracker remembers the running *exec.Cmd for each Toggle-style
// RunCommand, so a second press of the same binding stops it rather than
// spawning a duplicate.
type processTracker struct {
	mu    sync.Mutex
	procs map[string]*exec.Cmd
}

func newProcessTracker() *processTracker {
	return &processTracker{procs: make(map[string]*exec.Cmd)}
}

func (t *processTracker) toggle(command string, argv []string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if cmd, ok := t.procs[command]; ok {
		delete(t.procs, command)
		if cmd.Process != nil {
			return cmd.Process.Kill()
		}
		return nil
	}

	cmd := exec.Command(argv[0], argv[1:]...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("core: toggle start %q: %w", command, err)
	}
	t.procs[command] = cmd
	go func() {
		_ = cmd.Wait()
		t.mu.Lock()
		if t.procs[command] == cmd {
			delete(t.procs, command)
		}
		t.mu.Unlock()
	}()
	return nil
}

// running reports whether command currently has a tracked, toggled
// process running.
func (t *processTracker) running(command string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.procs[command]
	return ok
}

func runCommand(ctx context.Context, limiter *shellsec.RateLimiter, tracker *processTracker, cap capability.Capability) error {
	if !limiter.Allow(cap.Command) {
		return fmt.Errorf("core: RunCommand %q rate-limited", cap.Command)
	}
	argv, err := shellsec.LexCommand(cap.Command)
	if err != nil {
		return err
	}
	if cap.Toggle {
		return tracker.toggle(cap.Command, argv)
	}
	return exec.CommandContext(ctx, argv[0], argv[1:]...).Start()
}

func launchApp(ctx context.Context, limiter *shellsec.RateLimiter, cap capability.Capability) error {
	if !limiter.Allow(cap.Command) {
		return fmt.Errorf("core: LaunchApp %q rate-limited", cap.Command)
	}
	argv, err := shellsec.LexCommand(cap.Command)
	if err != nil {
		return err
	}
	if err := shellsec.ValidateAppName(argv[0]); err != nil {
		return err
	}
	return exec.CommandContext(ctx, argv[0], argv[1:]...).Start()
}

func openURL(ctx context.Context, limiter *shellsec.RateLimiter, cap capability.Capability) error {
	if !limiter.Allow(cap.URL) {
		return fmt.Errorf("core: OpenURL %q rate-limited", cap.URL)
	}
	if err := shellsec.ValidateURLScheme(cap.URL); err != nil {
		return err
	}
	opener := "xdg-open"
	if runtime.GOOS == "darwin" {
		opener = "open"
	}
	return exec.CommandContext(ctx, opener, cap.URL).Start()
}
