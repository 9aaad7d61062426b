package core

import (
	"context"
	"testing"
	"time"

	"github.com/vincent99/deckmanagerd/internal/capability"
	"github.com/vincent99/deckmanagerd/internal/shellsec"
)

func TestProcessTrackerToggleStartsThenKills(t *testing.T) {
	tracker := newProcessTracker()
	argv := []string{"sleep", "5"}

	if err := tracker.toggle("sleep-test", argv); err != nil {
		t.Fatalf("first toggle() error = %v", err)
	}
	if !tracker.running("sleep-test") {
		t.Fatal("running() = false after starting, want true")
	}

	if err := tracker.toggle("sleep-test", argv); err != nil {
		t.Fatalf("second toggle() error = %v", err)
	}
	if tracker.running("sleep-test") {
		t.Error("running() = true after the second toggle, want false (killed)")
	}
}

func TestRunCommandRateLimited(t *testing.T) {
	logPath := installFakeTool(t, "fake-run-cmd", "")
	limiter := shellsec.NewRateLimiter(time.Minute)
	tracker := newProcessTracker()
	cap := capability.Capability{Type: capability.RunCommand, Command: "fake-run-cmd"}

	if err := runCommand(context.Background(), limiter, tracker, cap); err != nil {
		t.Fatalf("first RunCommand error = %v", err)
	}
	if err := runCommand(context.Background(), limiter, tracker, cap); err == nil {
		t.Error("second RunCommand within the rate-limit window = nil error, want error")
	}

	time.Sleep(100 * time.Millisecond)
	if lines := readLogLines(t, logPath); len(lines) != 1 {
		t.Errorf("fake-run-cmd invocations = %d, want 1", len(lines))
	}
}

func TestRunCommandToggleStartsAndStopsTrackedProcess(t *testing.T) {
	limiter := shellsec.NewRateLimiter(0)
	tracker := newProcessTracker()
	cap := capability.Capability{Type: capability.RunCommand, Command: "sleep 5", Toggle: true}

	if err := runCommand(context.Background(), limiter, tracker, cap); err != nil {
		t.Fatalf("start error = %v", err)
	}
	if !tracker.running("sleep 5") {
		t.Fatal("expected the toggled command to be tracked as running")
	}

	if err := runCommand(context.Background(), limiter, tracker, cap); err != nil {
		t.Fatalf("stop error = %v", err)
	}
	if tracker.running("sleep 5") {
		t.Error("expected the second RunCommand to stop the tracked process")
	}
}

func TestRunCommandRejectsUnbalancedQuotes(t *testing.T) {
	limiter := shellsec.NewRateLimiter(0)
	tracker := newProcessTracker()
	cap := capability.Capability{Type: capability.RunCommand, Command: `echo "unterminated`}

	if err := runCommand(context.Background(), limiter, tracker, cap); err == nil {
		t.Error("RunCommand with unbalanced quotes = nil error, want a lex error")
	}
}

func TestLaunchAppRejectsDisallowedCharacters(t *testing.T) {
	limiter := shellsec.NewRateLimiter(0)
	cap := capability.Capability{Type: capability.LaunchApp, Command: "app;rm -rf /"}

	if err := launchApp(context.Background(), limiter, cap); err == nil {
		t.Error("LaunchApp with a disallowed character in the app name = nil error, want error")
	}
}

func TestLaunchAppStartsAllowedBinary(t *testing.T) {
	logPath := installFakeTool(t, "fake-app", "")
	limiter := shellsec.NewRateLimiter(0)
	cap := capability.Capability{Type: capability.LaunchApp, Command: "fake-app"}

	if err := launchApp(context.Background(), limiter, cap); err != nil {
		t.Fatalf("LaunchApp() error = %v", err)
	}
	time.Sleep(100 * time.Millisecond)
	if lines := readLogLines(t, logPath); len(lines) != 1 {
		t.Errorf("fake-app invocations = %d, want 1", len(lines))
	}
}

func TestOpenURLRejectsDisallowedScheme(t *testing.T) {
	limiter := shellsec.NewRateLimiter(0)
	cap := capability.Capability{Type: capability.OpenURL, URL: "file:///etc/passwd"}

	if err := openURL(context.Background(), limiter, cap); err == nil {
		t.Error("OpenURL with a file:// scheme = nil error, want error")
	}
}

func TestOpenURLAllowsHTTPS(t *testing.T) {
	opener := "xdg-open"
	logPath := installFakeTool(t, opener, "")
	limiter := shellsec.NewRateLimiter(0)
	cap := capability.Capability{Type: capability.OpenURL, URL: "https://example.com"}

	if err := openURL(context.Background(), limiter, cap); err != nil {
		t.Fatalf("OpenURL() error = %v", err)
	}
	time.Sleep(100 * time.Millisecond)
	if lines := readLogLines(t, logPath); len(lines) != 1 || lines[0] != "https://example.com" {
		t.Errorf("%s argv = %v, want [https://example.com]", opener, lines)
	}
}
