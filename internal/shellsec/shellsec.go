// Package shellsec provides the security guards around the two capabilities
// that shell out to the OS: RunCommand/LaunchApp (POSIX argv execution, no
// shell) and OpenURL (scheme-allowlisted browser launch). Grounded on the
// security notes in original_source/src-tauri/src/core/commands.rs and
// spec.md's Error Handling Design §7 ("never invoke a shell; lex argv").
package shellsec

import (
	"fmt"
	"sync"
	"time"

	"github.com/kballard/go-shellquote"
)

// AllowedURLSchemes is the set of URL schemes OpenURL will launch.
var AllowedURLSchemes = map[string]bool{
	"http":   true,
	"https":  true,
	"mailto": true,
	"tel":    true,
}

// disallowedAppNameChars are shell metacharacters that must never appear in
// a LaunchApp target, even though exec.Command never invokes a shell
// itself — defense against the string being relayed to something that does.
const disallowedAppNameChars = "$`;|&><(){}[]!\n\r"

// allowedAppDirs is the set of absolute-path prefixes LaunchApp may target;
// an absolute path outside these is rejected outright.
var allowedAppDirs = []string{"/usr/bin/", "/usr/local/bin/", "/bin/", "/opt/"}

// LexCommand splits a command-line string into argv using POSIX shell
// quoting rules, without ever invoking an actual shell. Grounded on the
// helixml-helix dependency on github.com/kballard/go-shellquote.
func LexCommand(command string) ([]string, error) {
	argv, err := shellquote.Split(command)
	if err != nil {
		return nil, fmt.Errorf("shellsec: invalid command %q: %w", command, err)
	}
	if len(argv) == 0 {
		return nil, fmt.Errorf("shellsec: empty command")
	}
	return argv, nil
}

// ValidateAppName checks a LaunchApp target: no shell metacharacters, no
// "..", and if absolute, only under one of the allowed binary directories.
// A bare relative name (e.g. "firefox", resolved via $PATH by exec.Command)
// is allowed.
func ValidateAppName(name string) error {
	if name == "" {
		return fmt.Errorf("shellsec: empty app name")
	}
	for _, r := range name {
		if containsRune(disallowedAppNameChars, r) {
			return fmt.Errorf("shellsec: app name %q contains disallowed character %q", name, r)
		}
	}
	if containsSubstring(name, "..") {
		return fmt.Errorf("shellsec: app name %q contains \"..\"", name)
	}
	if len(name) > 0 && name[0] == '/' {
		allowed := false
		for _, dir := range allowedAppDirs {
			if len(name) >= len(dir) && name[:len(dir)] == dir {
				allowed = true
				break
			}
		}
		if !allowed {
			return fmt.Errorf("shellsec: app name %q is an absolute path outside the allowed directories", name)
		}
	}
	return nil
}

func containsRune(set string, r rune) bool {
	for _, c := range set {
		if c == r {
			return true
		}
	}
	return false
}

func containsSubstring(s, substr string) bool {
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return true
		}
	}
	return false
}

// ValidateURLScheme checks the scheme prefix of a URL against the allowlist.
func ValidateURLScheme(url string) error {
	scheme := ""
	for i, r := range url {
		if r == ':' {
			scheme = url[:i]
			break
		}
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z') {
			break
		}
	}
	if scheme == "" || !AllowedURLSchemes[toLower(scheme)] {
		return fmt.Errorf("shellsec: url scheme %q not allowed", scheme)
	}
	return nil
}

func toLower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}

// RateLimiter enforces a minimum spacing between repeated invocations of
// the same exact command string, so a stuck key or a runaway binding can't
// fork-bomb the host. Grounded on spec.md §7's per-command-string rate
// limiting (200ms default).
type RateLimiter struct {
	mu       sync.Mutex
	window   time.Duration
	lastSeen map[string]time.Time
}

// NewRateLimiter returns a RateLimiter with the given minimum spacing.
func NewRateLimiter(window time.Duration) *RateLimiter {
	return &RateLimiter{window: window, lastSeen: make(map[string]time.Time)}
}

// Allow reports whether command may run now, and records the attempt.
func (r *RateLimiter) Allow(command string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	if last, ok := r.lastSeen[command]; ok && now.Sub(last) < r.window {
		return false
	}
	r.lastSeen[command] = now
	return true
}
