package bindingstore

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// PluginStateStore persists the small `plugin_id -> enabled` record spec.md
// §6 describes separately from the bindings file. It shares the tmp-write/
// rename durability idiom but skips the bindings file's .bak rotation and
// version tag — the record is small enough, and easily rebuilt from plugin
// defaults, that a corrupt read simply falls back to "nothing persisted".
type PluginStateStore struct {
	path string
}

// NewPluginStateStore returns a store rooted at path (e.g. "plugins.toml").
func NewPluginStateStore(path string) *PluginStateStore {
	return &PluginStateStore{path: path}
}

type pluginStateDoc struct {
	Enabled map[string]bool `toml:"enabled"`
}

// Load reads the persisted enabled-flag map. A missing or corrupt file
// yields an empty map so the caller falls back to each plugin's own
// Core()-derived default.
func (s *PluginStateStore) Load() map[string]bool {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return map[string]bool{}
	}
	var doc pluginStateDoc
	if err := toml.Unmarshal(data, &doc); err != nil {
		log.WithError(err).Warn("bindingstore: plugin state file corrupt, ignoring")
		return map[string]bool{}
	}
	if doc.Enabled == nil {
		return map[string]bool{}
	}
	return doc.Enabled
}

// Save writes the enabled-flag map, keyed by plugin id.
func (s *PluginStateStore) Save(enabled map[string]bool) error {
	data, err := toml.Marshal(pluginStateDoc{Enabled: enabled})
	if err != nil {
		return fmt.Errorf("bindingstore: marshal plugin state: %w", err)
	}

	dir := filepath.Dir(s.path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("bindingstore: mkdir: %w", err)
		}
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("bindingstore: write tmp: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("bindingstore: finalize: %w", err)
	}
	return nil
}
