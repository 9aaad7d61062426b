package bindingstore

import (
	"os"
	"path/filepath"
	"testing"
)

func TestPluginStateStoreLoadMissingFileReturnsEmptyMap(t *testing.T) {
	s := NewPluginStateStore(filepath.Join(t.TempDir(), "plugins.toml"))
	got := s.Load()
	if len(got) != 0 {
		t.Fatalf("Load() = %v, want empty map for a missing file", got)
	}
}

func TestPluginStateStoreSaveThenLoadRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plugins.toml")
	s := NewPluginStateStore(path)

	enabled := map[string]bool{"elgato": true, "obs": false}
	if err := s.Save(enabled); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got := s.Load()
	if len(got) != 2 || got["elgato"] != true || got["obs"] != false {
		t.Fatalf("Load() = %v, want %v", got, enabled)
	}
}

func TestPluginStateStoreLoadCorruptFileReturnsEmptyMap(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plugins.toml")
	if err := os.WriteFile(path, []byte("not valid toml {{{"), 0644); err != nil {
		t.Fatal(err)
	}
	s := NewPluginStateStore(path)
	got := s.Load()
	if len(got) != 0 {
		t.Fatalf("Load() on corrupt file = %v, want empty map", got)
	}
}

func TestPluginStateStoreSaveCreatesParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "plugins.toml")
	s := NewPluginStateStore(path)
	if err := s.Save(map[string]bool{"core": true}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected file to exist after Save(), stat error: %v", err)
	}
}
