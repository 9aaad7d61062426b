// Package bindingstore persists the binding table as a versioned TOML
// document, with the tmp-write/backup-rotate/rename durability idiom the
// teacher uses for its config files, generalized to button bindings
// instead of UI settings.
package bindingstore

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/vincent99/deckmanagerd/internal/binding"
	"github.com/vincent99/deckmanagerd/internal/logging"
)

var log = logging.For("bindingstore")

// CurrentVersion is the schema version this build writes and fully
// understands. A file with a newer version is still loaded best-effort.
const CurrentVersion = 1

// document is the on-disk shape: a version tag plus the flat binding list.
// Binding already carries `toml`-compatible field names via its existing
// json tags' Go identifiers; go-toml/v2 falls back to the field name
// when no `toml` tag is present, so entries round-trip using Binding's
// natural Go field names.
type document struct {
	Version  int               `toml:"version"`
	Bindings []binding.Binding `toml:"bindings"`
}

// Store loads and saves a binding.Table to a TOML file on disk.
type Store struct {
	path string
}

// New returns a Store rooted at path (e.g. "bindings.toml").
func New(path string) *Store {
	return &Store{path: path}
}

func (s *Store) bakPath() string {
	return s.path + ".bak"
}

func (s *Store) tmpPath() string {
	return s.path + ".tmp"
}

// Load reads the primary file; on parse failure it falls back to the
// `.bak` rotation; if both are absent or unreadable it returns an empty
// table so the caller can seed built-in defaults. Matches spec.md §4.11's
// load path exactly: primary, then .bak, then built-in defaults.
func (s *Store) Load() (*binding.Table, error) {
	data, err := os.ReadFile(s.path)
	if err == nil {
		if doc, perr := parse(data); perr == nil {
			warnIfNewer(doc.Version)
			return tableFrom(doc), nil
		} else {
			log.WithError(perr).Warn("bindingstore: primary file corrupt, trying backup")
		}
	} else if !os.IsNotExist(err) {
		log.WithError(err).Warn("bindingstore: primary file unreadable, trying backup")
	}

	bakData, err := os.ReadFile(s.bakPath())
	if err != nil {
		return binding.NewTable(), nil
	}
	doc, err := parse(bakData)
	if err != nil {
		log.WithError(err).Warn("bindingstore: backup file also corrupt, using defaults")
		return binding.NewTable(), nil
	}
	warnIfNewer(doc.Version)
	return tableFrom(doc), nil
}

func warnIfNewer(version int) {
	if version > CurrentVersion {
		log.WithField("fileVersion", version).WithField("supportedVersion", CurrentVersion).
			Warn("bindingstore: file version newer than supported, parsing best-effort")
	}
}

func parse(data []byte) (*document, error) {
	var doc document
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

func tableFrom(doc *document) *binding.Table {
	t := binding.NewTable()
	t.ReplaceAll(doc.Bindings)
	return t
}

// Save writes t to disk via the tmp-write, rename-existing-to-.bak,
// rename-tmp-to-final sequence from spec.md §4.11, so a crash mid-write
// never corrupts the last-known-good file.
func (s *Store) Save(t *binding.Table) error {
	doc := document{Version: CurrentVersion, Bindings: t.All()}
	data, err := toml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("bindingstore: marshal: %w", err)
	}

	dir := filepath.Dir(s.path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("bindingstore: mkdir: %w", err)
		}
	}

	if err := os.WriteFile(s.tmpPath(), data, 0644); err != nil {
		return fmt.Errorf("bindingstore: write tmp: %w", err)
	}

	if _, err := os.Stat(s.path); err == nil {
		if err := os.Rename(s.path, s.bakPath()); err != nil {
			return fmt.Errorf("bindingstore: rotate backup: %w", err)
		}
	}

	if err := os.Rename(s.tmpPath(), s.path); err != nil {
		return fmt.Errorf("bindingstore: finalize: %w", err)
	}
	return nil
}
