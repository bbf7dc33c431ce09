package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/marcus/nodedeck/internal/deps"
)

// Store persists the cache document with read-modify-write semantics: every
// save reads the current file, replaces only the named top-level keys and
// writes the whole document back. Keys it does not manage survive untouched.
type Store struct {
	mu   sync.Mutex
	path string
	now  func() time.Time
}

// NewStore returns a store for the document at path.
func NewStore(path string) *Store {
	if path == "" {
		path = ConfigPath()
	}
	return &Store{path: path, now: time.Now}
}

// Path returns the document location.
func (s *Store) Path() string { return s.path }

// Load reads the document.
func (s *Store) Load() (*Cache, error) {
	return LoadFrom(s.path)
}

// Merge shallow-merges updates into the document and stamps updatedAt.
func (s *Store) Merge(updates map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.merge(updates)
}

func (s *Store) merge(updates map[string]any) error {
	doc, err := os.ReadFile(s.path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("reading config: %w", err)
	}
	if len(bytes.TrimSpace(doc)) == 0 || !gjson.ValidBytes(doc) || !gjson.ParseBytes(doc).IsObject() {
		doc = []byte("{}")
	}

	keys := make([]string, 0, len(updates))
	for k := range updates {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		raw, err := json.Marshal(updates[k])
		if err != nil {
			return fmt.Errorf("encoding %s: %w", k, err)
		}
		doc, err = sjson.SetRawBytes(doc, k, raw)
		if err != nil {
			return fmt.Errorf("setting %s: %w", k, err)
		}
	}
	doc, err = sjson.SetBytes(doc, "updatedAt", s.now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("setting updatedAt: %w", err)
	}

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, doc, "", "  "); err != nil {
		return fmt.Errorf("formatting config: %w", err)
	}
	pretty.WriteByte('\n')
	return writeAtomic(s.path, pretty.Bytes())
}

// SaveProjectPath records the configured root directory.
func (s *Store) SaveProjectPath(root string) error {
	return s.Merge(map[string]any{"projectPath": ExpandPath(root)})
}

// SaveSizes replaces the persisted size map.
func (s *Store) SaveSizes(sizes map[string]deps.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveSizes(sizes)
}

func (s *Store) saveSizes(sizes map[string]deps.Entry) error {
	if sizes == nil {
		sizes = map[string]deps.Entry{}
	}
	return s.merge(map[string]any{
		"nodeModulesSizes":          sizes,
		"nodeModulesSizesUpdatedAt": s.now().UTC(),
	})
}

// MergeSizes overlays entries onto the persisted size map.
func (s *Store) MergeSizes(entries map[string]deps.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sizes := make(map[string]deps.Entry)
	if err := s.readKey("nodeModulesSizes", &sizes); err != nil {
		return err
	}
	for path, e := range entries {
		sizes[path] = e
	}
	return s.saveSizes(sizes)
}

// ClearSizes drops every persisted size, forcing a fresh scan.
func (s *Store) ClearSizes() error {
	return s.Merge(map[string]any{"nodeModulesSizes": map[string]deps.Entry{}})
}

// SaveLastStarted records a successful dev-server launch for projectPath.
func (s *Store) SaveLastStarted(projectPath string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	started := make(map[string]time.Time)
	if err := s.readKey("projectLastStarted", &started); err != nil {
		return err
	}
	started[projectPath] = at.UTC()
	return s.merge(map[string]any{"projectLastStarted": started})
}

// ForgetProject removes every persisted trace of projectPath.
func (s *Store) ForgetProject(projectPath string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sizes := make(map[string]deps.Entry)
	if err := s.readKey("nodeModulesSizes", &sizes); err != nil {
		return err
	}
	started := make(map[string]time.Time)
	if err := s.readKey("projectLastStarted", &started); err != nil {
		return err
	}
	delete(sizes, projectPath)
	delete(started, projectPath)
	return s.merge(map[string]any{
		"nodeModulesSizes":   sizes,
		"projectLastStarted": started,
	})
}

// readKey decodes one top-level key of the current document into v. Missing
// files and missing keys leave v unchanged.
func (s *Store) readKey(key string, v any) error {
	doc, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading config: %w", err)
	}
	if !gjson.ValidBytes(doc) {
		return nil
	}
	res := gjson.GetBytes(doc, key)
	if !res.Exists() || !res.IsObject() {
		return nil
	}
	if err := json.Unmarshal([]byte(res.Raw), v); err != nil {
		return fmt.Errorf("decoding %s: %w", key, err)
	}
	return nil
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".config-*.json")
	if err != nil {
		return fmt.Errorf("creating temp config: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("writing config: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("writing config: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replacing config: %w", err)
	}
	return nil
}
