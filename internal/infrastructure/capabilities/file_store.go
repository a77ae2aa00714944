// Package capabilities persists and prompts for the capability grants of
// component partitions.
package capabilities

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/goccy/go-yaml"

	"github.com/reglet-dev/composer/internal/application/ports"
	"github.com/reglet-dev/composer/internal/domain/capabilities"
)

// FileStore persists grants in the security.grants section of the system
// config file. Other sections of the file are preserved.
type FileStore struct {
	configPath string
	mu         sync.Mutex
}

var _ ports.GrantStore = (*FileStore)(nil)

// NewFileStore creates a new FileStore.
func NewFileStore(configPath string) *FileStore {
	return &FileStore{
		configPath: configPath,
	}
}

// Location returns the path to the config file.
func (s *FileStore) Location() string {
	return s.configPath
}

type capabilityEntry struct {
	Kind    string `yaml:"kind"`
	Pattern string `yaml:"pattern"`
}

type grantEntry struct {
	Source       string            `yaml:"source"`
	Capabilities []capabilityEntry `yaml:"capabilities"`
}

// readDocument returns the config file as a generic document.
func (s *FileStore) readDocument() (map[string]any, error) {
	data, err := os.ReadFile(s.configPath)
	if os.IsNotExist(err) {
		return map[string]any{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	doc := map[string]any{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if doc == nil {
		doc = map[string]any{}
	}
	return doc, nil
}

// Load returns the persisted grants. A missing file holds no grants.
func (s *FileStore) Load() ([]capabilities.SourceGrant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, _, err := s.load()
	if err != nil {
		return nil, err
	}
	out := make([]capabilities.SourceGrant, 0, len(entries))
	for _, e := range entries {
		grant := capabilities.NewGrant()
		for _, c := range e.Capabilities {
			grant.Add(capabilities.Capability{Kind: c.Kind, Pattern: c.Pattern})
		}
		out = append(out, capabilities.SourceGrant{Source: e.Source, Grant: grant})
	}
	return out, nil
}

func (s *FileStore) load() ([]grantEntry, map[string]any, error) {
	doc, err := s.readDocument()
	if err != nil {
		return nil, nil, err
	}
	security, _ := doc["security"].(map[string]any)
	if security == nil {
		return nil, doc, nil
	}

	// Round trip through YAML to decode the untyped section.
	raw, err := yaml.Marshal(security["grants"])
	if err != nil {
		return nil, nil, err
	}
	var entries []grantEntry
	if err := yaml.Unmarshal(raw, &entries); err != nil {
		return nil, nil, fmt.Errorf("failed to parse security grants: %w", err)
	}
	return entries, doc, nil
}

// Save adds caps to the grants of source and writes the file.
func (s *FileStore) Save(source string, caps []capabilities.Capability) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, doc, err := s.load()
	if err != nil {
		return err
	}

	i := -1
	for j := range entries {
		if entries[j].Source == source {
			i = j
			break
		}
	}
	if i < 0 {
		entries = append(entries, grantEntry{Source: source})
		i = len(entries) - 1
	}
	for _, c := range caps {
		entry := capabilityEntry{Kind: c.Kind, Pattern: c.Pattern}
		if !containsEntry(entries[i].Capabilities, entry) {
			entries[i].Capabilities = append(entries[i].Capabilities, entry)
		}
	}

	security, _ := doc["security"].(map[string]any)
	if security == nil {
		security = map[string]any{}
	}
	security["grants"] = entries
	doc["security"] = security

	dir := filepath.Dir(s.configPath)
	//nolint:gosec // G301: 0o755 is standard for user config directories (~/.composer)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.MarshalWithOptions(doc, yaml.IndentSequence(true))
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}
	return os.WriteFile(s.configPath, data, 0o600)
}

func containsEntry(entries []capabilityEntry, e capabilityEntry) bool {
	for _, existing := range entries {
		if existing == e {
			return true
		}
	}
	return false
}
