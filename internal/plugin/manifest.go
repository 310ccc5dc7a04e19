package plugin

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// ManifestSuffix is the filename suffix that marks a plugin manifest.
const ManifestSuffix = ".plugin.yaml"

// Manifest is the on-disk plugin descriptor. A manifest activates a
// compiled-in entry by name and may add metadata and dependency constraints
// on top of it.
type Manifest struct {
	Name     string   `yaml:"name"`
	Version  string   `yaml:"version"`
	Entry    string   `yaml:"entry"`
	Requires []string `yaml:"requires"`
}

// LoadManifest reads and validates one manifest file. The raw bytes are
// checked against the embedded JSON Schema before decoding, so a malformed
// manifest fails with a precise reason instead of a half-decoded struct.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	result, err := ValidateManifest(data)
	if err != nil {
		return nil, err
	}
	if !result.Valid {
		return nil, fmt.Errorf("manifest %s: %s", filepath.Base(path), result.Issues[0].Message)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode manifest: %w", err)
	}
	if m.Entry == "" {
		m.Entry = m.Name
	}
	return &m, nil
}

// DiscoverDir scans dir for *.plugin.yaml manifests, resolves each against
// the compiled-in entry set, and records the result with the manager.
// Discovery is isolated per manifest: one broken file is aggregated into the
// returned multi-error and the rest proceed. Manifests naming an
// already-known plugin are skipped, which makes rescans idempotent.
func (m *Manager) DiscoverDir(dir string) error {
	matches, err := filepath.Glob(filepath.Join(dir, "*"+ManifestSuffix))
	if err != nil {
		return fmt.Errorf("scan plugin directory: %w", err)
	}
	sort.Strings(matches)

	compiled := make(map[string]Entry)
	for _, e := range CompiledIn() {
		compiled[e.Name] = e
	}

	var errs error
	for _, path := range matches {
		if err := m.discoverManifest(path, compiled); err != nil {
			errs = multierr.Append(errs, err)
		}
	}
	return errs
}

func (m *Manager) discoverManifest(path string, compiled map[string]Entry) error {
	manifest, err := LoadManifest(path)
	if err != nil {
		m.logger.Warn("manifest rejected", zap.String("path", path), zap.Error(err))
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.plugins[manifest.Name]; exists {
		return nil
	}

	entry, ok := compiled[manifest.Entry]
	if !ok {
		// Record the plugin as Failed so dependents are reported rather
		// than the manifest silently vanishing.
		rec := &record{desc: Descriptor{Name: manifest.Name, State: StateDiscovered}}
		m.plugins[manifest.Name] = rec
		m.order = append(m.order, manifest.Name)
		reason := fmt.Errorf("no compiled-in entry %q", manifest.Entry)
		m.failLocked(rec, reason)
		return fmt.Errorf("plugin %q: %w", manifest.Name, reason)
	}

	merged := Entry{
		Name:     manifest.Name,
		Version:  manifest.Version,
		Requires: manifest.Requires,
		Entry:    entry.Entry,
	}
	if merged.Version == "" {
		merged.Version = entry.Version
	}
	if len(merged.Requires) == 0 {
		merged.Requires = entry.Requires
	}
	return m.discoverLocked(merged)
}

// manifestName reports whether a file name looks like a plugin manifest.
func manifestName(name string) bool {
	return strings.HasSuffix(name, ManifestSuffix)
}
