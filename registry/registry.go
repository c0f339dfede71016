// Package registry loads the suite manifest and resolves it against the
// test-case functions registered by the embedding program.
package registry

import (
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum/log"
	"gopkg.in/yaml.v3"

	"github.com/testops/uiledger/types"
)

// CaseConfig is one entry of the suite manifest.
type CaseConfig struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`
	// Order sorts cases globally, lowest first. Unordered cases sort last,
	// then alphabetically.
	Order      int    `yaml:"order,omitempty"`
	Skip       bool   `yaml:"skip,omitempty"`
	SkipReason string `yaml:"skip_reason,omitempty"`
}

// Manifest is the YAML suite description.
type Manifest struct {
	Suite string       `yaml:"suite"`
	Cases []CaseConfig `yaml:"cases"`
}

// unordered cases sort after every explicitly ordered one.
const defaultOrder = 999999

// Config contains registry configuration.
type Config struct {
	Log log.Logger
	// ManifestFile is the path of the suite manifest (e.g. 'suite.yaml').
	ManifestFile string
}

// Registry holds the loaded manifest and the registered case functions.
type Registry struct {
	config   Config
	manifest Manifest
	funcs    map[string]types.CaseFunc
	mu       sync.RWMutex
}

// NewRegistry creates a registry and loads the manifest.
func NewRegistry(cfg Config) (*Registry, error) {
	if cfg.ManifestFile == "" {
		return nil, fmt.Errorf("suite manifest file is required")
	}
	if cfg.Log == nil {
		cfg.Log = log.Root()
	}

	r := &Registry{
		config: cfg,
		funcs:  make(map[string]types.CaseFunc),
	}
	if err := r.loadManifest(cfg.ManifestFile); err != nil {
		return nil, fmt.Errorf("failed to load suite manifest: %w", err)
	}

	cfg.Log.Debug("Suite manifest loaded", "suite", r.manifest.Suite, "cases", len(r.manifest.Cases))
	return r, nil
}

func (r *Registry) loadManifest(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read manifest %s: %w", path, err)
	}

	var manifest Manifest
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return fmt.Errorf("failed to parse manifest %s: %w", path, err)
	}

	seen := make(map[string]bool, len(manifest.Cases))
	for _, c := range manifest.Cases {
		if c.Name == "" {
			return fmt.Errorf("manifest %s contains a case without a name", path)
		}
		if seen[c.Name] {
			return fmt.Errorf("manifest %s lists case %q twice", path, c.Name)
		}
		seen[c.Name] = true
	}

	r.mu.Lock()
	r.manifest = manifest
	r.mu.Unlock()
	return nil
}

// Suite returns the suite name from the manifest.
func (r *Registry) Suite() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.manifest.Suite
}

// RegisterFunc binds a case function to a manifest entry name. Re-registering
// a name is a programming error.
func (r *Registry) RegisterFunc(name string, fn types.CaseFunc) error {
	if name == "" {
		return fmt.Errorf("case name is required")
	}
	if fn == nil {
		return fmt.Errorf("case %q has no function", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.funcs[name]; exists {
		return fmt.Errorf("case %q registered twice", name)
	}
	r.funcs[name] = fn
	return nil
}

// Collect resolves the manifest into runnable test cases, sorted by
// (order, name) the way the run executes them. Manifest entries without a
// registered function are returned as forced skips so the run surfaces
// them instead of silently dropping them.
func (r *Registry) Collect() []types.TestCase {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cases := make([]types.TestCase, 0, len(r.manifest.Cases))
	for _, c := range r.manifest.Cases {
		tc := types.TestCase{
			Name:        c.Name,
			Description: c.Description,
			Order:       c.Order,
			Skip:        c.Skip,
			SkipReason:  c.SkipReason,
			Run:         r.funcs[c.Name],
		}
		if tc.Order == 0 {
			tc.Order = defaultOrder
		}
		if tc.Run == nil && !tc.Skip {
			r.config.Log.Warn("Manifest case has no registered function, forcing skip", "case", c.Name)
			tc.Skip = true
			tc.SkipReason = "no registered case function"
		}
		cases = append(cases, tc)
	}

	sort.Slice(cases, func(i, j int) bool {
		if cases[i].Order != cases[j].Order {
			return cases[i].Order < cases[j].Order
		}
		return cases[i].Name < cases[j].Name
	})
	return cases
}
