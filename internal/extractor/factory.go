// Package extractor wires LLM providers into the task extraction pipeline.
// Providers register themselves via init() in their own packages; the factory
// builds extractors from configuration by provider name.
package extractor

import (
	"fmt"
	"sort"
	"sync"

	"worklane/internal/config"
	"worklane/internal/port"
)

// Constructor builds a TaskExtractor from provider configuration.
type Constructor func(cfg config.ExtractorProviderConfig) (port.TaskExtractor, error)

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Constructor)
)

// Register makes a provider constructor available by name. Called from
// provider package init functions.
func Register(name string, fn Constructor) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = fn
}

// New builds a TaskExtractor for the named provider in cfg.
func New(cfg config.ExtractorProviderConfig) (port.TaskExtractor, error) {
	registryMu.RLock()
	fn, ok := registry[cfg.Provider]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown extractor provider %q (available: %v)", cfg.Provider, Providers())
	}
	return fn(cfg)
}

// Providers returns the registered provider names, sorted.
func Providers() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
