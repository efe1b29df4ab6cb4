// Package capability answers "is this optional unit of functionality
// present and enabled" for module gating.
package capability

import (
	"sync"
)

// Well-known capability names. Entity descriptors reference their owner
// module by one of these; the import/export addon has its own flag.
const (
	ModuleCRM          = "crm"
	ModuleHR           = "hr"
	ModuleProjects     = "projects"
	ModuleWarehouse    = "warehouse"
	ModuleAccounting   = "accounting"
	ModuleDisciplinary = "disciplinary"
	ImportExport       = "import_export"
)

// Registry answers capability lookups. It is resolved once at startup into
// an explicit boolean map; every gated operation consults the same seam, so
// tests can force enabled/disabled branches deterministically.
type Registry interface {
	// Enabled reports whether the named capability is present and enabled.
	Enabled(name string) bool
}

// Static is an immutable Registry resolved from configuration at startup.
type Static map[string]bool

// Enabled implements Registry. Unknown names are disabled.
func (s Static) Enabled(name string) bool {
	return s[name]
}

// InMemory is a mutable Registry for tests and admin tooling.
type InMemory struct {
	mu    sync.RWMutex
	flags map[string]bool
}

// NewInMemory creates an empty in-memory registry.
func NewInMemory() *InMemory {
	return &InMemory{flags: make(map[string]bool)}
}

func (r *InMemory) Enabled(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.flags[name]
}

// Set flips a capability flag.
func (r *InMemory) Set(name string, enabled bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.flags[name] = enabled
}

// AllEnabled returns a registry with every listed capability on.
func AllEnabled(names ...string) Static {
	s := make(Static, len(names))
	for _, n := range names {
		s[n] = true
	}
	return s
}
