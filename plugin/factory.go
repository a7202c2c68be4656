package plugin

import "sync"

// Factory creates a plugin's Contributor instance.
type Factory func() Contributor

var (
	factoryMu sync.RWMutex
	factories = make(map[string]Factory)
)

// RegisterContributor registers the compiled-in contributor factory for a
// plugin identifier. Called from each plugin package's init(). A later
// registration for the same identifier replaces the earlier one.
func RegisterContributor(identifier string, f Factory) {
	factoryMu.Lock()
	defer factoryMu.Unlock()
	factories[identifier] = f
}

// ContributorFor returns the registered factory for identifier.
func ContributorFor(identifier string) (Factory, bool) {
	factoryMu.RLock()
	defer factoryMu.RUnlock()
	f, ok := factories[identifier]
	return f, ok
}

// RegisteredContributors returns the identifiers with a compiled-in factory.
func RegisteredContributors() []string {
	factoryMu.RLock()
	defer factoryMu.RUnlock()
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	return names
}
