package core

import (
	"fmt"
	"sort"
	"sync"
)

var (
	registry   = make(map[string]Definition)
	registryMu sync.RWMutex
)

// Register adds an import definition to the registry.
// Panics on a duplicate key or an incomplete definition.
func Register(def Definition) {
	registryMu.Lock()
	defer registryMu.Unlock()

	key := def.Info.Key
	if _, exists := registry[key]; exists {
		panic(fmt.Sprintf("import already registered: %s", key))
	}
	if len(def.Sheets) == 0 || def.Commit == nil {
		panic(fmt.Sprintf("import %s: sheets and commit are required", key))
	}
	switch def.Info.Mode {
	case ModeCreate:
		if len(def.Sheets) != 1 || def.Build == nil {
			panic(fmt.Sprintf("import %s: create mode needs exactly one sheet and a build func", key))
		}
	case ModeMerge:
		if def.MergeKey == "" || def.Build == nil {
			panic(fmt.Sprintf("import %s: merge mode needs a merge key and a build func", key))
		}
		for _, sh := range def.Sheets {
			if sh.Build == nil {
				panic(fmt.Sprintf("import %s: sheet %s has no build func", key, sh.Name))
			}
		}
	default:
		panic(fmt.Sprintf("import %s: unknown mode %q", key, def.Info.Mode))
	}

	registry[key] = def
}

// Get returns an import definition by key.
func Get(key string) (Definition, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	def, ok := registry[key]
	return def, ok
}

// All returns all registered definitions sorted by group, then key.
func All() []Definition {
	registryMu.RLock()
	defer registryMu.RUnlock()

	result := make([]Definition, 0, len(registry))
	for _, def := range registry {
		result = append(result, def)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Info.Group != result[j].Info.Group {
			return result[i].Info.Group < result[j].Info.Group
		}
		return result[i].Info.Key < result[j].Info.Key
	})

	return result
}

// ByGroup returns the definitions of one group sorted by key.
func ByGroup(group string) []Definition {
	registryMu.RLock()
	defer registryMu.RUnlock()

	var result []Definition
	for _, def := range registry {
		if def.Info.Group == group {
			result = append(result, def)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Info.Key < result[j].Info.Key
	})

	return result
}

// Groups returns all group names, sorted.
func Groups() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	seen := make(map[string]bool)
	for _, def := range registry {
		seen[def.Info.Group] = true
	}

	groups := make([]string, 0, len(seen))
	for g := range seen {
		groups = append(groups, g)
	}

	sort.Strings(groups)
	return groups
}

// Count returns the number of registered imports.
func Count() int {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return len(registry)
}

// Clear removes all registered imports. Tests only.
func Clear() {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry = make(map[string]Definition)
}
