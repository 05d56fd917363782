// Package index keeps the set of named trees a process serves.
package index

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/ssargent/yggdrasil/pkg/btree"
)

// FileExt is the suffix of every tree's index file inside the data dir.
const FileExt = ".ygg"

// Registry maps tree names to open file-backed trees, one index file per
// name inside the data directory. Lookups open (or create) lazily; a name
// stays open until CloseAll.
type Registry struct {
	dir   string
	order int
	trees map[string]*btree.Tree
	mutex sync.Mutex
}

// NewRegistry creates a registry over the given data directory. Every tree
// it opens uses the same order.
func NewRegistry(dir string, order int) (*Registry, error) {
	if order < 3 {
		return nil, btree.ErrInvalidOrder
	}
	return &Registry{
		dir:   dir,
		order: order,
		trees: make(map[string]*btree.Tree),
	}, nil
}

// Order returns the order the registry opens trees with.
func (r *Registry) Order() int {
	return r.order
}

// Get returns the named tree, opening or creating its index file on first
// use. Names must be plain path segments.
func (r *Registry) Get(name string) (*btree.Tree, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	if t, exists := r.trees[name]; exists {
		return t, nil
	}

	path := filepath.Join(r.dir, name+FileExt)
	t, err := btree.Open(path, r.order)
	if err != nil {
		return nil, fmt.Errorf("failed to open tree %q: %w", name, err)
	}
	r.trees[name] = t
	return t, nil
}

// Names returns the currently open tree names, sorted.
func (r *Registry) Names() []string {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	names := make([]string, 0, len(r.trees))
	for name := range r.trees {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CloseAll closes every open tree. The first failure is reported after all
// trees have been attempted.
func (r *Registry) CloseAll() error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	var firstErr error
	for name, t := range r.trees {
		if err := t.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("failed to close tree %q: %w", name, err)
		}
		delete(r.trees, name)
	}
	return firstErr
}

func validateName(name string) error {
	if name == "" {
		return fmt.Errorf("tree name is empty")
	}
	if strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return fmt.Errorf("invalid tree name %q", name)
	}
	return nil
}
