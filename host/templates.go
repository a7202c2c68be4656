package host

import (
	"os"
	"path/filepath"
	"sort"
	"sync"
)

type searchRoot struct {
	path     string
	priority int
	seq      int // insertion order, breaks priority ties
}

// TemplateSet stages the search roots for the next publish. Higher priority
// roots are consulted first; ties resolve in insertion order.
type TemplateSet struct {
	roots []searchRoot
	seq   int
}

// NewTemplateSet creates an empty staging set.
func NewTemplateSet() *TemplateSet {
	return &TemplateSet{}
}

// Add stages a root directory. Re-adding an existing path updates its
// priority but keeps its insertion rank.
func (s *TemplateSet) Add(path string, priority int) {
	for i := range s.roots {
		if s.roots[i].path == path {
			s.roots[i].priority = priority
			return
		}
	}
	s.seq++
	s.roots = append(s.roots, searchRoot{path: path, priority: priority, seq: s.seq})
}

// Remove drops a staged root by path. Unknown paths are a no-op.
func (s *TemplateSet) Remove(path string) {
	for i := range s.roots {
		if s.roots[i].path == path {
			s.roots = append(s.roots[:i], s.roots[i+1:]...)
			return
		}
	}
}

// TemplateRoots is the published, ordered set of template search roots.
type TemplateRoots struct {
	mu    sync.RWMutex
	roots []searchRoot
}

// NewTemplateRoots creates an empty search root set.
func NewTemplateRoots() *TemplateRoots {
	return &TemplateRoots{}
}

// Swap publishes the staged set in lookup order. The set is copied, so the
// caller may keep mutating it afterwards.
func (t *TemplateRoots) Swap(s *TemplateSet) {
	next := append([]searchRoot(nil), s.roots...)
	sort.SliceStable(next, func(i, j int) bool {
		if next[i].priority != next[j].priority {
			return next[i].priority > next[j].priority
		}
		return next[i].seq < next[j].seq
	})
	t.mu.Lock()
	t.roots = next
	t.mu.Unlock()
}

// Roots returns the search roots in lookup order.
func (t *TemplateRoots) Roots() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]string, len(t.roots))
	for i, r := range t.roots {
		out[i] = r.path
	}
	return out
}

// Resolve finds the first root containing the named template file.
func (t *TemplateRoots) Resolve(name string) (string, bool) {
	for _, root := range t.Roots() {
		p := filepath.Join(root, name)
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p, true
		}
	}
	return "", false
}
