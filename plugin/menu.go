package plugin

import "sync/atomic"

// MenuNode is one node of the composed admin menu tree.
type MenuNode struct {
	Label      string      `json:"label"`
	Path       string      `json:"path"`
	Permission string      `json:"permission,omitempty"`
	Children   []*MenuNode `json:"children,omitempty"`
}

// Principal is whoever is asking for the menu; entries whose required
// permission the principal lacks are omitted from the composed tree.
type Principal interface {
	HasPermission(perm string) bool
}

// Composer builds the admin menu: the host's built-in entries first, then
// each successfully bound enabled plugin's declared entries in ascending
// load order. The tree is rebuilt wholesale on every registry change and
// published atomically; it is never patched in place.
type Composer struct {
	hostMenu []*MenuNode
	tree     atomic.Pointer[[]*MenuNode]
}

// NewComposer creates a Composer over the host's built-in menu.
func NewComposer(hostMenu []*MenuNode) *Composer {
	c := &Composer{hostMenu: hostMenu}
	c.Rebuild(nil)
	return c
}

// Rebuild composes a fresh tree from the given records and publishes it.
// Records must be in registry order (load order ascending).
func (c *Composer) Rebuild(records []*Record) {
	tree := cloneNodes(c.hostMenu)
	for _, rec := range records {
		if !rec.Enabled || !rec.Bound || rec.LastLoadError != nil {
			continue
		}
		if !rec.Manifest.HasCapability(CapAdminMenu) {
			continue
		}
		for _, e := range rec.Manifest.AdminMenu {
			tree = append(tree, &MenuNode{
				Label:      e.Label,
				Path:       e.Path,
				Permission: e.Permission,
			})
		}
	}
	c.tree.Store(&tree)
}

// Tree returns the current composed menu filtered for p. Entries requiring
// a permission p lacks are omitted, along with their children.
func (c *Composer) Tree(p Principal) []*MenuNode {
	return filterNodes(*c.tree.Load(), p)
}

func filterNodes(nodes []*MenuNode, p Principal) []*MenuNode {
	out := make([]*MenuNode, 0, len(nodes))
	for _, n := range nodes {
		if n.Permission != "" && (p == nil || !p.HasPermission(n.Permission)) {
			continue
		}
		cp := *n
		cp.Children = filterNodes(n.Children, p)
		if len(cp.Children) == 0 {
			cp.Children = nil
		}
		out = append(out, &cp)
	}
	return out
}

func cloneNodes(nodes []*MenuNode) []*MenuNode {
	out := make([]*MenuNode, 0, len(nodes))
	for _, n := range nodes {
		cp := *n
		cp.Children = cloneNodes(n.Children)
		if len(cp.Children) == 0 {
			cp.Children = nil
		}
		out = append(out, &cp)
	}
	return out
}
