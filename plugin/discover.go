package plugin

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
)

// Discover scans the given plugin roots and returns the well-formed
// manifests plus a diagnostic per skipped unit. Roots are scanned in order;
// units are processed lexicographically by identifier, with root order
// breaking ties, so duplicate resolution is deterministic: the first
// occurrence wins and later ones are reported as duplicates. A missing root
// is not an error. The scan never mutates disk.
func Discover(logger *slog.Logger, roots ...string) ([]*Manifest, []Diagnostic) {
	if logger == nil {
		logger = slog.Default()
	}

	type unit struct {
		dir     string
		name    string // directory base name, the declared identifier
		rootIdx int
	}
	var units []unit
	for i, root := range roots {
		entries, err := os.ReadDir(root)
		if err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				logger.Warn("plugin root unreadable", "root", root, "err", err)
			}
			continue
		}
		for _, e := range entries {
			if !e.IsDir() {
				continue
			}
			units = append(units, unit{dir: filepath.Join(root, e.Name()), name: e.Name(), rootIdx: i})
		}
	}
	sort.Slice(units, func(i, j int) bool {
		if units[i].name != units[j].name {
			return units[i].name < units[j].name
		}
		return units[i].rootIdx < units[j].rootIdx
	})

	var (
		manifests []*Manifest
		diags     []Diagnostic
		firstDir  = make(map[string]string) // identifier -> winning unit dir
	)
	for _, u := range units {
		m, err := ReadManifest(u.dir)
		if err != nil {
			diags = append(diags, Diagnostic{Dir: u.dir, Err: err})
			logger.Warn("skipping plugin unit", "dir", u.dir, "err", err)
			continue
		}
		if won, ok := firstDir[m.Identifier]; ok {
			dup := &DuplicateIdentifierError{Identifier: m.Identifier, Dir: u.dir, FirstDir: won}
			diags = append(diags, Diagnostic{Dir: u.dir, Err: dup})
			logger.Warn("skipping plugin unit", "dir", u.dir, "err", dup)
			continue
		}
		firstDir[m.Identifier] = u.dir
		manifests = append(manifests, m)
		logger.Debug("discovered plugin", "identifier", m.Identifier, "version", m.Version, "dir", u.dir)
	}
	return manifests, diags
}
