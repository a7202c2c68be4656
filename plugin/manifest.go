package plugin

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"

	"gopkg.in/yaml.v3"
)

// ManifestFile is the manifest filename inside each plugin unit directory.
const ManifestFile = "plugin.yaml"

// maxManifestSize bounds how much of a manifest file is read.
const maxManifestSize = 256 << 10

// Capability tags a kind of contribution a plugin declares.
type Capability string

const (
	CapRoutes    Capability = "routes"
	CapModels    Capability = "models"
	CapAdminMenu Capability = "admin-menu"
	CapStatics   Capability = "statics"
	CapTemplates Capability = "templates"
)

// MenuEntry is one admin menu entry declared by a plugin manifest.
type MenuEntry struct {
	Label      string `yaml:"label" json:"label"`
	Path       string `yaml:"path" json:"path"`
	Permission string `yaml:"permission,omitempty" json:"permission,omitempty"`
}

// Manifest is the declared metadata of one plugin unit. Immutable once
// read; re-read only on process restart. Unknown manifest fields and
// unknown capability tags are ignored for forward compatibility.
type Manifest struct {
	Identifier   string       `yaml:"identifier" json:"identifier"`
	Name         string       `yaml:"name" json:"name"`
	Version      string       `yaml:"version" json:"version"`
	Author       string       `yaml:"author,omitempty" json:"author,omitempty"`
	AdminMenu    []MenuEntry  `yaml:"admin_menu,omitempty" json:"admin_menu,omitempty"`
	Capabilities []Capability `yaml:"capabilities,omitempty" json:"capabilities,omitempty"`

	// Dir is the unit directory the manifest was read from. Not part of
	// the file format.
	Dir string `yaml:"-" json:"-"`
}

// HasCapability reports whether the manifest declares c.
func (m *Manifest) HasCapability(c Capability) bool {
	for _, have := range m.Capabilities {
		if have == c {
			return true
		}
	}
	return false
}

var versionRe = regexp.MustCompile(`^v?\d+(\.\d+){0,2}([-+][0-9A-Za-z.-]+)?$`)

// ReadManifest reads and validates the manifest of the unit at dir.
// A failure is returned as a *MalformedManifestError.
func ReadManifest(dir string) (*Manifest, error) {
	path := filepath.Join(dir, ManifestFile)
	f, err := os.Open(path)
	if err != nil {
		return nil, &MalformedManifestError{Dir: dir, Reason: fmt.Sprintf("read %s: %v", ManifestFile, err)}
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxManifestSize))
	if err != nil {
		return nil, &MalformedManifestError{Dir: dir, Reason: fmt.Sprintf("read %s: %v", ManifestFile, err)}
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, &MalformedManifestError{Dir: dir, Reason: fmt.Sprintf("parse %s: %v", ManifestFile, err)}
	}

	if m.Identifier == "" {
		return nil, &MalformedManifestError{Dir: dir, Reason: "missing required field: identifier"}
	}
	if m.Identifier != filepath.Base(dir) {
		return nil, &MalformedManifestError{
			Dir:    dir,
			Reason: fmt.Sprintf("identifier %q does not match unit directory %q", m.Identifier, filepath.Base(dir)),
		}
	}
	if m.Version == "" {
		return nil, &MalformedManifestError{Dir: dir, Reason: "missing required field: version"}
	}
	if !versionRe.MatchString(m.Version) {
		return nil, &MalformedManifestError{Dir: dir, Reason: fmt.Sprintf("invalid version %q", m.Version)}
	}
	for _, e := range m.AdminMenu {
		if e.Label == "" || e.Path == "" {
			return nil, &MalformedManifestError{Dir: dir, Reason: "admin menu entry missing label or path"}
		}
	}
	if m.Name == "" {
		m.Name = m.Identifier
	}
	m.Dir = dir
	return &m, nil
}
