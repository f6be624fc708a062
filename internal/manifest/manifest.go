// Package manifest reads dependency manifests and lockfiles to classify how
// a package is declared: which dependency class it belongs to and whether an
// update touches anything beyond the lockfile.
package manifest

import (
	"encoding/json"
	"os"
	"path/filepath"

	"depsafe/internal/deps"
	"depsafe/internal/errors"
)

// Manifest is the normalized view of one dependency manifest, whatever its
// on-disk format.
type Manifest struct {
	Name                 string
	Version              string
	Dependencies         map[string]string
	DevDependencies      map[string]string
	PeerDependencies     map[string]string
	OptionalDependencies map[string]string
}

// packageJSON mirrors the fields read from a package.json file.
type packageJSON struct {
	Name                 string            `json:"name"`
	Version              string            `json:"version"`
	Dependencies         map[string]string `json:"dependencies"`
	DevDependencies      map[string]string `json:"devDependencies"`
	PeerDependencies     map[string]string `json:"peerDependencies"`
	OptionalDependencies map[string]string `json:"optionalDependencies"`
	Types                string            `json:"types"`
	Typings              string            `json:"typings"`
}

// LoadPackageJSON reads an npm manifest.
func LoadPackageJSON(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New(errors.InvalidPackage, "manifest is not readable", err)
	}
	var pkg packageJSON
	if err := json.Unmarshal(data, &pkg); err != nil {
		return nil, errors.New(errors.InvalidPackage, "manifest is not valid JSON", err)
	}
	return &Manifest{
		Name:                 pkg.Name,
		Version:              pkg.Version,
		Dependencies:         pkg.Dependencies,
		DevDependencies:      pkg.DevDependencies,
		PeerDependencies:     pkg.PeerDependencies,
		OptionalDependencies: pkg.OptionalDependencies,
	}, nil
}

// Load reads the manifest at path, dispatching on its basename.
func Load(path string) (*Manifest, error) {
	switch filepath.Base(path) {
	case "package.json":
		return LoadPackageJSON(path)
	case "Cargo.toml", "pyproject.toml":
		return LoadTOML(path)
	default:
		return nil, errors.Newf(errors.InvalidPackage, "unsupported manifest: %s", filepath.Base(path))
	}
}

// ClassOf returns the dependency class pkg is declared under, or "" when the
// manifest does not declare it. Regular dependencies win when a package is
// declared in several sections.
func (m *Manifest) ClassOf(pkg string) deps.DependencyClass {
	switch {
	case m == nil:
		return deps.ClassUnknown
	case m.Dependencies[pkg] != "":
		return deps.ClassProduction
	case m.DevDependencies[pkg] != "":
		return deps.ClassDevelopment
	case m.PeerDependencies[pkg] != "":
		return deps.ClassPeer
	case m.OptionalDependencies[pkg] != "":
		return deps.ClassOptional
	default:
		return deps.ClassUnknown
	}
}

// DeclaredRange returns the version constraint pkg is declared with, across
// all sections, or "" when absent.
func (m *Manifest) DeclaredRange(pkg string) string {
	if m == nil {
		return ""
	}
	for _, section := range []map[string]string{
		m.Dependencies, m.DevDependencies, m.PeerDependencies, m.OptionalDependencies,
	} {
		if v, ok := section[pkg]; ok {
			return v
		}
	}
	return ""
}
