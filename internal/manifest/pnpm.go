package manifest

import (
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"depsafe/internal/deps"
	"depsafe/internal/errors"
)

// PnpmLock is the subset of a pnpm-lock.yaml needed to answer "is this
// package locked, and at what version".
type PnpmLock struct {
	// lockfileVersion is deliberately not mapped: it is a float in v6
	// files and a string in v9 files, and nothing here needs it.
	Importers       map[string]pnpmImporter  `yaml:"importers"`
	Packages        map[string]yaml.Node     `yaml:"packages"`
	Dependencies    map[string]pnpmDepRecord `yaml:"dependencies"`
	DevDependencies map[string]pnpmDepRecord `yaml:"devDependencies"`
}

type pnpmImporter struct {
	Dependencies    map[string]pnpmDepRecord `yaml:"dependencies"`
	DevDependencies map[string]pnpmDepRecord `yaml:"devDependencies"`
}

// pnpmDepRecord tolerates both the v6 shape (plain version string) and the
// v9 shape ({specifier, version}).
type pnpmDepRecord struct {
	Specifier string
	Version   string
}

func (r *pnpmDepRecord) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		r.Version = node.Value
		return nil
	}
	var obj struct {
		Specifier string `yaml:"specifier"`
		Version   string `yaml:"version"`
	}
	if err := node.Decode(&obj); err != nil {
		return err
	}
	r.Specifier = obj.Specifier
	r.Version = obj.Version
	return nil
}

// LoadPnpmLock reads a pnpm lockfile.
func LoadPnpmLock(path string) (*PnpmLock, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New(errors.InvalidPackage, "lockfile is not readable", err)
	}
	var lock PnpmLock
	if err := yaml.Unmarshal(data, &lock); err != nil {
		return nil, errors.New(errors.InvalidPackage, "lockfile is not valid YAML", err)
	}
	return &lock, nil
}

// LockedVersion returns the resolved version for pkg, searching the root
// dependency tables and every importer. Peer-suffixed versions like
// "1.2.3(react@18.0.0)" are trimmed to the bare version.
func (l *PnpmLock) LockedVersion(pkg string) (string, bool) {
	if l == nil {
		return "", false
	}
	if v, ok := recordVersion(l.Dependencies, pkg); ok {
		return v, true
	}
	if v, ok := recordVersion(l.DevDependencies, pkg); ok {
		return v, true
	}
	for _, imp := range l.Importers {
		if v, ok := recordVersion(imp.Dependencies, pkg); ok {
			return v, true
		}
		if v, ok := recordVersion(imp.DevDependencies, pkg); ok {
			return v, true
		}
	}
	return "", false
}

// ClassOf reports which dependency table pkg is declared under, searching
// the root tables and every importer. Production wins over development, as
// in Manifest.ClassOf. A package that only appears transitively (in the
// packages section) is ClassUnknown.
func (l *PnpmLock) ClassOf(pkg string) deps.DependencyClass {
	if l == nil {
		return deps.ClassUnknown
	}
	if _, ok := recordVersion(l.Dependencies, pkg); ok {
		return deps.ClassProduction
	}
	for _, imp := range l.Importers {
		if _, ok := recordVersion(imp.Dependencies, pkg); ok {
			return deps.ClassProduction
		}
	}
	if _, ok := recordVersion(l.DevDependencies, pkg); ok {
		return deps.ClassDevelopment
	}
	for _, imp := range l.Importers {
		if _, ok := recordVersion(imp.DevDependencies, pkg); ok {
			return deps.ClassDevelopment
		}
	}
	return deps.ClassUnknown
}

// HasPackage reports whether pkg appears anywhere in the lockfile.
func (l *PnpmLock) HasPackage(pkg string) bool {
	if _, ok := l.LockedVersion(pkg); ok {
		return true
	}
	for key := range l.Packages {
		// Package keys look like "/name@1.2.3" (v6) or "name@1.2.3" (v9).
		trimmed := strings.TrimPrefix(key, "/")
		if trimmed == pkg || strings.HasPrefix(trimmed, pkg+"@") {
			return true
		}
	}
	return false
}

func recordVersion(records map[string]pnpmDepRecord, pkg string) (string, bool) {
	rec, ok := records[pkg]
	if !ok || rec.Version == "" {
		return "", false
	}
	version := rec.Version
	if i := strings.IndexByte(version, '('); i > 0 {
		version = version[:i]
	}
	return version, true
}
