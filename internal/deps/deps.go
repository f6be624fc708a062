// Package deps defines the dependency-update records shared across the
// analysis pipeline.
package deps

import (
	"strings"

	"depsafe/internal/errors"
)

// DependencyClass describes where a dependency is declared in its manifest.
type DependencyClass string

const (
	ClassProduction  DependencyClass = "dependencies"
	ClassDevelopment DependencyClass = "devDependencies"
	ClassPeer        DependencyClass = "peerDependencies"
	ClassOptional    DependencyClass = "optionalDependencies"
	ClassUnknown     DependencyClass = ""
)

// PackageUpdate is the immutable input describing one proposed dependency
// bump. One is created per dependency found in a change set.
type PackageUpdate struct {
	Name            string          `json:"name"`
	FromVersion     string          `json:"fromVersion"`
	ToVersion       string          `json:"toVersion"`
	DependencyClass DependencyClass `json:"dependencyClass,omitempty"`
}

// Validate checks the caller contract. An empty or malformed package name is
// the only condition surfaced as a hard failure anywhere in the engine.
func (u PackageUpdate) Validate() error {
	name := strings.TrimSpace(u.Name)
	if name == "" {
		return errors.Newf(errors.InvalidPackage, "package name is empty")
	}
	if strings.ContainsAny(name, " \t\n") {
		return errors.Newf(errors.InvalidPackage, "package name %q contains whitespace", u.Name)
	}
	if strings.HasPrefix(name, "@") && !strings.Contains(name, "/") {
		return errors.Newf(errors.InvalidPackage, "scoped package name %q is missing its package part", u.Name)
	}
	return nil
}

// IsTypeDefinition reports whether the package exists only to provide type
// annotations for another package. Treated as lower inherent risk.
func (u PackageUpdate) IsTypeDefinition() bool {
	return strings.HasPrefix(u.Name, "@types/")
}

// IsDevDependency reports whether the dependency is declared outside the
// production dependency set.
func (u PackageUpdate) IsDevDependency() bool {
	return u.DependencyClass == ClassDevelopment
}
