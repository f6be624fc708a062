package risk

import "strings"

// Registry holds the package-class knowledge the scoring overrides depend
// on: which packages are type-definition-only and which files are lockfiles.
// It is constructed explicitly and passed in; there is no process-wide
// instance.
type Registry struct {
	typeDefinitionPrefixes []string
	typeDefinitionSuffixes []string
	lockfileNames          map[string]bool
}

// NewRegistry returns a registry with the npm-ecosystem defaults.
func NewRegistry() *Registry {
	return &Registry{
		typeDefinitionPrefixes: []string{"@types/"},
		typeDefinitionSuffixes: []string{"-types", ".types"},
		lockfileNames: map[string]bool{
			"package-lock.json":   true,
			"npm-shrinkwrap.json": true,
			"yarn.lock":           true,
			"pnpm-lock.yaml":      true,
			"bun.lockb":           true,
		},
	}
}

// IsTypeDefinition reports whether the package exists solely to provide type
// annotations for another package.
func (r *Registry) IsTypeDefinition(name string) bool {
	for _, p := range r.typeDefinitionPrefixes {
		if strings.HasPrefix(name, p) {
			return true
		}
	}
	for _, s := range r.typeDefinitionSuffixes {
		if strings.HasSuffix(name, s) {
			return true
		}
	}
	return false
}

// IsLockfile reports whether the basename is a dependency lockfile.
func (r *Registry) IsLockfile(name string) bool {
	return r.lockfileNames[name]
}

// IsLockfileOnly reports whether a change set touches nothing but lockfiles.
// An empty change set is not lockfile-only: absence of information must not
// trigger the lockfile score cap.
func (r *Registry) IsLockfileOnly(changedFiles []string) bool {
	if len(changedFiles) == 0 {
		return false
	}
	for _, f := range changedFiles {
		base := f
		if i := strings.LastIndexByte(f, '/'); i >= 0 {
			base = f[i+1:]
		}
		if !r.lockfileNames[base] {
			return false
		}
	}
	return true
}
