package manifest

import (
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"

	"depsafe/internal/errors"
)

// cargoManifest mirrors the dependency tables of a Cargo.toml. Entries are
// either plain version strings or inline tables with a version key.
type cargoManifest struct {
	Package struct {
		Name    string `toml:"name"`
		Version string `toml:"version"`
	} `toml:"package"`
	Dependencies      map[string]interface{} `toml:"dependencies"`
	DevDependencies   map[string]interface{} `toml:"dev-dependencies"`
	BuildDependencies map[string]interface{} `toml:"build-dependencies"`
}

// pyprojectManifest mirrors the PEP 621 tables of a pyproject.toml.
// Dependencies are requirement strings like "requests>=2.28".
type pyprojectManifest struct {
	Project struct {
		Name                 string              `toml:"name"`
		Version              string              `toml:"version"`
		Dependencies         []string            `toml:"dependencies"`
		OptionalDependencies map[string][]string `toml:"optional-dependencies"`
	} `toml:"project"`
}

// LoadTOML reads a Cargo.toml or pyproject.toml into the normalized view.
func LoadTOML(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New(errors.InvalidPackage, "manifest is not readable", err)
	}
	switch filepath.Base(path) {
	case "pyproject.toml":
		return parsePyproject(data)
	default:
		return parseCargo(data)
	}
}

func parseCargo(data []byte) (*Manifest, error) {
	var cargo cargoManifest
	if err := toml.Unmarshal(data, &cargo); err != nil {
		return nil, errors.New(errors.InvalidPackage, "manifest is not valid TOML", err)
	}
	return &Manifest{
		Name:            cargo.Package.Name,
		Version:         cargo.Package.Version,
		Dependencies:    flattenCargoDeps(cargo.Dependencies),
		DevDependencies: mergeDeps(flattenCargoDeps(cargo.DevDependencies), flattenCargoDeps(cargo.BuildDependencies)),
	}, nil
}

func parsePyproject(data []byte) (*Manifest, error) {
	var py pyprojectManifest
	if err := toml.Unmarshal(data, &py); err != nil {
		return nil, errors.New(errors.InvalidPackage, "manifest is not valid TOML", err)
	}
	m := &Manifest{
		Name:         py.Project.Name,
		Version:      py.Project.Version,
		Dependencies: map[string]string{},
	}
	for _, req := range py.Project.Dependencies {
		name, constraint := splitRequirement(req)
		if name != "" {
			m.Dependencies[name] = constraint
		}
	}
	if len(py.Project.OptionalDependencies) > 0 {
		m.OptionalDependencies = map[string]string{}
		for _, reqs := range py.Project.OptionalDependencies {
			for _, req := range reqs {
				name, constraint := splitRequirement(req)
				if name != "" {
					m.OptionalDependencies[name] = constraint
				}
			}
		}
	}
	return m, nil
}

// flattenCargoDeps reduces Cargo's two dependency shapes to name → version.
func flattenCargoDeps(raw map[string]interface{}) map[string]string {
	if len(raw) == 0 {
		return nil
	}
	out := make(map[string]string, len(raw))
	for name, v := range raw {
		switch val := v.(type) {
		case string:
			out[name] = val
		case map[string]interface{}:
			if version, ok := val["version"].(string); ok {
				out[name] = version
			} else {
				out[name] = "*"
			}
		default:
			out[name] = "*"
		}
	}
	return out
}

func mergeDeps(a, b map[string]string) map[string]string {
	if len(b) == 0 {
		return a
	}
	if a == nil {
		a = make(map[string]string, len(b))
	}
	for k, v := range b {
		if _, exists := a[k]; !exists {
			a[k] = v
		}
	}
	return a
}

// splitRequirement splits a PEP 508 requirement string into the package name
// and everything after it.
func splitRequirement(req string) (name, constraint string) {
	req = strings.TrimSpace(req)
	for i, r := range req {
		if r == '=' || r == '<' || r == '>' || r == '~' || r == '!' || r == ';' || r == '[' || r == ' ' {
			return strings.TrimSpace(req[:i]), strings.TrimSpace(req[i:])
		}
	}
	return req, ""
}
