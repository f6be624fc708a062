package manifest

import (
	"os"
	"path/filepath"
	"testing"

	"depsafe/internal/deps"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadPackageJSON(t *testing.T) {
	path := writeFile(t, "package.json", `{
  "name": "my-app",
  "version": "1.0.0",
  "dependencies": { "express": "^4.18.0" },
  "devDependencies": { "jest": "^29.0.0", "@types/node": "^24.0.6" },
  "peerDependencies": { "react": ">=17" }
}`)

	m, err := LoadPackageJSON(path)
	if err != nil {
		t.Fatalf("LoadPackageJSON: %v", err)
	}
	if m.Name != "my-app" {
		t.Errorf("name = %q, want my-app", m.Name)
	}

	tests := []struct {
		pkg  string
		want deps.DependencyClass
	}{
		{"express", deps.ClassProduction},
		{"jest", deps.ClassDevelopment},
		{"@types/node", deps.ClassDevelopment},
		{"react", deps.ClassPeer},
		{"missing", deps.ClassUnknown},
	}
	for _, tt := range tests {
		if got := m.ClassOf(tt.pkg); got != tt.want {
			t.Errorf("ClassOf(%q) = %q, want %q", tt.pkg, got, tt.want)
		}
	}

	if got := m.DeclaredRange("express"); got != "^4.18.0" {
		t.Errorf("DeclaredRange(express) = %q, want ^4.18.0", got)
	}
}

func TestLoadPackageJSONInvalid(t *testing.T) {
	path := writeFile(t, "package.json", "{ not json")
	if _, err := LoadPackageJSON(path); err == nil {
		t.Fatal("want error for invalid JSON")
	}
}

func TestLoadCargoTOML(t *testing.T) {
	path := writeFile(t, "Cargo.toml", `[package]
name = "mytool"
version = "0.3.0"

[dependencies]
serde = { version = "1.0", features = ["derive"] }
anyhow = "1.0.75"

[dev-dependencies]
tempfile = "3"
`)

	m, err := LoadTOML(path)
	if err != nil {
		t.Fatalf("LoadTOML: %v", err)
	}
	if m.Name != "mytool" {
		t.Errorf("name = %q, want mytool", m.Name)
	}
	if m.Dependencies["serde"] != "1.0" {
		t.Errorf("serde = %q, want 1.0", m.Dependencies["serde"])
	}
	if m.Dependencies["anyhow"] != "1.0.75" {
		t.Errorf("anyhow = %q, want 1.0.75", m.Dependencies["anyhow"])
	}
	if got := m.ClassOf("tempfile"); got != deps.ClassDevelopment {
		t.Errorf("ClassOf(tempfile) = %q, want devDependencies", got)
	}
}

func TestLoadPyprojectTOML(t *testing.T) {
	path := writeFile(t, "pyproject.toml", `[project]
name = "svc"
version = "2.0.0"
dependencies = [
  "requests>=2.28",
  "pyyaml",
]

[project.optional-dependencies]
dev = ["pytest>=7"]
`)

	m, err := LoadTOML(path)
	if err != nil {
		t.Fatalf("LoadTOML: %v", err)
	}
	if m.Dependencies["requests"] != ">=2.28" {
		t.Errorf("requests = %q, want >=2.28", m.Dependencies["requests"])
	}
	if _, ok := m.Dependencies["pyyaml"]; !ok {
		t.Error("pyyaml missing from dependencies")
	}
	if got := m.ClassOf("pytest"); got != deps.ClassOptional {
		t.Errorf("ClassOf(pytest) = %q, want optionalDependencies", got)
	}
}

func TestLoadDispatch(t *testing.T) {
	path := writeFile(t, "package.json", `{"name": "x"}`)
	if _, err := Load(path); err != nil {
		t.Errorf("Load(package.json): %v", err)
	}
	bad := writeFile(t, "Gemfile", "source 'https://rubygems.org'")
	if _, err := Load(bad); err == nil {
		t.Error("Load(Gemfile): want unsupported-manifest error")
	}
}

func TestLoadPnpmLockV9(t *testing.T) {
	path := writeFile(t, "pnpm-lock.yaml", `lockfileVersion: '9.0'

importers:
  .:
    dependencies:
      express:
        specifier: ^4.18.0
        version: 4.18.2
    devDependencies:
      typescript:
        specifier: ^5.4.0
        version: 5.4.5

packages:
  express@4.18.2:
    resolution: {integrity: sha512-abc}
`)

	lock, err := LoadPnpmLock(path)
	if err != nil {
		t.Fatalf("LoadPnpmLock: %v", err)
	}
	if v, ok := lock.LockedVersion("express"); !ok || v != "4.18.2" {
		t.Errorf("LockedVersion(express) = %q, %v; want 4.18.2, true", v, ok)
	}
	if v, ok := lock.LockedVersion("typescript"); !ok || v != "5.4.5" {
		t.Errorf("LockedVersion(typescript) = %q, %v; want 5.4.5, true", v, ok)
	}
	if !lock.HasPackage("express") {
		t.Error("HasPackage(express) = false, want true")
	}
	if lock.HasPackage("left-pad") {
		t.Error("HasPackage(left-pad) = true, want false")
	}
}

func TestLoadPnpmLockV6Shape(t *testing.T) {
	path := writeFile(t, "pnpm-lock.yaml", `lockfileVersion: 6.0

dependencies:
  lodash: 4.17.21(patch_hash=xyz)
`)

	lock, err := LoadPnpmLock(path)
	if err != nil {
		t.Fatalf("LoadPnpmLock: %v", err)
	}
	if v, ok := lock.LockedVersion("lodash"); !ok || v != "4.17.21" {
		t.Errorf("LockedVersion(lodash) = %q, %v; want 4.17.21, true", v, ok)
	}
}

func TestPnpmLockClassOf(t *testing.T) {
	path := writeFile(t, "pnpm-lock.yaml", `lockfileVersion: '9.0'

importers:
  .:
    dependencies:
      express:
        specifier: ^4.18.0
        version: 4.18.2
    devDependencies:
      typescript:
        specifier: ^5.4.0
        version: 5.4.5

packages:
  express@4.18.2:
    resolution: {integrity: sha512-abc}
  accepts@1.3.8:
    resolution: {integrity: sha512-def}
`)

	lock, err := LoadPnpmLock(path)
	if err != nil {
		t.Fatalf("LoadPnpmLock: %v", err)
	}

	tests := []struct {
		pkg  string
		want deps.DependencyClass
	}{
		{"express", deps.ClassProduction},
		{"typescript", deps.ClassDevelopment},
		// Transitive packages appear only in the packages section.
		{"accepts", deps.ClassUnknown},
		{"left-pad", deps.ClassUnknown},
	}
	for _, tt := range tests {
		if got := lock.ClassOf(tt.pkg); got != tt.want {
			t.Errorf("ClassOf(%q) = %q, want %q", tt.pkg, got, tt.want)
		}
	}
}
