package deps

import (
	"testing"

	"depsafe/internal/errors"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		update  PackageUpdate
		wantErr bool
	}{
		{"plain name", PackageUpdate{Name: "express"}, false},
		{"scoped name", PackageUpdate{Name: "@types/node"}, false},
		{"empty name", PackageUpdate{Name: ""}, true},
		{"whitespace only", PackageUpdate{Name: "   "}, true},
		{"embedded space", PackageUpdate{Name: "my package"}, true},
		{"bare scope", PackageUpdate{Name: "@types"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.update.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.IsInvalidPackage(err) {
				t.Errorf("validation failures must carry the InvalidPackage code, got %v", errors.CodeOf(err))
			}
		})
	}
}

func TestIsTypeDefinition(t *testing.T) {
	if !(PackageUpdate{Name: "@types/react"}).IsTypeDefinition() {
		t.Error("@types/react is a type-definition package")
	}
	if (PackageUpdate{Name: "react"}).IsTypeDefinition() {
		t.Error("react is not a type-definition package")
	}
}

func TestIsDevDependency(t *testing.T) {
	update := PackageUpdate{Name: "eslint", DependencyClass: ClassDevelopment}
	if !update.IsDevDependency() {
		t.Error("devDependencies class should report as dev dependency")
	}
	if (PackageUpdate{Name: "express", DependencyClass: ClassProduction}).IsDevDependency() {
		t.Error("production class should not report as dev dependency")
	}
}
