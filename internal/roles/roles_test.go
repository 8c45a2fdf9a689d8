package roles

import (
	"os"
	"path/filepath"
	"testing"
)

func TestBuiltinRolesAreValid(t *testing.T) {
	for _, r := range Builtin() {
		if err := r.Validate(); err != nil {
			t.Errorf("builtin role %q invalid: %v", r.Name, err)
		}
	}
}

func TestRegistrySeededWithBuiltins(t *testing.T) {
	reg := NewRegistry()

	if got, want := len(reg.All()), len(Builtin()); got != want {
		t.Fatalf("registry has %d roles, want %d", got, want)
	}
	if _, ok := reg.Get("director"); !ok {
		t.Error("expected builtin director role")
	}
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	reg := NewRegistry()

	err := reg.Register(Role{Name: "Director", PromptTemplate: "judge"})
	if err == nil {
		t.Error("expected duplicate registration to fail (names are case-insensitive)")
	}
}

func TestRegisterValidates(t *testing.T) {
	reg := NewRegistry()

	tests := []struct {
		name string
		role Role
	}{
		{"missing name", Role{PromptTemplate: "judge"}},
		{"missing prompt", Role{Name: "critic"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := reg.Register(tt.role); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestMatch(t *testing.T) {
	reg := NewRegistry()

	tests := []struct {
		pattern string
		want    int
	}{
		{"", len(Builtin())},
		{"*", len(Builtin())},
		{"director", 1},
		{"d*", 2},        // director, designer
		{"narrative", 1}, // specialty match
	}
	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			got, err := reg.Match(tt.pattern)
			if err != nil {
				t.Fatalf("Match(%q) error: %v", tt.pattern, err)
			}
			if len(got) != tt.want {
				t.Errorf("Match(%q) returned %d roles, want %d", tt.pattern, len(got), tt.want)
			}
		})
	}

	if _, err := reg.Match("[invalid"); err == nil {
		t.Error("expected error for malformed pattern")
	}
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	def := `name: Brand-Guardian
label: "🛡️"
specialty: Brand
prompt: |
  You are the brand guardian. State AGREE or DISAGREE.
`
	if err := os.WriteFile(filepath.Join(dir, "brand.yaml"), []byte(def), 0o644); err != nil {
		t.Fatal(err)
	}

	reg := NewRegistry()
	if err := reg.LoadDir(dir); err != nil {
		t.Fatalf("LoadDir() error: %v", err)
	}

	r, ok := reg.Get("brand-guardian")
	if !ok {
		t.Fatal("expected loaded role to be registered under its normalized name")
	}
	if r.Specialty != "brand" {
		t.Errorf("Specialty = %q, want %q", r.Specialty, "brand")
	}
}

func TestLoadDirMissingIsNoOp(t *testing.T) {
	reg := NewRegistry()
	if err := reg.LoadDir(filepath.Join(t.TempDir(), "does-not-exist")); err != nil {
		t.Errorf("missing directory should not be an error, got %v", err)
	}
}

func TestLoadDirRejectsInvalidDefinition(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "bad.yaml"), []byte("name: nameless\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	reg := NewRegistry()
	if err := reg.LoadDir(dir); err == nil {
		t.Error("expected error for role without a prompt")
	}
}
