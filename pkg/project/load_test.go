package project

import (
	"os"
	"path/filepath"
	"testing"
)

const wrappedYAML = `projects:
  - id: alpha
    title: Alpha
    description: A library
    longDescription: A longer description
    icon: "📦"
    link: https://github.com/acme/alpha
    docs: https://docs.acme.dev/alpha
    category: library
    status: active
    oss: true
    whoUses:
      - cli
      - name: acme
        link: https://acme.dev
`

func TestParseWrappedCollection(t *testing.T) {
	projects, err := Parse([]byte(wrappedYAML))
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if len(projects) != 1 {
		t.Fatalf("Parse() returned %d projects, want 1", len(projects))
	}

	p := projects[0]
	if p.ID != "alpha" || p.Category != CategoryLibrary || !p.OSS {
		t.Errorf("parsed project = %+v", p)
	}
}

func TestParseBareList(t *testing.T) {
	data := []byte(`
- id: one
  title: One
- id: two
  title: Two
`)
	projects, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if len(projects) != 2 || projects[1].ID != "two" {
		t.Errorf("Parse() = %v", projects)
	}
}

func TestParseUserRefForms(t *testing.T) {
	projects, err := Parse([]byte(wrappedYAML))
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}

	refs := projects[0].WhoUses
	if len(refs) != 2 {
		t.Fatalf("parsed %d whoUses entries, want 2", len(refs))
	}
	if refs[0].Name != "cli" || !refs[0].Known() {
		t.Errorf("scalar ref = %+v, want a known reference", refs[0])
	}
	if refs[1].Name != "acme" || refs[1].Link != "https://acme.dev" || refs[1].Known() {
		t.Errorf("map ref = %+v, want an explicit reference", refs[1])
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	if _, err := Parse([]byte("{not yaml: [")); err == nil {
		t.Error("Parse() should fail on malformed yaml")
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "projects.yml")
	if err := os.WriteFile(path, []byte(wrappedYAML), 0o644); err != nil {
		t.Fatal(err)
	}

	projects, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if len(projects) != 1 {
		t.Errorf("Load() returned %d projects, want 1", len(projects))
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yml")); err == nil {
		t.Error("Load() should fail for a missing file")
	}
}

func TestNormalizeWhoUses(t *testing.T) {
	users := NormalizeWhoUses([]UserRef{
		{Name: "cli"},
		{Name: "acme", Link: "https://acme.dev"},
		{Name: "stranger"},
	})

	if users[0].Link != UserLinks["cli"] {
		t.Errorf("known ref link = %q, want registry link", users[0].Link)
	}
	if users[1].Link != "https://acme.dev" {
		t.Errorf("explicit ref link = %q", users[1].Link)
	}
	if users[2].Link != "https://github.com/stranger" {
		t.Errorf("fallback link = %q, want github profile", users[2].Link)
	}
}

func TestValidateAll(t *testing.T) {
	valid := Project{
		ID: "ok", Title: "OK", Description: "d", LongDescription: "ld",
		Icon: "📦", Link: "https://github.com/acme/ok", Docs: "https://docs",
		Category: CategoryLibrary, Status: StatusActive,
	}

	t.Run("valid collection", func(t *testing.T) {
		result := ValidateAll([]Project{valid})
		if !result.Valid || len(result.Errors) != 0 {
			t.Errorf("ValidateAll() = %+v, want valid", result)
		}
	})

	t.Run("empty collection is valid", func(t *testing.T) {
		if result := ValidateAll(nil); !result.Valid {
			t.Error("nil collection should be valid")
		}
	})

	t.Run("missing fields reported individually", func(t *testing.T) {
		broken := valid
		broken.Title = ""
		broken.Docs = ""

		result := ValidateAll([]Project{broken})
		if result.Valid {
			t.Fatal("collection with missing fields should be invalid")
		}
		if len(result.Errors) != 2 {
			t.Errorf("got %d errors (%v), want 2", len(result.Errors), result.Errors)
		}
	})

	t.Run("unknown whoUses name", func(t *testing.T) {
		p := valid
		p.WhoUses = []UserRef{{Name: "nobody"}}

		result := ValidateAll([]Project{p})
		if result.Valid {
			t.Fatal("unknown known-style user reference should be invalid")
		}
	})

	t.Run("explicit whoUses allows any name", func(t *testing.T) {
		p := valid
		p.WhoUses = []UserRef{{Name: "nobody", Link: "https://nobody.dev"}}

		if result := ValidateAll([]Project{p}); !result.Valid {
			t.Errorf("explicit reference should be valid: %v", result.Errors)
		}
	})
}
