package lookup

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/morikuni/failure/v2"
)

func TestResolve(t *testing.T) {
	table := map[string]string{"x": "XX", "empty": ""}

	tests := []struct {
		name string
		key  string
		want string
	}{
		{name: "mapped", key: "x", want: "XX"},
		{name: "mapped to empty string", key: "empty", want: ""},
		{name: "unmapped passes through", key: "nowhere", want: "nowhere"},
		{name: "empty key passes through", key: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Resolve(table, tt.key); got != tt.want {
				t.Errorf("Resolve(%q) = %q, want %q", tt.key, got, tt.want)
			}
		})
	}

	if got := Resolve(nil, "k"); got != "k" {
		t.Errorf("Resolve(nil, %q) = %q, want pass-through", "k", got)
	}
}

func TestResolveNames(t *testing.T) {
	table := map[string]Names{"c1": {He: "א", En: "A"}}

	if diff := cmp.Diff(Names{He: "א", En: "A"}, ResolveNames(table, "c1")); diff != "" {
		t.Errorf("ResolveNames() mismatch (-want +got):\n%s", diff)
	}

	sentinel := Names{He: "NA", En: "NA"}
	for _, key := range []string{"c2", ""} {
		if diff := cmp.Diff(sentinel, ResolveNames(table, key)); diff != "" {
			t.Errorf("ResolveNames(%q) mismatch (-want +got):\n%s", key, diff)
		}
	}
	if diff := cmp.Diff(sentinel, ResolveNames(nil, "c1")); diff != "" {
		t.Errorf("ResolveNames(nil) mismatch (-want +got):\n%s", diff)
	}
}

func TestNilTables(t *testing.T) {
	var tables *Tables

	if got := tables.WarningLevel("y"); got != "y" {
		t.Errorf("WarningLevel() = %q, want %q", got, "y")
	}
	if got := tables.CountryCode("x"); got != "x" {
		t.Errorf("CountryCode() = %q, want %q", got, "x")
	}
	if got := tables.CountryName("c1"); got.He != NotAvailable || got.En != NotAvailable {
		t.Errorf("CountryName() = %+v, want NA sentinel", got)
	}
}

func TestDefault(t *testing.T) {
	tables, err := Default()
	if err != nil {
		t.Fatalf("Default() error = %v", err)
	}

	if got := tables.CountryCode("egypt"); got != "EGY" {
		t.Errorf("CountryCode(egypt) = %q, want EGY", got)
	}
	if got := tables.CountryName("818"); got.En != "Egypt" || got.He != "מצרים" {
		t.Errorf("CountryName(818) = %+v", got)
	}
	if got := tables.WarningLevel("איסור נסיעה"); got != "4" {
		t.Errorf("WarningLevel() = %q, want 4", got)
	}
	// Leading zeros must survive YAML decoding.
	if got := tables.CountryName("004"); got.En != "Afghanistan" {
		t.Errorf("CountryName(004) = %+v", got)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	jsonPath := filepath.Join(dir, "tables.json")
	content := `{
		"warning_levels": {"y": "warn1"},
		"country_codes": {"x": "XX"},
		"country_names": {"c1": {"he": "א", "en": "A"}}
	}`
	if err := os.WriteFile(jsonPath, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := Load(jsonPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	want := &Tables{
		WarningLevels: map[string]string{"y": "warn1"},
		CountryCodes:  map[string]string{"x": "XX"},
		CountryNames:  map[string]Names{"c1": {He: "א", En: "A"}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Load() mismatch (-want +got):\n%s", diff)
	}

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(dir, "nope.yaml"))
		if !failure.Is(err, ErrTableNotFound) {
			t.Errorf("Load() error = %v, want %v", err, ErrTableNotFound)
		}
	})

	t.Run("partial file gets empty tables", func(t *testing.T) {
		p := filepath.Join(dir, "partial.yaml")
		if err := os.WriteFile(p, []byte("country_codes:\n  x: XX\n"), 0o644); err != nil {
			t.Fatal(err)
		}
		got, err := Load(p)
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if got.WarningLevels == nil || got.CountryNames == nil {
			t.Errorf("Load() left nil tables: %+v", got)
		}
		if got.WarningLevel("y") != "y" {
			t.Errorf("WarningLevel() should pass through")
		}
	})

	t.Run("malformed file", func(t *testing.T) {
		p := filepath.Join(dir, "bad.yaml")
		if err := os.WriteFile(p, []byte("country_codes: [1, 2"), 0o644); err != nil {
			t.Fatal(err)
		}
		_, err := Load(p)
		if !failure.Is(err, ErrInvalidTable) {
			t.Errorf("Load() error = %v, want %v", err, ErrInvalidTable)
		}
	})
}
