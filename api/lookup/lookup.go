// Package lookup holds the static tables that normalize raw identifiers from the
// travel-warnings collector into warning levels, ISO country codes and display names.
//
// Tables are loaded once at start and never mutated. Every lookup has a default,
// so resolution never fails: unmapped keys pass through unchanged, and unmapped
// country codes resolve to the "NA" sentinel names.
package lookup

import (
	_ "embed"
	"os"

	"github.com/morikuni/failure/v2"
	"gopkg.in/yaml.v3"
)

// ErrorCode defines error types for lookup table loading
type ErrorCode string

const (
	ErrTableNotFound ErrorCode = "LookupTableNotFound"
	ErrInvalidTable  ErrorCode = "InvalidLookupTable"
)

func (c ErrorCode) ErrorCode() string {
	return string(c)
}

// NotAvailable is the placeholder used for both names when a country code is unmapped.
const NotAvailable = "NA"

//go:embed tables.yaml
var bundled []byte

// Names is the pair of display names for a country.
type Names struct {
	He string `yaml:"he" json:"he"`
	En string `yaml:"en" json:"en"`
}

// Tables is the set of normalization tables.
type Tables struct {
	// WarningLevels maps the advisory picture name to a warning level code
	WarningLevels map[string]string `yaml:"warning_levels" json:"warning_levels"`

	// CountryCodes maps the collector's URL slug to an ISO country code
	CountryCodes map[string]string `yaml:"country_codes" json:"country_codes"`

	// CountryNames maps the collector's raw country code to display names
	CountryNames map[string]Names `yaml:"country_names" json:"country_names"`
}

// Resolve returns table[key], or key itself when it is not mapped.
func Resolve(table map[string]string, key string) string {
	if v, ok := table[key]; ok {
		return v
	}
	return key
}

// ResolveNames returns table[key], or the NA sentinel when it is not mapped.
func ResolveNames(table map[string]Names, key string) Names {
	if v, ok := table[key]; ok {
		return v
	}
	return Names{He: NotAvailable, En: NotAvailable}
}

// WarningLevel resolves an advisory picture name.
func (t *Tables) WarningLevel(name string) string {
	if t == nil {
		return name
	}
	return Resolve(t.WarningLevels, name)
}

// CountryCode resolves a URL slug.
func (t *Tables) CountryCode(slug string) string {
	if t == nil {
		return slug
	}
	return Resolve(t.CountryCodes, slug)
}

// CountryName resolves a raw country code.
func (t *Tables) CountryName(raw string) Names {
	if t == nil {
		return ResolveNames(nil, raw)
	}
	return ResolveNames(t.CountryNames, raw)
}

// Default returns the tables bundled into the binary.
func Default() (*Tables, error) {
	return Parse(bundled)
}

// Load reads tables from a YAML or JSON file.
func Load(path string) (*Tables, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, failure.New(ErrTableNotFound,
				failure.Message("Lookup table file not found"),
				failure.Context{"path": path},
			)
		}
		return nil, failure.Wrap(err)
	}
	t, err := Parse(b)
	if err != nil {
		return nil, failure.Wrap(err, failure.Context{"path": path})
	}
	return t, nil
}

// Parse decodes tables from YAML (JSON is accepted as a subset).
func Parse(b []byte) (*Tables, error) {
	var t Tables
	if err := yaml.Unmarshal(b, &t); err != nil {
		return nil, failure.Wrap(err, failure.WithCode(ErrInvalidTable),
			failure.Message("Invalid lookup table data"),
		)
	}
	if t.WarningLevels == nil {
		t.WarningLevels = map[string]string{}
	}
	if t.CountryCodes == nil {
		t.CountryCodes = map[string]string{}
	}
	if t.CountryNames == nil {
		t.CountryNames = map[string]Names{}
	}
	return &t, nil
}
