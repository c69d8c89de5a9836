// Package categories holds the taxonomy of valid categories per transaction
// type. The taxonomy is configuration: a YAML file may replace the built-in
// defaults entirely.
package categories

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"famledger/internal/models"
)

// TypeConfig is one type's category list as written in the taxonomy file.
type TypeConfig struct {
	Default    string   `yaml:"default"`
	Categories []string `yaml:"categories"`
}

// FileConfig is the top-level shape of the taxonomy file.
//
//	expense:
//	  default: Other
//	  categories: [Grocery, Transport, Food, Other]
//	income:
//	  ...
type FileConfig struct {
	Expense TypeConfig `yaml:"expense"`
	Income  TypeConfig `yaml:"income"`
	Savings TypeConfig `yaml:"savings"`
}

type typeSet struct {
	def     string
	ordered []string
	byKey   map[string]string // lower-cased name -> canonical name
}

// Registry answers membership questions about the taxonomy. It is immutable
// after construction and safe for concurrent use.
type Registry struct {
	sets map[models.TransactionType]typeSet
}

// Default returns the built-in taxonomy.
func Default() *Registry {
	r, err := New(DefaultConfig())
	if err != nil {
		panic(fmt.Sprintf("categories: built-in taxonomy is invalid: %v", err))
	}
	return r
}

// DefaultConfig returns the built-in taxonomy as a FileConfig.
func DefaultConfig() FileConfig {
	return FileConfig{
		Expense: TypeConfig{
			Default:    "Other",
			Categories: []string{"Grocery", "Transport", "Entertainment", "Food", "Shopping", "Bills", "Health", "Other"},
		},
		Income: TypeConfig{
			Default:    "Other Income",
			Categories: []string{"Salary", "Freelance", "Business", "Refund", "Bonus", "Interest", "Cashback", "Other Income"},
		},
		Savings: TypeConfig{
			Default:    "Savings",
			Categories: []string{"Savings", "Investment", "Emergency Fund", "Pension"},
		},
	}
}

// Load reads a taxonomy file. An empty path yields the built-in taxonomy.
func Load(path string) (*Registry, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading categories file: %w", err)
	}

	var cfg FileConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing categories file %s: %w", path, err)
	}
	return New(cfg)
}

// New validates cfg and builds a Registry. Every type needs at least one
// category, its default must be a member, and no category may appear under
// two types.
func New(cfg FileConfig) (*Registry, error) {
	r := &Registry{sets: make(map[models.TransactionType]typeSet, 3)}
	owner := make(map[string]models.TransactionType)

	for _, entry := range []struct {
		t   models.TransactionType
		cfg TypeConfig
	}{
		{models.TransactionTypeExpense, cfg.Expense},
		{models.TransactionTypeIncome, cfg.Income},
		{models.TransactionTypeSavings, cfg.Savings},
	} {
		set := typeSet{byKey: make(map[string]string)}
		for _, name := range entry.cfg.Categories {
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}
			key := strings.ToLower(name)
			if prev, ok := owner[key]; ok && prev != entry.t {
				return nil, fmt.Errorf("category %q listed under both %s and %s", name, prev, entry.t)
			}
			if _, dup := set.byKey[key]; dup {
				continue
			}
			owner[key] = entry.t
			set.byKey[key] = name
			set.ordered = append(set.ordered, name)
		}
		if len(set.ordered) == 0 {
			return nil, fmt.Errorf("no categories configured for %s", entry.t)
		}

		def, ok := set.byKey[strings.ToLower(strings.TrimSpace(entry.cfg.Default))]
		if !ok {
			return nil, fmt.Errorf("default %q for %s is not one of its categories", entry.cfg.Default, entry.t)
		}
		set.def = def
		r.sets[entry.t] = set
	}

	return r, nil
}

// IsValid reports whether category belongs to t's set (case-insensitive).
func (r *Registry) IsValid(t models.TransactionType, category string) bool {
	set, ok := r.sets[t]
	if !ok {
		return false
	}
	_, ok = set.byKey[strings.ToLower(strings.TrimSpace(category))]
	return ok
}

// DefaultFor returns the fallback category for t. Unknown types get the
// expense default.
func (r *Registry) DefaultFor(t models.TransactionType) string {
	set, ok := r.sets[t]
	if !ok {
		set = r.sets[models.TransactionTypeExpense]
	}
	return set.def
}

// Normalize returns the canonical spelling of category if it is valid for t,
// and t's default otherwise. It never fails.
func (r *Registry) Normalize(t models.TransactionType, category string) string {
	set, ok := r.sets[t]
	if !ok {
		return r.DefaultFor(t)
	}
	if name, ok := set.byKey[strings.ToLower(strings.TrimSpace(category))]; ok {
		return name
	}
	return set.def
}

// Categories returns t's categories in configured order.
func (r *Registry) Categories(t models.TransactionType) []string {
	set := r.sets[t]
	out := make([]string, len(set.ordered))
	copy(out, set.ordered)
	return out
}
