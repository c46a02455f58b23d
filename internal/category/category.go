// Package category loads the user's category taxonomy ("buckets") from a
// YAML file. The ledger treats transaction categories as free text; the
// taxonomy only drives reporting and soft validation warnings, never hard
// failures.
package category

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Bucket is one category with its subcategories.
type Bucket struct {
	Name          string   `yaml:"name"`
	Subcategories []string `yaml:"subcategories,omitempty"`
}

// Taxonomy is the full set of category buckets.
type Taxonomy struct {
	Categories []Bucket `yaml:"categories"`

	names map[string]bool
}

// Load reads a taxonomy from a YAML file.
func Load(path string) (*Taxonomy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read taxonomy file: %w", err)
	}

	var taxonomy Taxonomy
	if err := yaml.Unmarshal(data, &taxonomy); err != nil {
		return nil, fmt.Errorf("failed to parse taxonomy file: %w", err)
	}
	taxonomy.index()
	return &taxonomy, nil
}

func (t *Taxonomy) index() {
	t.names = make(map[string]bool)
	for _, bucket := range t.Categories {
		t.names[normalize(bucket.Name)] = true
		for _, sub := range bucket.Subcategories {
			t.names[normalize(sub)] = true
		}
	}
}

// Known reports whether a category or subcategory name is in the
// taxonomy. Comparison is case-insensitive.
func (t *Taxonomy) Known(name string) bool {
	if t == nil || name == "" {
		return false
	}
	return t.names[normalize(name)]
}

// normalize folds case and trims whitespace for comparison.
func normalize(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}
