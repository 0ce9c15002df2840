package service

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed roles.yaml
var defaultCatalog []byte

// Catalog is a YAML document of permission sets to seed.
type Catalog struct {
	Roles []CatalogRole `yaml:"roles"`
}

// CatalogRole is one permission set.
type CatalogRole struct {
	Name        string   `yaml:"name"`
	Permissions []string `yaml:"permissions"`
}

// DefaultCatalog returns the built-in SALES, MANAGEMENT and SUPPORT permission sets.
func DefaultCatalog() *Catalog {
	catalog, err := ParseCatalog(defaultCatalog)
	if err != nil {
		panic(fmt.Sprintf("built-in role catalog: %v", err))
	}
	return catalog
}

// LoadCatalog reads a catalog file.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read role catalog: %w", err)
	}
	return ParseCatalog(data)
}

// ParseCatalog decodes and validates a catalog. Names must be unique and
// non-empty; permission tokens must not contain commas.
func ParseCatalog(data []byte) (*Catalog, error) {
	var catalog Catalog
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("parse role catalog: %w", err)
	}
	if len(catalog.Roles) == 0 {
		return nil, fmt.Errorf("role catalog defines no roles")
	}

	seen := make(map[string]struct{}, len(catalog.Roles))
	for i, role := range catalog.Roles {
		name := strings.TrimSpace(role.Name)
		if name == "" {
			return nil, fmt.Errorf("role catalog entry %d has no name", i)
		}
		if _, dup := seen[name]; dup {
			return nil, fmt.Errorf("role %q defined twice", name)
		}
		seen[name] = struct{}{}
		for _, perm := range role.Permissions {
			if strings.Contains(perm, ",") {
				return nil, fmt.Errorf("role %q: permission %q must not contain a comma", name, perm)
			}
		}
		catalog.Roles[i].Name = name
	}
	return &catalog, nil
}
