package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/kirillkom/document-intake/internal/core/domain"
)

// LoadTaxonomy reads the department list from a YAML file, or returns the
// built-in taxonomy when path is empty.
//
//	departments:
//	  - name: Finance & Accounts
//	    keywords: [invoice, payment]
func LoadTaxonomy(path string) (domain.Taxonomy, error) {
	if path == "" {
		return domain.DefaultTaxonomy(), nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return domain.Taxonomy{}, fmt.Errorf("read taxonomy: %w", err)
	}
	var tax domain.Taxonomy
	if err := yaml.Unmarshal(raw, &tax); err != nil {
		return domain.Taxonomy{}, fmt.Errorf("decode taxonomy %s: %w", path, err)
	}
	if err := tax.Validate(); err != nil {
		return domain.Taxonomy{}, domain.WrapError(domain.ErrInvalidInput, "load taxonomy", err)
	}
	return tax, nil
}
