package subscription

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed plans.yaml
var defaultPlansYAML []byte

// Plan is one entry of the closed plan catalog. Pricing is a pure
// function of the plan code; nothing is stored per subscription record.
type Plan struct {
	Code       string  `yaml:"-"`
	Name       string  `yaml:"name"`
	Amount     float64 `yaml:"amount"`
	CurrencyID string  `yaml:"currency"`
	SelfServe  bool    `yaml:"self_serve"`
}

// Catalog maps plan codes to plans.
type Catalog map[string]Plan

// ParseCatalog decodes and validates a YAML catalog.
func ParseCatalog(data []byte) (Catalog, error) {
	var doc struct {
		Plans map[string]Plan `yaml:"plans"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Join(ErrInvalidCatalog, err)
	}
	if len(doc.Plans) == 0 {
		return nil, fmt.Errorf("%w: no plans defined", ErrInvalidCatalog)
	}

	catalog := make(Catalog, len(doc.Plans))
	for code, plan := range doc.Plans {
		plan.Code = code
		if plan.SelfServe {
			if plan.Amount <= 0 {
				return nil, fmt.Errorf("%w: plan %q needs a positive amount", ErrInvalidCatalog, code)
			}
			if plan.CurrencyID == "" {
				return nil, fmt.Errorf("%w: plan %q needs a currency", ErrInvalidCatalog, code)
			}
		}
		catalog[code] = plan
	}
	return catalog, nil
}

// LoadCatalogFile reads a catalog from disk. An empty path returns the
// embedded default catalog.
func LoadCatalogFile(path string) (Catalog, error) {
	if path == "" {
		return ParseCatalog(defaultPlansYAML)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Join(ErrInvalidCatalog, err)
	}
	return ParseCatalog(data)
}

// SelfServePlan resolves a plan that can be purchased through checkout.
// Unknown codes and consult-only plans (no self-serve price) are rejected
// before any processor call.
func (c Catalog) SelfServePlan(code string) (Plan, error) {
	plan, ok := c[code]
	if !ok {
		return Plan{}, fmt.Errorf("%w: %q", ErrUnknownPlan, code)
	}
	if !plan.SelfServe {
		return Plan{}, fmt.Errorf("%w: %q", ErrPlanNotSelfServe, code)
	}
	return plan, nil
}
