package pricing

import (
	"fmt"

	"github.com/storeops/catalogctl/internal/catalog"
)

// DefaultCategory is the mandatory fallback rule key. Every rule set must
// define it; categories without their own rule price through it.
const DefaultCategory = "default"

// Rule is the per-category pricing configuration. All rates are fractions in
// [0, 1); the markup is a multiplier strictly above 1.
type Rule struct {
	Markup           float64 `yaml:"markup"`
	MinPrice         float64 `yaml:"min_price"`
	RoundSuffix      float64 `yaml:"round_suffix"`
	ShippingEstimate float64 `yaml:"shipping_estimate"`
	ImportTaxRate    float64 `yaml:"import_tax_rate"`
	VATRate          float64 `yaml:"vat_rate"`
}

// Validate checks that the rule can produce a usable price.
func (r Rule) Validate(category string) error {
	switch {
	case r.Markup <= 1:
		return catalog.NewInvalidRuleError(category, fmt.Sprintf("markup must be greater than 1, got %v", r.Markup))
	case r.VATRate < 0 || r.VATRate >= 1:
		return catalog.NewInvalidRuleError(category, fmt.Sprintf("vat rate must be a fraction in [0, 1), got %v", r.VATRate))
	case r.ImportTaxRate < 0 || r.ImportTaxRate >= 1:
		return catalog.NewInvalidRuleError(category, fmt.Sprintf("import tax rate must be a fraction in [0, 1), got %v", r.ImportTaxRate))
	case r.RoundSuffix < 0 || r.RoundSuffix >= 1:
		return catalog.NewInvalidRuleError(category, fmt.Sprintf("rounding suffix must be a fraction in [0, 1), got %v", r.RoundSuffix))
	case r.ShippingEstimate < 0:
		return catalog.NewInvalidRuleError(category, fmt.Sprintf("shipping estimate must be non-negative, got %v", r.ShippingEstimate))
	case r.MinPrice < 0:
		return catalog.NewInvalidRuleError(category, fmt.Sprintf("minimum price must be non-negative, got %v", r.MinPrice))
	}
	return nil
}

// RuleSet maps category tag values to pricing rules.
type RuleSet map[string]Rule

// Validate checks every rule and requires the default entry. A rule set
// without a default cannot safely price anything, so this failure is fatal
// to a run.
func (rs RuleSet) Validate() error {
	if _, ok := rs[DefaultCategory]; !ok {
		return catalog.NewInvalidRuleError(DefaultCategory, "rule set must define a default rule")
	}
	for category, rule := range rs {
		if err := rule.Validate(category); err != nil {
			return err
		}
	}
	return nil
}

// Resolve returns the rule for the category, falling back to the default.
func (rs RuleSet) Resolve(category string) Rule {
	if rule, ok := rs[category]; ok {
		return rule
	}
	return rs[DefaultCategory]
}

// InstallmentPlan is the store-wide installment policy.
type InstallmentPlan struct {
	Max              int     `yaml:"max"`
	InterestFreeUpTo int     `yaml:"interest_free_up_to"`
	MonthlyRate      float64 `yaml:"monthly_rate"`
}

// withDefaults fills unset plan fields with the store defaults.
func (p InstallmentPlan) withDefaults() InstallmentPlan {
	if p.Max <= 0 {
		p.Max = 12
	}
	if p.InterestFreeUpTo <= 0 {
		p.InterestFreeUpTo = 6
	}
	if p.MonthlyRate <= 0 {
		p.MonthlyRate = 0.0199
	}
	return p
}
