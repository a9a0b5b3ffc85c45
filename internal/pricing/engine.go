// Package pricing derives shelf prices from supplier costs through a fixed
// tax and markup cascade. The computation is pure: the same cost, category
// and rule set always produce the same breakdown.
package pricing

import (
	"math"

	"github.com/storeops/catalogctl/internal/catalog"
)

const compareAtFactor = 1.30

// Installment is one entry of the payment schedule offered at checkout.
type Installment struct {
	Count         int
	Amount        float64
	InterestFree  bool
	SurchargeRate float64
}

// Breakdown exposes every intermediate of the cascade so margins can be
// audited against hand-computed tables.
type Breakdown struct {
	Category     string
	Landed       float64
	ImportTax    float64
	VATAmount    float64
	Base         float64
	RawPrice     float64
	FinalPrice   float64
	CompareAt    float64
	MarginAmount float64
	MarginRatio  float64
	Installments []Installment
}

// Engine computes sale prices from supplier costs. It is safe for concurrent
// use; the rule set is fixed at construction.
type Engine struct {
	rules RuleSet
	plan  InstallmentPlan
}

// NewEngine validates the rule set and returns a ready engine.
func NewEngine(rules RuleSet, plan InstallmentPlan) (*Engine, error) {
	if err := rules.Validate(); err != nil {
		return nil, err
	}
	return &Engine{rules: rules, plan: plan.withDefaults()}, nil
}

// Compute runs the cascade in its fixed order:
//
//  1. landed = cost + shipping estimate
//  2. import tax on the landed cost
//  3. VAT grossed up on the tax-inclusive total ("por dentro"): the base
//     already contains the VAT computed on itself, so it is solved by
//     division rather than a simple multiply
//  4. markup, psychological rounding, minimum price floor
//
// Reordering any step changes the margin figures, so the order is part of
// the contract.
func (e *Engine) Compute(cost float64, category string) (Breakdown, error) {
	if cost < 0 {
		return Breakdown{}, catalog.NewValidationError("cost must be non-negative", map[string]interface{}{"cost": cost})
	}

	rule := e.rules.Resolve(category)
	if err := rule.Validate(category); err != nil {
		return Breakdown{}, err
	}

	landed := cost + rule.ShippingEstimate
	importTax := landed * rule.ImportTaxRate
	afterImportTax := landed + importTax
	base := afterImportTax / (1 - rule.VATRate)
	rawPrice := base * rule.Markup

	finalPrice := roundUpToSuffix(rawPrice, rule.RoundSuffix)
	if finalPrice < rule.MinPrice {
		finalPrice = rule.MinPrice
	}

	margin := finalPrice - landed
	marginRatio := 0.0
	if finalPrice > 0 {
		marginRatio = margin / finalPrice
	}

	return Breakdown{
		Category:     category,
		Landed:       landed,
		ImportTax:    importTax,
		VATAmount:    base - afterImportTax,
		Base:         base,
		RawPrice:     rawPrice,
		FinalPrice:   finalPrice,
		CompareAt:    roundUpToSuffix(finalPrice*compareAtFactor, rule.RoundSuffix),
		MarginAmount: margin,
		MarginRatio:  marginRatio,
		Installments: e.installments(finalPrice),
	}, nil
}

// installments builds the 1..Max schedule. Counts up to the interest-free
// limit split the price evenly; counts beyond it carry the configured
// per-installment surcharge rate.
func (e *Engine) installments(price float64) []Installment {
	schedule := make([]Installment, 0, e.plan.Max)
	for n := 1; n <= e.plan.Max; n++ {
		interestFree := n <= e.plan.InterestFreeUpTo
		entry := Installment{
			Count:        n,
			Amount:       roundToCents(price / float64(n)),
			InterestFree: interestFree,
		}
		if !interestFree {
			entry.SurchargeRate = e.plan.MonthlyRate
		}
		schedule = append(schedule, entry)
	}
	return schedule
}

// roundUpToSuffix rounds v up to the nearest value whose fractional part is
// the given suffix, never dropping below v. A small epsilon absorbs float
// noise so values already on the suffix stay put.
func roundUpToSuffix(v, suffix float64) float64 {
	const eps = 1e-9
	candidate := math.Floor(v) + suffix
	if candidate+eps < v {
		candidate++
	}
	return roundToCents(candidate)
}

func roundToCents(v float64) float64 {
	return math.Round(v*100) / 100
}
