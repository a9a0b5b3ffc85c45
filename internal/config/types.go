package config

import (
	"time"

	"github.com/storeops/catalogctl/internal/collections"
	"github.com/storeops/catalogctl/internal/pricing"
)

// Config represents the full pipeline configuration document.
type Config struct {
	// SourceTag is the src: value stamped onto products during enrichment.
	SourceTag       string                  `yaml:"source_tag" validate:"required,tag_value"`
	PageSize        int                     `yaml:"page_size,omitempty" validate:"omitempty,min=1,max=250"`
	WriteIntervalMs int                     `yaml:"write_interval_ms,omitempty" validate:"min=0,max=60000"`
	DryRun          bool                    `yaml:"dry_run,omitempty"`
	Retry           RetrySettings           `yaml:"retry,omitempty"`
	Installments    InstallmentSettings     `yaml:"installments,omitempty"`
	Pricing         map[string]pricing.Rule `yaml:"pricing" validate:"required,min=1"`
	Collections     map[string][]string     `yaml:"collections,omitempty" validate:"omitempty,dive,min=1,dive,required,collection_id"`
}

// RetrySettings tunes the retry policy applied to transient store failures.
type RetrySettings struct {
	MaxAttempts int     `yaml:"max_attempts,omitempty" validate:"omitempty,min=1,max=10"`
	BaseDelayMs int     `yaml:"base_delay_ms,omitempty" validate:"omitempty,min=1,max=60000"`
	MaxDelayMs  int     `yaml:"max_delay_ms,omitempty" validate:"omitempty,min=1,max=300000"`
	Jitter      float64 `yaml:"jitter,omitempty" validate:"gte=0,lte=1"`
}

// InstallmentSettings configures the checkout installment schedule.
type InstallmentSettings struct {
	Max              int     `yaml:"max,omitempty" validate:"omitempty,min=1,max=24"`
	InterestFreeUpTo int     `yaml:"interest_free_up_to,omitempty" validate:"omitempty,min=0,max=24"`
	MonthlyRate      float64 `yaml:"monthly_rate,omitempty" validate:"gte=0,lt=1"`
}

// RuleSet returns the pricing rules as the engine consumes them.
func (c *Config) RuleSet() pricing.RuleSet {
	rules := make(pricing.RuleSet, len(c.Pricing))
	for category, rule := range c.Pricing {
		rules[category] = rule
	}
	return rules
}

// CollectionRules returns the category to collection mapping.
func (c *Config) CollectionRules() collections.Rules {
	return collections.NewRules(c.Collections)
}

// InstallmentPlan returns the installment policy for the pricing engine.
func (c *Config) InstallmentPlan() pricing.InstallmentPlan {
	return pricing.InstallmentPlan{
		Max:              c.Installments.Max,
		InterestFreeUpTo: c.Installments.InterestFreeUpTo,
		MonthlyRate:      c.Installments.MonthlyRate,
	}
}

// WriteInterval returns the minimum spacing between repository writes.
func (c *Config) WriteInterval() time.Duration {
	return time.Duration(c.WriteIntervalMs) * time.Millisecond
}
