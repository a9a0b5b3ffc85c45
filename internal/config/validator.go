package config

import (
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	pkgerrors "github.com/storeops/catalogctl/pkg/errors"
)

var (
	validatorOnce sync.Once
	validateInst  *validator.Validate

	tagValuePattern     = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*$`)
	collectionIDPattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_-]*$`)
)

// validatorInstance configures and returns the shared validator instance used
// across the config package.
func validatorInstance() *validator.Validate {
	validatorOnce.Do(func() {
		v := validator.New()

		_ = v.RegisterValidation("tag_value", func(fl validator.FieldLevel) bool {
			return tagValuePattern.MatchString(fl.Field().String())
		})

		_ = v.RegisterValidation("collection_id", func(fl validator.FieldLevel) bool {
			return collectionIDPattern.MatchString(fl.Field().String())
		})

		validateInst = v
	})
	return validateInst
}

// ValidateConfig performs structural and cross-field validation on an entire
// configuration document.
func ValidateConfig(cfg *Config) error {
	if cfg == nil {
		return pkgerrors.NewValidationError("config", "configuration is nil", nil)
	}

	v := validatorInstance()
	if err := v.Struct(cfg); err != nil {
		return convertValidationError(err)
	}

	for category := range cfg.Pricing {
		if !tagValuePattern.MatchString(category) {
			return pkgerrors.NewValidationError("pricing", fmt.Sprintf("invalid category key %q", category), nil)
		}
	}
	for category := range cfg.Collections {
		if !tagValuePattern.MatchString(category) {
			return pkgerrors.NewValidationError("collections", fmt.Sprintf("invalid category key %q", category), nil)
		}
	}

	// Rule-level checks (markup, rates, mandatory default) share the
	// pricing engine's own validation so the two can never drift.
	if err := cfg.RuleSet().Validate(); err != nil {
		return pkgerrors.NewValidationError("pricing", err.Error(), err)
	}

	return nil
}

func convertValidationError(err error) error {
	var fieldErrors validator.ValidationErrors
	if ok := asValidationErrors(err, &fieldErrors); !ok {
		return pkgerrors.NewValidationError("config", err.Error(), err)
	}

	first := fieldErrors[0]
	field := strings.TrimPrefix(first.Namespace(), "Config.")
	return pkgerrors.NewValidationError(field, fmt.Sprintf("failed %q constraint", first.Tag()), err)
}

func asValidationErrors(err error, target *validator.ValidationErrors) bool {
	fieldErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return false
	}
	*target = fieldErrors
	return true
}
