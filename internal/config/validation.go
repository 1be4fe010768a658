// Package config provides configuration management for the PuntGuard service.
package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/yourusername/puntguard/internal/models"
)

// CustomValidator wraps the validator with custom validation rules
type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator creates a new validator with custom validation functions
func NewValidator() *CustomValidator {
	v := validator.New()

	v.RegisterValidation("environment", validateEnvironment)
	v.RegisterValidation("loglevel", validateLogLevel)
	v.RegisterValidation("stakingmethod", validateStakingMethod)

	return &CustomValidator{validator: v}
}

// Validate validates the entire configuration
func Validate(cfg *Config) error {
	cv := NewValidator()
	return cv.Validate(cfg)
}

// Validate validates the configuration using registered validation rules
func (cv *CustomValidator) Validate(cfg *Config) error {
	err := cv.validator.Struct(cfg)
	if err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			return formatValidationErrors(validationErrors)
		}
		return fmt.Errorf("validation failed: %w", err)
	}

	return validateCrossField(cfg)
}

// validateEnvironment validates the environment field
func validateEnvironment(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "development", "staging", "production":
		return true
	default:
		return false
	}
}

// validateLogLevel validates the log level field
func validateLogLevel(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "debug", "info", "warn", "error":
		return true
	default:
		return false
	}
}

// validateStakingMethod validates the staking method variant
func validateStakingMethod(fl validator.FieldLevel) bool {
	return models.StakingMethod(fl.Field().String()).Valid()
}

// validateCrossField enforces constraints spanning multiple fields
func validateCrossField(cfg *Config) error {
	names := make(map[string]bool, len(cfg.Staking.Plans))
	for _, plan := range cfg.Staking.Plans {
		if names[plan.Name] {
			return fmt.Errorf("duplicate staking plan name %q", plan.Name)
		}
		names[plan.Name] = true

		switch plan.Method {
		case models.StakingMethodFixedFraction:
			if plan.FixedPercent <= 0 {
				return fmt.Errorf("staking plan %q: fixed_percent must be positive for fixed_fraction", plan.Name)
			}
		case models.StakingMethodProportional:
			if plan.BasePercent <= 0 || plan.ReferenceOdds <= 0 {
				return fmt.Errorf("staking plan %q: base_percent and reference_odds must be positive for proportional", plan.Name)
			}
		}
	}

	if !names[cfg.Staking.DefaultPlan] {
		return fmt.Errorf("default staking plan %q is not configured", cfg.Staking.DefaultPlan)
	}

	return nil
}

func formatValidationErrors(errs validator.ValidationErrors) error {
	messages := make([]string, 0, len(errs))
	for _, e := range errs {
		messages = append(messages, fmt.Sprintf("%s failed on %s", e.Namespace(), e.Tag()))
	}
	return fmt.Errorf("configuration invalid: %s", strings.Join(messages, "; "))
}
