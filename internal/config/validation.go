package config

import (
	"errors"
	"fmt"
	"math"
	"regexp"

	"github.com/go-playground/validator/v10"
	"github.com/yourusername/clever-tipster/internal/models"
)

const priorSumTolerance = 1e-6

// CustomValidator wraps the validator with custom validation rules
type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator creates a new validator with custom validation functions
func NewValidator() *CustomValidator {
	v := validator.New()

	v.RegisterValidation("environment", validateEnvironment)
	v.RegisterValidation("loglevel", validateLogLevel)
	v.RegisterValidation("kombisizes", validateKombiSizes)

	return &CustomValidator{validator: v}
}

// Validate validates the entire configuration
func Validate(cfg *Config) error {
	return NewValidator().Validate(cfg)
}

// Validate validates the configuration using registered validation rules
func (cv *CustomValidator) Validate(cfg *Config) error {
	if err := cv.validator.Struct(cfg); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			return formatValidationErrors(validationErrors)
		}
		return fmt.Errorf("%w: %v", models.ErrInvalidConfiguration, err)
	}

	return validateCrossField(cfg)
}

func validateEnvironment(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "development", "staging", "production":
		return true
	default:
		return false
	}
}

func validateLogLevel(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "debug", "info", "warn", "error":
		return true
	default:
		return false
	}
}

// validateKombiSizes requires at least one ticket size, each at least 2 and unique
func validateKombiSizes(fl validator.FieldLevel) bool {
	sizes, ok := fl.Field().Interface().([]int)
	if !ok || len(sizes) == 0 {
		return false
	}
	seen := make(map[int]bool, len(sizes))
	for _, k := range sizes {
		if k < 2 || seen[k] {
			return false
		}
		seen[k] = true
	}
	return true
}

// validateCrossField performs checks that span fields or need the stage rules
func validateCrossField(cfg *Config) error {
	b := cfg.Pipeline.Bias
	for name, w := range map[string]float64{
		"drift":     b.Weights.Drift,
		"market":    b.Weights.Market,
		"model_dev": b.Weights.ModelDev,
		"form":      b.Weights.Form,
	} {
		if w < 0 || math.IsNaN(w) {
			return fmt.Errorf("%w: bias weight %s must be non-negative", models.ErrInvalidConfiguration, name)
		}
	}
	if b.ShrinkStrength < 0 || b.ShrinkStrength > 1 {
		return fmt.Errorf("%w: shrink_strength must be between 0 and 1", models.ErrInvalidConfiguration)
	}
	if err := validatePriorSum("default", b.DefaultPrior); err != nil {
		return err
	}
	for league, p := range b.LeaguePriors {
		if err := validatePriorSum(league, p); err != nil {
			return err
		}
	}

	if cfg.Pipeline.Kombi.MaxRisk < 0 {
		return fmt.Errorf("%w: kombi max_risk must be non-negative", models.ErrInvalidConfiguration)
	}

	if cfg.Scheduler.Enabled && cfg.Feed.URL == "" && cfg.Feed.File == "" {
		return fmt.Errorf("%w: scheduler requires feed.url or feed.file", models.ErrInvalidConfiguration)
	}

	if cfg.IsProduction() && cfg.Database.Enabled && cfg.Database.SSLMode == "disable" {
		return fmt.Errorf("%w: production environment requires SSL mode to be 'require' or 'verify-full'", models.ErrInvalidConfiguration)
	}

	pc := cfg.ToPipelineConfig()
	for _, check := range []func() error{
		pc.Validate,
		pc.Fusion.Validate,
		pc.Bias.Validate,
		pc.Strategy.Validate,
		pc.Kombi.Validate,
	} {
		if err := check(); err != nil {
			return err
		}
	}
	return nil
}

func validatePriorSum(league string, p PriorConfig) error {
	if math.Abs(p.Home+p.Draw+p.Away-1) > priorSumTolerance {
		return fmt.Errorf("%w: prior for %q must sum to 1, got %.4f", models.ErrInvalidConfiguration, league, p.Home+p.Draw+p.Away)
	}
	return nil
}

// formatValidationErrors formats validation errors into a readable string
func formatValidationErrors(validationErrors validator.ValidationErrors) error {
	var errMsg string
	for _, fieldError := range validationErrors {
		field := fieldError.StructField()
		tag := fieldError.Tag()
		value := fieldError.Value()

		switch tag {
		case "required", "required_if":
			errMsg += fmt.Sprintf("- Field '%s' is required\n", field)
		case "url":
			errMsg += fmt.Sprintf("- Field '%s' must be a valid URL, got '%v'\n", field, value)
		case "min", "max":
			errMsg += fmt.Sprintf("- Field '%s' validation failed: %s constraint violated\n", field, tag)
		case "gt", "gte", "lt", "lte":
			errMsg += fmt.Sprintf("- Field '%s' validation failed: numeric constraint %s violated\n", field, tag)
		case "environment":
			errMsg += fmt.Sprintf("- Field '%s' must be one of: development, staging, production\n", field)
		case "loglevel":
			errMsg += fmt.Sprintf("- Field '%s' must be one of: debug, info, warn, error\n", field)
		case "kombisizes":
			errMsg += fmt.Sprintf("- Field '%s' must list unique ticket sizes of at least 2, got %v\n", field, value)
		case "oneof":
			errMsg += fmt.Sprintf("- Field '%s' has invalid value '%v'\n", field, value)
		default:
			errMsg += fmt.Sprintf("- Field '%s' failed validation: %s\n", field, tag)
		}
	}
	return fmt.Errorf("%w:\n%s", models.ErrInvalidConfiguration, errMsg)
}

// ValidateEnvironment validates environment-specific requirements
func ValidateEnvironment(cfg *Config) error {
	if cfg.IsProduction() {
		if cfg.Database.Enabled && cfg.Database.SSLMode == "disable" {
			return fmt.Errorf("production environment requires database SSL mode to be 'require' or 'verify-full'")
		}
		if cfg.Feed.URL != "" && isTestCredential(cfg.Feed.APIKey) {
			return fmt.Errorf("production environment should not use test feed credentials")
		}
	}
	return nil
}

// isTestCredential checks if a credential looks like a test credential
func isTestCredential(credential string) bool {
	testPatterns := []string{
		"test", "demo", "example", "placeholder", "YOUR_",
	}

	for _, pattern := range testPatterns {
		if match, _ := regexp.MatchString("(?i)"+pattern, credential); match {
			return true
		}
	}

	return false
}
