package config

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Validate checks the configuration against the struct-level validation
// rules declared via `validate` tags, for example port ranges and the
// gradebook URL shape.
func Validate(cfg *Config) error {
	validate := validator.New()

	if err := validate.Struct(cfg); err != nil {
		var invalid *validator.InvalidValidationError
		if errors.As(err, &invalid) {
			return fmt.Errorf("invalid configuration value: %w", err)
		}

		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			// Report the first failing field only.
			fe := verrs[0]
			return fmt.Errorf("invalid value for %s: failed %q constraint", fe.Namespace(), fe.Tag())
		}
		return err
	}

	return nil
}
