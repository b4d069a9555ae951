package service

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	if err := v.RegisterValidation("notblank", validators.NotBlank); err != nil {
		panic(err)
	}
	return v
}

// check validates input struct tags and wraps failures in ErrValidation.
func check(input any) error {
	if err := validate.Struct(input); err != nil {
		return fmt.Errorf("%w: %w", ErrValidation, err)
	}
	return nil
}
