// Package validator provides custom validation functions for Gin's binding
// engine and a shared validator for decoded model payloads.
package validator

import (
	"regexp"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var familyIDRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]{0,63}$`)

var (
	shared     *validator.Validate
	sharedOnce sync.Once
)

// Register registers all custom validators with the Gin binding engine.
func Register() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		registerCustom(v)
	}
}

// Struct validates s against its `validate` tags using a standalone
// validator that knows the custom tags.
func Struct(s any) error {
	sharedOnce.Do(func() {
		shared = validator.New(validator.WithRequiredStructEnabled())
		registerCustom(shared)
	})
	return shared.Struct(s)
}

func registerCustom(v *validator.Validate) {
	_ = v.RegisterValidation("family_id", validateFamilyID)
}

func validateFamilyID(fl validator.FieldLevel) bool {
	return familyIDRegex.MatchString(fl.Field().String())
}
