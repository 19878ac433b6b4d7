// Package validation checks caller supplied input before it reaches the services.
// Failures are returned as *models.ValidationError listing every invalid field.
package validation

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/kscout/runboard-api/models"

	"gopkg.in/go-playground/validator.v9"
)

// validate is shared by every check, validator caches struct metadata
var validate *validator.Validate = newValidator()

// newValidator creates a validator which knows the custom tags and reports fields by
// their JSON names
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterValidation("outcome", validateOutcome)
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}

		return name
	})

	return v
}

// validateOutcome ensures a field holds one of the known models.Outcome values.
// Only works on models.Outcome fields.
func validateOutcome(fl validator.FieldLevel) bool {
	o, ok := fl.Field().Interface().(models.Outcome)
	if !ok {
		return false
	}

	return o.Valid()
}

// check validates s and converts validator failures into a *models.ValidationError
func check(s interface{}) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return fmt.Errorf("failed to validate: %s", err.Error())
	}

	verr := &models.ValidationError{}
	for _, fieldErr := range fieldErrs {
		verr.Fields = append(verr.Fields, models.FieldError{
			Field:   fieldPath(fieldErr.Namespace()),
			Message: message(fieldErr),
		})
	}

	return verr
}

// fieldPath removes the struct name from a validator namespace,
// ex., SubmissionInput.sections[0].name becomes sections[0].name
func fieldPath(namespace string) string {
	parts := strings.SplitN(namespace, ".", 2)
	if len(parts) < 2 {
		return namespace
	}

	return parts[1]
}

// message returns a user facing description of a failed validation tag
func message(fieldErr validator.FieldError) string {
	switch fieldErr.Tag() {
	case "required":
		return "is required"
	case "min":
		if fieldErr.Kind() == reflect.Slice {
			return fmt.Sprintf("must have at least %s item(s)", fieldErr.Param())
		}
		return fmt.Sprintf("must be at least %s character(s)", fieldErr.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fieldErr.Param())
	case "outcome":
		labels := []string{}
		for _, o := range models.Outcomes {
			labels = append(labels, o.String())
		}
		return fmt.Sprintf("must be one of %s", strings.Join(labels, ", "))
	default:
		return fmt.Sprintf("failed the %s check", fieldErr.Tag())
	}
}
