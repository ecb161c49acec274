// Package validation validates request payloads at the form boundary so
// invalid input never reaches the network.
package validation

import (
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"memoria-client/internal/domain"
	appErrors "memoria-client/pkg/errors"
)

var (
	instance *validator.Validate
	once     sync.Once
)

// get returns the shared validator instance, configured on first use.
func get() *validator.Validate {
	once.Do(func() {
		v := validator.New()

		// Use JSON tag names in error messages
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})

		v.RegisterValidation("relationship", func(fl validator.FieldLevel) bool {
			_, err := domain.ParseRelationship(fl.Field().String())
			return err == nil
		})
		v.RegisterValidation("nodetype", func(fl validator.FieldLevel) bool {
			_, err := domain.ParseNodeType(fl.Field().String())
			return err == nil
		})
		v.RegisterValidation("mediatype", func(fl validator.FieldLevel) bool {
			_, err := domain.ParseMediaType(fl.Field().String())
			return err == nil
		})

		instance = v
	})
	return instance
}

// Struct validates a request struct against its tags, returning a
// validation error listing every offending field.
func Struct(s any) error {
	if err := get().Struct(s); err != nil {
		var invalid *validator.InvalidValidationError
		if ok := isInvalid(err, &invalid); ok {
			return appErrors.NewInternal("invalid validation target", err)
		}

		var msgs []string
		for _, fe := range err.(validator.ValidationErrors) {
			msgs = append(msgs, describe(fe))
		}
		return appErrors.NewValidation(strings.Join(msgs, "; "))
	}
	return nil
}

func isInvalid(err error, target **validator.InvalidValidationError) bool {
	if e, ok := err.(*validator.InvalidValidationError); ok {
		*target = e
		return true
	}
	return false
}

// describe renders one field error as a user-facing message.
func describe(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return fmt.Sprintf("%s must be a valid email address", field)
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "relationship":
		return fmt.Sprintf("%s must be one of primary, associated, reference", field)
	case "nodetype":
		return fmt.Sprintf("%s must be one of event, person, timeline", field)
	case "mediatype":
		return fmt.Sprintf("%s must be one of image, video, audio", field)
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
