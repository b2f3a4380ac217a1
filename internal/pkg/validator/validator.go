package validator

import (
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// Validator instance
var validate *validator.Validate

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// oneOfMessages holds the error text of tags added through RegisterOneOf
var (
	oneOfMu       sync.RWMutex
	oneOfMessages = make(map[string]string)
)

func init() {
	validate = validator.New()

	// Use JSON tag names in error messages
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			name = strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
		}
		return name
	})

	registerCustomValidations()
}

func registerCustomValidations() {
	validate.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
		return slugPattern.MatchString(fl.Field().String())
	})
}

// RegisterOneOf adds a tag that accepts only the listed values and reports message on failure.
// Call it from package init; the underlying validator is not safe for concurrent registration.
func RegisterOneOf(tag string, values []string, message string) {
	allowed := append([]string(nil), values...)
	validate.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
		return contains(allowed, fl.Field().String())
	})

	oneOfMu.Lock()
	oneOfMessages[tag] = message
	oneOfMu.Unlock()
}

func oneOfMessage(tag string) (string, bool) {
	oneOfMu.RLock()
	defer oneOfMu.RUnlock()
	msg, ok := oneOfMessages[tag]
	return msg, ok
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

// Validate validates a struct and returns a map of field errors
func Validate(s interface{}) map[string]string {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return map[string]string{"_": err.Error()}
	}

	errors := make(map[string]string)
	for _, err := range validationErrors {
		field := err.Field()
		switch err.Tag() {
		case "required":
			errors[field] = "This field is required"
		case "min":
			errors[field] = "Value is too short (min: " + err.Param() + ")"
		case "max":
			errors[field] = "Value is too long (max: " + err.Param() + ")"
		case "gte":
			errors[field] = "Value must be at least " + err.Param()
		case "lte":
			errors[field] = "Value must be at most " + err.Param()
		case "url":
			errors[field] = "Invalid URL format"
		case "slug":
			errors[field] = "Must be lowercase letters, digits and single dashes"
		default:
			if msg, ok := oneOfMessage(err.Tag()); ok {
				errors[field] = msg
			} else {
				errors[field] = "Invalid value"
			}
		}
	}

	return errors
}

// ValidateVar validates a single variable
func ValidateVar(field interface{}, tag string) error {
	return validate.Var(field, tag)
}
