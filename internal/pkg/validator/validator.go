package validator

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validator instance
var validate *validator.Validate

func init() {
	validate = validator.New()

	// Use JSON tag names in error messages
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	registerCustomValidations()
}

func registerCustomValidations() {
	// Credit adjustment action
	validate.RegisterValidation("adjust_action", func(fl validator.FieldLevel) bool {
		action := fl.Field().String()
		for _, a := range []string{"add", "subtract", "set"} {
			if action == a {
				return true
			}
		}
		return false
	})

	// Validation provider channel
	validate.RegisterValidation("channel", func(fl validator.FieldLevel) bool {
		channel := fl.Field().String()
		for _, c := range []string{"telegram", "whatsapp"} {
			if channel == c {
				return true
			}
		}
		return false
	})

	// Admin role
	validate.RegisterValidation("admin_role", func(fl validator.FieldLevel) bool {
		role := fl.Field().String()
		for _, r := range []string{"super_admin", "admin", "support"} {
			if role == r {
				return true
			}
		}
		return false
	})

	// E.164-ish phone number: +, 7 to 15 digits
	validate.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		phone := fl.Field().String()
		if !strings.HasPrefix(phone, "+") {
			return false
		}
		digits := phone[1:]
		if len(digits) < 7 || len(digits) > 15 {
			return false
		}
		for _, r := range digits {
			if r < '0' || r > '9' {
				return false
			}
		}
		return true
	})
}

// Validate validates a struct and returns a map of field errors
func Validate(s interface{}) map[string]string {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	errors := make(map[string]string)
	for _, err := range err.(validator.ValidationErrors) {
		field := err.Field()
		switch err.Tag() {
		case "required":
			errors[field] = "This field is required"
		case "email":
			errors[field] = "Invalid email format"
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
		case "adjust_action":
			errors[field] = "Invalid action. Must be: add, subtract, or set"
		case "channel":
			errors[field] = "Invalid channel. Must be: telegram or whatsapp"
		case "admin_role":
			errors[field] = "Invalid role. Must be: super_admin, admin, or support"
		case "phone":
			errors[field] = "Invalid phone number. Expected E.164 format, e.g. +79991234567"
		default:
			errors[field] = "Invalid value"
		}
	}

	return errors
}

// ValidateVar validates a single variable
func ValidateVar(field interface{}, tag string) error {
	return validate.Var(field, tag)
}
