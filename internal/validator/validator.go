package validator

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/models"
)

var (
	employeeIDPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]{2,49}$`)
	slugPattern       = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)
	langPattern       = regexp.MustCompile(`^[a-z]{2}$`)
)

// ValidationError represents a single field failure
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
	Rule    string      `json:"rule,omitempty"`
}

type ValidationErrors []ValidationError

func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "validation failed"
	}
	if len(ve) == 1 {
		return fmt.Sprintf("validation failed: %s %s", ve[0].Field, ve[0].Message)
	}
	return fmt.Sprintf("validation failed: %d field errors", len(ve))
}

// Validator wraps go-playground/validator with the service's custom rules
type Validator struct {
	validate *validator.Validate
}

func New() *Validator {
	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	v := &Validator{validate: validate}
	v.registerRules()
	return v
}

// Validate returns ValidationErrors, or nil when s is valid
func (v *Validator) Validate(s interface{}) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return ValidationErrors{{Field: "body", Message: err.Error()}}
	}

	out := make(ValidationErrors, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out = append(out, ValidationError{
			Field:   fe.Field(),
			Message: message(fe),
			Value:   safeValue(fe),
			Rule:    fe.Tag(),
		})
	}
	return out
}

func (v *Validator) registerRules() {
	v.validate.RegisterValidation("employee_id", func(fl validator.FieldLevel) bool {
		return employeeIDPattern.MatchString(fl.Field().String())
	})

	v.validate.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		return len(s) <= 120 && slugPattern.MatchString(s)
	})

	v.validate.RegisterValidation("lang_code", func(fl validator.FieldLevel) bool {
		return langPattern.MatchString(fl.Field().String())
	})

	v.validate.RegisterValidation("user_role", func(fl validator.FieldLevel) bool {
		return models.UserRole(fl.Field().String()).Valid()
	})

	v.validate.RegisterValidation("content_mode", func(fl validator.FieldLevel) bool {
		return models.ContentMode(fl.Field().String()).Valid()
	})

	// An empty contact field clears it
	v.validate.RegisterValidation("contact_email", func(fl validator.FieldLevel) bool {
		s := strings.TrimSpace(fl.Field().String())
		return s == "" || (len(s) <= 200 && v.validate.Var(s, "email") == nil)
	})

	v.validate.RegisterValidation("contact_mobile", func(fl validator.FieldLevel) bool {
		s := strings.TrimSpace(fl.Field().String())
		return s == "" || (len(s) >= 7 && len(s) <= 20)
	})

	// Names are trimmed before storage, so blank input is not a name
	v.validate.RegisterValidation("name", func(fl validator.FieldLevel) bool {
		s := strings.TrimSpace(fl.Field().String())
		return s != "" && len(s) <= 150
	})
}

// Passwords and other secrets are never echoed back
func safeValue(fe validator.FieldError) interface{} {
	lower := strings.ToLower(fe.Field())
	if strings.Contains(lower, "password") {
		return nil
	}
	return fe.Value()
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "email", "contact_email":
		return "must be a valid email address"
	case "contact_mobile":
		return "must be 7-20 characters"
	case "nefield":
		return fmt.Sprintf("must differ from %s", fe.Param())
	case "employee_id":
		return "must be 3-50 letters, digits, '-' or '_'"
	case "slug":
		return "must be lowercase words separated by '-'"
	case "lang_code":
		return "must be a two-letter language code"
	case "user_role":
		return "must be BASIC or ADMIN"
	case "content_mode":
		return "must be training or assessment"
	case "name":
		return "must not be blank"
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}
