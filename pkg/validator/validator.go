package validator

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/johnquangdev/atc-shift-analyzer/pkg/isotime"
)

// rotation patterns such as 2-2-1 or 5-2
var rotationPattern = regexp.MustCompile(`^\d+(-\d+)+$`)

var namedSchedules = map[string]bool{
	"day":      true,
	"night":    true,
	"mid":      true,
	"swing":    true,
	"rotating": true,
	"split":    true,
	"fixed":    true,
}

// CustomValidator implements echo.Validator using go-playground/validator
type CustomValidator struct {
	v *validator.Validate
}

// New creates a new CustomValidator instance
func New() *CustomValidator {
	v := validator.New()
	v.RegisterTagNameFunc(fieldName)
	// both are registered on a fresh instance and cannot fail
	_ = v.RegisterValidation("iso8601", validateISO8601)
	_ = v.RegisterValidation("schedule", validateSchedule)
	return &CustomValidator{v: v}
}

// Validate performs struct validation
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.v.Struct(i)
}

// fieldName reports fields by their json or form name
func fieldName(f reflect.StructField) string {
	for _, tag := range []string{"json", "form"} {
		name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
		if name != "" && name != "-" {
			return name
		}
	}
	return toSnake(f.Name)
}

func validateISO8601(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	return isotime.Valid(value)
}

func validateSchedule(fl validator.FieldLevel) bool {
	value := strings.TrimSpace(strings.ToLower(fl.Field().String()))
	if value == "" {
		return true
	}
	return rotationPattern.MatchString(value) || namedSchedules[value]
}

// Messages turns validation errors into field -> message pairs
func Messages(err error) map[string]string {
	out := map[string]string{}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		if err != nil {
			out["request"] = err.Error()
		}
		return out
	}
	for _, fe := range verrs {
		field := fe.Field()
		switch fe.Tag() {
		case "required":
			out[field] = "is required"
		case "iso8601":
			out[field] = "must be an ISO-8601 timestamp"
		case "schedule":
			out[field] = "must be a rotation like 2-2-1 or a named schedule"
		case "min", "gte":
			out[field] = fmt.Sprintf("must be at least %s", fe.Param())
		case "max", "lte":
			out[field] = fmt.Sprintf("must be at most %s", fe.Param())
		case "oneof":
			out[field] = fmt.Sprintf("must be one of %s", fe.Param())
		default:
			out[field] = fmt.Sprintf("failed %s validation", fe.Tag())
		}
	}
	return out
}

func toSnake(s string) string {
	var b strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 && s[i-1] >= 'a' && s[i-1] <= 'z' {
				b.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}
