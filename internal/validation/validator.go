// Package validation checks request and catalog structs against their
// `validate` tags.  Field names in messages follow the json tags so that
// callers see the names they sent.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var std = newValidate()

func newValidate() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

// Struct validates s and reports the first failing field in plain words.
func Struct(s any) error {
	err := std.Struct(s)
	if err == nil {
		return nil
	}
	var fields validator.ValidationErrors
	if !errors.As(err, &fields) || len(fields) == 0 {
		return err
	}
	return errors.New(describe(fields[0]))
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "min", "gte":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "max", "lte":
		return fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), strings.ReplaceAll(fe.Param(), " ", ", "))
	case "datetime":
		return fe.Field() + " must be YYYY-MM-DD"
	}
	return fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag())
}

// Echo plugs the validator into echo.Echo.Validator so handlers can call
// c.Validate after c.Bind.
type Echo struct{}

func (Echo) Validate(i any) error { return Struct(i) }
