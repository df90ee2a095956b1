package api

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validator adapts validator/v10 to echo.Validator. Field names in errors are
// the JSON names clients send.
type Validator struct {
	validate *validator.Validate
}

func NewValidator() *Validator {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &Validator{validate: v}
}

func (v *Validator) Validate(i interface{}) error {
	return v.validate.Struct(i)
}
