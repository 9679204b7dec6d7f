package httpx

import (
	"io"
	"reflect"
	"strings"

	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"github.com/mbolis/quick-forms/model"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	v.RegisterValidation("questiontype", func(fl validator.FieldLevel) bool {
		return model.QuestionType(fl.Field().String()).Valid()
	})
	return v
}

// ErrBadBody is returned by Decode when the body is not valid JSON.
type ErrBadBody struct {
	Err error
}

func (e ErrBadBody) Error() string {
	return "invalid request body: " + e.Err.Error()
}

func (e ErrBadBody) Unwrap() error {
	return e.Err
}

// Decode reads a JSON body into dst and validates it.
func Decode(body io.Reader, dst any) error {
	if err := render.DecodeJSON(body, dst); err != nil {
		return ErrBadBody{err}
	}
	return Validate(dst)
}

// Validate checks the validate tags of a struct.
func Validate(v any) error {
	return validate.Struct(v)
}
