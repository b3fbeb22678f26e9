// Package validator wraps go-playground validation with translated,
// field-level error messages for the portal's request payloads.
package validator

import (
	"reflect"
	"strings"
	"time"

	locale "github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	translations "github.com/go-playground/validator/v10/translations/en"
)

const adultAge = 18

// Validator validates payload structs and renders violations as per-field
// messages.
type Validator struct {
	validate *validator.Validate
	trans    ut.Translator
}

// New creates a Validator with English translations and the portal's custom
// rules registered.
func New() (*Validator, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())

	// Violations are keyed by the json field name the client actually sent.
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	enLocale := locale.New()
	uni := ut.New(enLocale, enLocale)
	trans, _ := uni.GetTranslator("en")

	if err := translations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, err
	}

	// "adult" applies to date-of-birth fields: the birthday must be at least
	// eighteen years in the past.
	if err := validate.RegisterValidation("adult", validateAdult); err != nil {
		return nil, err
	}

	err := validate.RegisterTranslation("adult", trans,
		func(ut ut.Translator) error {
			return ut.Add("adult", "{0} must correspond to an age of at least 18", true)
		},
		func(ut ut.Translator, fe validator.FieldError) string {
			msg, _ := ut.T("adult", fe.Field())
			return msg
		},
	)
	if err != nil {
		return nil, err
	}

	return &Validator{validate: validate, trans: trans}, nil
}

// Struct validates s and returns a field → message map, or nil when s is
// valid.
func (v *Validator) Struct(s any) map[string]string {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return map[string]string{"_": err.Error()}
	}

	fields := make(map[string]string, len(validationErrors))
	for _, fe := range validationErrors {
		fields[fe.Field()] = fe.Translate(v.trans)
	}

	return fields
}

func validateAdult(fl validator.FieldLevel) bool {
	dob, ok := fl.Field().Interface().(time.Time)
	if !ok {
		return false
	}

	return !dob.AddDate(adultAge, 0, 0).After(time.Now())
}
