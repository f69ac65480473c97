package studentform

import (
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

const (
	ScoreMin = 1
	ScoreMax = 14

	scoreTag = "score"
)

var (
	validatorOnce sync.Once
	validate      *validator.Validate
	translator    ut.Translator

	customTexts = map[string]string{
		"required":    "{0} is required.",
		"required_if": "{0} is required when the OSHA 10 exam is passed.",
		"email":       "{0} must be a valid email address.",
		"datetime":    "{0} must be a date in YYYY-MM-DD format.",
		"max":         "{0} is too long.",
		scoreTag:      "{0} must be between 1 and 14.",
	}
)

func validatorInstance() (*validator.Validate, ut.Translator) {
	validatorOnce.Do(func() {
		english := en.New()
		uni := ut.New(english, english)
		translator, _ = uni.GetTranslator("en")

		validate = validator.New()
		_ = en_translations.RegisterDefaultTranslations(validate, translator)

		// Error keys follow the JSON field names used by the form.
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})

		_ = validate.RegisterValidation(scoreTag, scoreValidation)
		for tag, text := range customTexts {
			registerTranslation(validate, translator, tag, text)
		}
	})
	return validate, translator
}

func registerTranslation(v *validator.Validate, trans ut.Translator, tag, text string) {
	_ = v.RegisterTranslation(
		tag, trans,
		func(t ut.Translator) error { return t.Add(tag, text, true) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(tag, labelFor(fe.Field()))
			return s
		},
	)
}

func scoreValidation(fl validator.FieldLevel) bool {
	n := fl.Field().Int()
	return n >= ScoreMin && n <= ScoreMax
}
