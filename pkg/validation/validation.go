// Package validation wires go-playground/validator into gin binding and turns validation
// failures into per-field messages the client can show next to the offending input.
package validation

import (
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

const (
	notBlankTag  = "notblank"
	notBlankText = "{0} must not be blank"
)

var (
	once       sync.Once
	translator ut.Translator
)

// Setup registers tag names, custom tags and English messages on gin's validator. Safe to call
// more than once.
func Setup() {
	once.Do(func() {
		english := en.New()
		translator, _ = ut.New(english, english).GetTranslator("en")

		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		Register(v, translator)
	})
}

// Register configures v. Exposed for code that validates outside gin binding.
func Register(v *validator.Validate, trans ut.Translator) {
	_ = en_translations.RegisterDefaultTranslations(v, trans)

	// report JSON / form names instead of Go field names
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		for _, tag := range []string{"json", "form"} {
			name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return fld.Name
	})

	_ = v.RegisterValidation(notBlankTag, func(fl validator.FieldLevel) bool {
		return !IsBlank(fl.Field().String())
	})
	_ = v.RegisterTranslation(notBlankTag, trans,
		func(t ut.Translator) error { return t.Add(notBlankTag, notBlankText, true) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(notBlankTag, fe.Field())
			return s
		},
	)
}

// IsBlank reports whether s is empty or whitespace only.
func IsBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// Messages converts a binding error into field -> message. Errors that are not validation
// errors (malformed JSON and the like) come back under the "body" key.
func Messages(err error) map[string]string {
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		out := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			key := fieldKey(fe)
			if translator != nil {
				out[key] = fe.Translate(translator)
			} else {
				out[key] = fe.Error()
			}
		}
		return out
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return map[string]string{typeErr.Field: "has the wrong type"}
	}

	return map[string]string{"body": "malformed request body"}
}

// fieldKey drops the root struct name from the namespace: "CreateEventRequest.schedule[0].time"
// becomes "schedule[0].time".
func fieldKey(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}
