package validation

import (
	"errors"
	"reflect"
	"strings"
	"sync"
	"time"

	apperrors "github.com/frahmantamala/expense-console/internal"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

// DateLayout is the wire format of calendar dates.
const DateLayout = "2006-01-02"

// Now is the clock used by date rules.
var Now = time.Now

type Validator struct {
	validate   *validator.Validate
	translator ut.Translator
}

var (
	defaultValidator *Validator
	once             sync.Once
)

// Default returns the shared validator, building it on first use.
func Default() *Validator {
	once.Do(func() {
		v, err := New()
		if err != nil {
			panic(err)
		}
		defaultValidator = v
	})
	return defaultValidator
}

func New() (*Validator, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())
	english := en.New()
	uni := ut.New(english, english)
	trans, _ := uni.GetTranslator("en")
	if err := en_translations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, err
	}

	validate.RegisterTagNameFunc(fieldName)

	if err := validate.RegisterValidation("notfuture", notFuture); err != nil {
		return nil, err
	}
	if err := validate.RegisterValidation("isodate", isoDate); err != nil {
		return nil, err
	}

	overrides := map[string]string{
		"required":  "{0} is required",
		"notfuture": "{0} cannot be in the future",
		"isodate":   "{0} must be a date in YYYY-MM-DD format",
		"gt":        "{0} must be greater than {1}",
		"eqfield":   "{0} must match {1}",
		"email":     "{0} must be a valid email address",
	}
	for tag, text := range overrides {
		if err := registerMessage(validate, trans, tag, text); err != nil {
			return nil, err
		}
	}

	return &Validator{validate: validate, translator: trans}, nil
}

// Struct validates v and returns a validation AppError carrying one entry per
// failing field, or nil.
func (v *Validator) Struct(s any) *apperrors.AppError {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return apperrors.NewInternalError("validation failed", err)
	}

	details := apperrors.ValidationErrors{Errors: make([]apperrors.ValidationError, 0, len(fieldErrs))}
	for _, fe := range fieldErrs {
		details.Errors = append(details.Errors, apperrors.ValidationError{
			Field:   fe.Field(),
			Message: fe.Translate(v.translator),
			Code:    codeFor(fe.Tag()),
		})
	}

	return apperrors.NewValidationError("Validation failed", apperrors.ErrCodeValidationFailed).
		WithDetails(details)
}

// Struct validates s with the shared validator.
func Struct(s any) *apperrors.AppError {
	return Default().Struct(s)
}

// ParseDate parses a YYYY-MM-DD date in the local time zone.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, time.Local)
}

// IsFutureDate reports whether d falls after today.
func IsFutureDate(d time.Time) bool {
	now := Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	day := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, now.Location())
	return day.After(today)
}

func notFuture(fl validator.FieldLevel) bool {
	field := fl.Field()
	switch field.Kind() {
	case reflect.String:
		if field.String() == "" {
			return true
		}
		d, err := ParseDate(field.String())
		if err != nil {
			// format errors are reported by isodate
			return true
		}
		return !IsFutureDate(d)
	case reflect.Struct:
		if t, ok := field.Interface().(time.Time); ok {
			return !IsFutureDate(t)
		}
	}
	return false
}

func isoDate(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if s == "" {
		return true
	}
	_, err := ParseDate(s)
	return err == nil
}

func fieldName(f reflect.StructField) string {
	for _, tag := range []string{"form", "json"} {
		name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
		if name != "" {
			return name
		}
	}
	return f.Name
}

// label turns a form field name such as expense_date into "Expense date".
func label(name string) string {
	name = strings.ReplaceAll(name, "_", " ")
	if name == "" {
		return name
	}
	return strings.ToUpper(name[:1]) + name[1:]
}

func registerMessage(validate *validator.Validate, trans ut.Translator, tag, text string) error {
	return validate.RegisterTranslation(tag, trans,
		func(ut ut.Translator) error {
			return ut.Add(tag, text, true)
		},
		func(ut ut.Translator, fe validator.FieldError) string {
			msg, err := ut.T(tag, label(fe.Field()), label(fe.Param()))
			if err != nil {
				return fe.Error()
			}
			return msg
		},
	)
}

func codeFor(tag string) string {
	switch tag {
	case "required":
		return string(apperrors.ErrCodeRequiredFields)
	case "notfuture", "isodate":
		return string(apperrors.ErrCodeInvalidDate)
	case "eqfield":
		return string(apperrors.ErrCodePasswordMismatch)
	}
	return string(apperrors.ErrCodeValidationFailed)
}
