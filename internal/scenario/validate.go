package scenario

import (
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	apperrors "tsgen/internal/errors"
	"tsgen/pkg/contracts/domain"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func documentValidator() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New()
		v.RegisterValidation("date", isDate)

		// Use JSON tag names in error messages
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		validate = v
	})
	return validate
}

// Validate checks the structural rules of a document. Factor-specific rules
// are enforced when the factors are built.
func Validate(doc *Document) error {
	err := documentValidator().Struct(doc)
	if err == nil {
		return checkRange(doc)
	}

	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return apperrors.NewAppError(apperrors.ErrTypeValidation, "scenario validation failed", err)
	}

	fields := make([]apperrors.ValidationError, 0, len(fieldErrs))
	messages := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		ve := apperrors.ValidationError{Field: fieldPath(fe), Message: formatValidationError(fe)}
		fields = append(fields, ve)
		messages = append(messages, ve.Message)
	}
	return apperrors.NewAppValidationError("invalid scenario: "+strings.Join(messages, "; ")).
		WithContext("fields", fields)
}

func checkRange(doc *Document) error {
	start, _ := domain.ParseDate(doc.Start)
	end, _ := domain.ParseDate(doc.End)
	if end.Before(start) {
		return apperrors.NewAppValidationError(fmt.Sprintf("invalid scenario: end %s precedes start %s", doc.End, doc.Start)).
			WithContext("fields", []apperrors.ValidationError{{Field: "end", Message: "end must not precede start"}})
	}
	return nil
}

// fieldPath drops the root struct name from the namespace.
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

// formatValidationError formats validation error messages
func formatValidationError(fe validator.FieldError) string {
	field := fieldPath(fe)
	param := fe.Param()

	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, param)
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, param)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(param, " ", ", "))
	case "unique":
		return fmt.Sprintf("%s must not contain duplicates", field)
	case "date":
		return fmt.Sprintf("%s must be a date such as 2020-01-31", field)
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}

func isDate(fl validator.FieldLevel) bool {
	_, err := domain.ParseDate(fl.Field().String())
	return err == nil
}
