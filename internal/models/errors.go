package models

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	ErrUnauthorized       = errors.New("invalid or expired token")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrMentorNotFound     = errors.New("mentor data not found")
	ErrMemberNotFound     = errors.New("member not found")
	ErrNotFound           = errors.New("activity not found")
	ErrAlreadyJoined      = errors.New("you are already enrolled in this activity")
	ErrActivityFull       = errors.New("activity is full")
	ErrLogoutFailed       = errors.New("failed to log out")
)

// ValidationError is returned for input the caller has to fix before retrying.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func NewValidationError(format string, args ...any) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

var Validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// report json names so messages match what the client sent
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ValidateStruct runs the struct tags and converts failures to a *ValidationError.
func ValidateStruct(s any) error {
	if err := Validate.Struct(s); err != nil {
		return toValidationError(err)
	}
	return nil
}

func toValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fieldMessage(fe))
	}
	return &ValidationError{Message: strings.Join(msgs, "; ")}
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return field + " must be a valid email"
	case "max":
		return fmt.Sprintf("%s must have at most %s entries", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", field, fe.Param())
	case "datetime":
		return fmt.Sprintf("%s must match the layout %s", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	default:
		return field + " is invalid"
	}
}
