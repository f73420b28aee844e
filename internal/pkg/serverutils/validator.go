package serverutils

import (
	"errors"
	"fmt"
	"strings"

	"evoblast-be/internal/apperror"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ValidateRequest checks a request DTO against its validate tags and converts
// failures into a ValidationError so the error middleware maps them to 400.
func ValidateRequest(req interface{}) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	var errs validator.ValidationErrors
	if errors.As(err, &errs) {
		messages := make([]string, 0, len(errs))
		for _, fe := range errs {
			messages = append(messages, fmt.Sprintf("field '%s' failed on '%s'", fe.Field(), fe.Tag()))
		}
		return apperror.NewValidation("%s", strings.Join(messages, "; "))
	}
	return apperror.NewValidation("%s", err.Error())
}
