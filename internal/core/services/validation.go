package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/SscSPs/study_coins/internal/apperrors"
	"github.com/go-playground/validator/v10"
)

// validate is shared by all services; validator.Validate caches struct metadata and is safe for concurrent use.
var validate = validator.New()

// validateStruct runs the `validate` tags of v and reports failures as apperrors.ErrValidation.
func validateStruct(v interface{}) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		msgs := make([]string, 0, len(fieldErrs))
		for _, fe := range fieldErrs {
			if fe.Param() != "" {
				msgs = append(msgs, fmt.Sprintf("%s failed %s=%s", fe.Field(), fe.Tag(), fe.Param()))
			} else {
				msgs = append(msgs, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
			}
		}
		return fmt.Errorf("%w: %s", apperrors.ErrValidation, strings.Join(msgs, "; "))
	}
	return fmt.Errorf("%w: %w", apperrors.ErrValidation, err)
}
