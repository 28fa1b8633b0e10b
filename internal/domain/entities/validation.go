package entities

import (
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	apperrors "github.com/Aftab48/Haemologix-sub000/pkg/errors"
)

var validate = validator.New()

// validateStruct runs the struct tags of v and converts failures into a
// single VALIDATION error naming every offending field.
func validateStruct(kind string, v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !stderrors.As(err, &verrs) {
		return apperrors.NewValidationErrorf("invalid %s: %v", kind, err)
	}

	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fmt.Sprintf("%s (%s=%v)", fe.Namespace(), fe.Tag(), fe.Value()))
	}
	return apperrors.NewValidationErrorf("invalid %s: %s", kind, strings.Join(fields, ", "))
}
