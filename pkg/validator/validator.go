package validator

import (
	"fmt"
	"strings"

	"go-variant-inventory/internal/model"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

type ErrorResponse struct {
	FailedField string
	Tag         string
	Value       string
}

var validate = validator.New()

func init() {
	// Register custom validation for UUID
	validate.RegisterValidation("uuid_required", func(fl validator.FieldLevel) bool {
		if id, ok := fl.Field().Interface().(uuid.UUID); ok {
			return id != uuid.Nil
		}
		return false
	})

	// txtype accepts restock | adjustment | return | sale
	validate.RegisterValidation("txtype", func(fl validator.FieldLevel) bool {
		switch v := fl.Field().Interface().(type) {
		case model.TransactionType:
			return v.Valid()
		case string:
			return model.TransactionType(v).Valid()
		}
		return false
	})
}

func ValidateStruct(data interface{}) []*ErrorResponse {
	var errors []*ErrorResponse
	err := validate.Struct(data)
	if err != nil {
		validationErrs, ok := err.(validator.ValidationErrors)
		if !ok {
			return []*ErrorResponse{{FailedField: "", Tag: "invalid", Value: err.Error()}}
		}
		for _, err := range validationErrs {
			var element ErrorResponse
			element.FailedField = err.StructNamespace()
			element.Tag = err.Tag()
			element.Value = err.Param()
			errors = append(errors, &element)
		}
	}
	return errors
}

// Message renders validation failures as one line, e.g.
// "Validation failed: Field 'CreateVariantsRequest.Colors' failed on tag 'min'".
func Message(errs []*ErrorResponse) string {
	parts := make([]string, 0, len(errs))
	for _, e := range errs {
		parts = append(parts, fmt.Sprintf("Field '%s' failed on tag '%s'", e.FailedField, e.Tag))
	}
	return "Validation failed: " + strings.Join(parts, "; ")
}
