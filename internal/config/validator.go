package config

import (
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	dagflowerrors "github.com/dagflow/dagflow/pkg/errors"
)

var (
	validatorOnce sync.Once
	validateInst  *validator.Validate
)

func validatorInstance() *validator.Validate {
	validatorOnce.Do(func() {
		validateInst = validator.New()
	})
	return validateInst
}

// Validate performs schema validation on the loaded configuration using
// struct tags, converting the first failing field into a ValidationError.
func Validate(cfg *ServiceConfig) error {
	if cfg == nil {
		return dagflowerrors.NewValidationError("config", "configuration is nil", nil)
	}
	v := validatorInstance()
	if err := v.Struct(cfg); err != nil {
		return convertValidationError(err)
	}
	return nil
}

func convertValidationError(err error) error {
	if err == nil {
		return nil
	}
	if ves, ok := err.(validator.ValidationErrors); ok {
		fe := ves[0]
		field := yamlishFieldName(fe)
		msg := fmt.Sprintf("%s failed validation for tag '%s'", field, fe.Tag())
		return dagflowerrors.NewValidationError(field, msg, err)
	}
	return dagflowerrors.NewValidationError("config", err.Error(), err)
}

func yamlishFieldName(fe validator.FieldError) string {
	parts := strings.Split(fe.StructNamespace(), ".")
	for i, part := range parts {
		parts[i] = strings.ToLower(part)
	}
	return strings.Join(parts, ".")
}
