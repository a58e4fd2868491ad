// Package validation plugs identifier checks into go-playground/validator so
// struct-based form layers can declare fields such as
//
//	Document string `validate:"required,cpfcnpj"`
//
// and receive field-level messages for presentation.
package validation

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/davidleathers/taxid-validator/internal/domain/values"
)

// Tags registered by Register
const (
	TagCPF     = "cpf"
	TagCNPJ    = "cnpj"
	TagCPFCNPJ = "cpfcnpj"
)

// New returns a validator with the identifier tags registered under policy
func New(policy values.Policy) (*validator.Validate, error) {
	v := validator.New()
	if err := Register(v, policy); err != nil {
		return nil, err
	}
	return v, nil
}

// Register adds the cpf, cnpj and cpfcnpj tags to v
func Register(v *validator.Validate, policy values.Policy) error {
	tags := map[string]validator.Func{
		TagCPF:     kindValidator(policy, values.KindCPF),
		TagCNPJ:    kindValidator(policy, values.KindCNPJ),
		TagCPFCNPJ: kindValidator(policy, values.KindUnknown),
	}

	for tag, fn := range tags {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return fmt.Errorf("registering %s validation: %w", tag, err)
		}
	}
	return nil
}

// kindValidator accepts strings that pass policy and, unless want is
// KindUnknown, belong to the wanted kind.
func kindValidator(policy values.Policy, want values.Kind) validator.Func {
	return func(fl validator.FieldLevel) bool {
		id, err := policy.Check(fl.Field().String())
		if err != nil {
			return false
		}
		return want == values.KindUnknown || id.Kind() == want
	}
}

// FormatErrors converts validator errors into human-readable messages keyed
// by field name. Errors of any other type are returned under the "" key.
func FormatErrors(err error) map[string][]string {
	if err == nil {
		return nil
	}

	fields := make(map[string][]string)

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		fields[""] = append(fields[""], err.Error())
		return fields
	}

	for _, fe := range validationErrors {
		var msg string
		switch fe.Tag() {
		case "required":
			msg = "This field is required"
		case TagCPF:
			msg = "Must be a valid CPF"
		case TagCNPJ:
			msg = "Must be a valid CNPJ"
		case TagCPFCNPJ:
			msg = "Must be a valid CPF or CNPJ"
		default:
			msg = fmt.Sprintf("Failed %s validation", fe.Tag())
		}
		fields[fe.Field()] = append(fields[fe.Field()], msg)
	}

	return fields
}
