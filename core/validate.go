package core

import (
	"errors"
	"unicode"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

// validate reads the same `binding` tags gin checks on request bodies.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.SetTagName("binding")
	return v
}

// FieldIssues converts validator errors into a field -> reason map keyed by
// JSON field name. It returns nil when err carries no field errors.
func FieldIssues(err error) map[string]any {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return nil
	}
	issues := make(map[string]any, len(fieldErrs))
	for _, fe := range fieldErrs {
		issues[jsonName(fe.Field())] = reason(fe)
	}
	return issues
}

func reason(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "email":
		return "Valid email is required"
	case "eth_addr":
		return "Invalid Ethereum address"
	default:
		return fe.Field() + " failed " + fe.Tag()
	}
}

// jsonName lower-cases the first rune: WalletAddress -> walletAddress.
func jsonName(field string) string {
	r, size := utf8.DecodeRuneInString(field)
	if r == utf8.RuneError {
		return field
	}
	return string(unicode.ToLower(r)) + field[size:]
}
