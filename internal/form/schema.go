package form

import (
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// NameInput is the key rename form.
type NameInput struct {
	Name string `json:"name" validate:"required,min=1"`
}

// AmountInput is the deposit and withdraw form. Max is the balance the
// amount is bounded by; it is not user input.
type AmountInput struct {
	Amount decimal.Decimal `json:"amount"`
	Max    decimal.Decimal `json:"-" validate:"-"`
}

// Equal compares the user input only; Max follows the live balance.
func (a AmountInput) Equal(other AmountInput) bool {
	return a.Amount.Equal(other.Amount)
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// Validator returns the shared validator with the dashboard's rules registered.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})
		validate.RegisterStructValidation(validateAmount, AmountInput{})
	})
	return validate
}

func validateAmount(sl validator.StructLevel) {
	in := sl.Current().Interface().(AmountInput)
	switch {
	case in.Amount.IsNegative():
		sl.ReportError(in.Amount, "amount", "Amount", "gte", "0")
	case in.Amount.GreaterThan(in.Max):
		sl.ReportError(in.Amount, "amount", "Amount", "lte", in.Max.String())
	}
}

// DefaultMessages renders the messages shown next to the dashboard's fields.
func DefaultMessages(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "min":
		if fe.Field() == "name" {
			return "Name is required"
		}
		return fmt.Sprintf("%s is required", fe.Field())
	case "gte":
		return "Amount must not be negative"
	case "lte":
		return fmt.Sprintf("Insufficient balance (max: %s)", fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}
