package gateway

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"kharcha/internal/core"
)

// Validator checks form input with go-playground/validator and a set of
// domain tags:
//
//	notblank  non-empty after trimming whitespace
//	money     non-negative finite decimal amount
//	rate      non-negative percentage
//	isodate   YYYY-MM-DD
//	monthkey  YYYY-MM
//	editable  date or month key inside the editable window
//	category  one of core.AllCategories
//	loantype  one of core.AllLoanTypes
type Validator struct {
	v   *validator.Validate
	now func() time.Time
}

// NewValidator builds a validator whose editability checks use now.
func NewValidator(now func() time.Time) *Validator {
	if now == nil {
		now = time.Now
	}
	val := &Validator{v: validator.New(validator.WithRequiredStructEnabled()), now: now}

	val.v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})

	must := func(tag string, fn validator.Func) {
		if err := val.v.RegisterValidation(tag, fn); err != nil {
			panic(fmt.Sprintf("register %s: %v", tag, err))
		}
	}
	must("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	must("money", func(fl validator.FieldLevel) bool {
		_, err := core.ParseDecimalToCents(fl.Field().String())
		return err == nil
	})
	must("rate", func(fl validator.FieldLevel) bool {
		_, err := core.ParseRate(fl.Field().String())
		return err == nil
	})
	must("isodate", func(fl validator.FieldLevel) bool {
		_, err := core.ParseDate(fl.Field().String())
		return err == nil
	})
	must("monthkey", func(fl validator.FieldLevel) bool {
		_, err := core.ParseMonth(fl.Field().String())
		return err == nil
	})
	must("editable", func(fl validator.FieldLevel) bool {
		m, ok := monthOfField(fl.Field().String())
		return ok && core.MonthEditable(m, val.now())
	})
	must("category", func(fl validator.FieldLevel) bool {
		return core.Category(fl.Field().String()).IsValid()
	})
	must("loantype", func(fl validator.FieldLevel) bool {
		return core.LoanType(fl.Field().String()).IsValid()
	})
	return val
}

// monthOfField accepts either a date or a month key.
func monthOfField(s string) (core.Month, bool) {
	if d, err := core.ParseDate(s); err == nil {
		return d.Key(), true
	}
	if m, err := core.ParseMonth(s); err == nil {
		return m, true
	}
	return core.Month{}, false
}

// Struct validates in and converts failures into a *ValidationError.
func (val *Validator) Struct(in any) error {
	err := val.v.Struct(in)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := &ValidationError{Fields: make([]FieldError, 0, len(verrs))}
	for _, fe := range verrs {
		out.Fields = append(out.Fields, FieldError{
			Field:   fe.Field(),
			Tag:     fe.Tag(),
			Message: message(fe),
		})
	}
	return out
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "notblank":
		return "is required"
	case "money":
		return "must be a non-negative amount"
	case "rate":
		return "must be a non-negative percentage"
	case "isodate":
		return "must be a date in YYYY-MM-DD format"
	case "monthkey":
		return "must be a month in YYYY-MM format"
	case "editable":
		return "falls in a month that can no longer be edited"
	case "category":
		return "must be one of " + strings.Join(core.CategoryNames(), ", ")
	case "loantype":
		return "must be one of given, taken, received_back"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "gt":
		return "must be greater than " + fe.Param()
	default:
		return "is invalid"
	}
}
