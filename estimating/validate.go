package estimating

import (
	"errors"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

var (
	positiveAmount = validation.By(func(value any) error {
		d, ok := value.(decimal.Decimal)
		if !ok {
			return errors.New("must be a number")
		}
		if !d.IsPositive() {
			return errors.New("must be greater than zero")
		}
		return nil
	})

	nonNegativeAmount = validation.By(func(value any) error {
		d, ok := value.(decimal.Decimal)
		if !ok {
			return errors.New("must be a number")
		}
		if d.IsNegative() {
			return errors.New("must not be negative")
		}
		return nil
	})

	percentage = validation.By(func(value any) error {
		d, ok := value.(decimal.Decimal)
		if !ok {
			return errors.New("must be a number")
		}
		if d.IsNegative() || d.GreaterThan(hundred) {
			return errors.New("must be between 0 and 100")
		}
		return nil
	})
)

func validateInputs(in LineInputs) error {
	return asValidationError(validation.ValidateStruct(&in,
		validation.Field(&in.Quantity, positiveAmount),
		validation.Field(&in.LaborHours, nonNegativeAmount),
		validation.Field(&in.LaborRate, nonNegativeAmount),
		validation.Field(&in.MaterialCost, nonNegativeAmount),
		validation.Field(&in.EquipmentCost, nonNegativeAmount),
		validation.Field(&in.SubcontrCost, nonNegativeAmount),
	))
}

// Validate checks that every percentage lies in [0,100].
func (p Percentages) Validate() error {
	return asValidationError(validation.ValidateStruct(&p,
		validation.Field(&p.GeneralCosts, percentage),
		validation.Field(&p.Profit, percentage),
		validation.Field(&p.Risk, percentage),
		validation.Field(&p.VAT, percentage),
	))
}

func validateLineText(description, unit string, lineType LineType) error {
	v := struct {
		Description string   `json:"description"`
		Unit        string   `json:"unit"`
		LineType    LineType `json:"line_type"`
	}{description, unit, lineType}

	return asValidationError(validation.ValidateStruct(&v,
		validation.Field(&v.Description, validation.Required.Error("is required"), validation.RuneLength(1, 1000)),
		validation.Field(&v.Unit, validation.RuneLength(0, 20)),
		validation.Field(&v.LineType, validation.Required, validation.In(LineTypeNormal, LineTypeProvisional, LineTypeAdjustable)),
	))
}

func validateChapterText(code, name string) error {
	v := struct {
		Code string `json:"code"`
		Name string `json:"name"`
	}{code, name}

	return asValidationError(validation.ValidateStruct(&v,
		validation.Field(&v.Code, validation.RuneLength(0, 20)),
		validation.Field(&v.Name, validation.Required.Error("is required"), validation.RuneLength(1, 255)),
	))
}

// asValidationError converts ozzo field errors into a *ValidationError.
// Internal rule errors are passed through unchanged.
func asValidationError(err error) error {
	if err == nil {
		return nil
	}
	var fieldErrs validation.Errors
	if errors.As(err, &fieldErrs) {
		fields := make(map[string]string, len(fieldErrs))
		for name, fe := range fieldErrs {
			fields[name] = fe.Error()
		}
		return &ValidationError{Fields: fields}
	}
	return err
}
