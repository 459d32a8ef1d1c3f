package req

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"

	"git.appkode.ru/pub/go/failure"
	"github.com/ethereum/go-ethereum/common"
	"github.com/go-playground/validator/v10"
	jsoniter "github.com/json-iterator/go"
	"github.com/shopspring/decimal"

	"dealmint/pkg/errcodes"
)

var (
	json     = jsoniter.ConfigCompatibleWithStandardLibrary //nolint:gochecknoglobals // skip
	validate = newValidator()                               //nolint:gochecknoglobals // skip
)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// evm_address accepts a 0x-prefixed 20 byte hex address.
	_ = v.RegisterValidation("evm_address", func(fl validator.FieldLevel) bool {
		return common.IsHexAddress(fl.Field().String())
	})

	// Decimals are validated as float64, so numeric tags like gt=0 apply.
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			return d.InexactFloat64()
		}

		return nil
	}, decimal.Decimal{})

	return v
}

func Read(r *http.Request, dest any) error {
	return read(r, dest, false)
}

// ReadOptional is Read that accepts an empty body, leaving dest at its defaults.
func ReadOptional(r *http.Request, dest any) error {
	return read(r, dest, true)
}

func read(r *http.Request, dest any, allowEmpty bool) error {
	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		if !(allowEmpty && errors.Is(err, io.EOF)) {
			return failure.NewInvalidArgumentError(
				fmt.Errorf("json.Decode: %w", err).Error(),
				failure.WithCode(errcodes.ValidationError),
				failure.WithDescription("Invalid JSON"),
			)
		}
	}

	return Validate(r, dest)
}

func Validate(r *http.Request, dest any) error {
	if err := validate.StructCtx(r.Context(), dest); err != nil {
		return failure.NewInvalidArgumentError(
			"validation error",
			failure.WithCode(errcodes.ValidationError),
			failure.WithDescription(err.Error()),
		)
	}

	return nil
}
