package value

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// AmountPlaces точность, до которой округляются все суммы.
const AmountPlaces = 2

// RoundAmount округляет до двух знаков, половину от нуля.
// Для положительных сумм это округление половины вверх.
func RoundAmount(d decimal.Decimal) decimal.Decimal {
	return d.Round(AmountPlaces)
}

// ToBaseUnits переводит сумму токена в минимальные единицы сети.
func ToBaseUnits(d decimal.Decimal, decimals int32) *big.Int {
	return d.Shift(decimals).Truncate(0).BigInt()
}
