// Package negotiation рассчитывает скидки и записывает диалог продавца
// и покупателя, который к ним привёл.
package negotiation

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"dealmint/internal/domain/value"
)

const (
	DefaultDaysUntilDeadline = 7

	urgencyMaxDays = 3
)

//nolint:gochecknoglobals
var (
	bulkThreshold  = decimal.NewFromInt(500)
	bulkPercent    = decimal.NewFromInt(5)
	urgencyPercent = decimal.NewFromInt(2)
	oneHundred     = decimal.NewFromInt(100)

	earlyPaymentTiers = []struct {
		maxDays int
		percent decimal.Decimal
	}{
		{maxDays: 3, percent: decimal.NewFromInt(10)},
		{maxDays: 7, percent: decimal.NewFromInt(6)},
		{maxDays: 30, percent: decimal.NewFromInt(4)},
	}
	earlyPaymentFloor = decimal.NewFromInt(2)
)

var (
	ErrNonPositiveAmount = errors.New("original amount must be positive")
	ErrNegativeDeadline  = errors.New("days until deadline must not be negative")
)

type DiscountKind string

const (
	DiscountEarlyPayment DiscountKind = "early-payment"
	DiscountBulk         DiscountKind = "bulk"
	DiscountUrgency      DiscountKind = "urgency"
)

type Input struct {
	OriginalAmount      decimal.Decimal
	RequestEarlyPayment bool
	RequestBulkDiscount bool
	DaysUntilDeadline   int
}

// Discount одно применённое правило. Процент берётся от исходной суммы,
// а не от уже уменьшенной.
type Discount struct {
	Kind    DiscountKind
	Percent decimal.Decimal
	Amount  decimal.Decimal
	Reason  string
}

type Result struct {
	OriginalAmount decimal.Decimal
	FinalAmount    decimal.Decimal
	TotalDiscount  decimal.Decimal
	Discounts      []Discount
	Reason         string
	Deadline       time.Time
}

// Calculate применяет по порядку скидку за раннюю оплату, оптовую и срочную.
// Общая скидка округляется половиной вверх до центов, итог равен исходной
// сумме минус округлённая скидка.
func Calculate(in Input, now time.Time) (Result, error) {
	if !in.OriginalAmount.IsPositive() {
		return Result{}, ErrNonPositiveAmount
	}

	if in.DaysUntilDeadline < 0 {
		return Result{}, ErrNegativeDeadline
	}

	var discounts []Discount

	if in.RequestEarlyPayment {
		percent := EarlyPaymentPercent(in.DaysUntilDeadline)
		discounts = append(discounts, Discount{
			Kind:    DiscountEarlyPayment,
			Percent: percent,
			Amount:  percentOf(in.OriginalAmount, percent),
			Reason:  "Early payment (" + percent.StringFixed(1) + "%)",
		})
	}

	if in.RequestBulkDiscount && in.OriginalAmount.GreaterThanOrEqual(bulkThreshold) {
		discounts = append(discounts, Discount{
			Kind:    DiscountBulk,
			Percent: bulkPercent,
			Amount:  percentOf(in.OriginalAmount, bulkPercent),
			Reason:  "Bulk purchase (5%)",
		})
	}

	if in.DaysUntilDeadline <= urgencyMaxDays {
		discounts = append(discounts, Discount{
			Kind:    DiscountUrgency,
			Percent: urgencyPercent,
			Amount:  percentOf(in.OriginalAmount, urgencyPercent),
			Reason:  "Urgent closure (2%)",
		})
	}

	total := decimal.Zero
	reasons := make([]string, 0, len(discounts))

	for _, d := range discounts {
		total = total.Add(d.Amount)
		reasons = append(reasons, d.Reason)
	}

	total = value.RoundAmount(total)

	return Result{
		OriginalAmount: in.OriginalAmount,
		FinalAmount:    in.OriginalAmount.Sub(total),
		TotalDiscount:  total,
		Discounts:      discounts,
		Reason:         strings.Join(reasons, ", "),
		Deadline:       now.AddDate(0, 0, in.DaysUntilDeadline),
	}, nil
}

// EarlyPaymentPercent растёт с приближением срока: до 3 дней 10%,
// до 7 дней 6%, до 30 дней 4%, дальше 2%.
func EarlyPaymentPercent(daysUntilDeadline int) decimal.Decimal {
	for _, tier := range earlyPaymentTiers {
		if daysUntilDeadline <= tier.maxDays {
			return tier.percent
		}
	}

	return earlyPaymentFloor
}

func percentOf(amount, percent decimal.Decimal) decimal.Decimal {
	return amount.Mul(percent).Div(oneHundred)
}
