package negotiation_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"dealmint/internal/domain/negotiation"
	"dealmint/pkg/tests"
)

func TestCalculate(t *testing.T) {
	rq := require.New(t)
	now := time.Date(2025, 10, 1, 12, 0, 0, 0, time.UTC)

	testCases := []struct {
		name     string
		input    negotiation.Input
		final    string
		discount string
		reason   string
		kinds    []negotiation.DiscountKind
	}{
		{
			name: "Early payment within a week",
			input: negotiation.Input{
				OriginalAmount:      decimal.NewFromInt(1000),
				RequestEarlyPayment: true,
				DaysUntilDeadline:   7,
			},
			final:    "940.00",
			discount: "60.00",
			reason:   "Early payment (6.0%)",
			kinds:    []negotiation.DiscountKind{negotiation.DiscountEarlyPayment},
		},
		{
			name: "Early payment, bulk and urgency",
			input: negotiation.Input{
				OriginalAmount:      decimal.NewFromInt(600),
				RequestEarlyPayment: true,
				RequestBulkDiscount: true,
				DaysUntilDeadline:   2,
			},
			final:    "498.00",
			discount: "102.00",
			reason:   "Early payment (10.0%), Bulk purchase (5%), Urgent closure (2%)",
			kinds: []negotiation.DiscountKind{
				negotiation.DiscountEarlyPayment,
				negotiation.DiscountBulk,
				negotiation.DiscountUrgency,
			},
		},
		{
			name: "Bulk requested below threshold",
			input: negotiation.Input{
				OriginalAmount:      decimal.NewFromInt(499),
				RequestBulkDiscount: true,
				DaysUntilDeadline:   10,
			},
			final:    "499.00",
			discount: "0.00",
			reason:   "",
		},
		{
			name: "Urgency applies without early payment flag",
			input: negotiation.Input{
				OriginalAmount:    decimal.NewFromInt(100),
				DaysUntilDeadline: 3,
			},
			final:    "98.00",
			discount: "2.00",
			reason:   "Urgent closure (2%)",
			kinds:    []negotiation.DiscountKind{negotiation.DiscountUrgency},
		},
		{
			name: "Early payment tiers: month and beyond",
			input: negotiation.Input{
				OriginalAmount:      decimal.NewFromInt(200),
				RequestEarlyPayment: true,
				DaysUntilDeadline:   31,
			},
			final:    "196.00",
			discount: "4.00",
			reason:   "Early payment (2.0%)",
			kinds:    []negotiation.DiscountKind{negotiation.DiscountEarlyPayment},
		},
		{
			name: "Fractional discount is rounded half-up to cents",
			input: negotiation.Input{
				OriginalAmount:      decimal.RequireFromString("10.25"),
				RequestEarlyPayment: true,
				DaysUntilDeadline:   30,
			},
			// 4% of 10.25 = 0.41
			final:    "9.84",
			discount: "0.41",
			reason:   "Early payment (4.0%)",
			kinds:    []negotiation.DiscountKind{negotiation.DiscountEarlyPayment},
		},
		{
			name: "Half cent rounds up",
			input: negotiation.Input{
				OriginalAmount:      decimal.RequireFromString("0.25"),
				RequestEarlyPayment: true,
				DaysUntilDeadline:   5,
			},
			// 6% of 0.25 = 0.015
			final:    "0.23",
			discount: "0.02",
			reason:   "Early payment (6.0%)",
			kinds:    []negotiation.DiscountKind{negotiation.DiscountEarlyPayment},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(*testing.T) {
			result, err := negotiation.Calculate(tc.input, now)
			rq.NoError(err)

			rq.Equal(tc.final, result.FinalAmount.StringFixed(2))
			rq.Equal(tc.discount, result.TotalDiscount.StringFixed(2))
			rq.Equal(tc.reason, result.Reason)
			rq.Equal(now.AddDate(0, 0, tc.input.DaysUntilDeadline), result.Deadline)

			kinds := make([]negotiation.DiscountKind, 0, len(result.Discounts))
			for _, d := range result.Discounts {
				kinds = append(kinds, d.Kind)
			}

			rq.Equal(len(tc.kinds), len(kinds))

			if len(tc.kinds) > 0 {
				rq.Equal(tc.kinds, kinds)
			}
		})
	}
}

func TestCalculateRejectsInvalidInput(t *testing.T) {
	rq := require.New(t)

	_, err := negotiation.Calculate(negotiation.Input{OriginalAmount: decimal.Zero}, time.Now())
	rq.ErrorIs(err, negotiation.ErrNonPositiveAmount)

	_, err = negotiation.Calculate(negotiation.Input{OriginalAmount: decimal.NewFromInt(-5)}, time.Now())
	rq.ErrorIs(err, negotiation.ErrNonPositiveAmount)

	_, err = negotiation.Calculate(negotiation.Input{OriginalAmount: decimal.NewFromInt(5), DaysUntilDeadline: -1}, time.Now())
	rq.ErrorIs(err, negotiation.ErrNegativeDeadline)
}

func TestCalculateNeverExceedsOriginal(t *testing.T) {
	rq := require.New(t)
	random := tests.NewRandomizer()

	for range 1000 {
		cents := int64(random.Intn(10_000_000)) + 1
		in := negotiation.Input{
			OriginalAmount:      decimal.New(cents, -2),
			RequestEarlyPayment: random.Bool(),
			RequestBulkDiscount: random.Bool(),
			DaysUntilDeadline:   random.Intn(60),
		}

		result, err := negotiation.Calculate(in, time.Now())
		rq.NoError(err)

		rq.False(result.FinalAmount.IsNegative(), "input %+v", in)
		rq.True(result.FinalAmount.LessThanOrEqual(in.OriginalAmount), "input %+v", in)
		rq.True(result.FinalAmount.Add(result.TotalDiscount).Equal(in.OriginalAmount), "input %+v", in)
		rq.LessOrEqual(result.FinalAmount.Exponent(), int32(0))
		rq.GreaterOrEqual(result.FinalAmount.Exponent(), int32(-2))
	}
}

func TestEarlyPaymentPercent(t *testing.T) {
	rq := require.New(t)

	for days, percent := range map[int]int64{0: 10, 3: 10, 4: 6, 7: 6, 8: 4, 30: 4, 31: 2, 365: 2} {
		rq.True(decimal.NewFromInt(percent).Equal(negotiation.EarlyPaymentPercent(days)), "days %d", days)
	}
}
