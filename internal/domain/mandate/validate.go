package mandate

import "time"

const (
	ErrInvalidType     = "Invalid mandate type"
	ErrMissingID       = "Mandate ID is required"
	ErrInvalidAmount   = "Invalid amount"
	ErrMissingIssuer   = "Issuer address is required"
	ErrMissingDeadline = "Payment deadline is required"
)

type ValidationResult struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
}

// Validate перечисляет нарушенные правила. Пустой список значит мандат валиден.
func Validate(m PaymentMandate) []string {
	errs := []string{}

	if m.Type != TypePaymentMandate {
		errs = append(errs, ErrInvalidType)
	}

	if m.ID == "" {
		errs = append(errs, ErrMissingID)
	}

	if !m.Amount.Value.IsPositive() {
		errs = append(errs, ErrInvalidAmount)
	}

	if m.Issuer.Address == "" {
		errs = append(errs, ErrMissingIssuer)
	}

	if m.Terms.Deadline == "" {
		errs = append(errs, ErrMissingDeadline)
	}

	return errs
}

func Check(m PaymentMandate) ValidationResult {
	errs := Validate(m)

	return ValidationResult{
		Valid:  len(errs) == 0,
		Errors: errs,
	}
}

// Expired проверяет, что срок мандата раньше now. Мандат без
// разбираемого срока не истекает.
func Expired(m PaymentMandate, now time.Time) bool {
	if m.ExpiresAt == nil {
		return false
	}

	expiresAt, err := time.Parse(TimestampLayout, *m.ExpiresAt)
	if err != nil {
		return false
	}

	return now.After(expiresAt)
}
