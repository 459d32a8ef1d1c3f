package value

import "fmt"

type SettlementStatus string

const (
	SettlementStatusPending   SettlementStatus = "pending"
	SettlementStatusBridging  SettlementStatus = "bridging"
	SettlementStatusExecuting SettlementStatus = "executing"
	SettlementStatusCompleted SettlementStatus = "completed"
	SettlementStatusFailed    SettlementStatus = "failed"
)

func ParseSettlementStatus(s string) (SettlementStatus, error) {
	switch status := SettlementStatus(s); status {
	case SettlementStatusPending,
		SettlementStatusBridging,
		SettlementStatusExecuting,
		SettlementStatusCompleted,
		SettlementStatusFailed:
		return status, nil
	default:
		return "", fmt.Errorf("unknown settlement status %q", s)
	}
}

func (s SettlementStatus) String() string {
	return string(s)
}

func (s SettlementStatus) IsTerminal() bool {
	return s == SettlementStatusCompleted || s == SettlementStatusFailed
}

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusConfirmed PaymentStatus = "confirmed"
	PaymentStatusFailed    PaymentStatus = "failed"
)

func (s PaymentStatus) String() string {
	return string(s)
}

// Precedes проверяет, что s строго раньше next в жизненном цикле расчёта.
// Финальные статусы не предшествуют ничему.
func (s SettlementStatus) Precedes(next SettlementStatus) bool {
	return settlementRank(s) < settlementRank(next)
}

func settlementRank(s SettlementStatus) int {
	switch s {
	case SettlementStatusPending:
		return 0
	case SettlementStatusBridging:
		return 1
	case SettlementStatusExecuting:
		return 2 //nolint:mnd
	default:
		return 3 //nolint:mnd
	}
}
