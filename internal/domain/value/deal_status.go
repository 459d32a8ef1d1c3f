package value

import "fmt"

// DealStatus стадия жизненного цикла сделки. Стадии двигаются только вперёд,
// в failed можно перейти из любой другой стадии.
type DealStatus string

const (
	DealStatusCreated    DealStatus = "created"
	DealStatusNegotiated DealStatus = "negotiated"
	DealStatusPaid       DealStatus = "paid"
	DealStatusSettling   DealStatus = "settling"
	DealStatusSettled    DealStatus = "settled"
	DealStatusFailed     DealStatus = "failed"
)

//nolint:gochecknoglobals
var dealStatusRank = map[DealStatus]int{
	DealStatusCreated:    0,
	DealStatusNegotiated: 1,
	DealStatusPaid:       2,
	DealStatusSettling:   3,
	DealStatusSettled:    4,
}

func ParseDealStatus(s string) (DealStatus, error) {
	status := DealStatus(s)
	if _, ok := dealStatusRank[status]; ok || status == DealStatusFailed {
		return status, nil
	}

	return "", fmt.Errorf("unknown deal status %q", s)
}

func (s DealStatus) String() string {
	return string(s)
}

// CanAdvanceTo проверяет, что переход из s в next идёт вперёд.
// Пропуск стадий разрешён.
func (s DealStatus) CanAdvanceTo(next DealStatus) bool {
	if s == DealStatusFailed {
		return false
	}

	if next == DealStatusFailed {
		return true
	}

	from, ok := dealStatusRank[s]
	if !ok {
		return false
	}

	to, ok := dealStatusRank[next]

	return ok && to > from
}

// Predecessors возвращает все статусы, из которых достижим s.
func (s DealStatus) Predecessors() []DealStatus {
	all := []DealStatus{
		DealStatusCreated,
		DealStatusNegotiated,
		DealStatusPaid,
		DealStatusSettling,
		DealStatusSettled,
	}

	result := make([]DealStatus, 0, len(all))

	for _, from := range all {
		if from.CanAdvanceTo(s) {
			result = append(result, from)
		}
	}

	return result
}
