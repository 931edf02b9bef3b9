package domain

// Price is a charge in minor units. Partial is the amount payable up front
// (a deposit); it equals Gross when the package has no deposit.
type Price struct {
	Gross   int64 `json:"gross"`
	Partial int64 `json:"partial"`
}

// Add returns the element-wise sum of two prices.
func (p Price) Add(o Price) Price {
	return Price{Gross: p.Gross + o.Gross, Partial: p.Partial + o.Partial}
}

// TotalMode selects which component of a price is summed.
type TotalMode string

const (
	TotalGross   TotalMode = "gross"
	TotalFull    TotalMode = "full"
	TotalPartial TotalMode = "partial"
)

// ParseTotalMode maps request input to a TotalMode, defaulting to gross.
func ParseTotalMode(s string) TotalMode {
	switch TotalMode(s) {
	case TotalPartial:
		return TotalPartial
	case TotalFull:
		return TotalFull
	default:
		return TotalGross
	}
}

// Amount returns the component of p selected by mode. Gross and full are the same amount.
func (p Price) Amount(mode TotalMode) int64 {
	if mode == TotalPartial {
		return p.Partial
	}
	return p.Gross
}

// Chargeable is anything that carries a total and may be cancelled.
type Chargeable interface {
	Total() Price
	IsCancelled() bool
}

// SumPrices adds the totals of the non-cancelled items. ok is false when no
// item qualifies, so callers can tell "nothing to charge" from a zero total.
func SumPrices[T Chargeable](items []T, mode TotalMode) (total int64, ok bool) {
	for _, it := range items {
		if it.IsCancelled() {
			continue
		}
		total += it.Total().Amount(mode)
		ok = true
	}
	return total, ok
}
