package model

import (
	"github.com/shopspring/decimal"
)

// Money はレスポンス用の金額。JSONでは常に小数2桁（"100.00"）。
type Money struct {
	decimal.Decimal
}

func NewMoney(d decimal.Decimal) Money {
	return Money{Decimal: d}
}

func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(`"` + m.StringFixed(2) + `"`), nil
}
