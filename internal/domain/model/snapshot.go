package model

import "github.com/shopspring/decimal"

// 他サービスから取得した時点のコピー。保存はしない。

type ProductSnapshot struct {
	ID             int64
	Name           string
	UnitPrice      decimal.Decimal
	AvailableStock int64
}

type UserSnapshot struct {
	ID          int64
	Email       string
	DisplayName string
	Address     string
}
