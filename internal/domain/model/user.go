package model

import (
	"strings"
	"time"
)

type User struct {
	ID         int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Email      string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	FirstName  string    `gorm:"type:varchar(50);not null" json:"first_name"`
	LastName   string    `gorm:"type:varchar(50)" json:"last_name"`
	Phone      string    `gorm:"type:varchar(20)" json:"phone"`
	Address    string    `gorm:"type:varchar(200)" json:"address"`
	City       string    `gorm:"type:varchar(100)" json:"city"`
	PostalCode string    `gorm:"type:varchar(20)" json:"postal_code"`
	Country    string    `gorm:"type:varchar(50)" json:"country"`
	CreatedAt  time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

// 表示名（姓が空なら名だけ）
func (u User) DisplayName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}
