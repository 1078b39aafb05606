package gormstore

import (
	"time"

	"github.com/shopspring/decimal"

	"restaurant-orders/internal/models"
)

type dishRow struct {
	ID         string          `gorm:"primaryKey"`
	Code       string          `gorm:"not null"`
	Name       string          `gorm:"not null"`
	Price      decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	IsWeighted bool            `gorm:"not null"`
	FullPath   string          `gorm:"not null"`
	Active     bool            `gorm:"not null"`
	SyncedAt   time.Time       `gorm:"not null"`
}

func (dishRow) TableName() string { return "dishes" }

type orderRow struct {
	ID        string         `gorm:"primaryKey;size:64"`
	CreatedAt time.Time      `gorm:"not null"`
	Lines     []orderLineRow `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
}

func (orderRow) TableName() string { return "orders" }

type orderLineRow struct {
	OrderID  string          `gorm:"primaryKey"`
	LineNo   int             `gorm:"primaryKey;autoIncrement:false"`
	DishID   string          `gorm:"not null;index"`
	Dish     dishRow         `gorm:"foreignKey:DishID"`
	Quantity decimal.Decimal `gorm:"type:numeric(12,3);not null"`
}

func (orderLineRow) TableName() string { return "order_lines" }

func newDishRow(d models.Dish, now time.Time) dishRow {
	return dishRow{
		ID:         d.ID,
		Code:       d.Code,
		Name:       d.Name,
		Price:      d.Price,
		IsWeighted: d.IsWeighted,
		FullPath:   d.FullPath,
		Active:     true,
		SyncedAt:   now,
	}
}

func (r dishRow) toModel() models.Dish {
	return models.Dish{
		ID:         r.ID,
		Code:       r.Code,
		Name:       r.Name,
		Price:      r.Price,
		IsWeighted: r.IsWeighted,
		FullPath:   r.FullPath,
	}
}
