package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a catalog entry as persisted in the database.
type Product struct {
	ID          uint            `gorm:"primaryKey;autoIncrement"`
	Name        string          `gorm:"size:250;not null"`
	Description string          `gorm:"size:500;not null"`
	Price       decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Popularity  *int
	ImageURL    string    `gorm:"column:image_url;size:500"`
	ImageBucket string    `gorm:"size:255"`
	ImageKey    string    `gorm:"size:1024"`
	CreatedAt   time.Time `gorm:"<-:create;not null"`
}

// TableName pins the table name independently of struct renames.
func (Product) TableName() string {
	return "products"
}
