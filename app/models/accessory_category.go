package models

import "time"

// AccessoryCategory is a sub-category name offered for products in the
// Accessories section. Products reference it by name, not by key.
type AccessoryCategory struct {
	ID        string    `gorm:"primaryKey;size:36"      json:"id"`
	Name      string    `gorm:"size:128;not null;index" json:"name"`
	CreatedAt time.Time `gorm:"index"                   json:"created_at"`
}

func (AccessoryCategory) TableName() string { return "accessory_categories" }
