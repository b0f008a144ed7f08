package models

import "time"

// Item represents a tracked stock item. Stock is the single source of
// truth for the quantity currently on hand; every change to it is mirrored
// by a HistoryEntry.
type Item struct {
	ID        string    `gorm:"primary_key;size:36" json:"id"`
	Name      string    `gorm:"not null;index" json:"name"`
	Category  string    `gorm:"index" json:"category"`
	Stock     int       `gorm:"not null" json:"stock"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ItemCategory represents the category of a stock item
type ItemCategory string

const (
	// Item categories
	CategoryConsumable ItemCategory = "consumable"
	CategoryEquipment  ItemCategory = "equipment"
	CategorySparePart  ItemCategory = "spare_part"
	CategoryCleaning   ItemCategory = "cleaning"
	CategoryOffice     ItemCategory = "office"
)
