package domain

import "time"

type Creator struct {
	ID       string
	Name     string
	Category string
	Bio      string
}

// CreatorPackage is the single purchasable SKU bundling one creator's content.
type CreatorPackage struct {
	ID        string
	CreatorID string
	RefID     string
	Price     float64
	CreatedAt time.Time
	UpdatedAt time.Time
}
