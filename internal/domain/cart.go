package domain

import "time"

type Cart struct {
	ID           string        `bson:"_id,omitempty" json:"-"`
	UserID       string        `bson:"user_id" json:"user_id"`
	Items        []CartItem    `bson:"items" json:"items"`
	ShippingInfo *ShippingInfo `bson:"shipping_info,omitempty" json:"shipping_info,omitempty"`
	CreatedAt    time.Time     `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time     `bson:"updated_at" json:"updated_at"`
}

// CartItem is one purchasable creator package in a buyer's cart.
// PackageID is unique within a cart; AddItem on an existing id bumps Quantity.
type CartItem struct {
	PackageID   string    `bson:"package_id" json:"id"`
	CreatorID   string    `bson:"creator_id" json:"creator_id"`
	CreatorName string    `bson:"creator_name" json:"creator_name"`
	UnitPrice   float64   `bson:"unit_price" json:"price"`
	Quantity    int       `bson:"quantity" json:"quantity"`
	AddedAt     time.Time `bson:"added_at" json:"-"`
}

type ShippingInfo struct {
	Name    string  `bson:"name" json:"name"`
	Email   string  `bson:"email" json:"email"`
	Address Address `bson:"address" json:"address"`
}

type Address struct {
	Line1      string `bson:"line1" json:"line1"`
	Line2      string `bson:"line2,omitempty" json:"line2,omitempty"`
	City       string `bson:"city" json:"city"`
	State      string `bson:"state" json:"state"`
	PostalCode string `bson:"postal_code" json:"postal_code"`
	Country    string `bson:"country" json:"country"`
}
