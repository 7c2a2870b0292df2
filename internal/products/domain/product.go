package domain

import (
	"time"
)

// Product is the inventory record. Mkt is an opaque correlation key handed to
// external callers; it never changes after creation. NumInStock never drops
// below zero: it is decremented only by a successful reservation.
type Product struct {
	ID         int
	CreatedAt  time.Time
	Name       string
	Price      int
	NumInStock int
	Mkt        string
}

// ProductUpdate carries the mutable fields of a product; nil means unchanged.
type ProductUpdate struct {
	Name     *string
	Price    *int
	Quantity *int
}

func (u ProductUpdate) ApplyTo(p Product) Product {
	if u.Name != nil {
		p.Name = *u.Name
	}
	if u.Price != nil {
		p.Price = *u.Price
	}
	if u.Quantity != nil {
		p.NumInStock = *u.Quantity
	}
	return p
}
