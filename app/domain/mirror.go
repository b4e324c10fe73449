package domain

import "time"

type MirrorEntry struct {
	ProductID int64     `json:"product_id"`
	Stock     int64     `json:"stock"`
	Applied   int64     `json:"applied"`
	UpdatedAt time.Time `json:"updated_at"`
}

type StockMirror interface {
	Apply(ev ChangeEvent) bool
	Get(productID int64) (MirrorEntry, bool)
	Snapshot() []MirrorEntry
	Seed(products []Product) int
	Watch(buffer int) (<-chan ChangeEvent, func())
}
