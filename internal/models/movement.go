package models

import "time"

// Sens d'un mouvement de stock.
const (
	MovementIn  = "entree"
	MovementOut = "sortie"
)

// StockMovement is an append-only ledger entry recording a quantity change
// against a stock item. Rows are written exactly once, on order acceptance,
// and are only ever removed by the stock cascade delete.
type StockMovement struct {
	ID        uint64    `gorm:"primaryKey" json:"id,string"`
	StockID   uint64    `gorm:"not null;index" json:"id_stock,string"`
	Stock     Stock     `gorm:"foreignKey:StockID" json:"-"`
	OrderID   uint64    `gorm:"not null;index" json:"id_commande,string"`
	Type      string    `gorm:"not null" json:"type"`
	Quantite  int64     `gorm:"not null" json:"quantite,string"`
	CreatedAt time.Time `json:"created_at"`
}
