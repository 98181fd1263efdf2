package models

import "time"

// Statuts de commande. en_attente est l'état initial; valider et refuser
// sont terminaux.
const (
	OrderStatusPending  = "en_attente"
	OrderStatusAccepted = "valider"
	OrderStatusRefused  = "refuser"
)

// ValidOrderStatus reports whether s is one of the three known statuses.
func ValidOrderStatus(s string) bool {
	return s == OrderStatusPending || s == OrderStatusAccepted || s == OrderStatusRefused
}

// Order is a user's request to draw a quantity of a stock item.
type Order struct {
	ID           uint64    `gorm:"primaryKey" json:"id,string"`
	UserID       uint64    `gorm:"not null;index" json:"id_utilisateur,string"`
	User         User      `gorm:"foreignKey:UserID" json:"utilisateur"`
	StockID      uint64    `gorm:"not null;index" json:"id_stock,string"`
	Stock        Stock     `gorm:"foreignKey:StockID" json:"stock"`
	Quantite     int64     `gorm:"not null" json:"quantite,string"`
	DateCommande time.Time `gorm:"not null" json:"date_commande"`
	Statut       string    `gorm:"not null;default:'en_attente'" json:"statut"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
