package models

import "time"

// Types de stock autorisés.
const (
	StockTypeMedicament = "medicament"
	StockTypeMateriel   = "materiel"
)

// ValidStockType reports whether t is one of the known stock types.
// Unknown values must be rejected at the boundary, never defaulted.
func ValidStockType(t string) bool {
	return t == StockTypeMedicament || t == StockTypeMateriel
}

// Stock is an inventory entry. Nom is stored normalized (first letter
// uppercase, rest lowercase); uniqueness is on the (nom, type) pair.
type Stock struct {
	ID                 uint64    `gorm:"primaryKey" json:"id,string"`
	Nom                string    `gorm:"not null;index:idx_nom_type,unique,priority:1" json:"nom"`
	Type               string    `gorm:"not null;index:idx_nom_type,unique,priority:2" json:"type"`
	Description        string    `json:"description"`
	QuantiteDisponible int64     `gorm:"not null;default:0" json:"quantite_disponible,string"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}
