package models

import "time"

// Rôles applicatifs: un admin gère les stocks et tranche les commandes,
// un demandeur ne fait que demander.
const (
	RoleAdmin     = "admin"
	RoleDemandeur = "demandeur"
)

type User struct {
	ID        uint64    `gorm:"primaryKey" json:"id,string"`
	Nom       string    `gorm:"index" json:"nom"`
	Prenom    string    `gorm:"index" json:"prenom"`
	Email     string    `gorm:"unique;not null;index" json:"email"`
	Password  string    `gorm:"not null" json:"-"` // hashé (bcrypt)
	Role      string    `gorm:"not null;default:'demandeur'" json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
