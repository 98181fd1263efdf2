package db

import (
	"errors"
	"os"

	"github.com/diewo77/go-stocks/internal/models"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Seed inserts a default admin account and a handful of stock rows when they
// are missing. Intended for development only (DB_SEED=1).
func Seed(conn *gorm.DB, log *zap.Logger) error {
	adminEmail := os.Getenv("ADMIN_EMAIL")
	if adminEmail == "" {
		adminEmail = "admin@local"
	}
	adminPass := os.Getenv("ADMIN_PASSWORD")
	if adminPass == "" {
		adminPass = "admin"
	}

	var existing models.User
	err := conn.Where("email = ?", adminEmail).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		hash, hashErr := bcrypt.GenerateFromPassword([]byte(adminPass), bcrypt.DefaultCost)
		if hashErr != nil {
			return hashErr
		}
		admin := models.User{Nom: "Admin", Prenom: "Local", Email: adminEmail, Password: string(hash), Role: models.RoleAdmin}
		if err := conn.Create(&admin).Error; err != nil {
			return err
		}
		log.Info("seeded admin account", zap.String("email", adminEmail))
	} else if err != nil {
		return err
	}

	baseStocks := []models.Stock{
		{Nom: "Paracetamol", Type: models.StockTypeMedicament, Description: "Boîte de 16 comprimés 500mg", QuantiteDisponible: 120},
		{Nom: "Gants", Type: models.StockTypeMateriel, Description: "Gants nitrile taille M", QuantiteDisponible: 200},
		{Nom: "Compresses", Type: models.StockTypeMateriel, Description: "Compresses stériles 10x10", QuantiteDisponible: 80},
	}
	for _, st := range baseStocks {
		var found models.Stock
		if err := conn.Where("nom = ? AND type = ?", st.Nom, st.Type).First(&found).Error; errors.Is(err, gorm.ErrRecordNotFound) {
			if err := conn.Create(&st).Error; err != nil {
				return err
			}
		}
	}
	return nil
}
