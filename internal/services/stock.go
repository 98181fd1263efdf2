package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/diewo77/go-stocks/internal/models"
	"github.com/diewo77/go-stocks/internal/validation"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// StockService owns stock CRUD, the (nom, type) uniqueness guard and the
// cascade delete over movements and commandes.
type StockService struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewStockService(db *gorm.DB, log *zap.Logger) *StockService {
	if log == nil {
		log = zap.NewNop()
	}
	return &StockService{db: db, log: log}
}

// NormalizeName puts a stock name in its stored form: first letter
// uppercase, remainder lowercase.
func NormalizeName(nom string) string {
	nom = strings.TrimSpace(nom)
	if nom == "" {
		return nom
	}
	r := []rune(strings.ToLower(nom))
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

type CreateStockInput struct {
	Nom         string
	Description string
	Quantite    int64
	Type        string
}

func (s *StockService) Create(ctx context.Context, in CreateStockInput) (*models.Stock, error) {
	v := validation.Violations{}
	validation.Required("nom", in.Nom, v)
	validation.NonNegativeInt("quantite_disponible", in.Quantite, v)
	validation.OneOf("type", in.Type, []string{models.StockTypeMedicament, models.StockTypeMateriel}, v)
	if !v.Empty() {
		return nil, &ValidationError{Violations: v}
	}

	nom := NormalizeName(in.Nom)
	if err := s.checkDuplicate(ctx, nom, in.Type, 0); err != nil {
		return nil, err
	}

	stock := models.Stock{
		Nom:                nom,
		Description:        in.Description,
		QuantiteDisponible: in.Quantite,
		Type:               in.Type,
	}
	if err := s.db.WithContext(ctx).Create(&stock).Error; err != nil {
		return nil, fmt.Errorf("create stock: %w", err)
	}
	s.log.Info("stock cree", zap.Uint64("stock", stock.ID), zap.String("nom", stock.Nom), zap.String("type", stock.Type))
	return &stock, nil
}

type UpdateStockInput struct {
	Nom         *string
	Description *string
	Quantite    *int64
	Type        *string
}

func (s *StockService) Update(ctx context.Context, id uint64, in UpdateStockInput) (*models.Stock, error) {
	var stock models.Stock
	if err := s.db.WithContext(ctx).First(&stock, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStockNotFound
		}
		return nil, fmt.Errorf("fetch stock: %w", err)
	}

	nom := stock.Nom
	typ := stock.Type
	updates := map[string]any{}
	if in.Nom != nil {
		v := validation.Violations{}
		validation.Required("nom", *in.Nom, v)
		if !v.Empty() {
			return nil, &ValidationError{Violations: v}
		}
		nom = NormalizeName(*in.Nom)
		updates["nom"] = nom
	}
	if in.Type != nil {
		v := validation.Violations{}
		validation.OneOf("type", *in.Type, []string{models.StockTypeMedicament, models.StockTypeMateriel}, v)
		if !v.Empty() {
			return nil, &ValidationError{Violations: v}
		}
		typ = *in.Type
		updates["type"] = typ
	}
	if in.Quantite != nil {
		v := validation.Violations{}
		validation.NonNegativeInt("quantite_disponible", *in.Quantite, v)
		if !v.Empty() {
			return nil, &ValidationError{Violations: v}
		}
		updates["quantite_disponible"] = *in.Quantite
	}
	if in.Description != nil {
		updates["description"] = *in.Description
	}

	if in.Nom != nil || in.Type != nil {
		if err := s.checkDuplicate(ctx, nom, typ, id); err != nil {
			return nil, err
		}
	}
	if len(updates) == 0 {
		return &stock, nil
	}
	if err := s.db.WithContext(ctx).Model(&stock).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("update stock: %w", err)
	}
	return &stock, nil
}

// checkDuplicate enforces case-insensitive uniqueness of (nom, type),
// ignoring the row excludeID when updating.
func (s *StockService) checkDuplicate(ctx context.Context, nom, typ string, excludeID uint64) error {
	q := s.db.WithContext(ctx).Model(&models.Stock{}).
		Where("lower(nom) = ? AND type = ?", strings.ToLower(nom), typ)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return fmt.Errorf("check duplicate: %w", err)
	}
	if count > 0 {
		return ErrDuplicateStock
	}
	return nil
}

// Delete removes a stock item and everything referencing it. Movements and
// commandes go first: they carry a required link to the stock row.
func (s *StockService) Delete(ctx context.Context, id uint64) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var stock models.Stock
		if err := tx.First(&stock, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrStockNotFound
			}
			return fmt.Errorf("fetch stock: %w", err)
		}
		if err := tx.Where("stock_id = ?", id).Delete(&models.StockMovement{}).Error; err != nil {
			return fmt.Errorf("delete mouvements: %w", err)
		}
		if err := tx.Where("stock_id = ?", id).Delete(&models.Order{}).Error; err != nil {
			return fmt.Errorf("delete commandes: %w", err)
		}
		if err := tx.Delete(&stock).Error; err != nil {
			return fmt.Errorf("delete stock: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.log.Info("stock supprime", zap.Uint64("stock", id))
	return nil
}

func (s *StockService) Get(ctx context.Context, id uint64) (*models.Stock, error) {
	var stock models.Stock
	if err := s.db.WithContext(ctx).First(&stock, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStockNotFound
		}
		return nil, fmt.Errorf("fetch stock: %w", err)
	}
	return &stock, nil
}

func (s *StockService) List(ctx context.Context) ([]models.Stock, error) {
	var stocks []models.Stock
	if err := s.db.WithContext(ctx).Order("nom asc").Find(&stocks).Error; err != nil {
		return nil, fmt.Errorf("list stocks: %w", err)
	}
	return stocks, nil
}

// ListMovements returns ledger entries, newest first. A zero stockID means
// all stocks.
func (s *StockService) ListMovements(ctx context.Context, stockID uint64) ([]models.StockMovement, error) {
	q := s.db.WithContext(ctx).Order("id desc")
	if stockID != 0 {
		q = q.Where("stock_id = ?", stockID)
	}
	var movements []models.StockMovement
	if err := q.Find(&movements).Error; err != nil {
		return nil, fmt.Errorf("list mouvements: %w", err)
	}
	return movements, nil
}
