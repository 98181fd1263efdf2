package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/diewo77/go-stocks/internal/models"
	"github.com/diewo77/go-stocks/internal/validation"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// OrderService owns the commande lifecycle, in particular the transactional
// accept/refuse decision workflow. The shared *gorm.DB handle is injected at
// bootstrap; the service never opens its own connection.
type OrderService struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewOrderService(db *gorm.DB, log *zap.Logger) *OrderService {
	if log == nil {
		log = zap.NewNop()
	}
	return &OrderService{db: db, log: log}
}

type CreateOrderInput struct {
	UserID       uint64
	StockID      uint64
	Quantite     int64
	DateCommande time.Time
}

// Create inserts a new pending commande. Stock availability is not checked
// here; sufficiency is deferred to Accept.
func (s *OrderService) Create(ctx context.Context, in CreateOrderInput) (*models.Order, error) {
	v := validation.Violations{}
	validation.PositiveInt("quantite", in.Quantite, v)
	if !v.Empty() {
		return nil, &ValidationError{Violations: v}
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", in.UserID).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("check utilisateur: %w", err)
	}
	if count == 0 {
		return nil, ErrUserNotFound
	}
	if err := s.db.WithContext(ctx).Model(&models.Stock{}).Where("id = ?", in.StockID).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("check stock: %w", err)
	}
	if count == 0 {
		return nil, ErrStockNotFound
	}

	date := in.DateCommande
	if date.IsZero() {
		date = time.Now()
	}
	order := models.Order{
		UserID:       in.UserID,
		StockID:      in.StockID,
		Quantite:     in.Quantite,
		DateCommande: date,
		Statut:       models.OrderStatusPending,
	}
	if err := s.db.WithContext(ctx).Create(&order).Error; err != nil {
		return nil, fmt.Errorf("create commande: %w", err)
	}
	s.log.Info("commande creee",
		zap.Uint64("commande", order.ID),
		zap.Uint64("stock", order.StockID),
		zap.Int64("quantite", order.Quantite))
	return &order, nil
}

// Accept transitions a pending commande to valider: it re-checks stock
// sufficiency, decrements the counter, appends the sortie movement and flips
// the status, all inside one transaction. A failed step rolls everything
// back; the operation is never retried.
func (s *OrderService) Accept(ctx context.Context, id uint64) (*models.Order, error) {
	var order models.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("Stock").First(&order, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrOrderNotFound
			}
			return fmt.Errorf("fetch commande: %w", err)
		}
		if order.Statut != models.OrderStatusPending {
			return ErrInvalidState
		}
		if order.Stock.QuantiteDisponible < order.Quantite {
			return ErrInsufficientStock
		}

		// The WHERE clause re-validates availability so that a concurrent
		// accept working from a stale read cannot drive the counter negative.
		res := tx.Model(&models.Stock{}).
			Where("id = ? AND quantite_disponible >= ?", order.StockID, order.Quantite).
			UpdateColumn("quantite_disponible", gorm.Expr("quantite_disponible - ?", order.Quantite))
		if res.Error != nil {
			return fmt.Errorf("decrement stock: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrInsufficientStock
		}

		mouvement := models.StockMovement{
			StockID:  order.StockID,
			OrderID:  order.ID,
			Type:     models.MovementOut,
			Quantite: order.Quantite,
		}
		if err := tx.Create(&mouvement).Error; err != nil {
			return fmt.Errorf("create mouvement: %w", err)
		}

		if err := tx.Model(&order).Update("statut", models.OrderStatusAccepted).Error; err != nil {
			return fmt.Errorf("update statut: %w", err)
		}
		// Reload so the caller sees the post-decrement stock.
		if err := tx.Preload("Stock").First(&order, id).Error; err != nil {
			return fmt.Errorf("reload commande: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("commande acceptee",
		zap.Uint64("commande", order.ID),
		zap.Uint64("stock", order.StockID),
		zap.Int64("quantite", order.Quantite),
		zap.Int64("restant", order.Stock.QuantiteDisponible))
	return &order, nil
}

// Refuse transitions a pending commande to refuser. Stock and ledger are
// never touched.
func (s *OrderService) Refuse(ctx context.Context, id uint64) (*models.Order, error) {
	var order models.Order
	if err := s.db.WithContext(ctx).First(&order, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("fetch commande: %w", err)
	}
	if order.Statut != models.OrderStatusPending {
		return nil, ErrInvalidState
	}
	if err := s.db.WithContext(ctx).Model(&order).Update("statut", models.OrderStatusRefused).Error; err != nil {
		return nil, fmt.Errorf("update statut: %w", err)
	}
	s.log.Info("commande refusee", zap.Uint64("commande", order.ID))
	return &order, nil
}

type UpdateOrderInput struct {
	StockID      *uint64
	Quantite     *int64
	DateCommande *time.Time
}

// Update overwrites date/stock/quantite while the commande is still pending.
// The status itself is only ever changed through Accept or Refuse.
func (s *OrderService) Update(ctx context.Context, id uint64, in UpdateOrderInput) (*models.Order, error) {
	var order models.Order
	if err := s.db.WithContext(ctx).First(&order, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("fetch commande: %w", err)
	}
	if order.Statut != models.OrderStatusPending {
		return nil, ErrInvalidState
	}

	updates := map[string]any{}
	if in.Quantite != nil {
		v := validation.Violations{}
		validation.PositiveInt("quantite", *in.Quantite, v)
		if !v.Empty() {
			return nil, &ValidationError{Violations: v}
		}
		updates["quantite"] = *in.Quantite
	}
	if in.StockID != nil {
		var count int64
		if err := s.db.WithContext(ctx).Model(&models.Stock{}).Where("id = ?", *in.StockID).Count(&count).Error; err != nil {
			return nil, fmt.Errorf("check stock: %w", err)
		}
		if count == 0 {
			return nil, ErrStockNotFound
		}
		updates["stock_id"] = *in.StockID
	}
	if in.DateCommande != nil {
		updates["date_commande"] = *in.DateCommande
	}
	if len(updates) == 0 {
		return &order, nil
	}
	if err := s.db.WithContext(ctx).Model(&order).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("update commande: %w", err)
	}
	return &order, nil
}

// Delete removes the commande row. Nothing was ever decremented for a
// pending commande, so there is no compensating stock effect.
func (s *OrderService) Delete(ctx context.Context, id uint64) error {
	res := s.db.WithContext(ctx).Delete(&models.Order{}, id)
	if res.Error != nil {
		return fmt.Errorf("delete commande: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrOrderNotFound
	}
	s.log.Info("commande supprimee", zap.Uint64("commande", id))
	return nil
}

// Get returns one commande with its user and stock preloaded.
func (s *OrderService) Get(ctx context.Context, id uint64) (*models.Order, error) {
	var order models.Order
	if err := s.db.WithContext(ctx).Preload("User").Preload("Stock").First(&order, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("fetch commande: %w", err)
	}
	return &order, nil
}

// List returns all commandes, newest first, with the requesting user and
// target stock joined for display.
func (s *OrderService) List(ctx context.Context) ([]models.Order, error) {
	var orders []models.Order
	if err := s.db.WithContext(ctx).Preload("User").Preload("Stock").Order("id desc").Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("list commandes: %w", err)
	}
	return orders, nil
}
