package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/diewo77/go-stocks/internal/db"
	"github.com/diewo77/go-stocks/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	// Use a unique in-memory database per test to avoid cross-test collisions.
	dsn := "file:" + t.Name() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return conn
}

func seedUser(t *testing.T, conn *gorm.DB, email, role string) models.User {
	t.Helper()
	user := models.User{Nom: "Test", Prenom: "User", Email: email, Password: "x", Role: role}
	if err := conn.Create(&user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user
}

func seedStock(t *testing.T, conn *gorm.DB, nom, typ string, qty int64) models.Stock {
	t.Helper()
	stock := models.Stock{Nom: nom, Type: typ, QuantiteDisponible: qty}
	if err := conn.Create(&stock).Error; err != nil {
		t.Fatalf("seed stock: %v", err)
	}
	return stock
}

func seedOrder(t *testing.T, conn *gorm.DB, userID, stockID uint64, qty int64) models.Order {
	t.Helper()
	order := models.Order{UserID: userID, StockID: stockID, Quantite: qty, DateCommande: time.Now(), Statut: models.OrderStatusPending}
	if err := conn.Create(&order).Error; err != nil {
		t.Fatalf("seed order: %v", err)
	}
	return order
}

func TestAcceptOrder(t *testing.T) {
	conn := setupTestDB(t)
	svc := NewOrderService(conn, nil)
	ctx := context.Background()

	user := seedUser(t, conn, "u@test", models.RoleDemandeur)
	stock := seedStock(t, conn, "Gants", models.StockTypeMateriel, 10)
	order := seedOrder(t, conn, user.ID, stock.ID, 4)

	accepted, err := svc.Accept(ctx, order.ID)
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	if accepted.Statut != models.OrderStatusAccepted {
		t.Fatalf("expected statut %s got %s", models.OrderStatusAccepted, accepted.Statut)
	}
	if accepted.Stock.QuantiteDisponible != 6 {
		t.Fatalf("expected remaining 6 got %d", accepted.Stock.QuantiteDisponible)
	}

	var after models.Stock
	if err := conn.First(&after, stock.ID).Error; err != nil {
		t.Fatalf("reload stock: %v", err)
	}
	if after.QuantiteDisponible != 6 {
		t.Fatalf("expected stock 6 got %d", after.QuantiteDisponible)
	}

	var movements []models.StockMovement
	if err := conn.Where("order_id = ?", order.ID).Find(&movements).Error; err != nil {
		t.Fatalf("find movements: %v", err)
	}
	if len(movements) != 1 {
		t.Fatalf("expected exactly 1 movement got %d", len(movements))
	}
	if movements[0].Type != models.MovementOut || movements[0].Quantite != 4 || movements[0].StockID != stock.ID {
		t.Fatalf("unexpected movement: %+v", movements[0])
	}
}

func TestAcceptOrderInsufficientStock(t *testing.T) {
	conn := setupTestDB(t)
	svc := NewOrderService(conn, nil)
	ctx := context.Background()

	user := seedUser(t, conn, "u@test", models.RoleDemandeur)
	stock := seedStock(t, conn, "Gants", models.StockTypeMateriel, 6)
	order := seedOrder(t, conn, user.ID, stock.ID, 10)

	if _, err := svc.Accept(ctx, order.ID); !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock got %v", err)
	}

	// No side effects: stock, ledger and statut are untouched.
	var after models.Stock
	if err := conn.First(&after, stock.ID).Error; err != nil {
		t.Fatalf("reload stock: %v", err)
	}
	if after.QuantiteDisponible != 6 {
		t.Fatalf("expected stock 6 got %d", after.QuantiteDisponible)
	}
	var count int64
	conn.Model(&models.StockMovement{}).Count(&count)
	if count != 0 {
		t.Fatalf("expected 0 movements got %d", count)
	}
	var reloaded models.Order
	if err := conn.First(&reloaded, order.ID).Error; err != nil {
		t.Fatalf("reload order: %v", err)
	}
	if reloaded.Statut != models.OrderStatusPending {
		t.Fatalf("expected statut en_attente got %s", reloaded.Statut)
	}
}

func TestAcceptOrderNotFound(t *testing.T) {
	conn := setupTestDB(t)
	svc := NewOrderService(conn, nil)
	if _, err := svc.Accept(context.Background(), 999); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound got %v", err)
	}
}

func TestAcceptOrderAlreadyDecided(t *testing.T) {
	conn := setupTestDB(t)
	svc := NewOrderService(conn, nil)
	ctx := context.Background()

	user := seedUser(t, conn, "u@test", models.RoleDemandeur)
	stock := seedStock(t, conn, "Gants", models.StockTypeMateriel, 10)
	order := seedOrder(t, conn, user.ID, stock.ID, 2)

	if _, err := svc.Accept(ctx, order.ID); err != nil {
		t.Fatalf("first accept: %v", err)
	}
	if _, err := svc.Accept(ctx, order.ID); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState got %v", err)
	}
	// A second accept must not decrement again.
	var after models.Stock
	conn.First(&after, stock.ID)
	if after.QuantiteDisponible != 8 {
		t.Fatalf("expected stock 8 got %d", after.QuantiteDisponible)
	}
}

func TestAcceptOrderCompetingOrders(t *testing.T) {
	conn := setupTestDB(t)
	svc := NewOrderService(conn, nil)
	ctx := context.Background()

	user := seedUser(t, conn, "u@test", models.RoleDemandeur)
	stock := seedStock(t, conn, "Compresses", models.StockTypeMateriel, 10)
	first := seedOrder(t, conn, user.ID, stock.ID, 6)
	second := seedOrder(t, conn, user.ID, stock.ID, 6)

	// Stock suffices for only one of the two: exactly one accept wins.
	if _, err := svc.Accept(ctx, first.ID); err != nil {
		t.Fatalf("first accept: %v", err)
	}
	if _, err := svc.Accept(ctx, second.ID); !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock got %v", err)
	}

	var after models.Stock
	conn.First(&after, stock.ID)
	if after.QuantiteDisponible != 4 {
		t.Fatalf("expected stock 4 got %d", after.QuantiteDisponible)
	}
	var count int64
	conn.Model(&models.StockMovement{}).Count(&count)
	if count != 1 {
		t.Fatalf("expected 1 movement got %d", count)
	}
}

func TestRefuseOrder(t *testing.T) {
	conn := setupTestDB(t)
	svc := NewOrderService(conn, nil)
	ctx := context.Background()

	user := seedUser(t, conn, "u@test", models.RoleDemandeur)
	stock := seedStock(t, conn, "Gants", models.StockTypeMateriel, 10)
	order := seedOrder(t, conn, user.ID, stock.ID, 4)

	refused, err := svc.Refuse(ctx, order.ID)
	if err != nil {
		t.Fatalf("refuse: %v", err)
	}
	if refused.Statut != models.OrderStatusRefused {
		t.Fatalf("expected statut refuser got %s", refused.Statut)
	}

	// Refusal never touches stock or the ledger.
	var after models.Stock
	conn.First(&after, stock.ID)
	if after.QuantiteDisponible != 10 {
		t.Fatalf("expected stock 10 got %d", after.QuantiteDisponible)
	}
	var count int64
	conn.Model(&models.StockMovement{}).Count(&count)
	if count != 0 {
		t.Fatalf("expected 0 movements got %d", count)
	}

	if _, err := svc.Refuse(ctx, order.ID); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState got %v", err)
	}
	if _, err := svc.Refuse(ctx, 999); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound got %v", err)
	}
}

func TestCreateOrder(t *testing.T) {
	conn := setupTestDB(t)
	svc := NewOrderService(conn, nil)
	ctx := context.Background()

	user := seedUser(t, conn, "u@test", models.RoleDemandeur)
	stock := seedStock(t, conn, "Gants", models.StockTypeMateriel, 10)

	order, err := svc.Create(ctx, CreateOrderInput{UserID: user.ID, StockID: stock.ID, Quantite: 3})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if order.Statut != models.OrderStatusPending {
		t.Fatalf("expected statut en_attente got %s", order.Statut)
	}
	if order.DateCommande.IsZero() {
		t.Fatal("expected default date to be set")
	}

	// Availability is not checked at creation time.
	if _, err := svc.Create(ctx, CreateOrderInput{UserID: user.ID, StockID: stock.ID, Quantite: 999}); err != nil {
		t.Fatalf("create beyond availability: %v", err)
	}

	var vErr *ValidationError
	if _, err := svc.Create(ctx, CreateOrderInput{UserID: user.ID, StockID: stock.ID, Quantite: 0}); !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError got %v", err)
	}
	if _, err := svc.Create(ctx, CreateOrderInput{UserID: user.ID, StockID: 999, Quantite: 1}); !errors.Is(err, ErrStockNotFound) {
		t.Fatalf("expected ErrStockNotFound got %v", err)
	}
	if _, err := svc.Create(ctx, CreateOrderInput{UserID: 999, StockID: stock.ID, Quantite: 1}); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound got %v", err)
	}
}

func TestUpdateOrder(t *testing.T) {
	conn := setupTestDB(t)
	svc := NewOrderService(conn, nil)
	ctx := context.Background()

	user := seedUser(t, conn, "u@test", models.RoleDemandeur)
	stock := seedStock(t, conn, "Gants", models.StockTypeMateriel, 10)
	other := seedStock(t, conn, "Compresses", models.StockTypeMateriel, 5)
	order := seedOrder(t, conn, user.ID, stock.ID, 4)

	qty := int64(2)
	updated, err := svc.Update(ctx, order.ID, UpdateOrderInput{Quantite: &qty, StockID: &other.ID})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	var reloaded models.Order
	conn.First(&reloaded, updated.ID)
	if reloaded.Quantite != 2 || reloaded.StockID != other.ID {
		t.Fatalf("unexpected order after update: %+v", reloaded)
	}
	if reloaded.Statut != models.OrderStatusPending {
		t.Fatalf("update must not alter statut, got %s", reloaded.Statut)
	}

	missing := uint64(999)
	if _, err := svc.Update(ctx, order.ID, UpdateOrderInput{StockID: &missing}); !errors.Is(err, ErrStockNotFound) {
		t.Fatalf("expected ErrStockNotFound got %v", err)
	}

	// Once decided, edits are rejected.
	if _, err := svc.Accept(ctx, order.ID); err != nil {
		t.Fatalf("accept: %v", err)
	}
	if _, err := svc.Update(ctx, order.ID, UpdateOrderInput{Quantite: &qty}); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState got %v", err)
	}
}

func TestDeleteOrder(t *testing.T) {
	conn := setupTestDB(t)
	svc := NewOrderService(conn, nil)
	ctx := context.Background()

	user := seedUser(t, conn, "u@test", models.RoleDemandeur)
	stock := seedStock(t, conn, "Gants", models.StockTypeMateriel, 10)
	order := seedOrder(t, conn, user.ID, stock.ID, 4)

	if err := svc.Delete(ctx, order.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	var count int64
	conn.Model(&models.Order{}).Count(&count)
	if count != 0 {
		t.Fatalf("expected 0 orders got %d", count)
	}
	// Nothing was decremented for a pending commande.
	var after models.Stock
	conn.First(&after, stock.ID)
	if after.QuantiteDisponible != 10 {
		t.Fatalf("expected stock 10 got %d", after.QuantiteDisponible)
	}

	if err := svc.Delete(ctx, order.ID); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound got %v", err)
	}
}

func TestListOrdersPreloadsRelations(t *testing.T) {
	conn := setupTestDB(t)
	svc := NewOrderService(conn, nil)
	ctx := context.Background()

	user := seedUser(t, conn, "u@test", models.RoleDemandeur)
	stock := seedStock(t, conn, "Gants", models.StockTypeMateriel, 10)
	seedOrder(t, conn, user.ID, stock.ID, 4)

	orders, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(orders) != 1 {
		t.Fatalf("expected 1 order got %d", len(orders))
	}
	if orders[0].User.Email != "u@test" || orders[0].Stock.Nom != "Gants" {
		t.Fatalf("expected joined user and stock, got %+v", orders[0])
	}
}
