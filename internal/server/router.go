package server

import (
	"context"
	"net/http"
	"time"

	"github.com/diewo77/go-stocks/internal/auth"
	"github.com/diewo77/go-stocks/internal/handlers"
	"github.com/diewo77/go-stocks/internal/httpx"
	"github.com/diewo77/go-stocks/internal/models"
	"github.com/diewo77/go-stocks/internal/services"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// New constructs the root http.Handler with all routes and middlewares applied.
func New(db *gorm.DB, log *zap.Logger) http.Handler {
	if log == nil {
		log = zap.NewNop()
	}
	mux := http.NewServeMux()

	// Sessions must refer to a user that still exists.
	auth.SetUserVerifier(func(_ context.Context, uid uint64) bool {
		var count int64
		if err := db.Model(&models.User{}).Where("id = ?", uid).Limit(1).Count(&count).Error; err != nil {
			return false
		}
		return count > 0
	})

	// --- Health endpoints ---
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, _ *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		if err := db.Exec("SELECT 1").Error; err != nil {
			httpx.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	authHandler := handlers.NewAuthHandler(db)
	authHandler.Register(mux)

	requireUser := func(h http.HandlerFunc) http.Handler {
		return auth.Middleware(auth.RequireAuth(h))
	}
	requireAdmin := func(h http.HandlerFunc) http.Handler {
		return auth.Middleware(auth.RequireAuth(adminGate(db, h)))
	}

	// Stock endpoints: reads for any authenticated user, mutations admin-only.
	stockSvc := services.NewStockService(db, log.Named("stocks"))
	sh := handlers.NewStockHandler(stockSvc)
	mux.Handle("GET /stocks", requireUser(sh.List))
	mux.Handle("POST /stocks", requireAdmin(sh.Create))
	mux.Handle("PUT /stocks/{id}", requireAdmin(sh.Update))
	mux.Handle("DELETE /stocks/{id}", requireAdmin(sh.Delete))
	mux.Handle("GET /mouvements", requireAdmin(sh.Movements))

	// Commande endpoints. Ownership of pending edits is checked in the
	// handler; the accept/refuse decision is admin-only.
	orderSvc := services.NewOrderService(db, log.Named("commandes"))
	oh := handlers.NewOrderHandler(db, orderSvc)
	mux.Handle("GET /commandes", requireUser(oh.List))
	mux.Handle("POST /commandes", requireUser(oh.Create))
	mux.Handle("PUT /commandes/{id}", requireUser(oh.Update))
	mux.Handle("DELETE /commandes/{id}", requireUser(oh.Delete))
	mux.Handle("PATCH /commandes/{id}", requireAdmin(oh.Decide))

	return withRecover(log, withLogging(log, mux))
}

// adminGate rejects requests whose session user does not hold the admin role.
func adminGate(db *gorm.DB, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := auth.UserIDFromContext(r.Context())
		if !ok {
			httpx.JSONError(w, http.StatusUnauthorized, "unauthorized", nil)
			return
		}
		var user models.User
		if err := db.First(&user, uid).Error; err != nil || user.Role != models.RoleAdmin {
			httpx.JSONError(w, http.StatusForbidden, "forbidden", nil)
			return
		}
		next(w, r)
	}
}

func withLogging(log *zap.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("duration", time.Since(start)))
	})
}

func withRecover(log *zap.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				log.Error("panic recovered", zap.Any("panic", rec), zap.String("path", r.URL.Path))
				httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
