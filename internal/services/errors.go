package services

import (
	"errors"
	"fmt"

	"github.com/diewo77/go-stocks/internal/validation"
)

// Sentinel errors for the business layer. Handlers discriminate with
// errors.Is and map each kind to a status code; control flow never depends
// on message text.
var (
	ErrUserNotFound      = errors.New("utilisateur introuvable")
	ErrStockNotFound     = errors.New("stock introuvable")
	ErrOrderNotFound     = errors.New("commande introuvable")
	ErrInsufficientStock = errors.New("stock insuffisant")
	ErrDuplicateStock    = errors.New("stock deja existant")
	ErrInvalidState      = errors.New("statut de commande incompatible")
)

// ValidationError carries per-field violations for malformed input.
type ValidationError struct {
	Violations validation.Violations
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %v", map[string]string(e.Violations))
}
