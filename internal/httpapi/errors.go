package httpapi

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/bahodirshoh90/savdo-programmasi-sub001/internal/domain"
)

type errorMapping struct {
	target error
	status int
	code   string
}

var errorMappings = []errorMapping{
	{domain.ErrNotFound, http.StatusNotFound, "not_found"},
	{domain.ErrForbidden, http.StatusForbidden, "forbidden"},
	{domain.ErrOutOfStock, http.StatusConflict, "out_of_stock"},
	{domain.ErrInsufficientStock, http.StatusConflict, "insufficient_stock"},
	{domain.ErrStockChanged, http.StatusConflict, "stock_changed"},
	{domain.ErrAlreadyDecided, http.StatusConflict, "already_decided"},
	{domain.ErrDebtLimitExceeded, http.StatusConflict, "debt_limit_exceeded"},
	{domain.ErrConflict, http.StatusConflict, "conflict"},
	{domain.ErrPaymentRequired, http.StatusUnprocessableEntity, "payment_required"},
	{domain.ErrCustomerRequired, http.StatusBadRequest, "customer_required"},
	{domain.ErrInvalidQuantity, http.StatusBadRequest, "invalid_quantity"},
	{domain.ErrInvalidConfiguration, http.StatusBadRequest, "invalid_configuration"},
	{domain.ErrInvalidSale, http.StatusBadRequest, "invalid_sale"},
}

// writeServiceError maps a service error to its HTTP status and logs
// anything that falls through to 500.
func (a *API) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	for _, m := range errorMappings {
		if !errors.Is(err, m.target) {
			continue
		}
		body := map[string]any{
			"error": err.Error(),
			"code":  m.code,
		}
		var itemErr *domain.ItemError
		if errors.As(err, &itemErr) {
			body["product_id"] = itemErr.ProductID
		}
		writeJSON(w, m.status, body)
		return
	}

	a.logger.Error("request failed",
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Error(err),
	)
	writeError(w, http.StatusInternalServerError, err)
}
