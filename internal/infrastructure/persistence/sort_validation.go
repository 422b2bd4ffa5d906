package persistence

import (
	"strings"

	"github.com/retailcore/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// ValidateSortOrder validates and normalizes the sort order to ASC or DESC.
// Returns "DESC" as the default if the input is invalid or empty.
func ValidateSortOrder(orderDir string) string {
	normalized := strings.ToUpper(strings.TrimSpace(orderDir))
	if normalized == "ASC" {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField validates the sort field against a whitelist of allowed fields.
// Returns the defaultField if the input is invalid, empty, or not in the whitelist.
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if trimmed == "" {
		return defaultField
	}
	if allowedFields[trimmed] {
		return trimmed
	}
	return defaultField
}

// OrderSortFields contains allowed sort fields for orders
var OrderSortFields = map[string]bool{
	"created_at":     true,
	"updated_at":     true,
	"order_number":   true,
	"status":         true,
	"total_amount":   true,
	"total_quantity": true,
}

// DebtSortFields contains allowed sort fields for debts
var DebtSortFields = map[string]bool{
	"created_at": true,
	"updated_at": true,
	"total_sale": true,
	"status":     true,
	"due_date":   true,
}

// CashSessionSortFields contains allowed sort fields for cash sessions
var CashSessionSortFields = map[string]bool{
	"created_at":    true,
	"starting_open": true,
	"closing_date":  true,
	"status":        true,
}

// StockMovementSortFields contains allowed sort fields for ledger entries
var StockMovementSortFields = map[string]bool{
	"created_at": true,
	"quantity":   true,
	"reason":     true,
}

// paginate applies whitelisted ordering and the page window of filter
func paginate(query *gorm.DB, filter shared.Filter, allowed map[string]bool) *gorm.DB {
	field := ValidateSortField(filter.OrderBy, allowed, "created_at")
	query = query.Order(field + " " + ValidateSortOrder(filter.OrderDir))
	if filter.Page > 0 && filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}
	return query
}
