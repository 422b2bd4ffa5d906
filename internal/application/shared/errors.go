package shared

import (
	"errors"

	domain "github.com/retailcore/backend/internal/domain/shared"
)

// ErrorCode returns the domain error code of err, or "INTERNAL_ERROR".
func ErrorCode(err error) string {
	var de *domain.DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return "INTERNAL_ERROR"
}

// ListParams are the paging fields shared by list requests.
type ListParams struct {
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy  string `form:"order_by"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// Filter converts the params into a normalized domain filter.
func (p ListParams) Filter() domain.Filter {
	return domain.Filter{
		Page:     p.Page,
		PageSize: p.PageSize,
		OrderBy:  p.OrderBy,
		OrderDir: p.OrderDir,
	}.Normalize()
}
