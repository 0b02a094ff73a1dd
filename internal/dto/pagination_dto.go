package dto

// Page size bounds shared by every listing.
const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// PageRequest carries the 1-indexed page and its size. Zero values fall back
// to the defaults; negative values fail validation.
type PageRequest struct {
	Page     int `json:"page" validate:"gte=0"`
	PageSize int `json:"pageSize" validate:"gte=0"`
}

// Normalize applies the defaults and the page size cap.
func (p PageRequest) Normalize() PageRequest {
	if p.Page <= 0 {
		p.Page = 1
	}
	if p.PageSize <= 0 {
		p.PageSize = DefaultPageSize
	}
	if p.PageSize > MaxPageSize {
		p.PageSize = MaxPageSize
	}
	return p
}

// PaginationMeta describes a page of results.
type PaginationMeta struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"pageSize"`
	TotalItems int64 `json:"totalItems"`
	TotalPages int   `json:"totalPages"`
}

// NewPaginationMeta computes the page count for an already normalized request.
func NewPaginationMeta(page PageRequest, total int64) PaginationMeta {
	meta := PaginationMeta{Page: page.Page, PageSize: page.PageSize, TotalItems: total}
	if page.PageSize > 0 {
		meta.TotalPages = int((total + int64(page.PageSize) - 1) / int64(page.PageSize))
	}
	return meta
}
