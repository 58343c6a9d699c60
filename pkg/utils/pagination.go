package utils

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// PaginationParams represents page-number pagination parameters
type PaginationParams struct {
	Page  int
	Limit int
}

// PageInfo describes a page of results for list responses
type PageInfo struct {
	Page        int   `json:"page"`
	Limit       int   `json:"limit"`
	Total       int64 `json:"total"`
	TotalPages  int   `json:"totalPages"`
	HasNextPage bool  `json:"hasNextPage"`
	HasPrevPage bool  `json:"hasPrevPage"`
}

// NewPageInfo computes page metadata for a total result count
func NewPageInfo(page, limit int, total int64) PageInfo {
	totalPages := int(total) / limit
	if int(total)%limit > 0 {
		totalPages++
	}

	return PageInfo{
		Page:        page,
		Limit:       limit,
		Total:       total,
		TotalPages:  totalPages,
		HasNextPage: page < totalPages,
		HasPrevPage: page > 1,
	}
}

// GetPaginationParams extracts page/limit query parameters from a request
func GetPaginationParams(c echo.Context, defaultLimit int) PaginationParams {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))

	if page <= 0 {
		page = 1
	}

	if limit <= 0 || limit > 100 {
		limit = defaultLimit
	}

	return PaginationParams{
		Page:  page,
		Limit: limit,
	}
}

// PageBounds clamps a page window to a slice of the given length and
// returns the start and end offsets
func PageBounds(page, limit, length int) (int, int) {
	start := (page - 1) * limit
	if start > length {
		start = length
	}

	end := start + limit
	if end > length {
		end = length
	}

	return start, end
}
