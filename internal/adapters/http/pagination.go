package http

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
)

const (
	defaultPageLimit = 100
	maxPageLimit     = 500
)

// PaginatedResponse wraps one page of a list with its position in the whole.
type PaginatedResponse[T any] struct {
	Data       []T        `json:"data"`
	Pagination Pagination `json:"pagination"`
}

// Pagination contains offset-based pagination info.
type Pagination struct {
	Offset int `json:"offset"`
	Limit  int `json:"limit"`
	Total  int `json:"total"`
}

// parsePagination reads offset and limit from the query string. A negative
// offset is clamped to 0; a limit outside (0, maxPageLimit] falls back to the
// default.
func parsePagination(c *fiber.Ctx) Pagination {
	offset := c.QueryInt("offset", 0)
	limit := c.QueryInt("limit", defaultPageLimit)
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 || limit > maxPageLimit {
		limit = defaultPageLimit
	}
	return Pagination{Offset: offset, Limit: limit}
}

// paginate cuts the page described by p out of items, converting each
// element with conv. p.Total is set from items.
func paginate[S, T any](items []S, p Pagination, conv func(S) T) PaginatedResponse[T] {
	p.Total = len(items)
	data := make([]T, 0, min(p.Limit, max(p.Total-p.Offset, 0)))
	if p.Offset < p.Total {
		end := min(p.Offset+p.Limit, p.Total)
		for _, it := range items[p.Offset:end] {
			data = append(data, conv(it))
		}
	}
	return PaginatedResponse[T]{Data: data, Pagination: p}
}

// SetLinkHeaders adds RFC 8288 Link headers (first, prev, next, last) for
// the page p of the current path.
func SetLinkHeaders(c *fiber.Ctx, p Pagination) {
	base := c.Path()
	link := func(offset int, rel string) string {
		return fmt.Sprintf(`<%s?offset=%d&limit=%d>; rel="%s"`, base, offset, p.Limit, rel)
	}

	links := []string{link(0, "first")}
	if p.Offset > 0 {
		links = append(links, link(max(p.Offset-p.Limit, 0), "prev"))
	}
	if p.Offset+p.Limit < p.Total {
		links = append(links, link(p.Offset+p.Limit, "next"))
	}
	links = append(links, link(max(p.Total-p.Limit, 0), "last"))

	c.Set("Link", strings.Join(links, ", "))
}
