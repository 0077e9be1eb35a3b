package option

import (
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/brokerage/pkg/db/pagination"
	"gorm.io/gorm"
)

const (
	defaultPageSize = 50
	maxPageSize     = 250
)

type QueryOption interface {
	Apply(db *gorm.DB) *gorm.DB
}

type queryOptionFunc func(db *gorm.DB) *gorm.DB

func (f queryOptionFunc) Apply(db *gorm.DB) *gorm.DB {
	return f(db)
}

// ApplyPagination limits the query to one page plus a lookahead row, starting
// after the id carried in the page token. Rows must be ordered by id desc.
func ApplyPagination(page pagination.Pagination) QueryOption {
	return queryOptionFunc(func(db *gorm.DB) *gorm.DB {
		if token := strings.TrimSpace(page.PageToken); token != "" {
			if cursor, err := pagination.DecodeCursor(token); err == nil && cursor != nil {
				if id, err := snowflake.ParseString(cursor.ID); err == nil && id != 0 {
					db = db.Where("id < ?", id)
				}
			}
		}
		return db.Limit(PageSize(page.PageSize) + 1)
	})
}

// PageSize clamps a requested page size into the supported range.
func PageSize(size int) int {
	switch {
	case size <= 0:
		return defaultPageSize
	case size > maxPageSize:
		return maxPageSize
	default:
		return size
	}
}
