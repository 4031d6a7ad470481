package postgres

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/repositories"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// handleDBError maps gorm errors onto repository sentinels
func handleDBError(err error, operation string) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%s: %w", operation, repositories.ErrNotFound)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%s: %w", operation, repositories.ErrDuplicate)
	}
	return fmt.Errorf("%s failed: %w", operation, err)
}

// requireAffected turns a no-op write into ErrNotFound
func requireAffected(res *gorm.DB, operation string) error {
	if res.Error != nil {
		return handleDBError(res.Error, operation)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%s: %w", operation, repositories.ErrNotFound)
	}
	return nil
}

// normalizePage clamps a zero-based page and its size
func normalizePage(page, size int) (int, int) {
	if page < 0 {
		page = 0
	}
	if size <= 0 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	return page, size
}

func applyPagination(query *gorm.DB, page, size int) *gorm.DB {
	page, size = normalizePage(page, size)
	return query.Limit(size).Offset(page * size)
}

// likePattern escapes LIKE wildcards in user input
func likePattern(q string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(strings.TrimSpace(q)) + "%"
}
