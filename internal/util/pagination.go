package util

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Skotchmaster/shelfy/internal/repo"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

var ErrBadQuery = errors.New("bad query parameter")

// SortColumns maps public sort keys to database columns.
var SortColumns = map[string]string{
	"id":           "id",
	"name":         "name",
	"brand":        "brand",
	"price":        "default_price",
	"defaultPrice": "default_price",
	"createdAt":    "created_at",
	"lastUpdate":   "last_update",
}

func ParseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return def
}

// Calculate turns a 0-based page and a size into offset/limit, clamping the
// size to [1, MaxPageSize].
func Calculate(page, size int) (offset int, limit int) {
	if page < 0 {
		page = 0
	}
	switch {
	case size < 1:
		size = DefaultPageSize
	case size > MaxPageSize:
		size = MaxPageSize
	}
	return page * size, size
}

func Meta(page, limit int, total int64) (totalPages int64, hasPrev, hasNext bool) {
	if page < 0 {
		page = 0
	}
	totalPages = (total + int64(limit) - 1) / int64(limit)
	return totalPages, page > 0, int64((page+1)*limit) < total
}

// ParseSort reads values like "price,desc" or "name". Direction defaults to
// ascending.
func ParseSort(values []string) ([]repo.SortField, error) {
	out := make([]repo.SortField, 0, len(values))
	for _, v := range values {
		if strings.TrimSpace(v) == "" {
			continue
		}
		field, dir, _ := strings.Cut(v, ",")
		col, ok := SortColumns[strings.TrimSpace(field)]
		if !ok {
			return nil, fmt.Errorf("%w: unknown sort field %q", ErrBadQuery, field)
		}
		sf := repo.SortField{Column: col}
		switch strings.ToLower(strings.TrimSpace(dir)) {
		case "", "asc":
		case "desc":
			sf.Desc = true
		default:
			return nil, fmt.Errorf("%w: unknown sort direction %q", ErrBadQuery, dir)
		}
		out = append(out, sf)
	}
	return out, nil
}

func ParseFloatPtr(s string) (*float64, error) {
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: %q is not a number", ErrBadQuery, s)
	}
	return &v, nil
}

func ParseBoolPtr(s string) (*bool, error) {
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %q is not a boolean", ErrBadQuery, s)
	}
	return &v, nil
}

func ParseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("%w: id %q", ErrBadQuery, s)
	}
	return id, nil
}
