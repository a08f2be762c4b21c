package handlers

import (
	"strconv"

	"github.com/tommusungu/MentaCareBack/internal/models"
)

const (
	defaultPageLimit = 10
	maxPageLimit     = 50
)

// parsePositiveInt reads a page or limit query value, falling back when the
// value is missing, malformed, or non-positive.
func parsePositiveInt(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}

func buildPaginationMeta(page, limit, total int) models.PaginationMeta {
	totalPages := 0
	if total > 0 {
		totalPages = (total + limit - 1) / limit
	}

	return models.PaginationMeta{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: totalPages,
	}
}
