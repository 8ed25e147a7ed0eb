package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"co2-bunny/internal/core"
	"co2-bunny/internal/features/impact/models"
)

const (
	DefaultRecentLimit = 10
	MaxRecentLimit     = 100
)

// HistoryStore is the read side of the analysis store
type HistoryStore interface {
	ListByURL(ctx context.Context, url string) ([]models.WebsiteAnalysis, error)
	ListRecent(ctx context.Context, limit int) ([]models.WebsiteAnalysis, error)
}

// History answers read-only questions about stored analyses
type History struct {
	store  HistoryStore
	logger *core.Logger
}

func NewHistory(logger *core.Logger, store HistoryStore) *History {
	return &History{
		store:  store,
		logger: logger,
	}
}

// ListByURL returns every analysis for the exact url, newest first
func (h *History) ListByURL(ctx context.Context, url string) ([]models.WebsiteAnalysis, error) {
	if err := requireURL(url); err != nil {
		return nil, err
	}
	return h.store.ListByURL(ctx, url)
}

// ListRecent returns the newest analyses. An empty limit means
// DefaultRecentLimit; anything else must be an integer in [1, MaxRecentLimit].
func (h *History) ListRecent(ctx context.Context, limitParam string) ([]models.WebsiteAnalysis, error) {
	limit, err := ParseRecentLimit(limitParam)
	if err != nil {
		return nil, err
	}
	return h.store.ListRecent(ctx, limit)
}

// ParseRecentLimit validates a raw limit value
func ParseRecentLimit(limitParam string) (int, error) {
	limitParam = strings.TrimSpace(limitParam)
	if limitParam == "" {
		return DefaultRecentLimit, nil
	}

	limit, err := strconv.Atoi(limitParam)
	if err != nil || limit < 1 || limit > MaxRecentLimit {
		return 0, core.NewValidationError(fmt.Sprintf("limit must be an integer between 1 and %d", MaxRecentLimit), err)
	}
	return limit, nil
}
