package repository

import (
	"fmt"

	"gorm.io/gorm"

	"finrag/internal/model"
)

// ExchangeRepository persists archived exchanges. Write-mostly: the service
// never reads archived exchanges back into session memory.
type ExchangeRepository struct {
	db *gorm.DB
}

func NewExchangeRepository(db *gorm.DB) *ExchangeRepository {
	return &ExchangeRepository{db: db}
}

func (r *ExchangeRepository) Create(exchange *model.Exchange) error {
	if err := r.db.Create(exchange).Error; err != nil {
		return fmt.Errorf("create exchange failed: %w", err)
	}
	return nil
}

// ListBySessionID returns archived exchanges for one session in
// chronological order, capped at limit. Used by the ops listing endpoint.
func (r *ExchangeRepository) ListBySessionID(sessionID string, limit int) ([]model.Exchange, error) {
	if limit <= 0 || limit > 200 {
		limit = 100
	}
	var exchanges []model.Exchange
	if err := r.db.Where("session_id = ?", sessionID).Order("created_at ASC").Limit(limit).Find(&exchanges).Error; err != nil {
		return nil, fmt.Errorf("list exchanges failed: %w", err)
	}
	return exchanges, nil
}
