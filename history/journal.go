// Package history keeps the local audit trail of applied order transitions.
package history

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"table-order/models"
)

type Journal struct {
	db  *gorm.DB
	now func() time.Time
}

// New expects db to have models.StatusChange migrated (see config.OpenDB)
func New(db *gorm.DB) *Journal {
	return &Journal{db: db, now: time.Now}
}

func (j *Journal) Record(ctx context.Context, change models.StatusChange) error {
	if change.CreatedAt.IsZero() {
		change.CreatedAt = j.now()
	}
	if err := j.db.WithContext(ctx).Create(&change).Error; err != nil {
		return fmt.Errorf("record status change for order %s: %w", change.OrderID, err)
	}
	return nil
}

// ForOrder returns an order's changes oldest first
func (j *Journal) ForOrder(ctx context.Context, orderID string) ([]models.StatusChange, error) {
	var changes []models.StatusChange
	err := j.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at asc, id asc").
		Find(&changes).Error
	if err != nil {
		return nil, fmt.Errorf("load history for order %s: %w", orderID, err)
	}
	return changes, nil
}
