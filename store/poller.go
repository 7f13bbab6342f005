package store

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"table-order/models"
)

// RefreshOrders fetches the staff order list and replaces the local one
// wholesale.
func (s *Store) RefreshOrders(ctx context.Context) error {
	start := time.Now()
	orders, err := s.backend.FetchOrders(ctx, models.OrderFilter{Limit: s.pollLimit})
	s.metrics.ObservePoll(time.Since(start))
	if err != nil {
		return s.backendErr("fetch_orders", err)
	}
	s.engine.ReplaceAll(orders)
	return nil
}

// RefreshCatalog reloads the menu and the brand settings. Both are
// attempted; the first failure is returned.
func (s *Store) RefreshCatalog(ctx context.Context) error {
	menuErr := s.RefreshMenu(ctx)
	settingsErr := s.RefreshSettings(ctx)
	if menuErr != nil {
		return menuErr
	}
	return settingsErr
}

// Poll refreshes the order list every interval and the catalog every
// catalog interval until ctx is done. Failed polls are logged and the
// previous data is kept.
func (s *Store) Poll(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return errors.New("poll interval must be positive")
	}
	catalogInterval := s.catalogInterval
	if catalogInterval <= 0 {
		catalogInterval = interval
	}
	s.log.Info("polling started", zap.Duration("interval", interval), zap.Duration("catalog_interval", catalogInterval))

	s.pollOrders(ctx)
	s.pollCatalog(ctx)

	orders := time.NewTicker(interval)
	defer orders.Stop()
	catalog := time.NewTicker(catalogInterval)
	defer catalog.Stop()
	for {
		select {
		case <-ctx.Done():
			s.log.Info("polling stopped")
			return nil
		case <-orders.C:
			s.pollOrders(ctx)
		case <-catalog.C:
			s.pollCatalog(ctx)
		}
	}
}

func (s *Store) pollOrders(ctx context.Context) {
	if err := s.RefreshOrders(ctx); err != nil && ctx.Err() == nil {
		s.log.Warn("order poll failed", zap.Error(err))
	}
}

func (s *Store) pollCatalog(ctx context.Context) {
	if err := s.RefreshCatalog(ctx); err != nil && ctx.Err() == nil {
		s.log.Warn("catalog poll failed", zap.Error(err))
	}
}
