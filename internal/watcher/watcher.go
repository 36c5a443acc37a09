// Package watcher polls the configured districts and publishes parking
// availability changes.
package watcher

import (
	"context"
	"errors"
	"time"

	"github.com/samvad-hq/seoul-parking-map/internal/logger"
	"github.com/samvad-hq/seoul-parking-map/pkg/districts"
)

// Service coordinates polling across multiple districts.
type Service struct {
	processor *DistrictProcessor
	log       logger.Logger
}

// NewService wires a watcher with its fetcher, publisher and snapshot store.
func NewService(fetcher Fetcher, publisher EventPublisher, log logger.Logger, store SnapshotStore) *Service {
	log = logger.Ensure(log)
	return &Service{
		processor: NewDistrictProcessor(fetcher, publisher, log, store),
		log:       log,
	}
}

// Run executes one poll pass over the given districts.
func (s *Service) Run(ctx context.Context, list []districts.District) error {
	if s == nil || s.processor == nil {
		return errors.New("watcher service is not initialized")
	}
	if len(list) == 0 {
		return errors.New("no districts configured for polling")
	}
	return errors.Join(s.runAll(ctx, list)...)
}

func (s *Service) runAll(ctx context.Context, list []districts.District) []error {
	errs := make([]error, 0, len(list))

	for i, d := range list {
		if ctx.Err() != nil {
			break
		}
		if err := s.processor.Process(ctx, d); err != nil {
			errs = append(errs, err)
			s.log.ErrorObj("district poll failed", "district_error", map[string]any{
				"district_id": d.ID,
				"error":       err.Error(),
			})
		}
		if i < len(list)-1 {
			if !sleepCtx(ctx, d.RequestDelay()) {
				break
			}
		}
	}

	return errs
}

// sleepCtx pauses for d and reports false if ctx ended first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
