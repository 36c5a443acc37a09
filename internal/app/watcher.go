package app

import (
	"context"
	"fmt"
	"time"

	"github.com/samvad-hq/seoul-parking-map/internal/config"
	"github.com/samvad-hq/seoul-parking-map/internal/logger"
	"github.com/samvad-hq/seoul-parking-map/internal/storage"
	"github.com/samvad-hq/seoul-parking-map/internal/watcher"
	"github.com/samvad-hq/seoul-parking-map/pkg/districts"
	"github.com/samvad-hq/seoul-parking-map/pkg/publishers"
)

// Watcher is the availability feed runtime. It polls the enabled districts on
// an interval and publishes changed lots through the configured publishers.
type Watcher struct {
	cfg          *config.Config
	districtReg  *districts.Registry
	fanout       *publishers.Fanout
	service      *watcher.Service
	pollInterval time.Duration
	log          logger.Logger
	store        storage.Store
}

// NewWatcher builds a watcher runtime from config files.
func NewWatcher(ctx context.Context, cfg *config.Config, log logger.Logger) (*Watcher, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	log = logger.Ensure(log)
	if ctx == nil {
		ctx = context.Background()
	}

	districtReg, err := districts.LoadRegistry(cfg.DistrictsFile)
	if err != nil {
		return nil, fmt.Errorf("load districts registry: %w", err)
	}
	enabled := districtReg.Enabled()
	ids := make([]string, 0, len(enabled))
	for _, d := range enabled {
		ids = append(ids, d.ID)
	}
	log.InfoObj("districts registry loaded", "districts_meta", map[string]any{
		"count":   len(districtReg.All()),
		"enabled": ids,
	})

	publisherReg, err := publishers.LoadRegistry(cfg.PublishersFile)
	if err != nil {
		return nil, fmt.Errorf("load publishers registry: %w", err)
	}
	enabledPublishers := publisherReg.Enabled()
	if len(enabledPublishers) == 0 {
		return nil, fmt.Errorf("no publishers configured")
	}

	client, err := newParkingClient(cfg, log)
	if err != nil {
		return nil, err
	}

	pubClients, err := publishers.BuildAll(ctx, publishers.DefaultRegistry(), enabledPublishers, log)
	if err != nil {
		return nil, fmt.Errorf("build publishers: %w", err)
	}
	fanout := publishers.NewFanout(pubClients)
	summaries := make([]map[string]string, 0, len(enabledPublishers))
	for _, pubCfg := range enabledPublishers {
		summaries = append(summaries, map[string]string{
			"id":   pubCfg.ID,
			"type": pubCfg.Type,
		})
	}
	log.InfoObj("publishers registry loaded", "publishers_meta", map[string]any{
		"count":      len(summaries),
		"publishers": summaries,
	})

	store, err := storage.NewStore(cfg.StorageType, cfg.BBoltPath, storage.Options{
		SnapshotTTL:     cfg.StorageTTL,
		CleanupInterval: cfg.StorageCleanupInterval,
	})
	if err != nil {
		_ = fanout.Close()
		return nil, fmt.Errorf("init storage: %w", err)
	}
	log.InfoObj("storage initialized", "storage_config", map[string]any{
		"type":                     cfg.StorageType,
		"path":                     cfg.BBoltPath,
		"snapshot_ttl_seconds":     int(cfg.StorageTTL.Seconds()),
		"cleanup_interval_seconds": int(cfg.StorageCleanupInterval.Seconds()),
	})

	return &Watcher{
		cfg:          cfg,
		districtReg:  districtReg,
		fanout:       fanout,
		service:      watcher.NewService(client, fanout, log, store),
		pollInterval: cfg.PollInterval,
		log:          log,
		store:        store,
	}, nil
}

// Run starts the poll loop until the context is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	if w == nil || w.service == nil {
		return fmt.Errorf("watcher is not initialized")
	}
	defer w.close()

	list := w.districtReg.Enabled()
	if len(list) == 0 {
		w.log.WarnObj("no districts enabled; watcher idle", "districts_file", w.cfg.DistrictsFile)
		<-ctx.Done()
		return ctx.Err()
	}

	w.log.InfoObj("watcher loop starting", "watcher_state", map[string]any{
		"districts_count":  len(list),
		"publishers_count": w.fanout.Size(),
		"poll_interval":    w.pollInterval.String(),
	})

	if err := w.runOnce(ctx, list); err != nil {
		w.log.ErrorObj("initial poll failed", "error", err.Error())
	}

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.InfoObj("watcher loop exiting", "reason", ctx.Err().Error())
			return nil
		case <-ticker.C:
			if err := w.runOnce(ctx, list); err != nil {
				w.log.ErrorObj("scheduled poll failed", "error", err.Error())
			}
		}
	}
}

// runOnce performs a single poll pass across the given districts.
func (w *Watcher) runOnce(ctx context.Context, list []districts.District) error {
	start := time.Now()
	w.log.InfoObj("poll started", "poll_meta", map[string]any{
		"districts_count": len(list),
		"started_at":      start.UTC(),
	})
	if err := w.service.Run(ctx, list); err != nil {
		return err
	}
	w.log.InfoObj("poll completed", "poll_meta", map[string]any{
		"districts_count": len(list),
		"elapsed_ms":      time.Since(start).Milliseconds(),
	})
	return nil
}

// close releases publishers and the storage backend, logging any errors.
func (w *Watcher) close() {
	if w == nil {
		return
	}
	if w.fanout != nil {
		if err := w.fanout.Close(); err != nil {
			w.log.ErrorObj("publisher close failed", "error", err.Error())
		}
	}
	if w.store != nil {
		if err := w.store.Close(); err != nil {
			w.log.ErrorObj("storage close failed", "error", err.Error())
		}
	}
}
