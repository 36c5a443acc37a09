package watcher

import (
	"context"
	"crypto/sha1" //nolint:gosec // non-cryptographic fingerprint
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/samber/lo"

	"github.com/samvad-hq/seoul-parking-map/internal/domain"
	"github.com/samvad-hq/seoul-parking-map/internal/logger"
	"github.com/samvad-hq/seoul-parking-map/pkg/districts"
	"github.com/samvad-hq/seoul-parking-map/pkg/publishers"
	"github.com/samvad-hq/seoul-parking-map/pkg/seoulapi"
)

// DistrictProcessor polls one district and publishes lots whose availability changed.
type DistrictProcessor struct {
	fetcher   Fetcher
	publisher EventPublisher
	log       logger.Logger
	store     SnapshotStore
}

// NewDistrictProcessor wires a processor. A nil store publishes every snapshot.
func NewDistrictProcessor(fetcher Fetcher, publisher EventPublisher, log logger.Logger, store SnapshotStore) *DistrictProcessor {
	return &DistrictProcessor{
		fetcher:   fetcher,
		publisher: publisher,
		log:       logger.Ensure(log),
		store:     store,
	}
}

// Process fetches the district and publishes one event per unseen snapshot.
func (p *DistrictProcessor) Process(ctx context.Context, d districts.District) error {
	if p == nil || p.fetcher == nil {
		return errors.New("district processor is not initialized")
	}

	data, err := p.fetcher.Fetch(ctx, d.Name)
	if errors.Is(err, seoulapi.ErrNoData) {
		p.log.InfoObj("district has no parking data", "district_empty", map[string]any{
			"district_id": d.ID,
			"district":    d.Name,
		})
		return nil
	}
	if err != nil {
		return fmt.Errorf("fetch district %s: %w", d.ID, err)
	}

	lots := data.Lots()
	fresh := p.filterFresh(d, lots)

	var (
		errs      []error
		published int
	)
	for _, lot := range fresh {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}
		if p.publisher == nil {
			break
		}

		evt := publishers.NewEvent(d.ID, d.Name, lot)
		n, err := p.publisher.Publish(ctx, evt)
		if err != nil {
			errs = append(errs, fmt.Errorf("publish lot %s: %w", lot.Code, err))
		}
		if n == 0 {
			continue
		}
		published++
		p.markSnapshot(d, lot)
	}

	p.log.InfoObj("district poll completed", "district_result", map[string]any{
		"district_id": d.ID,
		"lots":        len(lots),
		"changed":     len(fresh),
		"published":   published,
	})

	return errors.Join(errs...)
}

// filterFresh keeps lots whose fingerprint has not been published yet.
// Lookup failures keep the lot so a broken store never hides changes.
func (p *DistrictProcessor) filterFresh(d districts.District, lots []domain.ParkingLot) []domain.ParkingLot {
	if p.store == nil {
		return lots
	}
	return lo.Filter(lots, func(lot domain.ParkingLot, _ int) bool {
		seen, err := p.store.SeenSnapshot(Fingerprint(d.ID, lot))
		if err != nil {
			p.log.WarnObj("snapshot lookup failed", "storage_error", map[string]any{
				"district_id":  d.ID,
				"parking_code": lot.Code,
				"error":        err.Error(),
			})
			return true
		}
		return !seen
	})
}

func (p *DistrictProcessor) markSnapshot(d districts.District, lot domain.ParkingLot) {
	if p.store == nil {
		return
	}
	if err := p.store.MarkSnapshot(Fingerprint(d.ID, lot)); err != nil {
		p.log.WarnObj("snapshot mark failed", "storage_error", map[string]any{
			"district_id":  d.ID,
			"parking_code": lot.Code,
			"error":        err.Error(),
		})
	}
}

// Fingerprint identifies one availability reading of a lot.
func Fingerprint(districtID string, lot domain.ParkingLot) string {
	key := strings.Join([]string{
		districtID,
		lot.Code,
		strconv.Itoa(lot.Capacity),
		strconv.Itoa(lot.Occupied),
		lot.UpdatedAt,
	}, "|")
	sum := sha1.Sum([]byte(key)) //nolint:gosec
	return hex.EncodeToString(sum[:])
}
