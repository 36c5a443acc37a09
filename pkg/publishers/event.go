package publishers

import (
	"time"

	"github.com/google/uuid"

	"github.com/samvad-hq/seoul-parking-map/internal/domain"
)

// Event is one parking-lot availability change published downstream.
type Event struct {
	ID           string            `json:"id"`
	DistrictID   string            `json:"district_id"`
	DistrictName string            `json:"district_name"`
	Lot          domain.ParkingLot `json:"lot"`
	Available    int               `json:"available"`
	CollectedAt  time.Time         `json:"collected_at"`
}

// NewEvent stamps a lot snapshot with a fresh id and collection time.
func NewEvent(districtID, districtName string, lot domain.ParkingLot) Event {
	return Event{
		ID:           uuid.NewString(),
		DistrictID:   districtID,
		DistrictName: districtName,
		Lot:          lot,
		Available:    lot.Available(),
		CollectedAt:  time.Now().UTC(),
	}
}

// attributes are the routing attributes attached to queue and topic messages.
func (e Event) attributes() map[string]string {
	return map[string]string{
		"district_id":  e.DistrictID,
		"parking_code": e.Lot.Code,
	}
}
