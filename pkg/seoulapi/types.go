package seoulapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/samber/lo"
	"github.com/spf13/cast"

	"github.com/samvad-hq/seoul-parking-map/internal/domain"
)

// Data is the decoded SearchParkingInfoRealtime response.
//
// The service wraps successful answers in a "SearchParkingInfoRealtime"
// envelope; failures that happen before the service runs (bad key, no data)
// come back as a bare top-level RESULT instead.
type Data struct {
	SearchParkingInfoRealtime *ServiceResult `json:"SearchParkingInfoRealtime,omitempty"`
	Result                    *Result        `json:"RESULT,omitempty"`
}

// ServiceResult is the body of the service envelope.
type ServiceResult struct {
	ListTotalCount int    `json:"list_total_count"`
	Result         Result `json:"RESULT"`
	Rows           []Row  `json:"row"`
}

// Result carries the service status code, e.g. INFO-000.
type Result struct {
	Code    string `json:"CODE"`
	Message string `json:"MESSAGE,omitempty"`
}

// Row is one parking lot as published by the service.
type Row struct {
	ParkingCode       Text   `json:"PARKING_CODE"`
	ParkingName       string `json:"PARKING_NAME"`
	Addr              string `json:"ADDR"`
	ParkingType       string `json:"PARKING_TYPE,omitempty"`
	ParkingTypeName   string `json:"PARKING_TYPE_NM,omitempty"`
	OperationRule     Text   `json:"OPERATION_RULE,omitempty"`
	OperationRuleName string `json:"OPERATION_RULE_NM,omitempty"`
	Tel               string `json:"TEL,omitempty"`
	QueStatus         Text   `json:"QUE_STATUS,omitempty"`
	QueStatusName     string `json:"QUE_STATUS_NM,omitempty"`
	Capacity          Number `json:"CAPACITY"`
	CurParking        Number `json:"CUR_PARKING"`
	CurParkingTime    string `json:"CUR_PARKING_TIME,omitempty"`
	PayYN             string `json:"PAY_YN,omitempty"`
	PayName           string `json:"PAY_NM,omitempty"`
	NightFreeOpen     string `json:"NIGHT_FREE_OPEN,omitempty"`
	NightFreeOpenName string `json:"NIGHT_FREE_OPEN_NM,omitempty"`
	WeekdayBeginTime  Text   `json:"WEEKDAY_BEGIN_TIME,omitempty"`
	WeekdayEndTime    Text   `json:"WEEKDAY_END_TIME,omitempty"`
	WeekendBeginTime  Text   `json:"WEEKEND_BEGIN_TIME,omitempty"`
	WeekendEndTime    Text   `json:"WEEKEND_END_TIME,omitempty"`
	HolidayBeginTime  Text   `json:"HOLIDAY_BEGIN_TIME,omitempty"`
	HolidayEndTime    Text   `json:"HOLIDAY_END_TIME,omitempty"`
	SaturdayPayYN     string `json:"SATURDAY_PAY_YN,omitempty"`
	HolidayPayYN      string `json:"HOLIDAY_PAY_YN,omitempty"`
	FulltimeMonthly   Text   `json:"FULLTIME_MONTHLY,omitempty"`
	Rates             Number `json:"RATES,omitempty"`
	TimeRate          Number `json:"TIME_RATE,omitempty"`
	AddRates          Number `json:"ADD_RATES,omitempty"`
	AddTimeRate       Number `json:"ADD_TIME_RATE,omitempty"`
	DayMaximum        Number `json:"DAY_MAXIMUM,omitempty"`
	Lat               Number `json:"LAT"`
	Lng               Number `json:"LNG"`
}

// Number accepts JSON numbers, numeric strings, empty strings and null.
type Number float64

func (n *Number) UnmarshalJSON(b []byte) error {
	var raw any
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if raw == nil {
		*n = 0
		return nil
	}
	if s, ok := raw.(string); ok && strings.TrimSpace(s) == "" {
		*n = 0
		return nil
	}
	if s, ok := raw.(string); ok {
		raw = strings.TrimSpace(s)
	}
	f, err := cast.ToFloat64E(raw)
	if err != nil {
		return fmt.Errorf("decode number %s: %w", bytes.TrimSpace(b), err)
	}
	*n = Number(f)
	return nil
}

// Text accepts JSON strings and numbers; the service is inconsistent about codes.
type Text string

func (t *Text) UnmarshalJSON(b []byte) error {
	var raw any
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if raw == nil {
		*t = ""
		return nil
	}
	if f, ok := raw.(float64); ok && f == math.Trunc(f) {
		raw = int64(f)
	}
	s, err := cast.ToStringE(raw)
	if err != nil {
		return fmt.Errorf("decode text %s: %w", bytes.TrimSpace(b), err)
	}
	*t = Text(strings.TrimSpace(s))
	return nil
}

// Code returns the service result code wherever the response carried it.
func (d Data) Code() string {
	if d.SearchParkingInfoRealtime != nil {
		return d.SearchParkingInfoRealtime.Result.Code
	}
	if d.Result != nil {
		return d.Result.Code
	}
	return ""
}

// Message returns the service result message.
func (d Data) Message() string {
	if d.SearchParkingInfoRealtime != nil {
		return d.SearchParkingInfoRealtime.Result.Message
	}
	if d.Result != nil {
		return d.Result.Message
	}
	return ""
}

// Rows returns the decoded rows, never nil-panicking on an empty envelope.
func (d Data) Rows() []Row {
	if d.SearchParkingInfoRealtime == nil {
		return nil
	}
	return d.SearchParkingInfoRealtime.Rows
}

// Lots normalises the rows into domain parking lots.
func (d Data) Lots() []domain.ParkingLot {
	return lo.Map(d.Rows(), func(r Row, _ int) domain.ParkingLot {
		return r.Lot()
	})
}

// Lot converts a row into the domain model.
func (r Row) Lot() domain.ParkingLot {
	return domain.ParkingLot{
		Code:          string(r.ParkingCode),
		Name:          strings.TrimSpace(r.ParkingName),
		Address:       strings.TrimSpace(r.Addr),
		Type:          strings.TrimSpace(r.ParkingTypeName),
		Tel:           strings.TrimSpace(r.Tel),
		Capacity:      int(r.Capacity),
		Occupied:      int(r.CurParking),
		Paid:          strings.EqualFold(strings.TrimSpace(r.PayYN), "Y"),
		UpdatedAt:     strings.TrimSpace(r.CurParkingTime),
		RealtimeState: strings.TrimSpace(r.QueStatusName),
		Position: domain.LatLng{
			Lat: float64(r.Lat),
			Lng: float64(r.Lng),
		},
	}
}
