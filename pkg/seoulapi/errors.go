package seoulapi

import (
	"errors"
	"fmt"
)

var (
	// ErrFetchFailed matches every failure reported by Fetch except ErrNoData.
	ErrFetchFailed = errors.New("seoulapi: fetch failed")
	// ErrNoData is returned when the service answers INFO-200 for the query.
	ErrNoData = errors.New("seoulapi: no data available")
	// ErrEmptyDistrict rejects blank district names before any request is made.
	ErrEmptyDistrict = errors.New("seoulapi: district is empty")
)

// Kind classifies a fetch failure.
type Kind string

const (
	KindNetwork Kind = "network"
	KindStatus  Kind = "status"
	KindDecode  Kind = "decode"
	KindAPI     Kind = "api"
)

// FetchError describes why a fetch failed.
type FetchError struct {
	Kind       Kind
	District   string
	StatusCode int
	Code       string
	Err        error
}

func (e *FetchError) Error() string {
	switch e.Kind {
	case KindStatus:
		return fmt.Sprintf("fetch %s: http status %d: %v", e.District, e.StatusCode, e.Err)
	case KindAPI:
		return fmt.Sprintf("fetch %s: service result %s: %v", e.District, e.Code, e.Err)
	default:
		return fmt.Sprintf("fetch %s: %s: %v", e.District, e.Kind, e.Err)
	}
}

func (e *FetchError) Unwrap() error { return e.Err }

// Is makes every FetchError match ErrFetchFailed.
func (e *FetchError) Is(target error) bool { return target == ErrFetchFailed }

// KindOf returns the failure kind of err, or "" when err is not a FetchError.
func KindOf(err error) Kind {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return ""
}
