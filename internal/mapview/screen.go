package mapview

import (
	"context"
	"errors"
	"sync"

	"github.com/samber/lo"

	"github.com/samvad-hq/seoul-parking-map/internal/domain"
	"github.com/samvad-hq/seoul-parking-map/internal/logger"
	"github.com/samvad-hq/seoul-parking-map/pkg/seoulapi"
)

// Fetcher loads realtime parking data for a district. *seoulapi.Client satisfies it.
type Fetcher interface {
	FetchAsync(ctx context.Context, district string) <-chan seoulapi.Outcome
}

// State describes where the screen is in its lifecycle.
type State string

const (
	StateWaiting   State = "waiting"
	StateLoading   State = "loading"
	StateLoaded    State = "loaded"
	StateEmpty     State = "empty"
	StateFailed    State = "failed"
	StateDestroyed State = "destroyed"
)

// Status is a point-in-time view of the screen.
type Status struct {
	District string `json:"district"`
	State    State  `json:"state"`
	Markers  int    `json:"markers"`
	Error    string `json:"error,omitempty"`
}

// Screen owns a single map's lifecycle: one fetch per ready signal,
// cancelled on Destroy.
type Screen struct {
	fetcher  Fetcher
	district string
	log      logger.Logger

	mu        sync.Mutex
	state     State
	started   bool
	destroyed bool
	plotted   int
	err       error
	cancel    context.CancelFunc

	done     chan struct{}
	doneOnce sync.Once
}

// NewScreen builds a screen that will load district once the map is ready.
func NewScreen(fetcher Fetcher, district string, log logger.Logger) *Screen {
	return &Screen{
		fetcher:  fetcher,
		district: district,
		log:      logger.Ensure(log),
		state:    StateWaiting,
		done:     make(chan struct{}),
	}
}

// OnMapReady centers the camera on Seoul and starts the district fetch.
// Only the first call has any effect; it reports whether the fetch started.
func (s *Screen) OnMapReady(m Map) bool {
	if m == nil {
		return false
	}

	s.mu.Lock()
	if s.started || s.destroyed {
		s.mu.Unlock()
		s.log.DebugObj("ignoring repeated map ready signal", "mapview_ready_ignored", map[string]any{
			"district": s.district,
			"state":    string(s.currentState()),
		})
		return false
	}
	s.started = true
	s.state = StateLoading
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.mu.Unlock()

	m.MoveCamera(domain.SeoulCamera())
	results := s.fetcher.FetchAsync(ctx, s.district)
	go s.await(ctx, m, results)
	return true
}

func (s *Screen) await(ctx context.Context, m Map, results <-chan seoulapi.Outcome) {
	defer s.finish()

	var out seoulapi.Outcome
	select {
	case res, ok := <-results:
		if !ok {
			out.Err = errors.New("fetch finished without a result")
		} else {
			out = res
		}
	case <-ctx.Done():
		out.Err = ctx.Err()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.destroyed {
		return
	}

	switch {
	case out.Err == nil:
		markers := lo.FilterMap(out.Data.Lots(), func(lot domain.ParkingLot, _ int) (domain.Marker, bool) {
			return domain.MarkerFor(lot)
		})
		for _, marker := range markers {
			m.AddMarker(marker)
		}
		s.plotted = len(markers)
		if len(markers) == 0 {
			s.state = StateEmpty
		} else {
			s.state = StateLoaded
		}
		s.log.InfoObj("parking markers plotted", "mapview_loaded", map[string]any{
			"district": s.district,
			"markers":  s.plotted,
			"rows":     len(out.Data.Rows()),
		})
	case errors.Is(out.Err, seoulapi.ErrNoData):
		s.state = StateEmpty
		s.log.InfoObj("no parking data for district", "mapview_empty", map[string]any{
			"district": s.district,
		})
	default:
		s.state = StateFailed
		s.err = out.Err
		s.log.ErrorObj("parking data fetch failed", "mapview_fetch_error", map[string]any{
			"district": s.district,
			"kind":     string(seoulapi.KindOf(out.Err)),
			"error":    out.Err.Error(),
		})
	}
}

func (s *Screen) finish() {
	s.doneOnce.Do(func() { close(s.done) })
}

// Destroy cancels any in-flight fetch and waits for it to wind down.
// No marker reaches the map once Destroy has returned.
func (s *Screen) Destroy() {
	s.mu.Lock()
	if s.destroyed {
		s.mu.Unlock()
		<-s.done
		return
	}
	s.destroyed = true
	s.state = StateDestroyed
	cancel := s.cancel
	started := s.started
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if !started {
		s.finish()
	}
	<-s.done
}

// Done is closed once the fetch has settled or the screen was destroyed.
func (s *Screen) Done() <-chan struct{} {
	return s.done
}

// Err returns the fetch failure, if any. ErrNoData is not reported as a failure.
func (s *Screen) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Status returns the current lifecycle snapshot.
func (s *Screen) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := Status{District: s.district, State: s.state, Markers: s.plotted}
	if s.err != nil {
		st.Error = s.err.Error()
	}
	return st
}

func (s *Screen) currentState() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}
