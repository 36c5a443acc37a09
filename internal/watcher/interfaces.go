package watcher

import (
	"context"

	"github.com/samvad-hq/seoul-parking-map/pkg/publishers"
	"github.com/samvad-hq/seoul-parking-map/pkg/seoulapi"
)

// Fetcher loads realtime parking data for one district. *seoulapi.Client satisfies it.
type Fetcher interface {
	Fetch(ctx context.Context, district string) (seoulapi.Data, error)
}

// EventPublisher publishes availability events downstream and reports how many
// publishers accepted the event.
type EventPublisher interface {
	Publish(ctx context.Context, evt publishers.Event) (int, error)
}

// SnapshotStore remembers which availability snapshots were already published.
type SnapshotStore interface {
	SeenSnapshot(key string) (bool, error)
	MarkSnapshot(key string) error
}
