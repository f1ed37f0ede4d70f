package analytics

import "context"

// SnapshotClient fetches the dashboard snapshot from an upstream source.
type SnapshotClient interface {
	FetchSnapshot(ctx context.Context, query SnapshotQuery) (Snapshot, error)
}

// FixtureClient serves the static per-view datasets.
type FixtureClient interface {
	FetchFixtures(ctx context.Context) (Fixtures, error)
}

// Client is a convenience union for sources that implement both calls.
type Client interface {
	SnapshotClient
	FixtureClient
}
