package analytics

import (
	"context"
	"strings"
)

// AllChannels is the shell filter value that disables channel filtering.
const AllChannels = "All Channels"

var channels = []string{AllChannels, "Facebook", "Instagram", "Google Ads", "LinkedIn", "TikTok"}

// Channels returns the channel filter values, AllChannels first.
func Channels() []string {
	return append([]string(nil), channels...)
}

// PlatformChannels returns the concrete channels, without AllChannels.
func PlatformChannels() []string {
	return append([]string(nil), channels[1:]...)
}

// SnapshotRepository resolves snapshots scoped to the shell filters.
type SnapshotRepository interface {
	Snapshot(ctx context.Context, query SnapshotQuery) (Snapshot, error)
	Fixtures(ctx context.Context) (Fixtures, error)
}

// NewSnapshotRepository adapts a client into a filtered repository.
func NewSnapshotRepository(client Client) SnapshotRepository {
	return &snapshotRepository{client: client}
}

type snapshotRepository struct {
	client Client
}

func (r *snapshotRepository) Snapshot(ctx context.Context, query SnapshotQuery) (Snapshot, error) {
	snapshot, err := r.client.FetchSnapshot(ctx, query)
	if err != nil {
		return Snapshot{}, err
	}
	return FilterByChannel(snapshot, query.Channel), nil
}

func (r *snapshotRepository) Fixtures(ctx context.Context) (Fixtures, error) {
	return r.client.FetchFixtures(ctx)
}

// FilterByChannel keeps channel performance rows whose platform matches the filter.
// "Google Ads" matches "Google Search" because rows are keyed by platform name first.
func FilterByChannel(snapshot Snapshot, channel string) Snapshot {
	channel = strings.TrimSpace(channel)
	if channel == "" || channel == AllChannels {
		return snapshot
	}
	platform := platformOf(channel)
	out := snapshot.Clone()
	out.ChannelPerformance = out.ChannelPerformance[:0]
	for _, row := range snapshot.ChannelPerformance {
		if platformOf(row.Channel) == platform {
			out.ChannelPerformance = append(out.ChannelPerformance, row)
		}
	}
	return out
}

func platformOf(name string) string {
	fields := strings.Fields(strings.ToLower(name))
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
