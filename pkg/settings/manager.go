package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/goliatone/go-marketinsight/pkg/analytics"
)

// ManagerOptions configures a Manager.
type ManagerOptions struct {
	Store  Store
	Logger zerolog.Logger
	// NewID generates ids for default connections. Defaults to uuid.NewString.
	NewID func() string
}

// Manager loads and saves the settings records.
type Manager struct {
	store  Store
	logger zerolog.Logger
	newID  func() string
}

// NewManager builds a manager. A nil store falls back to memory.
func NewManager(opts ManagerOptions) *Manager {
	if opts.Store == nil {
		opts.Store = NewMemoryStore()
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	return &Manager{
		store:  opts.Store,
		logger: opts.Logger.With().Str("component", "settings").Logger(),
		newID:  opts.NewID,
	}
}

// Defaults returns one disconnected connection per platform channel and no competitors.
func (m *Manager) Defaults() Settings {
	return Settings{
		Connections: m.defaultConnections(),
		Competitors: []Competitor{},
	}
}

func (m *Manager) defaultConnections() []Connection {
	channels := analytics.PlatformChannels()
	out := make([]Connection, 0, len(channels))
	for _, ch := range channels {
		out = append(out, Connection{ID: m.newID(), Channel: ch, Status: StatusDisconnected})
	}
	return out
}

// Load reads both records. Missing or corrupt records are replaced by defaults and reported.
// Only store failures are returned as errors.
func (m *Manager) Load(ctx context.Context) (Settings, LoadReport, error) {
	var report LoadReport
	var out Settings

	found, err := m.decode(ctx, RecordConnections, &out.Connections, &report)
	if err != nil {
		return Settings{}, report, err
	}
	if found && out.Connections == nil {
		report.Missing = append(report.Missing, RecordConnections)
		found = false
	}
	if !found {
		out.Connections = m.defaultConnections()
	}

	found, err = m.decode(ctx, RecordCompetitors, &out.Competitors, &report)
	if err != nil {
		return Settings{}, report, err
	}
	if found && out.Competitors == nil {
		report.Missing = append(report.Missing, RecordCompetitors)
		found = false
	}
	if !found {
		out.Competitors = []Competitor{}
	}
	return out, report, nil
}

func (m *Manager) decode(ctx context.Context, name string, dst any, report *LoadReport) (bool, error) {
	data, ok, err := m.store.Load(ctx, name)
	if err != nil {
		return false, err
	}
	if !ok {
		report.Missing = append(report.Missing, name)
		return false, nil
	}
	if err := json.Unmarshal(data, dst); err != nil {
		m.logger.Warn().Err(err).Str("record", name).Msg("stored settings record is corrupt, using defaults")
		report.Corrupt = append(report.Corrupt, name)
		return false, nil
	}
	return true, nil
}

// Save validates s and writes both records wholesale.
func (m *Manager) Save(ctx context.Context, s Settings) error {
	s = s.normalized()
	if err := Validate(s); err != nil {
		return err
	}
	connections, err := json.Marshal(s.Connections)
	if err != nil {
		return fmt.Errorf("settings: encode connections: %w", err)
	}
	competitors, err := json.Marshal(s.Competitors)
	if err != nil {
		return fmt.Errorf("settings: encode competitors: %w", err)
	}
	if err := m.store.SaveAll(ctx, map[string][]byte{
		RecordConnections: connections,
		RecordCompetitors: competitors,
	}); err != nil {
		return fmt.Errorf("settings: save: %w", err)
	}
	m.logger.Info().
		Int("connections", len(s.Connections)).
		Int("competitors", len(s.Competitors)).
		Msg("settings saved")
	return nil
}

// IsValidation reports whether err came from settings validation.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalid)
}
