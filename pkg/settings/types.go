package settings

import "time"

// Record names under which settings blobs are stored.
const (
	RecordConnections = "mi_connections"
	RecordCompetitors = "mi_competitors"
)

// ConnectionStatus reports whether a platform connection has been verified.
type ConnectionStatus string

const (
	StatusConnected    ConnectionStatus = "connected"
	StatusDisconnected ConnectionStatus = "disconnected"
)

// Connection holds the credentials for one marketing platform.
type Connection struct {
	ID         string           `json:"id"`
	Channel    string           `json:"channel"`
	APIKey     string           `json:"apiKey"`
	AccountID  string           `json:"accountId"`
	Status     ConnectionStatus `json:"status"`
	LastSynced *time.Time       `json:"lastSynced,omitempty"`
}

// Competitor is a tracked competitor profile.
type Competitor struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Domain       string   `json:"domain"`
	TrackingAPIs []string `json:"trackingApis"`
}

// Settings is the full editable settings document.
type Settings struct {
	Connections []Connection `json:"connections"`
	Competitors []Competitor `json:"competitors"`
}

// Clone returns a deep copy.
func (s Settings) Clone() Settings {
	out := Settings{
		Connections: make([]Connection, len(s.Connections)),
		Competitors: make([]Competitor, len(s.Competitors)),
	}
	for i, conn := range s.Connections {
		if conn.LastSynced != nil {
			synced := *conn.LastSynced
			conn.LastSynced = &synced
		}
		out.Connections[i] = conn
	}
	for i, comp := range s.Competitors {
		comp.TrackingAPIs = append([]string(nil), comp.TrackingAPIs...)
		out.Competitors[i] = comp
	}
	return out
}

// LoadReport describes how a Load resolved each record.
type LoadReport struct {
	// Missing lists records that were absent and replaced by defaults.
	Missing []string `json:"missing,omitempty"`
	// Corrupt lists records that failed to decode and were replaced by defaults.
	Corrupt []string `json:"corrupt,omitempty"`
}
