package settings

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when an edit names an unknown id.
	ErrNotFound = errors.New("settings: not found")
	// ErrUnknownField is returned when an edit names a field that cannot be edited.
	ErrUnknownField = errors.New("settings: unknown field")
)

// Connection fields accepted by UpdateConnection.
const (
	FieldAPIKey    = "apiKey"
	FieldAccountID = "accountId"
	FieldChannel   = "channel"
)

// Competitor fields accepted by UpdateCompetitor.
const (
	FieldName         = "name"
	FieldDomain       = "domain"
	FieldTrackingAPIs = "trackingApis"
)

// UpdateConnection returns a copy of s with one connection field replaced.
func UpdateConnection(s Settings, id, field, value string) (Settings, error) {
	out := s.Clone()
	idx := connectionIndex(out, id)
	if idx < 0 {
		return s, fmt.Errorf("%w: connection %s", ErrNotFound, id)
	}
	conn := &out.Connections[idx]
	switch field {
	case FieldAPIKey:
		conn.APIKey = value
	case FieldAccountID:
		conn.AccountID = value
	case FieldChannel:
		conn.Channel = value
	default:
		return s, fmt.Errorf("%w: connection.%s", ErrUnknownField, field)
	}
	return out, nil
}

// TestConnection marks a connection as verified at now.
func TestConnection(s Settings, id string, now time.Time) (Settings, error) {
	out := s.Clone()
	idx := connectionIndex(out, id)
	if idx < 0 {
		return s, fmt.Errorf("%w: connection %s", ErrNotFound, id)
	}
	out.Connections[idx].Status = StatusConnected
	out.Connections[idx].LastSynced = &now
	return out, nil
}

// AddCompetitor appends a blank competitor and returns its id.
func AddCompetitor(s Settings) (Settings, string) {
	out := s.Clone()
	id := uuid.NewString()
	out.Competitors = append(out.Competitors, Competitor{ID: id, TrackingAPIs: []string{}})
	return out, id
}

// RemoveCompetitor drops the competitor with id.
func RemoveCompetitor(s Settings, id string) (Settings, error) {
	idx := competitorIndex(s, id)
	if idx < 0 {
		return s, fmt.Errorf("%w: competitor %s", ErrNotFound, id)
	}
	out := s.Clone()
	out.Competitors = append(out.Competitors[:idx], out.Competitors[idx+1:]...)
	return out, nil
}

// UpdateCompetitor returns a copy of s with one competitor field replaced.
// Tracking APIs are given as a comma separated list.
func UpdateCompetitor(s Settings, id, field, value string) (Settings, error) {
	out := s.Clone()
	idx := competitorIndex(out, id)
	if idx < 0 {
		return s, fmt.Errorf("%w: competitor %s", ErrNotFound, id)
	}
	comp := &out.Competitors[idx]
	switch field {
	case FieldName:
		comp.Name = value
	case FieldDomain:
		comp.Domain = value
	case FieldTrackingAPIs:
		comp.TrackingAPIs = splitList(value)
	default:
		return s, fmt.Errorf("%w: competitor.%s", ErrUnknownField, field)
	}
	return out, nil
}

func splitList(value string) []string {
	out := []string{}
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func connectionIndex(s Settings, id string) int {
	for i := range s.Connections {
		if s.Connections[i].ID == id {
			return i
		}
	}
	return -1
}

func competitorIndex(s Settings, id string) int {
	for i := range s.Competitors {
		if s.Competitors[i].ID == id {
			return i
		}
	}
	return -1
}
