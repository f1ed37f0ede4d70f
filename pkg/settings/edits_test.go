package settings

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample() Settings {
	return Settings{
		Connections: []Connection{{ID: "fb", Channel: "Facebook", Status: StatusDisconnected}},
		Competitors: []Competitor{{ID: "c1", Name: "Acme", TrackingAPIs: []string{"SEMrush"}}},
	}
}

func TestEditsDoNotMutateInput(t *testing.T) {
	in := sample()
	out, err := UpdateConnection(in, "fb", FieldAccountID, "act_1")
	require.NoError(t, err)
	assert.Equal(t, "act_1", out.Connections[0].AccountID)
	assert.Empty(t, in.Connections[0].AccountID)

	out, err = UpdateCompetitor(in, "c1", FieldTrackingAPIs, "Ahrefs, , Similarweb")
	require.NoError(t, err)
	assert.Equal(t, []string{"Ahrefs", "Similarweb"}, out.Competitors[0].TrackingAPIs)
	assert.Equal(t, []string{"SEMrush"}, in.Competitors[0].TrackingAPIs)
}

func TestEditsUnknownID(t *testing.T) {
	in := sample()
	_, err := UpdateConnection(in, "missing", FieldAPIKey, "x")
	require.ErrorIs(t, err, ErrNotFound)
	_, err = TestConnection(in, "missing", time.Now())
	require.ErrorIs(t, err, ErrNotFound)
	_, err = RemoveCompetitor(in, "missing")
	require.ErrorIs(t, err, ErrNotFound)
	_, err = UpdateCompetitor(in, "missing", FieldName, "x")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestEditsUnknownField(t *testing.T) {
	_, err := UpdateConnection(sample(), "fb", "status", "connected")
	require.ErrorIs(t, err, ErrUnknownField)
}

func TestAddAndRemoveCompetitor(t *testing.T) {
	out, id := AddCompetitor(sample())
	require.Len(t, out.Competitors, 2)
	assert.NotEmpty(t, id)
	assert.Empty(t, out.Competitors[1].Name)

	out, err := RemoveCompetitor(out, "c1")
	require.NoError(t, err)
	require.Len(t, out.Competitors, 1)
	assert.Equal(t, id, out.Competitors[0].ID)
}

func TestTestConnectionSetsStatus(t *testing.T) {
	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	out, err := TestConnection(sample(), "fb", now)
	require.NoError(t, err)
	assert.Equal(t, StatusConnected, out.Connections[0].Status)
	assert.Equal(t, now, *out.Connections[0].LastSynced)
}
