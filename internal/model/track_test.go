package model_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thirtyapp/thirty/internal/model"
)

func TestParseTrack(t *testing.T) {
	track, err := model.ParseTrack("money")
	require.NoError(t, err)
	assert.Equal(t, model.TrackMoney, track)

	track, err = model.ParseTrack("RELATIONSHIPS")
	require.NoError(t, err)
	assert.Equal(t, model.TrackRelationships, track)

	_, err = model.ParseTrack("mindfulness")
	assert.Error(t, err)

	_, err = model.ParseTrack("")
	assert.Error(t, err)
}

func TestExpandPurchasable(t *testing.T) {
	tracks, err := model.ExpandPurchasable("Gratitude")
	require.NoError(t, err)
	assert.Equal(t, []model.Track{model.TrackGratitude}, tracks)

	tracks, err = model.ExpandPurchasable("all-access")
	require.NoError(t, err)
	assert.Equal(t, model.AllTracks, tracks)

	// Expansion must not alias the catalog slice.
	tracks[0] = model.TrackPurpose
	assert.Equal(t, model.TrackMoney, model.AllTracks[0])

	_, err = model.ExpandPurchasable("everything")
	assert.Error(t, err)
}

func TestTrackListRoundTrip(t *testing.T) {
	list := model.TrackList{model.TrackMoney, model.TrackPurpose}

	value, err := list.Value()
	require.NoError(t, err)

	var scanned model.TrackList
	require.NoError(t, scanned.Scan(value))
	assert.Equal(t, list, scanned)

	require.NoError(t, scanned.Scan(nil))
	assert.Empty(t, scanned)
}
