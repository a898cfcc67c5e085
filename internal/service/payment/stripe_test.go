package payment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/thirtyapp/thirty/internal/model"
)

func TestIntentAmount(t *testing.T) {
	one := intentAmount([]model.Track{model.TrackMoney})
	assert.Equal(t, model.TrackPriceCents[model.TrackMoney], one)

	two := intentAmount([]model.Track{model.TrackMoney, model.TrackPurpose})
	assert.Equal(t, model.TrackPriceCents[model.TrackMoney]+model.TrackPriceCents[model.TrackPurpose], two)

	// The full catalog is the bundle.
	assert.Equal(t, model.BundlePriceCents, intentAmount(model.AllTracks))

	// Four remaining tracks at list price would exceed the bundle; the
	// cap keeps a partially-owned bundle from costing more than the
	// whole thing.
	assert.Equal(t, model.BundlePriceCents, intentAmount(model.AllTracks[1:]))
}

func TestTracksMetadataRoundTrip(t *testing.T) {
	tracks := []model.Track{model.TrackGratitude, model.TrackConfidence}
	assert.Equal(t, tracks, parseTracksMetadata(tracksMetadata(tracks)))

	// Unknown names in provider metadata are dropped, not fatal.
	assert.Equal(t, []model.Track{model.TrackMoney}, parseTracksMetadata("Money, basketweaving"))
	assert.Empty(t, parseTracksMetadata(""))
}
