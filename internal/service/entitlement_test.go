package service_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thirtyapp/thirty/internal/model"
)

func TestGrantIsIdempotent(t *testing.T) {
	ts := newTestServices(t)
	user := ts.signup(t, "buyer@example.com")

	granted, err := ts.Entitlements.Grant(user.ID, []model.Track{model.TrackMoney}, model.ProviderStripe, "pi_1")
	require.NoError(t, err)
	assert.Equal(t, []model.Track{model.TrackMoney}, granted)

	// Webhook replay for the same payment grants nothing new.
	granted, err = ts.Entitlements.Grant(user.ID, []model.Track{model.TrackMoney}, model.ProviderStripe, "pi_1")
	require.NoError(t, err)
	assert.Empty(t, granted)

	// A different payment for an owned track is also a no-op.
	granted, err = ts.Entitlements.Grant(user.ID, []model.Track{model.TrackMoney}, model.ProviderStripe, "pi_2")
	require.NoError(t, err)
	assert.Empty(t, granted)

	tracks, err := ts.Entitlements.Tracks(user.ID)
	require.NoError(t, err)
	assert.Len(t, tracks, 1)
}

func TestGrantBundleSkipsOwnedTracks(t *testing.T) {
	ts := newTestServices(t)
	user := ts.signup(t, "bundle@example.com")
	ts.grant(t, user.ID, model.TrackMoney)

	granted, err := ts.Entitlements.Grant(user.ID, model.AllTracks, model.ProviderStripe, "pi_bundle")
	require.NoError(t, err)
	assert.Len(t, granted, len(model.AllTracks)-1)
	assert.NotContains(t, granted, model.TrackMoney)

	owned, err := ts.Entitlements.OwnsAll(user.ID, model.AllTracks)
	require.NoError(t, err)
	assert.True(t, owned)
}

func TestOwnsAll(t *testing.T) {
	ts := newTestServices(t)
	user := ts.signup(t, "partial@example.com")
	ts.grant(t, user.ID, model.TrackMoney)

	owned, err := ts.Entitlements.OwnsAll(user.ID, []model.Track{model.TrackMoney})
	require.NoError(t, err)
	assert.True(t, owned)

	owned, err = ts.Entitlements.OwnsAll(user.ID, []model.Track{model.TrackMoney, model.TrackPurpose})
	require.NoError(t, err)
	assert.False(t, owned)
}

func TestFulfilReportsEmptyTracks(t *testing.T) {
	ts := newTestServices(t)
	user := ts.signup(t, "empty@example.com")

	err := ts.Fulfilment.Fulfil(user.ID, nil, model.ProviderStripe, "pi_empty")
	assert.Error(t, err)
}
