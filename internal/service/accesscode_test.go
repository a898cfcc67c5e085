package service_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thirtyapp/thirty/internal/model"
	"github.com/thirtyapp/thirty/internal/service"
)

func TestGenerateAndRedeemCode(t *testing.T) {
	ts := newTestServices(t)
	admin := ts.signup(t, "admin@example.com")
	user := ts.signup(t, "redeemer@example.com")

	code, err := ts.AccessCodes.Generate([]model.Track{model.TrackMoney, model.TrackPurpose}, 2, nil, admin.ID)
	require.NoError(t, err)
	assert.Len(t, code.Code, 10)
	assert.True(t, code.Active)

	tracks, err := ts.AccessCodes.Redeem(user.ID, code.Code)
	require.NoError(t, err)
	assert.Len(t, tracks, 2)

	owned, err := ts.Entitlements.OwnsAll(user.ID, tracks)
	require.NoError(t, err)
	assert.True(t, owned)

	codes, err := ts.AccessCodes.List()
	require.NoError(t, err)
	require.Len(t, codes, 1)
	assert.Equal(t, 1, codes[0].UsageCount)
}

func TestRedeemUnknownCode(t *testing.T) {
	ts := newTestServices(t)
	user := ts.signup(t, "guesser@example.com")

	_, err := ts.AccessCodes.Redeem(user.ID, "NOSUCHCODE")
	assert.ErrorIs(t, err, service.ErrCodeNotFound)
}

func TestRedeemExhaustedCode(t *testing.T) {
	ts := newTestServices(t)
	admin := ts.signup(t, "admin@example.com")
	first := ts.signup(t, "first@example.com")
	second := ts.signup(t, "second@example.com")

	code, err := ts.AccessCodes.Generate([]model.Track{model.TrackGratitude}, 1, nil, admin.ID)
	require.NoError(t, err)

	_, err = ts.AccessCodes.Redeem(first.ID, code.Code)
	require.NoError(t, err)

	_, err = ts.AccessCodes.Redeem(second.ID, code.Code)
	assert.ErrorIs(t, err, service.ErrCodeExhausted)

	// The failed redemption must not burn a use.
	codes, err := ts.AccessCodes.List()
	require.NoError(t, err)
	require.Len(t, codes, 1)
	assert.Equal(t, 1, codes[0].UsageCount)
}

func TestRedeemExpiredCode(t *testing.T) {
	ts := newTestServices(t)
	admin := ts.signup(t, "admin@example.com")
	user := ts.signup(t, "late@example.com")

	expired := time.Now().Add(-time.Hour)
	code, err := ts.AccessCodes.Generate([]model.Track{model.TrackMoney}, 5, &expired, admin.ID)
	require.NoError(t, err)

	_, err = ts.AccessCodes.Redeem(user.ID, code.Code)
	assert.ErrorIs(t, err, service.ErrCodeExpired)

	// Expiry failure is distinct from exhaustion and burns nothing.
	codes, err := ts.AccessCodes.List()
	require.NoError(t, err)
	assert.Equal(t, 0, codes[0].UsageCount)
}

func TestRedeemSkipsOwnedTracks(t *testing.T) {
	ts := newTestServices(t)
	admin := ts.signup(t, "admin@example.com")
	user := ts.signup(t, "owner@example.com")
	ts.grant(t, user.ID, model.TrackMoney)

	code, err := ts.AccessCodes.Generate([]model.Track{model.TrackMoney, model.TrackConfidence}, 1, nil, admin.ID)
	require.NoError(t, err)

	tracks, err := ts.AccessCodes.Redeem(user.ID, code.Code)
	require.NoError(t, err)
	assert.Len(t, tracks, 2)

	owned, err := ts.Entitlements.Owns(user.ID, model.TrackConfidence)
	require.NoError(t, err)
	assert.True(t, owned)
}

func TestGenerateCodeValidation(t *testing.T) {
	ts := newTestServices(t)
	admin := ts.signup(t, "admin@example.com")

	_, err := ts.AccessCodes.Generate(nil, 1, nil, admin.ID)
	assert.Error(t, err)

	_, err = ts.AccessCodes.Generate([]model.Track{model.TrackMoney}, 0, nil, admin.ID)
	assert.Error(t, err)
}
