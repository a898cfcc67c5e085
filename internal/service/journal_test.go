package service_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thirtyapp/thirty/internal/model"
	"github.com/thirtyapp/thirty/internal/service"
)

func TestStartTrackRequiresPurchase(t *testing.T) {
	ts := newTestServices(t)
	user := ts.signup(t, "starter@example.com")

	_, err := ts.Journal.StartTrack(user.ID, model.TrackMoney)
	assert.ErrorIs(t, err, service.ErrTrackNotPurchased)

	ts.grant(t, user.ID, model.TrackMoney)

	profile, err := ts.Journal.StartTrack(user.ID, model.TrackMoney)
	require.NoError(t, err)
	require.NotNil(t, profile.CurrentTrack)
	assert.Equal(t, model.TrackMoney, *profile.CurrentTrack)
	assert.Equal(t, 1, profile.CurrentDay)
}

func TestStartTrackSwitchesAwayFromActiveTrack(t *testing.T) {
	ts := newTestServices(t)
	user := ts.signup(t, "busy@example.com")
	ts.grant(t, user.ID, model.TrackMoney, model.TrackGratitude)

	_, err := ts.Journal.StartTrack(user.ID, model.TrackMoney)
	require.NoError(t, err)

	_, _, err = ts.Journal.CompleteDay(user.ID, model.TrackMoney, 1)
	require.NoError(t, err)

	// Switching to another owned track abandons the first one's progress.
	profile, err := ts.Journal.StartTrack(user.ID, model.TrackGratitude)
	require.NoError(t, err)
	require.NotNil(t, profile.CurrentTrack)
	assert.Equal(t, model.TrackGratitude, *profile.CurrentTrack)
	assert.Equal(t, 1, profile.CurrentDay)

	// The abandoned track is no longer active, so its days can't advance.
	_, _, err = ts.Journal.CompleteDay(user.ID, model.TrackMoney, 2)
	assert.ErrorIs(t, err, service.ErrNoActiveTrack)

	// Restarting the now-active track resets it to day 1.
	_, _, err = ts.Journal.CompleteDay(user.ID, model.TrackGratitude, 1)
	require.NoError(t, err)

	profile, err = ts.Journal.StartTrack(user.ID, model.TrackGratitude)
	require.NoError(t, err)
	assert.Equal(t, 1, profile.CurrentDay)
}

func TestCompleteDayAdvancesExactlyOnce(t *testing.T) {
	ts := newTestServices(t)
	user := ts.signup(t, "daily@example.com")
	ts.grant(t, user.ID, model.TrackMoney)

	_, err := ts.Journal.StartTrack(user.ID, model.TrackMoney)
	require.NoError(t, err)

	profile, completion, err := ts.Journal.CompleteDay(user.ID, model.TrackMoney, 1)
	require.NoError(t, err)
	assert.Nil(t, completion)
	assert.Equal(t, 2, profile.CurrentDay)
	assert.Equal(t, 1, profile.Streak)
	assert.Equal(t, 1, profile.TotalDaysCompleted)

	// Replaying day 1 loses to the first completion.
	_, _, err = ts.Journal.CompleteDay(user.ID, model.TrackMoney, 1)
	assert.ErrorIs(t, err, service.ErrDayMismatch)

	// Skipping ahead is rejected too.
	_, _, err = ts.Journal.CompleteDay(user.ID, model.TrackMoney, 5)
	assert.ErrorIs(t, err, service.ErrDayMismatch)
}

func TestCompleteDayValidation(t *testing.T) {
	ts := newTestServices(t)
	user := ts.signup(t, "edge@example.com")
	ts.grant(t, user.ID, model.TrackMoney)

	_, _, err := ts.Journal.CompleteDay(user.ID, model.TrackMoney, 0)
	assert.ErrorIs(t, err, service.ErrDayOutOfRange)

	_, _, err = ts.Journal.CompleteDay(user.ID, model.TrackMoney, 31)
	assert.ErrorIs(t, err, service.ErrDayOutOfRange)

	// Not started yet.
	_, _, err = ts.Journal.CompleteDay(user.ID, model.TrackMoney, 1)
	assert.ErrorIs(t, err, service.ErrNoActiveTrack)
}

func TestFullThirtyDayRun(t *testing.T) {
	ts := newTestServices(t)
	user := ts.signup(t, "finisher@example.com")
	ts.grant(t, user.ID, model.TrackGratitude)

	_, err := ts.Journal.StartTrack(user.ID, model.TrackGratitude)
	require.NoError(t, err)

	for day := 1; day < model.TrackDays; day++ {
		_, err := ts.Journal.SaveEntry(user.ID, model.TrackGratitude, day, "morning", "evening")
		require.NoError(t, err)

		_, completion, err := ts.Journal.CompleteDay(user.ID, model.TrackGratitude, day)
		require.NoError(t, err)
		assert.Nil(t, completion)
	}

	profile, completion, err := ts.Journal.CompleteDay(user.ID, model.TrackGratitude, model.TrackDays)
	require.NoError(t, err)
	require.NotNil(t, completion)
	assert.Equal(t, model.TrackGratitude, completion.Track)
	assert.Equal(t, model.TrackDays, completion.DaysCompleted)

	// The finished track is no longer active.
	assert.False(t, profile.HasActiveTrack())
	assert.Equal(t, model.TrackDays, profile.TotalDaysCompleted)

	completions, err := ts.Journal.Completions(user.ID)
	require.NoError(t, err)
	require.Len(t, completions, 1)

	// Entries from the finished track stay editable.
	_, err = ts.Journal.SaveEntry(user.ID, model.TrackGratitude, 12, "revised", "")
	assert.NoError(t, err)
}

func TestSaveEntryGuards(t *testing.T) {
	ts := newTestServices(t)
	user := ts.signup(t, "writer@example.com")

	_, err := ts.Journal.SaveEntry(user.ID, model.TrackMoney, 1, "morning", "")
	assert.ErrorIs(t, err, service.ErrTrackNotPurchased)

	ts.grant(t, user.ID, model.TrackMoney)
	_, err = ts.Journal.StartTrack(user.ID, model.TrackMoney)
	require.NoError(t, err)

	_, err = ts.Journal.SaveEntry(user.ID, model.TrackMoney, 1, "", "   ")
	assert.ErrorIs(t, err, service.ErrEntryEmpty)

	// Day 2 is not reachable while the profile sits on day 1.
	_, err = ts.Journal.SaveEntry(user.ID, model.TrackMoney, 2, "early bird", "")
	assert.ErrorIs(t, err, service.ErrDayOutOfRange)

	entry, err := ts.Journal.SaveEntry(user.ID, model.TrackMoney, 1, "first try", "")
	require.NoError(t, err)
	assert.Equal(t, "first try", entry.MorningIntention)

	// Second save overwrites in place.
	entry, err = ts.Journal.SaveEntry(user.ID, model.TrackMoney, 1, "second try", "reflection")
	require.NoError(t, err)
	assert.Equal(t, "second try", entry.MorningIntention)
	assert.Equal(t, "reflection", entry.EveningReflection)

	entries, err := ts.Journal.Entries(user.ID, model.TrackMoney)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
