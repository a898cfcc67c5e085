package model

import (
	"fmt"
	"strings"
)

// Track is one of the fixed 30-day journaling programs a user can purchase.
type Track string

const (
	TrackMoney         Track = "Money"
	TrackGratitude     Track = "Gratitude"
	TrackConfidence    Track = "Confidence"
	TrackRelationships Track = "Relationships"
	TrackPurpose       Track = "Purpose"
)

// BundleAllAccess is the purchase descriptor that grants every track.
const BundleAllAccess = "all-access"

// TrackDays is the length of every track.
const TrackDays = 30

// AllTracks lists every purchasable track in catalog order.
var AllTracks = []Track{
	TrackMoney,
	TrackGratitude,
	TrackConfidence,
	TrackRelationships,
	TrackPurpose,
}

// TrackPriceCents is the one-time price per track, used for embedded
// payment intents. Hosted checkout uses provider-side price IDs instead.
var TrackPriceCents = map[Track]int64{
	TrackMoney:         2900,
	TrackGratitude:     2900,
	TrackConfidence:    2900,
	TrackRelationships: 2900,
	TrackPurpose:       2900,
}

// BundlePriceCents is the discounted all-access price.
const BundlePriceCents int64 = 9900

func ParseTrack(name string) (Track, error) {
	for _, t := range AllTracks {
		if strings.EqualFold(name, string(t)) {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown track: %q", name)
}

// ExpandPurchasable resolves a purchase descriptor (a track name or the
// all-access bundle) to the list of tracks it grants.
func ExpandPurchasable(name string) ([]Track, error) {
	if strings.EqualFold(name, BundleAllAccess) {
		tracks := make([]Track, len(AllTracks))
		copy(tracks, AllTracks)
		return tracks, nil
	}

	track, err := ParseTrack(name)
	if err != nil {
		return nil, err
	}
	return []Track{track}, nil
}

// Slug returns the lowercase identifier used for content paths and
// provider price lookup keys.
func (t Track) Slug() string {
	return strings.ToLower(string(t))
}
