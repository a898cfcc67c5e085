package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// TrackList is a JSON-encoded list of track names stored in a single text
// column (access codes carry a variable set of tracks).
type TrackList []Track

func (l TrackList) Value() (driver.Value, error) {
	if l == nil {
		l = TrackList{}
	}
	b, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (l *TrackList) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*l = TrackList{}
		return nil
	case string:
		return json.Unmarshal([]byte(v), l)
	case []byte:
		return json.Unmarshal(v, l)
	default:
		return fmt.Errorf("cannot scan %T into TrackList", src)
	}
}
