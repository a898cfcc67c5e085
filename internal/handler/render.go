package handler

import (
	"time"

	"github.com/thirtyapp/thirty/internal/model"
)

// JSON payload shapes shared across handlers. Kept separate from the
// models so the wire format does not drift with the schema.

type userPayload struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

type profilePayload struct {
	Name                string  `json:"name"`
	AvatarURL           string  `json:"avatarUrl,omitempty"`
	CurrentTrack        *string `json:"currentTrack"`
	CurrentDay          int     `json:"currentDay"`
	Streak              int     `json:"streak"`
	TotalDaysCompleted  int     `json:"totalDaysCompleted"`
	OnboardingCompleted bool    `json:"onboardingCompleted"`
}

type entryPayload struct {
	Track             string    `json:"track"`
	Day               int       `json:"day"`
	MorningIntention  string    `json:"morningIntention"`
	EveningReflection string    `json:"eveningReflection"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

type completionPayload struct {
	Track         string    `json:"track"`
	DaysCompleted int       `json:"daysCompleted"`
	CompletedAt   time.Time `json:"completedAt"`
}

type accessCodePayload struct {
	Code       string     `json:"code"`
	TrackNames []string   `json:"trackNames"`
	UsageLimit int        `json:"usageLimit"`
	UsageCount int        `json:"usageCount"`
	Active     bool       `json:"active"`
	ExpiresAt  *time.Time `json:"expiresAt,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
}

type promptPayload struct {
	Track   string `json:"track"`
	Day     int    `json:"day"`
	Title   string `json:"title"`
	Morning string `json:"morning"`
	Evening string `json:"evening"`
	HTML    string `json:"html,omitempty"`
}

func renderUser(u *model.User) userPayload {
	return userPayload{
		ID:        u.ID,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
	}
}

func renderProfile(p *model.Profile) profilePayload {
	payload := profilePayload{
		Name:                p.Name,
		AvatarURL:           p.AvatarURL,
		CurrentDay:          p.CurrentDay,
		Streak:              p.Streak,
		TotalDaysCompleted:  p.TotalDaysCompleted,
		OnboardingCompleted: p.OnboardingCompleted,
	}
	if p.CurrentTrack != nil {
		track := string(*p.CurrentTrack)
		payload.CurrentTrack = &track
	}
	return payload
}

func renderEntry(e *model.JournalEntry) entryPayload {
	return entryPayload{
		Track:             string(e.Track),
		Day:               e.Day,
		MorningIntention:  e.MorningIntention,
		EveningReflection: e.EveningReflection,
		CreatedAt:         e.CreatedAt,
		UpdatedAt:         e.UpdatedAt,
	}
}

func renderEntries(entries []*model.JournalEntry) []entryPayload {
	payloads := make([]entryPayload, len(entries))
	for i, e := range entries {
		payloads[i] = renderEntry(e)
	}
	return payloads
}

func renderCompletion(c *model.TrackCompletion) completionPayload {
	return completionPayload{
		Track:         string(c.Track),
		DaysCompleted: c.DaysCompleted,
		CompletedAt:   c.CompletedAt,
	}
}

func renderAccessCode(c *model.AccessCode) accessCodePayload {
	return accessCodePayload{
		Code:       c.Code,
		TrackNames: trackNames(c.TrackNames),
		UsageLimit: c.UsageLimit,
		UsageCount: c.UsageCount,
		Active:     c.Active,
		ExpiresAt:  c.ExpiresAt,
		CreatedAt:  c.CreatedAt,
	}
}

func renderPrompt(p *model.DayPrompt) promptPayload {
	return promptPayload{
		Track:   string(p.Track),
		Day:     p.Day,
		Title:   p.Title,
		Morning: p.Morning,
		Evening: p.Evening,
		HTML:    p.HTMLContent,
	}
}

func trackNames(tracks []model.Track) []string {
	names := make([]string, len(tracks))
	for i, t := range tracks {
		names[i] = string(t)
	}
	return names
}
