package model

// DayPrompt is one day's journaling prompt, loaded from the track's
// markdown content files.
type DayPrompt struct {
	Track       Track
	Day         int
	Title       string
	Morning     string
	Evening     string
	HTMLContent string
	Content     string
}
