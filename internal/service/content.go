package service

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/thirtyapp/thirty/internal/markdown"
	"github.com/thirtyapp/thirty/internal/model"
)

// ContentService serves the daily journaling prompts. Each track ships 30
// markdown files under content/tracks/<slug>/day-NN.md with the morning
// and evening prompts in frontmatter and optional guidance in the body.
type ContentService struct {
	parser      *markdown.Parser
	contentPath string
}

func NewContentService(contentPath string) *ContentService {
	return &ContentService{
		parser:      markdown.NewParser(),
		contentPath: contentPath,
	}
}

func (s *ContentService) Prompt(track model.Track, day int) (*model.DayPrompt, error) {
	if day < 1 || day > model.TrackDays {
		return nil, fmt.Errorf("day out of range: %d", day)
	}

	path := filepath.Join(s.contentPath, "tracks", track.Slug(), fmt.Sprintf("day-%02d.md", day))
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("prompt not found for %s day %d", track, day)
	}

	htmlContent, meta, err := s.parser.ParseWithFrontmatter(source)
	if err != nil {
		return nil, fmt.Errorf("failed to parse prompt: %w", err)
	}

	prompt := &model.DayPrompt{
		Track:       track,
		Day:         day,
		HTMLContent: string(htmlContent),
		Content:     string(source),
	}

	title, ok := meta["title"].(string)
	if ok {
		prompt.Title = title
	}

	morning, ok := meta["morning"].(string)
	if ok {
		prompt.Morning = morning
	}

	evening, ok := meta["evening"].(string)
	if ok {
		prompt.Evening = evening
	}

	return prompt, nil
}
