package service

import (
	"strings"

	"github.com/aicodegen/backend/internal/models"
	"github.com/bytedance/sonic"
)

type filesManifest struct {
	Files []models.File `json:"files"`
}

// extractFiles pulls the files manifest out of the assistant text. Models
// asked for "JSON only" still wrap the object in prose or code fences often
// enough, so after a straight decode fails the substring between the first
// "{" and the last "}" gets one more try.
func extractFiles(text string) ([]models.File, error) {
	if m, ok := decodeManifest(text); ok {
		return m.Files, nil
	}

	first := strings.Index(text, "{")
	last := strings.LastIndex(text, "}")
	if first == -1 || last == -1 || last < first {
		return nil, &models.ExtractError{Output: text}
	}

	if m, ok := decodeManifest(text[first : last+1]); ok {
		return m.Files, nil
	}
	return nil, &models.ExtractError{Output: text}
}

func decodeManifest(text string) (*filesManifest, bool) {
	var m filesManifest
	if err := sonic.Unmarshal([]byte(text), &m); err != nil {
		return nil, false
	}
	if m.Files == nil {
		return nil, false
	}
	return &m, true
}
