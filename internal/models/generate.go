package models

import "fmt"

// GenerateRequest represents request for the generate endpoint
type GenerateRequest struct {
	Prompt      string `json:"prompt" validate:"required" example:"Create a REST API that returns current server time and a README"`
	Language    string `json:"language" example:"go"`
	ProjectName string `json:"project_name" example:"time-api"`

	// Optional generation parameters
	Generation *GenerationParams `json:"generation"`
}

func (r *GenerateRequest) Validate() error {
	if r.Prompt == "" {
		return fmt.Errorf("prompt is empty")
	}
	return nil
}

// Normalize fills in the defaults the model prompt relies on.
func (r *GenerateRequest) Normalize() {
	if r.Language == "" {
		r.Language = "any"
	}
	if r.ProjectName == "" {
		r.ProjectName = "project"
	}
}

// GenerationParams holds optional OpenAI-like generation parameters
type GenerationParams struct {
	Temperature *float64 `json:"temperature" example:"0.2"`
	MaxTokens   *int     `json:"max_tokens" example:"2000"`
}

// File is a single generated file as described by the model. Content is
// plain text unless Encoding is "base64".
type File struct {
	Path     string `json:"path"`
	Content  string `json:"content"`
	Encoding string `json:"encoding,omitempty"`
}

// Project is the parsed model answer: the set of files to archive.
type Project struct {
	ID    string `json:"id"`
	Files []File `json:"files"`
}

// FileStat describes one archived file in the streaming manifest.
type FileStat struct {
	Path     string `json:"path"`
	Size     int    `json:"size"`
	Encoding string `json:"encoding,omitempty"`
}

type StreamChunk struct {
	Delta string     `json:"delta,omitempty"`
	Files []FileStat `json:"files,omitempty"`
	Done  bool       `json:"done,omitempty"`
	Err   error      `json:"-"`
}

// ExtractError is returned when no files manifest can be parsed out of the
// model answer. Output carries the raw assistant text for debugging.
type ExtractError struct {
	Output string
}

func (e *ExtractError) Error() string {
	return "failed to parse files JSON from model response"
}
