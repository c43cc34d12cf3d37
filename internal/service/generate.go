package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/aicodegen/backend/internal/archive"
	"github.com/aicodegen/backend/internal/config"
	"github.com/aicodegen/backend/internal/metrics"
	"github.com/aicodegen/backend/internal/models"
	"github.com/google/uuid"
	"github.com/openai/openai-go/v3"
)

type Cache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key string, value string) error
}

type GenerateService struct {
	logger       *log.Logger
	openaiClient openai.Client
	modelName    string
	apiKey       string
	cache        Cache
}

func NewGenerateService(logger *log.Logger, openaiClient openai.Client, cfg config.OpenAIConfig) *GenerateService {
	return &GenerateService{
		logger:       logger,
		openaiClient: openaiClient,
		modelName:    cfg.Model,
		apiKey:       cfg.APIKey,
	}
}

func (g *GenerateService) SetCacheClient(cache Cache) {
	g.cache = cache
}

// Generate asks the model for a project matching the request and returns the
// parsed file manifest. The raw assistant text is cached so identical
// requests skip the API call.
func (g *GenerateService) Generate(ctx context.Context, req *models.GenerateRequest) (*models.Project, error) {
	start := time.Now()

	text, err := g.assistantText(ctx, req)
	if err != nil {
		metrics.GenerationTotal("error", g.modelName)
		metrics.GenerationDuration("error", g.modelName, time.Since(start))
		return nil, err
	}

	files, err := extractFiles(text)
	if err != nil {
		g.logger.Printf("failed to parse model output: %v\n", err)
		metrics.GenerationTotal("parse_error", g.modelName)
		metrics.GenerationDuration("parse_error", g.modelName, time.Since(start))
		return nil, err
	}

	metrics.GenerationTotal("ok", g.modelName)
	metrics.GenerationDuration("ok", g.modelName, time.Since(start))

	return &models.Project{
		ID:    uuid.NewString(),
		Files: files,
	}, nil
}

// GenerateStream streams assistant deltas while the model answers, then a
// manifest of the parsed files once the answer is complete.
func (g *GenerateService) GenerateStream(ctx context.Context, req *models.GenerateRequest) (<-chan models.StreamChunk, error) {
	if g.apiKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is not set")
	}

	ch := make(chan models.StreamChunk, 1)

	if g.cache != nil {
		cached, found, err := g.cache.Get(ctx, getCacheKey(g.modelName, req))
		if err != nil {
			g.logger.Printf("cache get error: %v\n", err)
		}
		if found {
			go func() {
				defer close(ch)
				g.finishStream(ctx, ch, cached)
			}()
			return ch, nil
		}
	}

	params := g.buildOpenAIReq(req)

	go func() {
		defer close(ch)

		sendOrStop := func(msg models.StreamChunk) bool {
			select {
			case ch <- msg:
				return true
			case <-ctx.Done():
				return false
			}
		}

		sendNonBlocking := func(msg models.StreamChunk) {
			select {
			case ch <- msg:
			default:
			}
		}

		stream := g.openaiClient.Chat.Completions.NewStreaming(ctx, *params)
		defer stream.Close()

		var builder strings.Builder

		for stream.Next() {
			if ctx.Err() != nil {
				sendNonBlocking(models.StreamChunk{Err: ctx.Err()})
				return
			}

			chunk := stream.Current()
			if len(chunk.Choices) == 0 {
				continue
			}

			delta := chunk.Choices[0].Delta.Content
			if delta == "" {
				continue
			}

			builder.WriteString(delta)
			if !sendOrStop(models.StreamChunk{Delta: delta}) {
				return
			}
		}

		if err := stream.Err(); err != nil {
			sendNonBlocking(models.StreamChunk{Err: err})
			return
		}

		text := builder.String()
		if g.cache != nil {
			if err := g.cache.Set(ctx, getCacheKey(g.modelName, req), text); err != nil {
				g.logger.Printf("failed to set cache: %v\n", err)
			}
		}

		g.finishStream(ctx, ch, text)
	}()

	return ch, nil
}

// finishStream parses the accumulated answer and emits the manifest and the
// final done chunk.
func (g *GenerateService) finishStream(ctx context.Context, ch chan<- models.StreamChunk, text string) {
	files, err := extractFiles(text)
	if err != nil {
		metrics.GenerationTotal("parse_error", g.modelName)
		select {
		case ch <- models.StreamChunk{Err: err}:
		case <-ctx.Done():
		}
		return
	}

	metrics.GenerationTotal("ok", g.modelName)
	select {
	case ch <- models.StreamChunk{Files: archive.Stats(files), Done: true}:
	case <-ctx.Done():
	}
}

func (g *GenerateService) assistantText(ctx context.Context, req *models.GenerateRequest) (string, error) {
	if g.apiKey == "" {
		return "", fmt.Errorf("OPENAI_API_KEY is not set")
	}

	key := getCacheKey(g.modelName, req)
	if g.cache != nil {
		cached, found, err := g.cache.Get(ctx, key)
		if err != nil {
			g.logger.Printf("cache get error: %v\n", err)
		}
		if found {
			g.logger.Println("served from cache")
			return cached, nil
		}
	}

	params := g.buildOpenAIReq(req)
	resp, err := g.openaiClient.Chat.Completions.New(ctx, *params)
	if err != nil {
		return "", fmt.Errorf("OpenAI client error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("OpenAI response has no choices")
	}

	text := resp.Choices[0].Message.Content
	if g.cache != nil {
		if err := g.cache.Set(ctx, key, text); err != nil {
			g.logger.Printf("failed to set cache: %v\n", err)
		}
	}
	return text, nil
}

func getCacheKey(model string, req *models.GenerateRequest) string {
	data := []string{
		model,
		req.ProjectName,
		req.Language,
		req.Prompt,
	}

	if req.Generation != nil && req.Generation.Temperature != nil {
		data = append(data, fmt.Sprintf("%f", *req.Generation.Temperature))
	}

	if req.Generation != nil && req.Generation.MaxTokens != nil {
		data = append(data, fmt.Sprintf("%d", *req.Generation.MaxTokens))
	}

	hash := sha256.Sum256([]byte(strings.Join(data, "-")))
	return hex.EncodeToString(hash[:])
}
