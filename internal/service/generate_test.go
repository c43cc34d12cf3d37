package service

import (
	"context"
	"log"
	"strings"
	"testing"

	"github.com/aicodegen/backend/internal/config"
	"github.com/aicodegen/backend/internal/models"
	"github.com/openai/openai-go/v3"
)

type fakeCache struct {
	store map[string]string
	sets  int
}

func (f *fakeCache) Get(ctx context.Context, key string) (string, bool, error) {
	val, ok := f.store[key]
	return val, ok, nil
}

func (f *fakeCache) Set(ctx context.Context, key string, value string) error {
	f.store[key] = value
	f.sets++
	return nil
}

func TestGetCacheKeyDeterministic(t *testing.T) {
	req := &models.GenerateRequest{Prompt: "build a cli", Language: "go", ProjectName: "tool"}

	k1 := getCacheKey("gpt-4", req)
	k2 := getCacheKey("gpt-4", req)
	if k1 != k2 {
		t.Errorf("Cache key not deterministic: %s vs %s", k1, k2)
	}
	if len(k1) != 64 {
		t.Errorf("Expected hex sha256 key, got %q", k1)
	}

	other := &models.GenerateRequest{Prompt: "build a cli", Language: "rust", ProjectName: "tool"}
	if k1 == getCacheKey("gpt-4", other) {
		t.Error("Different requests produced the same cache key")
	}
	if k1 == getCacheKey("gpt-3.5-turbo", req) {
		t.Error("Different models produced the same cache key")
	}

	temp := 0.7
	withParams := &models.GenerateRequest{
		Prompt: "build a cli", Language: "go", ProjectName: "tool",
		Generation: &models.GenerationParams{Temperature: &temp},
	}
	if k1 == getCacheKey("gpt-4", withParams) {
		t.Error("Generation params should change the cache key")
	}
}

func TestGenerateServedFromCache(t *testing.T) {
	req := &models.GenerateRequest{Prompt: "time api", Language: "nodejs", ProjectName: "time-api"}

	svc := NewGenerateService(log.Default(), openai.Client{}, config.OpenAIConfig{
		APIKey: "test-key",
		Model:  "gpt-4",
	})
	svc.SetCacheClient(&fakeCache{store: map[string]string{
		getCacheKey("gpt-4", req): `{"files":[{"path":"index.js","content":"console.log(1)"}]}`,
	}})

	project, err := svc.Generate(context.Background(), req)
	if err != nil {
		t.Fatalf("Generate failed on cache hit: %v", err)
	}
	if len(project.Files) != 1 || project.Files[0].Path != "index.js" {
		t.Fatalf("Unexpected project from cache: %+v", project)
	}
	if project.ID == "" {
		t.Error("Expected a generation ID")
	}
}

func TestGenerateCachedGarbage(t *testing.T) {
	req := &models.GenerateRequest{Prompt: "time api", Language: "any", ProjectName: "project"}

	svc := NewGenerateService(log.Default(), openai.Client{}, config.OpenAIConfig{
		APIKey: "test-key",
		Model:  "gpt-4",
	})
	svc.SetCacheClient(&fakeCache{store: map[string]string{
		getCacheKey("gpt-4", req): "the model rambled and returned no JSON",
	}})

	_, err := svc.Generate(context.Background(), req)
	if err == nil {
		t.Fatal("Expected parse error for cached garbage, got nil")
	}
}

func TestGenerateMissingAPIKey(t *testing.T) {
	svc := NewGenerateService(log.Default(), openai.Client{}, config.OpenAIConfig{Model: "gpt-4"})

	_, err := svc.Generate(context.Background(), &models.GenerateRequest{Prompt: "x"})
	if err == nil {
		t.Fatal("Expected error with missing API key, got nil")
	}
	if !strings.Contains(err.Error(), "OPENAI_API_KEY") {
		t.Errorf("Unexpected error: %v", err)
	}
}

func TestBuildOpenAIReq(t *testing.T) {
	svc := NewGenerateService(log.Default(), openai.Client{}, config.OpenAIConfig{
		APIKey: "test-key",
		Model:  "gpt-4",
	})

	req := &models.GenerateRequest{Prompt: "make a game", Language: "go", ProjectName: "snake"}
	params := svc.buildOpenAIReq(req)

	if string(params.Model) != "gpt-4" {
		t.Errorf("Unexpected model: %s", params.Model)
	}
	if len(params.Messages) != 2 {
		t.Fatalf("Expected system + user message, got %d", len(params.Messages))
	}
	if params.Temperature.Value != defaultTemperature {
		t.Errorf("Expected default temperature %v, got %v", defaultTemperature, params.Temperature.Value)
	}
	if params.MaxCompletionTokens.Value != defaultMaxTokens {
		t.Errorf("Expected default max tokens %v, got %v", defaultMaxTokens, params.MaxCompletionTokens.Value)
	}

	temp := 0.9
	tokens := 500
	req.Generation = &models.GenerationParams{Temperature: &temp, MaxTokens: &tokens}
	params = svc.buildOpenAIReq(req)
	if params.Temperature.Value != 0.9 {
		t.Errorf("Temperature override not applied: %v", params.Temperature.Value)
	}
	if params.MaxCompletionTokens.Value != 500 {
		t.Errorf("MaxTokens override not applied: %v", params.MaxCompletionTokens.Value)
	}
}

func TestGetUserPrompt(t *testing.T) {
	req := &models.GenerateRequest{Prompt: "do the thing", Language: "python", ProjectName: "thing"}

	prompt := getUserPrompt(req)
	for _, want := range []string{"Project name: thing", "Language/stack: python", "Instructions: do the thing"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("User prompt missing %q:\n%s", want, prompt)
		}
	}
}
