package service

import (
	"fmt"

	"github.com/aicodegen/backend/internal/models"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/shared"
)

func getUserPrompt(req *models.GenerateRequest) string {
	return fmt.Sprintf(userPromptTemplate, req.ProjectName, req.Language, req.Prompt)
}

func (g *GenerateService) buildOpenAIReq(req *models.GenerateRequest) *openai.ChatCompletionNewParams {
	params := &openai.ChatCompletionNewParams{
		Model: shared.ChatModel(g.modelName),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(getUserPrompt(req)),
		},
		Temperature:         openai.Float(defaultTemperature),
		MaxCompletionTokens: openai.Int(defaultMaxTokens),
	}

	if req.Generation != nil && req.Generation.Temperature != nil {
		params.Temperature = openai.Float(*req.Generation.Temperature)
	}

	if req.Generation != nil && req.Generation.MaxTokens != nil {
		params.MaxCompletionTokens = openai.Int(int64(*req.Generation.MaxTokens))
	}
	return params
}
