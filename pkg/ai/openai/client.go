package openai

import (
	"context"
	"errors"

	"lyricsync/pkg/ai"

	"github.com/rs/zerolog/log"
	openai "github.com/sashabaranov/go-openai"
)

const defaultModel = openai.GPT4oMini

var _ ai.AiInterface = (*openAi)(nil)

type openAi struct {
	model  string
	client *openai.Client
}

func NewOpenAi(apiKey, modelName, baseURL string) *openAi {
	openaiConfig := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		openaiConfig.BaseURL = baseURL
	}
	if modelName == "" {
		modelName = defaultModel
	}
	return &openAi{model: modelName, client: openai.NewClientWithConfig(openaiConfig)}
}

func (o *openAi) Name() string {
	return "openai"
}

func (o *openAi) HandleText(ctx context.Context, msg string) (string, error) {
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: msg,
			},
		},
		MaxTokens:   500,
		Temperature: 0.2,
	})
	if err != nil {
		log.Error().Err(err).Msg("could not get response from openai")
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openai returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
