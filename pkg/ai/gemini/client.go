package gemini

import (
	"context"
	"errors"
	"fmt"

	"lyricsync/pkg/ai"

	"github.com/google/generative-ai-go/genai"
	"github.com/rs/zerolog/log"
	"google.golang.org/api/option"
)

const defaultModel = "gemini-2.5-flash"

var _ ai.AiInterface = (*gemini)(nil)

type gemini struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

func NewGemini(apiKey, modelName string) (*gemini, error) {
	if apiKey == "" {
		return nil, errors.New("gemini api key is empty")
	}
	client, err := genai.NewClient(context.Background(), option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	if modelName == "" {
		modelName = defaultModel
	}
	model := client.GenerativeModel(modelName)
	// 翻译不需要发散
	model.SetTemperature(0.2)
	return &gemini{client: client, model: model}, nil
}

func (g *gemini) Name() string {
	return "gemini"
}

func (g *gemini) HandleText(ctx context.Context, msg string) (string, error) {
	resp, err := g.model.GenerateContent(ctx, genai.Text(msg))
	if err != nil {
		log.Error().Err(err).Msg("could not get response from gemini")
		return "", err
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", errors.New("gemini returned no candidates")
	}
	return fmt.Sprint(resp.Candidates[0].Content.Parts[0]), nil
}

func (g *gemini) Close() error {
	return g.client.Close()
}
