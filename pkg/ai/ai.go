package ai

import (
	"context"
	"fmt"
	"strings"

	"lyricsync/pkg/logging"
)

var logger = logging.Component("ai")

// AiInterface 大模型客户端
type AiInterface interface {
	Name() string
	HandleText(ctx context.Context, msg string) (string, error)
}

const translatePrompt = `Translate the following song lyric line from %s to %s.
Reply with the translation only, without quotes, notes or explanations.

%s`

// Translator 用大模型翻译歌词，作为在线翻译接口的兜底
type Translator struct {
	client AiInterface
}

// NewTranslator 包装一个大模型客户端
func NewTranslator(client AiInterface) *Translator {
	return &Translator{client: client}
}

func (t *Translator) Name() string {
	return "ai/" + t.client.Name()
}

// Translate 翻译一段文本，模型返回的多余引号会被去掉
func (t *Translator) Translate(ctx context.Context, text, source, target string) (string, error) {
	resp, err := t.client.HandleText(ctx, fmt.Sprintf(translatePrompt, source, target, text))
	if err != nil {
		return "", fmt.Errorf("%s translate failed: %w", t.client.Name(), err)
	}
	resp = strings.Trim(strings.TrimSpace(resp), `"“”`)
	if resp == "" {
		return "", fmt.Errorf("%s returned an empty translation", t.client.Name())
	}
	logger.Debug().Str("model", t.client.Name()).Msg("Line translated by model")
	return resp, nil
}
