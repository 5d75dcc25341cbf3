package translate

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"lyricsync/pkg/logging"
)

// ErrNoTranslation 翻译源没有返回结果
var ErrNoTranslation = errors.New("no translation available")

var logger = logging.Component("translate")

// Translator 翻译一段文本
type Translator interface {
	Name() string
	Translate(ctx context.Context, text, source, target string) (string, error)
}

// Chain 按顺序尝试多个翻译源，第一个成功的结果生效
type Chain struct {
	translators []Translator
}

var _ Translator = (*Chain)(nil)

// NewChain 创建翻译链，nil会被忽略
func NewChain(translators ...Translator) *Chain {
	c := &Chain{}
	for _, t := range translators {
		if t != nil {
			c.translators = append(c.translators, t)
		}
	}
	return c
}

// Name 翻译链名称
func (c *Chain) Name() string {
	names := make([]string, len(c.translators))
	for i, t := range c.translators {
		names[i] = t.Name()
	}
	return "chain[" + strings.Join(names, ",") + "]"
}

// Translate 依次尝试每个翻译源
func (c *Chain) Translate(ctx context.Context, text, source, target string) (string, error) {
	var lastErr error = ErrNoTranslation
	for _, t := range c.translators {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		translated, err := t.Translate(ctx, text, source, target)
		if err == nil && strings.TrimSpace(translated) != "" {
			return translated, nil
		}
		if err == nil {
			err = ErrNoTranslation
		}
		logger.Warn().Str("translator", t.Name()).Err(err).Msg("Translator failed, trying next")
		lastErr = err
	}
	return "", fmt.Errorf("all translators failed: %w", lastErr)
}
