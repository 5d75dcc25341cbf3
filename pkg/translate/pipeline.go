package translate

import (
	"context"
	"strings"
	"time"

	"lyricsync/pkg/timeline"
)

// InstrumentalGlyph 带这个符号的行是占位或间奏，不翻译
const InstrumentalGlyph = "♪"

// Options 翻译流水线参数
type Options struct {
	ThrottleEvery  int           // 每隔多少行停顿一次
	ThrottleDelay  time.Duration // 逐行翻译时的停顿
	ParagraphDelay time.Duration // 整段翻译时每次调用后的停顿
	MaxLines       int           // 最多翻译多少行，0为不限
}

// DefaultOptions 默认参数
func DefaultOptions() Options {
	return Options{
		ThrottleEvery:  10,
		ThrottleDelay:  50 * time.Millisecond,
		ParagraphDelay: 100 * time.Millisecond,
		MaxLines:       50,
	}
}

// Pipeline 逐行翻译歌词
type Pipeline struct {
	translator Translator
	opts       Options
}

// NewPipeline 创建翻译流水线
func NewPipeline(translator Translator, opts Options) *Pipeline {
	return &Pipeline{translator: translator, opts: opts}
}

// ShouldTranslate 空行和带音符的行不翻译
func ShouldTranslate(text string) bool {
	return strings.TrimSpace(text) != "" && !strings.Contains(text, InstrumentalGlyph)
}

// Run 按顺序翻译每一行并写入 m；读者随时可以读取 m。
// 某行所有翻译源都失败时写入原文。只有 ctx 取消时才返回错误，已写入的内容保留。
func (p *Pipeline) Run(ctx context.Context, tl *timeline.Timeline, source, target string, m *Map) error {
	n := tl.Len()
	if p.opts.MaxLines > 0 {
		n = min(n, p.opts.MaxLines)
	}

	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		text := tl.Lines[i].Text
		if ShouldTranslate(text) {
			translated, err := p.translator.Translate(ctx, text, source, target)
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if err != nil {
				logger.Warn().Int("index", i).Err(err).Msg("Line left untranslated")
				translated = text
			}
			m.Set(i, translated)
		}

		if p.opts.ThrottleEvery > 0 && i%p.opts.ThrottleEvery == 0 {
			if err := sleep(ctx, p.opts.ThrottleDelay); err != nil {
				return err
			}
		}
	}

	m.markComplete()
	logger.Info().Int("translated", m.Len()).Str("target", target).Msg("Translation finished")
	return nil
}

// TranslateText 按空行分段整段翻译，每次调用后停顿；失败的段保留原文
func (p *Pipeline) TranslateText(ctx context.Context, text, source, target string) (string, error) {
	var out []string
	for _, paragraph := range strings.Split(text, "\n\n") {
		if strings.TrimSpace(paragraph) == "" {
			continue
		}

		translated, err := p.translator.Translate(ctx, paragraph, source, target)
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		if err != nil {
			logger.Warn().Err(err).Msg("Paragraph left untranslated")
			translated = paragraph
		}
		out = append(out, translated)

		if err := sleep(ctx, p.opts.ParagraphDelay); err != nil {
			return "", err
		}
	}
	return strings.Join(out, "\n\n"), nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
