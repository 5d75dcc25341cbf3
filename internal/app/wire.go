package app

import (
	"strings"

	"lyricsync/internal/config"
	"lyricsync/internal/lyrics"
	"lyricsync/pkg/ai"
	"lyricsync/pkg/ai/gemini"
	"lyricsync/pkg/ai/openai"
	"lyricsync/pkg/music"
	musiccache "lyricsync/pkg/musicCache"
	"lyricsync/pkg/redis"
	"lyricsync/pkg/tencent"
	"lyricsync/pkg/translate"
)

// NewLyricsService 按配置组装歌词源、缓存和翻译流水线。
// 返回的cleanup用于关闭Redis等外部连接。
func NewLyricsService(cfg *config.Config) (*lyrics.Service, func(), error) {
	manager, err := music.CreateManager(cfg.Lyrics.Providers, music.Options{
		LRCLibURL:    cfg.Lyrics.LRCLibURL,
		LyricsOvhURL: cfg.Lyrics.LyricsOvhURL,
		NetEaseURL:   cfg.Lyrics.NetEaseURL,
		Timeout:      cfg.Lyrics.Timeout,
		Retries:      cfg.Lyrics.Retries,
	}, cfg.Lyrics.MinLines)
	if err != nil {
		return nil, nil, err
	}

	var closers []func()
	cleanup := func() {
		for _, c := range closers {
			c()
		}
	}

	var store musiccache.Store
	if cfg.Redis.Enabled {
		client, err := redis.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			// Redis只是二级缓存，连不上时只用内存
			logger.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("Redis unavailable, using in-memory cache only")
		} else {
			store = musiccache.NewRedisStore(client, cfg.Cache.TTL)
			closers = append(closers, func() { client.Close() })
			logger.Info().Str("addr", cfg.Redis.Addr).Msg("Redis cache store enabled")
		}
	}
	cache := musiccache.New(cfg.Cache.Capacity, store)

	pipeline := translate.NewPipeline(NewTranslatorChain(cfg), translate.Options{
		ThrottleEvery:  cfg.Translation.ThrottleEvery,
		ThrottleDelay:  cfg.Translation.ThrottleDelay,
		ParagraphDelay: cfg.Translation.ParagraphDelay,
		MaxLines:       cfg.Translation.MaxLines,
	})

	svc := lyrics.NewService(manager, cache, pipeline, cfg.Translation.SourceLanguage)
	closers = append(closers, svc.Close)
	return svc, cleanup, nil
}

// NewTranslatorChain MyMemory -> Lingva -> AI（可选）-> 腾讯云（可选）
func NewTranslatorChain(cfg *config.Config) *translate.Chain {
	translators := []translate.Translator{
		translate.NewMyMemory(cfg.Translation.MyMemoryURL, cfg.Translation.Timeout, cfg.Lyrics.Retries),
		translate.NewLingva(cfg.Translation.LingvaURL, cfg.Translation.Timeout, cfg.Lyrics.Retries),
	}

	if cfg.Translation.AIFallback && cfg.AI.APIKey != "" {
		if client, err := newAIClient(cfg.AI); err != nil {
			logger.Warn().Err(err).Str("module", cfg.AI.ModuleName).Msg("AI translator disabled")
		} else {
			translators = append(translators, ai.NewTranslator(client))
		}
	}

	if cfg.Tencent.SecretID != "" && cfg.Tencent.SecretKey != "" {
		if client, err := tencent.NewClient(cfg.Tencent.SecretID, cfg.Tencent.SecretKey, cfg.Tencent.Region, cfg.Translation.Timeout); err != nil {
			logger.Warn().Err(err).Msg("Tencent translator disabled")
		} else {
			translators = append(translators, client)
		}
	}

	chain := translate.NewChain(translators...)
	logger.Info().Str("translators", chain.Name()).Msg("Translation chain ready")
	return chain
}

func newAIClient(cfg config.AIConfig) (ai.AiInterface, error) {
	if strings.EqualFold(cfg.ModuleName, "gemini") {
		return gemini.NewGemini(cfg.APIKey, cfg.Model)
	}
	model := cfg.Model
	if model == "" && !strings.EqualFold(cfg.ModuleName, "openai") {
		// 兼容旧配置：module_name直接写模型名
		model = cfg.ModuleName
	}
	return openai.NewOpenAi(cfg.APIKey, model, cfg.BaseURL), nil
}
