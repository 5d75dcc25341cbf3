package music

import (
	"context"
	"fmt"
	"math"

	"lyricsync/pkg/logging"
	"lyricsync/pkg/timeline"
)

// DefaultMinLines 歌词行数必须大于该值才被接受
const DefaultMinLines = 5

// placeholderFallbackDuration 时长未知时占位歌词的时长
const placeholderFallbackDuration = 180.0

var logger = logging.Component("music-manager")

// Manager 歌词源管理器，按优先级和查询变体依次尝试
type Manager struct {
	providers []LyricsSource
	minLines  int
}

var _ Resolver = (*Manager)(nil)

// NewManager 创建新的歌词源管理器
func NewManager(providers []LyricsSource, minLines int) *Manager {
	if minLines < 0 {
		minLines = DefaultMinLines
	}
	if len(providers) == 0 {
		logger.Warn().Msg("No lyrics providers configured")
	} else {
		logger.Info().
			Int("provider_count", len(providers)).
			Str("primary_provider", providers[0].GetProviderName()).
			Int("min_lines", minLines).
			Msg("Lyrics manager initialized")
	}

	return &Manager{
		providers: providers,
		minLines:  minLines,
	}
}

// Resolve 解析歌词，找不到时返回占位歌词，从不返回nil
func (m *Manager) Resolve(ctx context.Context, title, artist string, duration float64) *timeline.Timeline {
	if math.IsNaN(duration) {
		duration = 0
	}
	if title == "" || artist == "" || duration <= 0 {
		logger.Warn().
			Str("title", title).
			Str("artist", artist).
			Float64("duration", duration).
			Msg("Invalid song info, using placeholder")
		if duration <= 0 {
			duration = placeholderFallbackDuration
		}
		return timeline.Placeholder(title, duration)
	}

	variants := Variants(title, artist)
	for i, provider := range m.providers {
		logger.Info().
			Str("provider", provider.GetProviderName()).
			Int("attempt", i+1).
			Int("total_providers", len(m.providers)).
			Str("title", title).
			Str("artist", artist).
			Msg("Trying provider")

		for _, v := range variants {
			if ctx.Err() != nil {
				logger.Info().Err(ctx.Err()).Msg("Resolution cancelled")
				return timeline.Placeholder(title, duration)
			}

			tl, err := provider.Fetch(ctx, v.Title, v.Artist, duration)
			if err != nil {
				logger.Warn().
					Str("provider", provider.GetProviderName()).
					Str("variant", v.Kind).
					Str("title", v.Title).
					Str("artist", v.Artist).
					Err(err).
					Msg("Provider miss")
				continue
			}
			if !m.acceptable(tl) {
				logger.Debug().
					Str("provider", provider.GetProviderName()).
					Str("variant", v.Kind).
					Int("lines", tl.Len()).
					Msg("Too few lines, trying next variant")
				continue
			}

			logger.Info().
				Str("provider", provider.GetProviderName()).
				Str("variant", v.Kind).
				Int("lines", tl.Len()).
				Bool("synced", tl.Synced).
				Msg("Successfully got lyrics")
			return tl
		}
	}

	logger.Info().Str("title", title).Str("artist", artist).Msg("No lyrics found, using placeholder")
	return timeline.Placeholder(title, duration)
}

func (m *Manager) acceptable(tl *timeline.Timeline) bool {
	return tl.Len() > m.minLines
}

// GetProviderName 获取管理器名称
func (m *Manager) GetProviderName() string {
	if len(m.providers) > 0 {
		return fmt.Sprintf("Manager[Primary: %s]", m.providers[0].GetProviderName())
	}
	return "Manager[No Providers]"
}

// GetProviderCount 获取歌词源数量
func (m *Manager) GetProviderCount() int {
	return len(m.providers)
}

// GetProviderNames 获取所有歌词源名称
func (m *Manager) GetProviderNames() []string {
	names := make([]string, len(m.providers))
	for i, provider := range m.providers {
		names[i] = provider.GetProviderName()
	}
	return names
}
