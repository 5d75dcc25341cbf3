package music

import (
	"context"
	"strings"

	"lyricsync/pkg/timeline"
)

// LyricsSource 歌词源通用接口
type LyricsSource interface {
	// Fetch 查询一次歌词源；任何错误都表示该查询没有结果
	Fetch(ctx context.Context, title, artist string, duration float64) (*timeline.Timeline, error)

	// GetProviderName 获取歌词源名称
	GetProviderName() string
}

// Resolver 按优先级和查询变体解析歌词，总是返回可用的歌词
type Resolver interface {
	Resolve(ctx context.Context, title, artist string, duration float64) *timeline.Timeline
}

// SongInfo 歌曲信息结构
type SongInfo struct {
	ID       string  `json:"id"`
	Title    string  `json:"title"`
	Artist   string  `json:"artist"`
	Duration float64 `json:"duration"` // 歌曲时长（秒）
}

// Valid 标题、歌手和时长都存在时才值得查询
func (s SongInfo) Valid() bool {
	return s.Title != "" && s.Artist != "" && s.Duration > 0
}

// Key 缓存键；播放器没有提供ID时用歌手和标题拼接
func (s SongInfo) Key() string {
	if s.ID != "" {
		return s.ID
	}
	if s.Title == "" && s.Artist == "" {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(s.Artist) + " - " + strings.TrimSpace(s.Title))
}
