package timeline

import (
	"math"
	"strings"
)

// Synthesize 将纯文本歌词按时长均分为伪同步歌词
func Synthesize(plainText string, durationSeconds float64) *Timeline {
	var texts []string
	for _, row := range strings.Split(plainText, "\n") {
		if text := strings.TrimSpace(row); text != "" {
			texts = append(texts, text)
		}
	}
	if len(texts) == 0 || durationSeconds <= 0 || math.IsNaN(durationSeconds) {
		return &Timeline{}
	}

	return &Timeline{Lines: spread(texts, durationSeconds)}
}

// PlaceholderMessage 无歌词时的提示
const PlaceholderMessage = "Lyrics not available for this track"

// minPlaceholderDuration 占位歌词至少铺满30秒
const minPlaceholderDuration = 30.0

// Placeholder 生成找不到歌词时的占位内容
func Placeholder(title string, durationSeconds float64) *Timeline {
	if title == "" {
		title = "Unknown"
	}
	texts := []string{
		"♪ " + title + " ♪",
		"",
		PlaceholderMessage,
		"",
		"Try searching on Genius.com or AZLyrics",
		"",
		"Enjoying the instrumental version...",
		"",
		"🎵",
	}

	return &Timeline{
		Lines:  spread(texts, math.Max(minPlaceholderDuration, durationSeconds)),
		Source: SourcePlaceholder,
	}
}

// spread 将每行均匀分配到 duration 上
func spread(texts []string, duration float64) []Line {
	slot := duration / float64(len(texts))
	lines := make([]Line, len(texts))
	for i, text := range texts {
		lines[i] = Line{
			Time:    float64(i) * slot,
			EndTime: float64(i+1) * slot,
			Text:    text,
		}
	}
	return lines
}
