package music

import (
	"fmt"
	"strings"
	"time"

	"lyricsync/pkg/lrclib"
	"lyricsync/pkg/lyricsovh"
	"lyricsync/pkg/netease"
)

// Provider 歌词源类型
type Provider string

const (
	// ProviderLRCLib LRCLib歌词库，带时间轴
	ProviderLRCLib Provider = "lrclib"
	// ProviderLyricsOvh lyrics.ovh，一般为纯文本
	ProviderLyricsOvh Provider = "lyricsovh"
	// ProviderNetEase 网易云音乐
	ProviderNetEase Provider = "netease"
)

// Options 歌词源客户端参数
type Options struct {
	LRCLibURL    string
	LyricsOvhURL string
	NetEaseURL   string
	Timeout      time.Duration
	Retries      int
}

// CreateProvider 创建歌词源客户端
func CreateProvider(provider Provider, opts Options) (LyricsSource, error) {
	switch provider {
	case ProviderLRCLib:
		return lrclib.NewClient(opts.LRCLibURL, opts.Timeout, opts.Retries), nil
	case ProviderLyricsOvh:
		return lyricsovh.NewClient(opts.LyricsOvhURL, opts.Timeout, opts.Retries), nil
	case ProviderNetEase:
		return netease.NewClient(opts.NetEaseURL, opts.Timeout, opts.Retries), nil
	default:
		return nil, fmt.Errorf("unknown lyrics provider: %s", provider)
	}
}

// CreateManager 按名称列表顺序创建歌词源管理器
func CreateManager(names []string, opts Options, minLines int) (*Manager, error) {
	var providers []LyricsSource
	for _, name := range names {
		providerType, err := GetProviderByName(name)
		if err != nil {
			logger.Warn().Err(err).Msg("Skipping provider")
			continue
		}
		provider, err := CreateProvider(providerType, opts)
		if err != nil {
			logger.Warn().Err(err).Str("provider", name).Msg("Failed to create provider")
			continue
		}
		providers = append(providers, provider)
	}

	if len(providers) == 0 {
		return nil, fmt.Errorf("no lyrics providers available")
	}
	return NewManager(providers, minLines), nil
}

// DefaultProviders 默认优先级：先LRCLib，再lyrics.ovh
func DefaultProviders() []string {
	return []string{string(ProviderLRCLib), string(ProviderLyricsOvh)}
}

// GetProviderByName 根据名称获取歌词源
func GetProviderByName(name string) (Provider, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "lrclib", "lrclib.net":
		return ProviderLRCLib, nil
	case "lyricsovh", "lyrics.ovh", "ovh":
		return ProviderLyricsOvh, nil
	case "netease", "网易云", "163":
		return ProviderNetEase, nil
	default:
		return "", fmt.Errorf("unknown provider name: %s", name)
	}
}
