package netease

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"lyricsync/pkg/httpclient"
	"lyricsync/pkg/logging"
	"lyricsync/pkg/timeline"
)

// DefaultBaseURL 网易云音乐API地址
const DefaultBaseURL = "https://music.163.com/api"

// ErrNotFound 网易云没有匹配的歌曲或歌词
var ErrNotFound = errors.New("netease: lyrics not found")

var logger = logging.Component("netease")

// NeteaseSearchResponse 网易云搜索API响应
type NeteaseSearchResponse struct {
	Result struct {
		Songs []struct {
			ID      int    `json:"id"`
			Name    string `json:"name"`
			Artists []struct {
				Name string `json:"name"`
			} `json:"artists"`
		} `json:"songs"`
	} `json:"result"`
}

// NeteaseLyricResponse 网易云歌词API响应
type NeteaseLyricResponse struct {
	Lrc struct {
		Lyric string `json:"lyric"`
	} `json:"lrc"`
}

// Client 网易云音乐客户端
type Client struct {
	httpClient     *http.Client
	baseURL        string
	cookie         string
	requestTimeout time.Duration
}

// NewClient 创建新的网易云音乐客户端
func NewClient(baseURL string, timeout time.Duration, retries int) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		httpClient:     httpclient.New(timeout, retries),
		baseURL:        strings.TrimRight(baseURL, "/"),
		cookie:         os.Getenv("NETEASE_COOKIE"),
		requestTimeout: timeout,
	}
}

// GetProviderName 获取提供商名称
func (c *Client) GetProviderName() string {
	return "NetEase Cloud Music"
}

// Fetch 搜索歌曲并获取歌词
func (c *Client) Fetch(ctx context.Context, title, artist string, duration float64) (*timeline.Timeline, error) {
	ctx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()

	songID, err := c.searchSong(ctx, title, artist)
	if err != nil {
		return nil, err
	}

	lyric, err := c.getLyrics(ctx, songID)
	if err != nil {
		return nil, err
	}

	tl := timeline.ParseTimedText(lyric)
	if tl.Len() == 0 {
		tl = timeline.Synthesize(lyric, duration)
	}
	if tl.Len() == 0 {
		return nil, ErrNotFound
	}
	tl.Source = timeline.SourceNetEase
	return tl, nil
}

// searchSong 搜索歌曲，返回歌曲ID
func (c *Client) searchSong(ctx context.Context, title, artist string) (string, error) {
	params := url.Values{}
	params.Set("s", strings.TrimSpace(title+" "+artist))
	params.Set("type", "1")
	params.Set("limit", "30")

	var searchResp NeteaseSearchResponse
	if err := c.getJSON(ctx, c.baseURL+"/search/get/web?"+params.Encode(), &searchResp); err != nil {
		return "", fmt.Errorf("netease search failed: %w", err)
	}
	if len(searchResp.Result.Songs) == 0 {
		return "", ErrNotFound
	}

	songID := c.findBestMatch(searchResp, artist, title)
	if songID == 0 {
		return "", ErrNotFound
	}
	return strconv.Itoa(songID), nil
}

// getLyrics 获取歌词
func (c *Client) getLyrics(ctx context.Context, songID string) (string, error) {
	params := url.Values{}
	params.Set("os", "pc")
	params.Set("id", songID)
	params.Set("lv", "-1")

	var lyricResp NeteaseLyricResponse
	if err := c.getJSON(ctx, c.baseURL+"/song/lyric?"+params.Encode(), &lyricResp); err != nil {
		return "", fmt.Errorf("netease lyric request failed: %w", err)
	}
	if strings.TrimSpace(lyricResp.Lrc.Lyric) == "" {
		return "", ErrNotFound
	}
	return lyricResp.Lrc.Lyric, nil
}

func (c *Client) getJSON(ctx context.Context, target string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", httpclient.UserAgent)
	if c.cookie != "" {
		req.Header.Set("Cookie", c.cookie)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("request failed with status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// findBestMatch 找到标题和歌手都匹配的歌曲，否则退回第一个标题匹配的
func (c *Client) findBestMatch(resp NeteaseSearchResponse, targetArtist, targetTitle string) int {
	for _, song := range resp.Result.Songs {
		if !containsIgnoreCase(song.Name, targetTitle) {
			continue
		}
		for _, artist := range song.Artists {
			if containsIgnoreCase(artist.Name, targetArtist) {
				logger.Debug().Str("song", song.Name).Int("id", song.ID).Msg("Found matching song")
				return song.ID
			}
		}
	}

	if first := resp.Result.Songs[0]; containsIgnoreCase(first.Name, targetTitle) {
		logger.Debug().Str("song", first.Name).Int("id", first.ID).Msg("Using first title match")
		return first.ID
	}
	return 0
}

// normalizeString 标准化字符串（转小写，去空格）
func normalizeString(s string) string {
	return strings.ReplaceAll(strings.ToLower(s), " ", "")
}

// containsIgnoreCase 忽略大小写和空格的双向包含检查
func containsIgnoreCase(s1, s2 string) bool {
	norm1, norm2 := normalizeString(s1), normalizeString(s2)
	return strings.Contains(norm1, norm2) || strings.Contains(norm2, norm1)
}
