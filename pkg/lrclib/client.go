package lrclib

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"lyricsync/pkg/httpclient"
	"lyricsync/pkg/logging"
	"lyricsync/pkg/timeline"
)

// DefaultBaseURL LRCLib API地址
const DefaultBaseURL = "https://lrclib.net/api"

// ErrNotFound LRCLib没有这首歌的歌词
var ErrNotFound = errors.New("lrclib: lyrics not found")

var logger = logging.Component("lrclib")

// Client LRCLib客户端
type Client struct {
	httpClient     *http.Client
	baseURL        string
	requestTimeout time.Duration
}

// LRCLibResponse LRCLib API响应结构
type LRCLibResponse struct {
	ID           int     `json:"id"`
	TrackName    string  `json:"trackName"`
	ArtistName   string  `json:"artistName"`
	AlbumName    string  `json:"albumName"`
	Duration     float64 `json:"duration"`
	Instrumental bool    `json:"instrumental"`
	PlainLyrics  string  `json:"plainLyrics"`
	SyncedLyrics string  `json:"syncedLyrics"`
}

// NewClient 创建新的LRCLib客户端
func NewClient(baseURL string, timeout time.Duration, retries int) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		httpClient:     httpclient.New(timeout, retries),
		baseURL:        baseURL,
		requestTimeout: timeout,
	}
}

// GetProviderName 返回提供商名称
func (c *Client) GetProviderName() string {
	return "LRCLib"
}

// Fetch 根据歌曲信息获取歌词，优先同步歌词，其次纯文本歌词
func (c *Client) Fetch(ctx context.Context, title, artist string, duration float64) (*timeline.Timeline, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()

	params := url.Values{}
	params.Set("track_name", title)
	params.Set("artist_name", artist)
	params.Set("duration", strconv.Itoa(int(math.Floor(duration))))

	req, err := http.NewRequestWithContext(timeoutCtx, http.MethodGet, c.baseURL+"/get?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", httpclient.UserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("lrclib request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("lrclib returned status %d", resp.StatusCode)
	}

	var payload LRCLibResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode lrclib response: %w", err)
	}

	if payload.SyncedLyrics != "" {
		if tl := timeline.ParseTimedText(payload.SyncedLyrics); tl.Len() > 0 {
			tl.Source = timeline.SourceLRCLib
			logger.Debug().
				Str("track", payload.TrackName).
				Str("artist", payload.ArtistName).
				Int("lines", tl.Len()).
				Msg("Selected synced lyrics")
			return tl, nil
		}
	}

	if payload.PlainLyrics != "" {
		if tl := timeline.Synthesize(payload.PlainLyrics, duration); tl.Len() > 0 {
			tl.Source = timeline.SourceLRCLib
			logger.Debug().
				Str("track", payload.TrackName).
				Str("artist", payload.ArtistName).
				Int("lines", tl.Len()).
				Msg("Selected plain lyrics")
			return tl, nil
		}
	}

	return nil, ErrNotFound
}
