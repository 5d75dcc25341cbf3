package lyricsovh

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"lyricsync/pkg/httpclient"
	"lyricsync/pkg/timeline"
)

// DefaultBaseURL lyrics.ovh API地址
const DefaultBaseURL = "https://api.lyrics.ovh/v1"

// ErrNotFound lyrics.ovh没有这首歌的歌词
var ErrNotFound = errors.New("lyrics.ovh: lyrics not found")

type lyricsResponse struct {
	Lyrics string `json:"lyrics"`
}

// Client lyrics.ovh客户端
type Client struct {
	httpClient     *http.Client
	baseURL        string
	requestTimeout time.Duration
}

// NewClient 创建新的lyrics.ovh客户端
func NewClient(baseURL string, timeout time.Duration, retries int) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		httpClient:     httpclient.New(timeout, retries),
		baseURL:        strings.TrimRight(baseURL, "/"),
		requestTimeout: timeout,
	}
}

// GetProviderName 返回提供商名称
func (c *Client) GetProviderName() string {
	return "lyrics.ovh"
}

// Fetch 获取歌词；返回内容若带时间标签则按LRC解析，否则按时长均分
func (c *Client) Fetch(ctx context.Context, title, artist string, duration float64) (*timeline.Timeline, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()

	lyricsURL := fmt.Sprintf("%s/%s/%s", c.baseURL,
		url.PathEscape(strings.TrimSpace(artist)), url.PathEscape(strings.TrimSpace(title)))

	req, err := http.NewRequestWithContext(timeoutCtx, http.MethodGet, lyricsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", httpclient.UserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("lyrics.ovh request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("lyrics.ovh returned status %d", resp.StatusCode)
	}

	var payload lyricsResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode lyrics.ovh response: %w", err)
	}
	if strings.TrimSpace(payload.Lyrics) == "" {
		return nil, ErrNotFound
	}

	if timeline.HasTimeTags(payload.Lyrics) {
		if tl := timeline.ParseTimedText(payload.Lyrics); tl.Len() > 0 {
			tl.Source = timeline.SourceLyricsOvh
			return tl, nil
		}
	}

	tl := timeline.Synthesize(payload.Lyrics, duration)
	if tl.Len() == 0 {
		return nil, ErrNotFound
	}
	tl.Source = timeline.SourceLyricsOvh
	return tl, nil
}
