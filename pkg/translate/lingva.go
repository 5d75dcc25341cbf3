package translate

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"lyricsync/pkg/httpclient"
)

// DefaultLingvaURL Lingva翻译API
const DefaultLingvaURL = "https://lingva.ml/api/v1"

type lingvaResponse struct {
	Translation string `json:"translation"`
}

// Lingva 备用翻译源，语言和文本都放在路径里
type Lingva struct {
	httpClient *http.Client
	baseURL    string
	timeout    time.Duration
}

// NewLingva 创建Lingva翻译客户端
func NewLingva(baseURL string, timeout time.Duration, retries int) *Lingva {
	if baseURL == "" {
		baseURL = DefaultLingvaURL
	}
	return &Lingva{
		httpClient: httpclient.New(timeout, retries),
		baseURL:    strings.TrimRight(baseURL, "/"),
		timeout:    timeout,
	}
}

func (l *Lingva) Name() string { return "lingva" }

func (l *Lingva) Translate(ctx context.Context, text, source, target string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	endpoint := fmt.Sprintf("%s/%s/%s/%s", l.baseURL, url.PathEscape(source), url.PathEscape(target), url.PathEscape(text))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", httpclient.UserAgent)

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("lingva request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("lingva returned status %d", resp.StatusCode)
	}

	var payload lingvaResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("failed to decode lingva response: %w", err)
	}
	if payload.Translation == "" {
		return "", ErrNoTranslation
	}
	return payload.Translation, nil
}
