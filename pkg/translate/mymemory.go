package translate

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"lyricsync/pkg/httpclient"
)

// DefaultMyMemoryURL MyMemory翻译API
const DefaultMyMemoryURL = "https://api.mymemory.translated.net/get"

type myMemoryResponse struct {
	ResponseData struct {
		TranslatedText string `json:"translatedText"`
	} `json:"responseData"`
	// 可能是数字也可能是字符串
	ResponseStatus interface{} `json:"responseStatus"`
}

// MyMemory 主翻译源
type MyMemory struct {
	httpClient *http.Client
	baseURL    string
	timeout    time.Duration
}

// NewMyMemory 创建MyMemory翻译客户端
func NewMyMemory(baseURL string, timeout time.Duration, retries int) *MyMemory {
	if baseURL == "" {
		baseURL = DefaultMyMemoryURL
	}
	return &MyMemory{
		httpClient: httpclient.New(timeout, retries),
		baseURL:    baseURL,
		timeout:    timeout,
	}
}

func (m *MyMemory) Name() string { return "mymemory" }

func (m *MyMemory) Translate(ctx context.Context, text, source, target string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	params := url.Values{}
	params.Set("q", text)
	params.Set("langpair", source+"|"+target)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", httpclient.UserAgent)

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("mymemory request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("mymemory returned status %d", resp.StatusCode)
	}

	var payload myMemoryResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("failed to decode mymemory response: %w", err)
	}
	if status := fmt.Sprint(payload.ResponseStatus); status != "200" {
		return "", fmt.Errorf("mymemory response status %s", status)
	}
	if payload.ResponseData.TranslatedText == "" {
		return "", ErrNoTranslation
	}
	return payload.ResponseData.TranslatedText, nil
}
