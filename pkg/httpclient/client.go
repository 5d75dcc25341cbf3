package httpclient

import (
	"net/http"
	"time"

	"lyricsync/pkg/logging"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog"
)

// UserAgent 所有出站请求使用的User-Agent
const UserAgent = "lyricsync/1.0"

// New 创建带重试的HTTP客户端
//
// retries 为0时只发一次请求；超时由调用方通过 context 控制。
func New(timeout time.Duration, retries int) *http.Client {
	client := retryablehttp.NewClient()
	client.RetryMax = max(retries, 0)
	client.RetryWaitMin = 200 * time.Millisecond
	client.RetryWaitMax = 2 * time.Second
	client.HTTPClient.Timeout = timeout
	client.Logger = leveledLogger{l: logging.Component("http")}
	return client.StandardClient()
}

// leveledLogger 把 retryablehttp 的日志转到 zerolog
type leveledLogger struct {
	l zerolog.Logger
}

var _ retryablehttp.LeveledLogger = leveledLogger{}

func (z leveledLogger) Error(msg string, kv ...interface{}) { z.event(z.l.Error(), msg, kv) }
func (z leveledLogger) Info(msg string, kv ...interface{})  { z.event(z.l.Debug(), msg, kv) }
func (z leveledLogger) Debug(msg string, kv ...interface{}) { z.event(z.l.Trace(), msg, kv) }
func (z leveledLogger) Warn(msg string, kv ...interface{})  { z.event(z.l.Warn(), msg, kv) }

func (z leveledLogger) event(e *zerolog.Event, msg string, kv []interface{}) {
	for i := 0; i+1 < len(kv); i += 2 {
		if key, ok := kv[i].(string); ok {
			e = e.Interface(key, kv[i+1])
		}
	}
	e.Msg(msg)
}
