package api

import (
	"context"
	"net/http"
	"time"

	"lyricsync/pkg/logging"
	"lyricsync/pkg/music"
	"lyricsync/pkg/timeline"
	"lyricsync/pkg/translate"

	"github.com/gin-gonic/gin"
)

var logger = logging.Component("api")

// LyricsService 歌词会话接口
type LyricsService interface {
	Resolve(ctx context.Context, song music.SongInfo) *timeline.Timeline
	Lyrics(ctx context.Context, trackID string) (*timeline.Timeline, bool)
	Translation(ctx context.Context, trackID string) (*translate.Map, bool)
	TranslateAsync(trackID, target string) (string, *translate.Map, error)
	SeekTarget(ctx context.Context, trackID string, index int) (float64, error)
	Clear(ctx context.Context)
}

// Seeker 播放器跳转
type Seeker interface {
	SetPosition(seconds float64) error
}

// Options 接口默认参数
type Options struct {
	TargetLanguage string
	LinesBefore    int
	LinesAfter     int
}

// Router 路由器
type Router struct {
	engine  *gin.Engine
	service LyricsService
	seeker  Seeker
	opts    Options
	server  *http.Server
}

// NewRouter seeker可以为nil，此时跳转接口只返回目标时间
func NewRouter(service LyricsService, seeker Seeker, opts Options) *Router {
	engine := gin.New()
	// MPRIS的歌曲ID是对象路径（/com/spotify/track/xxx），客户端以%2F转义后放进路径，
	// 按原始路径匹配路由，参数再反转义
	engine.UseRawPath = true
	engine.UnescapePathValues = true
	engine.Use(gin.Recovery(), LoggerMiddleware(), CORSMiddleware())

	r := &Router{
		engine:  engine,
		service: service,
		seeker:  seeker,
		opts:    opts,
	}
	r.setupRoutes()
	return r
}

func (r *Router) setupRoutes() {
	api := r.engine.Group("/api")
	{
		api.GET("/lyrics", r.handleResolve)
		api.GET("/languages", r.handleLanguages)
		api.DELETE("/cache", r.handleClearCache)

		tracks := api.Group("/tracks")
		{
			tracks.GET("/:id", r.handleGetTrack)
			tracks.GET("/:id/window", r.handleWindow)
			tracks.POST("/:id/translate", r.handleTranslate)
			tracks.GET("/:id/translation", r.handleGetTranslation)
			tracks.POST("/:id/seek", r.handleSeek)
		}
	}
}

// Run 启动服务，ctx结束时优雅关闭
func (r *Router) Run(ctx context.Context, addr string) error {
	r.server = &http.Server{Addr: addr, Handler: r.engine}
	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", addr).Msg("HTTP API listening")
		errCh <- r.server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return r.server.Shutdown(shutdownCtx)
	}
}

// Engine 获取底层 Gin 引擎
func (r *Router) Engine() *gin.Engine {
	return r.engine
}
