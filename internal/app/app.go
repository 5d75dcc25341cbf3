package app

import (
	"context"
	"errors"
	"sync"
	"time"

	"lyricsync/internal/config"
	"lyricsync/internal/lyrics"
	"lyricsync/pkg/logging"
	"lyricsync/pkg/music"
)

// timeShift 提前查找歌词的时间（秒）
const timeShift = 0.1

var logger = logging.Component("app")

// PlayerSource 播放状态来源
type PlayerSource interface {
	CurrentTrack() (music.SongInfo, error)
	Position() (float64, error)
}

// Broadcaster 推送展示帧，返回状态文本是否变化
type Broadcaster interface {
	Broadcast(frame lyrics.Frame) (bool, error)
}

// Notifier 状态文本变化时通知状态栏
type Notifier interface {
	Notify() error
}

// App 轮询播放器，切歌时解析歌词，并按播放位置推送展示窗口
type App struct {
	cfg         *config.Config
	player      PlayerSource
	service     *lyrics.Service
	broadcaster Broadcaster
	notifier    Notifier

	mutex       sync.Mutex
	currentSong string
	playing     bool
	wg          sync.WaitGroup
}

// New notifier可以为nil
func New(cfg *config.Config, player PlayerSource, service *lyrics.Service, broadcaster Broadcaster, notifier Notifier) *App {
	return &App{
		cfg:         cfg,
		player:      player,
		service:     service,
		broadcaster: broadcaster,
		notifier:    notifier,
	}
}

// Run 运行直到ctx结束
func (a *App) Run(ctx context.Context) error {
	checkTicker := time.NewTicker(a.cfg.App.CheckInterval)
	defer checkTicker.Stop()
	tick := time.NewTicker(a.cfg.App.TickInterval)
	defer tick.Stop()

	logger.Info().
		Dur("check_interval", a.cfg.App.CheckInterval).
		Dur("tick_interval", a.cfg.App.TickInterval).
		Msg("Starting player check loop...")

	a.updateSongInfo()
	for {
		select {
		case <-ctx.Done():
			// 先取消进行中的解析，否则要等所有歌词源超时
			a.service.Close()
			a.wg.Wait()
			return ctx.Err()
		case <-checkTicker.C:
			a.updateSongInfo()
		case <-tick.C:
			a.pushFrame(ctx)
		}
	}
}

// updateSongInfo 检查是否切歌；解析在后台进行，不阻塞推送
func (a *App) updateSongInfo() {
	song, err := a.player.CurrentTrack()

	a.mutex.Lock()
	if err != nil {
		if a.playing {
			logger.Info().Err(err).Msg("No music playing")
		}
		a.playing = false
		a.mutex.Unlock()
		return
	}
	a.playing = true
	key := song.Key()
	if key == a.currentSong {
		a.mutex.Unlock()
		return
	}
	a.currentSong = key
	a.mutex.Unlock()

	logger.Info().Str("title", song.Title).Str("artist", song.Artist).Str("track_id", key).Msg("New song detected")

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		a.handleTrackChange(song)
	}()
}

func (a *App) handleTrackChange(song music.SongInfo) {
	tl, err := a.service.TrackChanged(song)
	if errors.Is(err, lyrics.ErrStale) {
		return
	}
	if !a.cfg.App.AutoTranslate || tl.IsPlaceholder() {
		return
	}
	if _, _, err := a.service.TranslateAsync(song.Key(), a.cfg.App.TargetLanguage); err != nil {
		logger.Warn().Err(err).Str("track_id", song.Key()).Msg("Auto translation not started")
	}
}

// pushFrame 按当前播放位置推送展示窗口
func (a *App) pushFrame(ctx context.Context) {
	a.mutex.Lock()
	playing := a.playing
	a.mutex.Unlock()

	var frame lyrics.Frame
	if playing {
		position, err := a.player.Position()
		if err != nil {
			logger.Debug().Err(err).Msg("Failed to read player position")
			return
		}
		frame = a.service.Frame(ctx, position+timeShift, a.cfg.App.LinesBefore, a.cfg.App.LinesAfter)
		frame.Position = position
	}

	changed, err := a.broadcaster.Broadcast(frame)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to broadcast frame")
		return
	}
	if changed && a.notifier != nil {
		if err := a.notifier.Notify(); err != nil {
			logger.Debug().Err(err).Msg("Failed to notify status bar")
		}
	}
}
