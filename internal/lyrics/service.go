package lyrics

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"lyricsync/pkg/logging"
	"lyricsync/pkg/music"
	musiccache "lyricsync/pkg/musicCache"
	"lyricsync/pkg/timeline"
	"lyricsync/pkg/translate"

	"github.com/google/uuid"
)

var (
	// ErrStale 解析期间歌曲已切换，结果被丢弃
	ErrStale = errors.New("track changed while work was in flight")
	// ErrUnknownTrack 没有该歌曲的歌词缓存
	ErrUnknownTrack = errors.New("no lyrics cached for track")
)

var logger = logging.Component("lyrics")

// TranslationRunner 逐行翻译歌词
type TranslationRunner interface {
	Run(ctx context.Context, tl *timeline.Timeline, source, target string, m *translate.Map) error
}

// Service 当前播放歌曲的歌词会话
//
// 每次切歌递增代数并取消上一首歌仍在进行的解析和翻译；
// 完成时代数已变化的结果不会写入缓存。
type Service struct {
	resolver       music.Resolver
	cache          *musiccache.Cache
	pipeline       TranslationRunner
	sourceLanguage string

	// baseCtx 在Close时取消，所有后台任务都从它派生
	baseCtx    context.Context
	baseCancel context.CancelFunc

	mu         sync.Mutex
	generation uint64
	current    music.SongInfo
	active     *timeline.Timeline
	workCtx    context.Context
	cancel     context.CancelFunc
	inflight   map[string]*translate.Map
}

// NewService 创建歌词会话；sourceLanguage为空时自动识别原文语言
func NewService(resolver music.Resolver, cache *musiccache.Cache, pipeline TranslationRunner, sourceLanguage string) *Service {
	baseCtx, baseCancel := context.WithCancel(context.Background())
	return &Service{
		resolver:       resolver,
		cache:          cache,
		pipeline:       pipeline,
		sourceLanguage: sourceLanguage,
		baseCtx:        baseCtx,
		baseCancel:     baseCancel,
		workCtx:        baseCtx,
		inflight:       make(map[string]*translate.Map),
	}
}

// TrackChanged 切换到新歌曲并解析歌词。
// 返回 ErrStale 时说明期间又切了歌，返回的歌词不应再使用。
func (s *Service) TrackChanged(song music.SongInfo) (*timeline.Timeline, error) {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.generation++
	gen := s.generation
	ctx, cancel := context.WithCancel(s.baseCtx)
	s.workCtx, s.cancel = ctx, cancel
	s.current = song
	s.active = nil
	s.mu.Unlock()

	key := song.Key()
	jobLogger := logger.With().Str("job_id", uuid.NewString()).Str("track_id", key).Logger()
	jobLogger.Info().Str("title", song.Title).Str("artist", song.Artist).Float64("duration", song.Duration).Msg("Track changed")

	tl, cached := s.lookup(ctx, key)
	if !cached {
		tl = s.resolver.Resolve(ctx, song.Title, song.Artist, song.Duration)
	}

	s.mu.Lock()
	if s.generation != gen {
		s.mu.Unlock()
		jobLogger.Info().Msg("Discarding stale lyrics")
		return tl, ErrStale
	}
	s.active = tl
	s.mu.Unlock()

	// 写缓存可能访问Redis，不持有会话锁
	if !cached && !tl.IsPlaceholder() {
		s.cache.SetLyrics(ctx, key, tl)
	}
	jobLogger.Info().
		Bool("cached", cached).
		Bool("synced", tl.Synced).
		Str("source", string(tl.Source)).
		Int("lines", tl.Len()).
		Msg("Lyrics ready")
	return tl, nil
}

// Resolve 解析任意歌曲的歌词并缓存，不影响当前播放的歌曲
func (s *Service) Resolve(ctx context.Context, song music.SongInfo) *timeline.Timeline {
	key := song.Key()
	if tl, ok := s.lookup(ctx, key); ok {
		return tl
	}
	tl := s.resolver.Resolve(ctx, song.Title, song.Artist, song.Duration)
	if !tl.IsPlaceholder() && ctx.Err() == nil {
		s.cache.SetLyrics(ctx, key, tl)
	}
	return tl
}

func (s *Service) lookup(ctx context.Context, key string) (*timeline.Timeline, bool) {
	entry, ok := s.cache.Get(ctx, key)
	if !ok || entry.Lyrics == nil {
		return nil, false
	}
	return entry.Lyrics, true
}

// Current 当前歌曲和它的歌词，歌词尚未解析完时为nil
func (s *Service) Current() (music.SongInfo, *timeline.Timeline) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current, s.active
}

// Lyrics 获取已缓存的歌词
func (s *Service) Lyrics(ctx context.Context, trackID string) (*timeline.Timeline, bool) {
	s.mu.Lock()
	if trackID == s.current.Key() && s.active != nil {
		tl := s.active
		s.mu.Unlock()
		return tl, true
	}
	s.mu.Unlock()
	return s.lookup(ctx, trackID)
}

// Translation 获取已缓存的译文，可能尚未翻译完
func (s *Service) Translation(ctx context.Context, trackID string) (*translate.Map, bool) {
	entry, ok := s.cache.Get(ctx, trackID)
	if !ok || entry.Translation == nil {
		return nil, false
	}
	return entry.Translation, true
}

// Translate 翻译歌曲歌词并阻塞到完成。已有完整译文时直接返回，不发出任何请求。
func (s *Service) Translate(ctx context.Context, trackID, target string) (*translate.Map, error) {
	m, run, err := s.prepareTranslation(ctx, trackID, target)
	if err != nil || run == nil {
		return m, err
	}
	return m, run(ctx)
}

// TranslateAsync 在后台翻译，立即返回任务ID和逐步填充的译文
func (s *Service) TranslateAsync(trackID, target string) (string, *translate.Map, error) {
	ctx := s.contextFor(trackID)
	m, run, err := s.prepareTranslation(ctx, trackID, target)
	if err != nil {
		return "", nil, err
	}
	jobID := uuid.NewString()
	if run != nil {
		go func() {
			if err := run(ctx); err != nil {
				logger.Warn().Str("job_id", jobID).Str("track_id", trackID).Err(err).Msg("Translation stopped")
			}
		}()
	}
	return jobID, m, nil
}

func (s *Service) prepareTranslation(ctx context.Context, trackID, target string) (*translate.Map, func(context.Context) error, error) {
	target, err := translate.NormalizeLanguage(target)
	if err != nil {
		return nil, nil, err
	}

	// 缓存读写可能访问Redis，只在检查和登记进行中的任务时持有会话锁
	entry, ok := s.cache.Get(ctx, trackID)
	if !ok || entry.Lyrics == nil {
		return nil, nil, fmt.Errorf("%w: %s", ErrUnknownTrack, trackID)
	}
	if m := entry.Translation; m != nil && m.Target() == target && m.Complete() {
		logger.Debug().Str("track_id", trackID).Str("target", target).Msg("Translation already cached")
		return m, nil, nil
	}

	key := trackID + "\x00" + target
	s.mu.Lock()
	if m, ok := s.inflight[key]; ok {
		s.mu.Unlock()
		return m, nil, nil
	}
	tl := entry.Lyrics
	m := translate.NewMap(target)
	s.inflight[key] = m
	s.mu.Unlock()

	s.cache.SetTranslation(ctx, trackID, m)

	run := func(ctx context.Context) error {
		defer func() {
			s.mu.Lock()
			delete(s.inflight, key)
			s.mu.Unlock()
		}()

		source := s.sourceFor(tl)
		logger.Info().Str("track_id", trackID).Str("source", source).Str("target", target).Msg("Translating lyrics")
		if err := s.pipeline.Run(ctx, tl, source, target, m); err != nil {
			return err
		}
		// 写回存储，完整译文可以跨进程复用；期间已换成其他语言时不覆盖
		if !s.cache.CommitTranslation(ctx, trackID, m) {
			logger.Debug().Str("track_id", trackID).Str("target", target).Msg("Translation superseded, not written back")
		}
		return nil
	}
	return m, run, nil
}

func (s *Service) sourceFor(tl *timeline.Timeline) string {
	if s.sourceLanguage != "" {
		return s.sourceLanguage
	}
	return translate.DetectSource(tl.Texts())
}

// contextFor 当前歌曲的任务在切歌时取消
func (s *Service) contextFor(trackID string) context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	if trackID == s.current.Key() {
		return s.workCtx
	}
	return s.baseCtx
}

// SeekTarget 返回某行歌词的开始时间，用于跳转播放
func (s *Service) SeekTarget(ctx context.Context, trackID string, index int) (float64, error) {
	tl, ok := s.Lyrics(ctx, trackID)
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownTrack, trackID)
	}
	pos, ok := tl.StartOf(index)
	if !ok {
		return 0, fmt.Errorf("line index %d out of range [0, %d)", index, tl.Len())
	}
	return pos, nil
}

// Clear 清空缓存，当前歌曲的歌词保留在内存中
func (s *Service) Clear(ctx context.Context) {
	s.cache.Clear(ctx)
}

// Close 取消所有进行中的解析和翻译，可以重复调用
func (s *Service) Close() {
	s.baseCancel()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}
