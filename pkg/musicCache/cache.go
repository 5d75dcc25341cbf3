package musiccache

import (
	"container/list"
	"context"
	"sync"

	"lyricsync/pkg/logging"
	"lyricsync/pkg/timeline"
	"lyricsync/pkg/translate"
)

// DefaultCapacity 默认最多缓存的歌曲数
const DefaultCapacity = 100

var logger = logging.Component("music_cache")

// Entry 一首歌的歌词和译文，译文可以为空
type Entry struct {
	Lyrics      *timeline.Timeline `json:"lyrics,omitempty"`
	Translation *translate.Map     `json:"translation,omitempty"`
}

// Store 二级持久化存储
type Store interface {
	Load(ctx context.Context, trackID string) (*Entry, error)
	Save(ctx context.Context, trackID string, entry *Entry) error
	Clear(ctx context.Context) error
}

type item struct {
	trackID string
	entry   Entry
}

// Cache 按歌曲ID缓存，超出容量时淘汰最久未使用的
type Cache struct {
	mu       sync.Mutex
	capacity int
	ll       *list.List
	items    map[string]*list.Element
	store    Store
}

// New 创建缓存，store可以为nil
func New(capacity int, store Store) *Cache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Cache{
		capacity: capacity,
		ll:       list.New(),
		items:    make(map[string]*list.Element),
		store:    store,
	}
}

// Get 返回歌曲的缓存，内存未命中时查询二级存储
func (c *Cache) Get(ctx context.Context, trackID string) (Entry, bool) {
	c.mu.Lock()
	if el, ok := c.items[trackID]; ok {
		c.ll.MoveToFront(el)
		entry := el.Value.(*item).entry
		c.mu.Unlock()
		return entry, true
	}
	c.mu.Unlock()

	if c.store == nil {
		return Entry{}, false
	}
	stored, err := c.store.Load(ctx, trackID)
	if err != nil {
		logger.Warn().Err(err).Str("track_id", trackID).Msg("Failed to load cache entry from store")
		return Entry{}, false
	}
	if stored == nil || stored.Lyrics == nil {
		return Entry{}, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	// 查询期间可能已有写入，以内存为准
	if el, ok := c.items[trackID]; ok {
		c.ll.MoveToFront(el)
		return el.Value.(*item).entry, true
	}
	c.insert(trackID, *stored)
	return *stored, true
}

// SetLyrics 缓存歌词；歌词变化时旧的译文作废
func (c *Cache) SetLyrics(ctx context.Context, trackID string, tl *timeline.Timeline) {
	c.update(ctx, trackID, func(e *Entry) {
		if e.Lyrics != tl {
			e.Translation = nil
		}
		e.Lyrics = tl
	})
}

// SetTranslation 缓存译文，同一首歌只保留一种语言
func (c *Cache) SetTranslation(ctx context.Context, trackID string, m *translate.Map) {
	c.update(ctx, trackID, func(e *Entry) {
		e.Translation = m
	})
}

// CommitTranslation 仅当缓存中仍是m时重新保存，返回是否写入。
// 用于翻译完成后把完整译文写回二级存储，不覆盖期间换上的其他译文。
func (c *Cache) CommitTranslation(ctx context.Context, trackID string, m *translate.Map) bool {
	c.mu.Lock()
	el, ok := c.items[trackID]
	if !ok || el.Value.(*item).entry.Translation != m {
		c.mu.Unlock()
		return false
	}
	c.ll.MoveToFront(el)
	entry := el.Value.(*item).entry
	c.mu.Unlock()

	c.save(ctx, trackID, entry)
	return true
}

// Clear 清空所有缓存
func (c *Cache) Clear(ctx context.Context) {
	c.mu.Lock()
	c.ll.Init()
	c.items = make(map[string]*list.Element)
	c.mu.Unlock()

	if c.store != nil {
		if err := c.store.Clear(ctx); err != nil {
			logger.Warn().Err(err).Msg("Failed to clear cache store")
		}
	}
	logger.Info().Msg("Cache cleared")
}

// Len 内存中缓存的歌曲数
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ll.Len()
}

func (c *Cache) update(ctx context.Context, trackID string, fn func(*Entry)) {
	c.mu.Lock()
	var entry Entry
	if el, ok := c.items[trackID]; ok {
		it := el.Value.(*item)
		fn(&it.entry)
		c.ll.MoveToFront(el)
		entry = it.entry
	} else {
		fn(&entry)
		c.insert(trackID, entry)
	}
	c.mu.Unlock()

	c.save(ctx, trackID, entry)
}

func (c *Cache) save(ctx context.Context, trackID string, entry Entry) {
	if c.store != nil && entry.Lyrics != nil {
		if err := c.store.Save(ctx, trackID, &entry); err != nil {
			logger.Warn().Err(err).Str("track_id", trackID).Msg("Failed to save cache entry to store")
		}
	}
}

// 调用方持有锁
func (c *Cache) insert(trackID string, entry Entry) {
	c.items[trackID] = c.ll.PushFront(&item{trackID: trackID, entry: entry})
	for c.ll.Len() > c.capacity {
		oldest := c.ll.Back()
		c.ll.Remove(oldest)
		delete(c.items, oldest.Value.(*item).trackID)
		logger.Debug().Str("track_id", oldest.Value.(*item).trackID).Msg("Evicted cache entry")
	}
}
