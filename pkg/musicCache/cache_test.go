package musiccache

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"lyricsync/pkg/timeline"
	"lyricsync/pkg/translate"
)

type memoryStore struct {
	mu      sync.Mutex
	entries map[string]Entry
	loads   int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{entries: make(map[string]Entry)}
}

func (s *memoryStore) Load(ctx context.Context, trackID string) (*Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loads++
	e, ok := s.entries[trackID]
	if !ok {
		return nil, nil
	}
	return &e, nil
}

func (s *memoryStore) Save(ctx context.Context, trackID string, entry *Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[trackID] = *entry
	return nil
}

func (s *memoryStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]Entry)
	return nil
}

func lyrics(text string) *timeline.Timeline {
	return &timeline.Timeline{Lines: []timeline.Line{{Time: 0, EndTime: 5, Text: text}}, Source: timeline.SourceLRCLib}
}

func TestCacheIsolation(t *testing.T) {
	ctx := context.Background()
	c := New(10, nil)
	b := lyrics("b")
	c.SetLyrics(ctx, "B", b)
	c.SetLyrics(ctx, "A", lyrics("a"))

	entry, ok := c.Get(ctx, "B")
	if !ok || entry.Lyrics != b {
		t.Fatalf("entry for B changed: %+v", entry)
	}
	if _, ok := c.Get(ctx, "C"); ok {
		t.Error("unexpected hit for C")
	}
}

func TestCacheTranslationIndependentOfLyrics(t *testing.T) {
	ctx := context.Background()
	c := New(10, nil)
	tl := lyrics("hello")
	c.SetLyrics(ctx, "A", tl)

	entry, _ := c.Get(ctx, "A")
	if entry.Translation != nil {
		t.Fatal("translation should be empty before SetTranslation")
	}

	m := translate.NewMap("it")
	c.SetTranslation(ctx, "A", m)
	entry, _ = c.Get(ctx, "A")
	if entry.Translation != m || entry.Lyrics != tl {
		t.Errorf("unexpected entry %+v", entry)
	}

	// 同一份歌词重复写入不影响译文
	c.SetLyrics(ctx, "A", tl)
	if entry, _ = c.Get(ctx, "A"); entry.Translation != m {
		t.Error("translation dropped on identical lyrics")
	}
	c.SetLyrics(ctx, "A", lyrics("new"))
	if entry, _ = c.Get(ctx, "A"); entry.Translation != nil {
		t.Error("translation should be dropped when lyrics change")
	}
}

func TestCacheEvictsLeastRecentlyUsed(t *testing.T) {
	ctx := context.Background()
	c := New(2, nil)
	c.SetLyrics(ctx, "A", lyrics("a"))
	c.SetLyrics(ctx, "B", lyrics("b"))
	c.Get(ctx, "A")
	c.SetLyrics(ctx, "C", lyrics("c"))

	if c.Len() != 2 {
		t.Fatalf("Len = %d, want 2", c.Len())
	}
	if _, ok := c.Get(ctx, "B"); ok {
		t.Error("B should have been evicted")
	}
	for _, id := range []string{"A", "C"} {
		if _, ok := c.Get(ctx, id); !ok {
			t.Errorf("%s should still be cached", id)
		}
	}
}

func TestCacheClear(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore()
	c := New(0, store)
	for i := 0; i < 5; i++ {
		c.SetLyrics(ctx, fmt.Sprint(i), lyrics("x"))
	}
	c.Clear(ctx)

	if c.Len() != 0 {
		t.Errorf("Len = %d after Clear", c.Len())
	}
	if _, ok := c.Get(ctx, "1"); ok {
		t.Error("hit after Clear")
	}
	if len(store.entries) != 0 {
		t.Error("store not cleared")
	}
}

func TestCacheReadsThroughStore(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore()
	writer := New(10, store)
	writer.SetLyrics(ctx, "A", lyrics("persisted"))

	reader := New(10, store)
	entry, ok := reader.Get(ctx, "A")
	if !ok || entry.Lyrics.Lines[0].Text != "persisted" {
		t.Fatalf("expected store hit, got %+v %v", entry, ok)
	}
	reader.Get(ctx, "A")
	if store.loads != 1 {
		t.Errorf("store loaded %d times, want 1", store.loads)
	}
}

func TestCommitTranslationOnlyWhenCurrent(t *testing.T) {
	store := newMemoryStore()
	c := New(10, store)
	ctx := context.Background()
	c.SetLyrics(ctx, "a", timeline.Synthesize("x\ny", 10))

	older := translate.NewMap("it")
	newer := translate.NewMap("es")
	c.SetTranslation(ctx, "a", older)
	c.SetTranslation(ctx, "a", newer)

	if c.CommitTranslation(ctx, "a", older) {
		t.Error("superseded translation was committed")
	}
	if e, _ := c.Get(ctx, "a"); e.Translation != newer {
		t.Errorf("translation target = %s, want es", e.Translation.Target())
	}
	if !c.CommitTranslation(ctx, "a", newer) {
		t.Error("current translation was not committed")
	}
	if c.CommitTranslation(ctx, "missing", newer) {
		t.Error("commit for unknown track should fail")
	}
}
