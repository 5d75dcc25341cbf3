package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"lyricsync/internal/config"
	"lyricsync/internal/lyrics"
	"lyricsync/pkg/music"
	musiccache "lyricsync/pkg/musicCache"
	"lyricsync/pkg/timeline"
	"lyricsync/pkg/translate"
)

type fakePlayer struct {
	mu       sync.Mutex
	song     music.SongInfo
	position float64
	err      error
}

func (p *fakePlayer) set(song music.SongInfo, position float64, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.song, p.position, p.err = song, position, err
}

func (p *fakePlayer) CurrentTrack() (music.SongInfo, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.song, p.err
}

func (p *fakePlayer) Position() (float64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.position, p.err
}

type fakeBroadcaster struct {
	mu     sync.Mutex
	frames []lyrics.Frame
	last   string
}

func (b *fakeBroadcaster) Broadcast(frame lyrics.Frame) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.frames = append(b.frames, frame)
	text := frame.Current().Line.Text
	changed := text != b.last
	b.last = text
	return changed, nil
}

func (b *fakeBroadcaster) lastFrame() lyrics.Frame {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.frames[len(b.frames)-1]
}

type countingNotifier struct {
	mu    sync.Mutex
	count int
}

func (n *countingNotifier) Notify() error {
	n.mu.Lock()
	n.count++
	n.mu.Unlock()
	return nil
}

type plainSource struct{}

func (plainSource) Fetch(ctx context.Context, title, artist string, duration float64) (*timeline.Timeline, error) {
	if title != "Imagine" {
		return nil, errors.New("not found")
	}
	return timeline.Synthesize("a\nb\nc\nd\ne\nf", duration), nil
}

func (plainSource) GetProviderName() string { return "plain" }

type suffixTranslator struct{}

func (suffixTranslator) Name() string { return "suffix" }
func (suffixTranslator) Translate(ctx context.Context, text, source, target string) (string, error) {
	return text + "-" + target, nil
}

func newTestApp(t *testing.T, autoTranslate bool) (*App, *fakePlayer, *fakeBroadcaster, *countingNotifier) {
	t.Helper()
	cfg := config.Default()
	cfg.App.AutoTranslate = autoTranslate
	cfg.App.TargetLanguage = "it"
	cfg.App.LinesBefore, cfg.App.LinesAfter = 1, 1

	svc := lyrics.NewService(
		music.NewManager([]music.LyricsSource{plainSource{}}, 5),
		musiccache.New(10, nil),
		translate.NewPipeline(suffixTranslator{}, translate.Options{}),
		"en",
	)
	t.Cleanup(svc.Close)

	player := &fakePlayer{}
	broadcaster := &fakeBroadcaster{}
	notifier := &countingNotifier{}
	return New(cfg, player, svc, broadcaster, notifier), player, broadcaster, notifier
}

func TestAppFollowsPlayer(t *testing.T) {
	a, player, broadcaster, notifier := newTestApp(t, true)
	ctx := context.Background()

	player.set(music.SongInfo{}, 0, errors.New("no player"))
	a.updateSongInfo()
	a.pushFrame(ctx)
	if f := broadcaster.lastFrame(); f.Ready || f.Title != "" {
		t.Errorf("idle frame = %+v", f)
	}

	player.set(music.SongInfo{ID: "imagine", Title: "Imagine", Artist: "John Lennon", Duration: 60}, 25, nil)
	a.updateSongInfo()
	a.wg.Wait()

	// 自动翻译在后台进行
	deadline := time.Now().Add(2 * time.Second)
	for {
		a.pushFrame(ctx)
		f := broadcaster.lastFrame()
		if f.Ready && f.Current().Translation != "" {
			if f.Index != 2 || f.Current().Line.Text != "c" || f.Current().Translation != "c-it" {
				t.Errorf("unexpected frame %+v", f)
			}
			if f.Position != 25 {
				t.Errorf("frame position = %v", f.Position)
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("frame never became ready with translation: %+v", f)
		}
		time.Sleep(10 * time.Millisecond)
	}

	notifier.mu.Lock()
	notified := notifier.count
	notifier.mu.Unlock()
	if notified == 0 {
		t.Error("status bar was never notified")
	}
}

func TestAppIgnoresSameTrack(t *testing.T) {
	a, player, _, _ := newTestApp(t, false)
	song := music.SongInfo{ID: "imagine", Title: "Imagine", Artist: "John Lennon", Duration: 60}
	player.set(song, 0, nil)

	a.updateSongInfo()
	a.wg.Wait()
	_, first := a.service.Current()

	a.updateSongInfo()
	a.wg.Wait()
	_, second := a.service.Current()
	if first == nil || first != second {
		t.Error("same track should not be resolved again")
	}
	if _, ok := a.service.Translation(context.Background(), "imagine"); ok {
		t.Error("translation started without auto_translate")
	}
}

type blockingSource struct {
	started chan struct{}
	once    sync.Once
}

func (s *blockingSource) Fetch(ctx context.Context, title, artist string, duration float64) (*timeline.Timeline, error) {
	s.once.Do(func() { close(s.started) })
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(5 * time.Second):
		return nil, errors.New("timed out")
	}
}

func (s *blockingSource) GetProviderName() string { return "blocking" }

func TestRunStopsDuringResolution(t *testing.T) {
	cfg := config.Default()
	source := &blockingSource{started: make(chan struct{})}
	svc := lyrics.NewService(
		music.NewManager([]music.LyricsSource{source}, 5),
		musiccache.New(10, nil),
		translate.NewPipeline(suffixTranslator{}, translate.Options{}),
		"en",
	)
	t.Cleanup(svc.Close)

	player := &fakePlayer{}
	player.set(music.SongInfo{ID: "slow", Title: "Slow", Artist: "Someone", Duration: 60}, 0, nil)
	a := New(cfg, player, svc, &fakeBroadcaster{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	select {
	case <-source.started:
	case <-time.After(2 * time.Second):
		t.Fatal("resolution never started")
	}
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Run returned %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run did not return while a resolution was in flight")
	}
}
