package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"lyricsync/internal/lyrics"
	"lyricsync/pkg/music"
	musiccache "lyricsync/pkg/musicCache"
	"lyricsync/pkg/timeline"
	"lyricsync/pkg/translate"

	"github.com/gin-gonic/gin"
)

const testLRC = `[00:00.00]one
[00:10.00]two
[00:20.00]three
[00:30.00]four
[00:40.00]five
[00:50.00]six
[01:00.00]seven`

type stubSource struct{}

func (stubSource) Fetch(ctx context.Context, title, artist string, duration float64) (*timeline.Timeline, error) {
	if title != "Song" {
		return nil, errors.New("not found")
	}
	tl := timeline.ParseTimedText(testLRC)
	tl.Source = timeline.SourceLRCLib
	return tl, nil
}

func (stubSource) GetProviderName() string { return "stub" }

type upperTranslator struct{}

func (upperTranslator) Name() string { return "upper" }
func (upperTranslator) Translate(ctx context.Context, text, source, target string) (string, error) {
	return strings.ToUpper(text), nil
}

type recordingSeeker struct {
	positions []float64
	err       error
}

func (s *recordingSeeker) SetPosition(seconds float64) error {
	s.positions = append(s.positions, seconds)
	return s.err
}

func newTestRouter(seeker Seeker) *Router {
	gin.SetMode(gin.TestMode)
	svc := lyrics.NewService(
		music.NewManager([]music.LyricsSource{stubSource{}}, 5),
		musiccache.New(10, nil),
		translate.NewPipeline(upperTranslator{}, translate.Options{}),
		"en",
	)
	return NewRouter(svc, seeker, Options{TargetLanguage: "it", LinesBefore: 1, LinesAfter: 1})
}

func do(t *testing.T, r *Router, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	r.Engine().ServeHTTP(w, req)

	var payload map[string]any
	if w.Body.Len() > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), &payload); err != nil {
			t.Fatalf("%s %s: invalid JSON %q", method, path, w.Body.String())
		}
	}
	return w, payload
}

func resolveSong(t *testing.T, r *Router) {
	t.Helper()
	w, payload := do(t, r, http.MethodGet, "/api/lyrics?id=t1&title=Song&artist=Artist&duration=70", "")
	if w.Code != http.StatusOK || payload["track_id"] != "t1" {
		t.Fatalf("resolve: %d %v", w.Code, payload)
	}
}

func TestResolveAndGetTrack(t *testing.T) {
	r := newTestRouter(nil)
	resolveSong(t, r)

	w, payload := do(t, r, http.MethodGet, "/api/tracks/t1", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	tl := payload["lyrics"].(map[string]any)
	if tl["synced"] != true || len(tl["lines"].([]any)) != 7 || tl["source"] != "lrclib" {
		t.Errorf("unexpected lyrics %v", tl)
	}

	if w, _ := do(t, r, http.MethodGet, "/api/tracks/missing", ""); w.Code != http.StatusNotFound {
		t.Errorf("missing track status = %d", w.Code)
	}
}

func TestTrackRoutesAcceptObjectPathIDs(t *testing.T) {
	seeker := &recordingSeeker{}
	r := newTestRouter(seeker)

	id := "/com/spotify/track/abc"
	escaped := url.PathEscape(id)
	w, payload := do(t, r, http.MethodGet, "/api/lyrics?id="+url.QueryEscape(id)+"&title=Song&artist=Artist&duration=70", "")
	if w.Code != http.StatusOK || payload["track_id"] != id {
		t.Fatalf("resolve: %d %v", w.Code, payload)
	}

	if w, payload := do(t, r, http.MethodGet, "/api/tracks/"+escaped, ""); w.Code != http.StatusOK || payload["track_id"] != id {
		t.Errorf("get track: %d %v", w.Code, payload)
	}
	if w, payload := do(t, r, http.MethodGet, "/api/tracks/"+escaped+"/window?position=25", ""); w.Code != http.StatusOK || payload["index"] != float64(2) {
		t.Errorf("window: %d %v", w.Code, payload)
	}
	if w, _ := do(t, r, http.MethodPost, "/api/tracks/"+escaped+"/seek", `{"index":1}`); w.Code != http.StatusOK {
		t.Errorf("seek status = %d", w.Code)
	}
	if len(seeker.positions) != 1 || seeker.positions[0] != 10 {
		t.Errorf("seeker positions = %v", seeker.positions)
	}
	if w, _ := do(t, r, http.MethodPost, "/api/tracks/"+escaped+"/translate", `{"target":"fr"}`); w.Code != http.StatusAccepted {
		t.Errorf("translate status = %d", w.Code)
	}
}

func TestResolveDegenerateInputReturnsPlaceholder(t *testing.T) {
	r := newTestRouter(nil)
	w, payload := do(t, r, http.MethodGet, "/api/lyrics", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	tl := payload["lyrics"].(map[string]any)
	if tl["source"] != "placeholder" || len(tl["lines"].([]any)) == 0 {
		t.Errorf("unexpected lyrics %v", tl)
	}
}

func TestWindow(t *testing.T) {
	r := newTestRouter(nil)
	resolveSong(t, r)

	w, payload := do(t, r, http.MethodGet, "/api/tracks/t1/window?position=25", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d %v", w.Code, payload)
	}
	if payload["index"] != float64(2) || len(payload["lines"].([]any)) != 3 {
		t.Errorf("unexpected window %v", payload)
	}

	if w, _ := do(t, r, http.MethodGet, "/api/tracks/t1/window?position=abc", ""); w.Code != http.StatusBadRequest {
		t.Errorf("bad position status = %d", w.Code)
	}
	if w, _ := do(t, r, http.MethodGet, "/api/tracks/t1/window?before=-1", ""); w.Code != http.StatusBadRequest {
		t.Errorf("negative window status = %d", w.Code)
	}
}

func TestTranslateFlow(t *testing.T) {
	r := newTestRouter(nil)
	resolveSong(t, r)

	w, payload := do(t, r, http.MethodPost, "/api/tracks/t1/translate", `{"target":"fr"}`)
	if w.Code != http.StatusAccepted || payload["job_id"] == "" || payload["target"] != "fr" {
		t.Fatalf("translate: %d %v", w.Code, payload)
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		w, payload = do(t, r, http.MethodGet, "/api/tracks/t1/translation", "")
		if w.Code == http.StatusOK && payload["complete"] == true {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("translation did not complete: %v", payload)
		}
		time.Sleep(10 * time.Millisecond)
	}
	lines := payload["lines"].(map[string]any)
	if lines["0"] != "ONE" || len(lines) != 7 {
		t.Errorf("unexpected lines %v", lines)
	}

	// 完整译文再次请求直接完成
	w, payload = do(t, r, http.MethodPost, "/api/tracks/t1/translate?target=fr", "")
	if w.Code != http.StatusAccepted || payload["complete"] != true {
		t.Errorf("repeat translate: %d %v", w.Code, payload)
	}

	w, payload = do(t, r, http.MethodGet, "/api/tracks/t1/window?position=0&before=0&after=0", "")
	first := payload["lines"].([]any)[0].(map[string]any)
	if first["translation"] != "ONE" {
		t.Errorf("window translation = %v", first)
	}
}

func TestTranslateErrors(t *testing.T) {
	r := newTestRouter(nil)
	if w, _ := do(t, r, http.MethodPost, "/api/tracks/nope/translate", ""); w.Code != http.StatusNotFound {
		t.Errorf("unknown track status = %d", w.Code)
	}
	resolveSong(t, r)
	if w, _ := do(t, r, http.MethodPost, "/api/tracks/t1/translate", `{"target":"!!"}`); w.Code != http.StatusBadRequest {
		t.Errorf("invalid language status = %d", w.Code)
	}
	if w, _ := do(t, r, http.MethodGet, "/api/tracks/nope/translation", ""); w.Code != http.StatusNotFound {
		t.Errorf("missing translation status = %d", w.Code)
	}
}

func TestSeek(t *testing.T) {
	seeker := &recordingSeeker{}
	r := newTestRouter(seeker)
	resolveSong(t, r)

	w, payload := do(t, r, http.MethodPost, "/api/tracks/t1/seek", `{"index":3}`)
	if w.Code != http.StatusOK || payload["position"] != float64(30) || payload["seeked"] != true {
		t.Fatalf("seek: %d %v", w.Code, payload)
	}
	if len(seeker.positions) != 1 || seeker.positions[0] != 30 {
		t.Errorf("seeker positions = %v", seeker.positions)
	}

	if w, _ := do(t, r, http.MethodPost, "/api/tracks/t1/seek", `{}`); w.Code != http.StatusBadRequest {
		t.Errorf("missing index status = %d", w.Code)
	}
	if w, _ := do(t, r, http.MethodPost, "/api/tracks/t1/seek", `{"index":99}`); w.Code != http.StatusBadRequest {
		t.Errorf("out of range status = %d", w.Code)
	}

	seeker.err = errors.New("player gone")
	if w, _ := do(t, r, http.MethodPost, "/api/tracks/t1/seek", `{"index":0}`); w.Code != http.StatusBadGateway {
		t.Errorf("failing seeker status = %d", w.Code)
	}
}

func TestClearCacheAndLanguages(t *testing.T) {
	r := newTestRouter(nil)
	resolveSong(t, r)

	if w, _ := do(t, r, http.MethodDelete, "/api/cache", ""); w.Code != http.StatusOK {
		t.Fatalf("clear status = %d", w.Code)
	}
	if w, _ := do(t, r, http.MethodGet, "/api/tracks/t1", ""); w.Code != http.StatusNotFound {
		t.Errorf("track should be gone after clear, status = %d", w.Code)
	}

	w, payload := do(t, r, http.MethodGet, "/api/languages", "")
	if w.Code != http.StatusOK || len(payload["languages"].([]any)) != len(translate.AvailableLanguages) || payload["default"] != "it" {
		t.Errorf("languages: %d %v", w.Code, payload)
	}
}
