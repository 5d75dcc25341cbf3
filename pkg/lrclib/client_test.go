package lrclib

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"lyricsync/pkg/timeline"
)

func newTestClient(url string, timeout time.Duration) *Client {
	return NewClient(url, timeout, 0)
}

func TestFetchSynced(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/get" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("track_name") != "Imagine" || q.Get("artist_name") != "John Lennon" || q.Get("duration") != "183" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
		w.Write([]byte(`{"trackName":"Imagine","artistName":"John Lennon","syncedLyrics":"[00:01.00]one\n[00:02.00]two","plainLyrics":"one\ntwo"}`))
	}))
	defer server.Close()

	tl, err := newTestClient(server.URL, time.Second).Fetch(context.Background(), "Imagine", "John Lennon", 183.7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !tl.Synced || tl.Source != timeline.SourceLRCLib || tl.Len() != 2 {
		t.Errorf("unexpected timeline: %+v", tl)
	}
}

func TestFetchPlainFallback(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"syncedLyrics":"","plainLyrics":"one\ntwo\nthree\nfour"}`))
	}))
	defer server.Close()

	tl, err := newTestClient(server.URL, time.Second).Fetch(context.Background(), "t", "a", 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tl.Synced || tl.Len() != 4 || tl.Lines[1].Time != 25 {
		t.Errorf("unexpected timeline: %+v", tl)
	}
}

func TestFetchMisses(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		notFind bool
	}{
		{"NotFound", http.StatusNotFound, `{}`, true},
		{"BadRequest", http.StatusBadRequest, `{}`, false},
		{"Instrumental", http.StatusOK, `{"instrumental":true}`, true},
		{"BadJSON", http.StatusOK, `{not json`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			tl, err := newTestClient(server.URL, time.Second).Fetch(context.Background(), "t", "a", 100)
			if err == nil || tl != nil {
				t.Fatalf("expected a miss, got %+v", tl)
			}
			if tt.notFind && !errors.Is(err, ErrNotFound) {
				t.Errorf("expected ErrNotFound, got %v", err)
			}
		})
	}
}

func TestFetchTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	start := time.Now()
	_, err := newTestClient(server.URL, 100*time.Millisecond).Fetch(context.Background(), "t", "a", 100)
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if time.Since(start) > time.Second {
		t.Errorf("timeout was not enforced, took %v", time.Since(start))
	}
}
