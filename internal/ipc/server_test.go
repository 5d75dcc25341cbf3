package ipc

import (
	"bufio"
	"encoding/json"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"lyricsync/internal/lyrics"
	"lyricsync/pkg/timeline"
)

func sampleFrame(text string) lyrics.Frame {
	tl := &timeline.Timeline{
		Lines:  []timeline.Line{{Time: 0, EndTime: 5, Text: text}},
		Synced: true,
		Source: timeline.SourceLRCLib,
	}
	frame := lyrics.BuildFrame(tl, nil, 1, 2, 3)
	frame.TrackID, frame.Title, frame.Artist = "id", "Imagine", "John Lennon"
	return frame
}

func TestServerBroadcast(t *testing.T) {
	dir := t.TempDir()
	socketPath := filepath.Join(dir, "test.sock")
	statusFile := filepath.Join(dir, "status", "current_line")

	server := NewServer(socketPath, statusFile)
	if err := server.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer server.Close()

	if changed, err := server.Broadcast(sampleFrame("Imagine there's no heaven")); err != nil || !changed {
		t.Fatalf("Broadcast changed=%v err=%v", changed, err)
	}
	if changed, _ := server.Broadcast(sampleFrame("Imagine there's no heaven")); changed {
		t.Error("identical frame should not change the status")
	}

	conn, err := net.Dial("unix", socketPath)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	reader := bufio.NewReader(conn)

	// 新客户端先收到最近一帧
	var frame lyrics.Frame
	line, err := reader.ReadBytes('\n')
	if err != nil {
		t.Fatalf("read initial frame: %v", err)
	}
	if err := json.Unmarshal(line, &frame); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if frame.Current().Line.Text != "Imagine there's no heaven" {
		t.Errorf("initial frame = %+v", frame)
	}

	waitForClients(t, server, 1)
	if _, err := server.Broadcast(sampleFrame("It's easy if you try")); err != nil {
		t.Fatal(err)
	}
	line, err = reader.ReadBytes('\n')
	if err != nil {
		t.Fatalf("read broadcast: %v", err)
	}
	if !strings.Contains(string(line), "It's easy if you try") {
		t.Errorf("unexpected frame %s", line)
	}

	status, err := os.ReadFile(statusFile)
	if err != nil {
		t.Fatalf("status file: %v", err)
	}
	if string(status) != "It's easy if you try\n" {
		t.Errorf("status file = %q", status)
	}
}

func TestServerSecondInstanceFails(t *testing.T) {
	socketPath := filepath.Join(t.TempDir(), "test.sock")
	first := NewServer(socketPath, "")
	if err := first.Start(); err != nil {
		t.Fatal(err)
	}
	defer first.Close()

	if err := NewServer(socketPath, "").Start(); err == nil {
		t.Error("second instance should fail to acquire the lock")
	}
}

func TestStatusLine(t *testing.T) {
	if got := StatusLine(lyrics.Frame{}); got != "No music playing..." {
		t.Errorf("idle status = %q", got)
	}
	if got := StatusLine(lyrics.Frame{Title: "Imagine", Artist: "John Lennon"}); !strings.Contains(got, "Searching") {
		t.Errorf("searching status = %q", got)
	}

	frame := sampleFrame("Imagine")
	frame.Lines[0].Translation = "Immagina"
	if got := StatusLine(frame); got != "Imagine / Immagina" {
		t.Errorf("translated status = %q", got)
	}
}

func waitForClients(t *testing.T, s *Server, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for s.Clients() < n {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %d clients", n)
		}
		time.Sleep(5 * time.Millisecond)
	}
}
