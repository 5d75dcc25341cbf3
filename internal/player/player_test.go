package player

import (
	"errors"
	"testing"

	"github.com/godbus/dbus/v5"
)

func TestSongFromMetadata(t *testing.T) {
	metadata := map[string]dbus.Variant{
		"xesam:title":   dbus.MakeVariant("Song (feat. X)"),
		"xesam:artist":  dbus.MakeVariant([]string{"Main Artist", "X"}),
		"mpris:length":  dbus.MakeVariant(int64(200_500_000)),
		"mpris:trackid": dbus.MakeVariant(dbus.ObjectPath("/org/mpris/MediaPlayer2/Track/1")),
	}

	song, trackID := songFromMetadata(metadata)
	if song.Title != "Song (feat. X)" || song.Artist != "Main Artist, X" {
		t.Errorf("unexpected song %+v", song)
	}
	if song.Duration != 200.5 {
		t.Errorf("Duration = %v", song.Duration)
	}
	if trackID != "/org/mpris/MediaPlayer2/Track/1" || song.ID != string(trackID) {
		t.Errorf("trackID = %q id = %q", trackID, song.ID)
	}
}

func TestSongFromMetadataLoose(t *testing.T) {
	metadata := map[string]dbus.Variant{
		"xesam:title":   dbus.MakeVariant("Imagine"),
		"xesam:artist":  dbus.MakeVariant("John Lennon"),
		"mpris:length":  dbus.MakeVariant(uint64(183_000_000)),
		"mpris:trackid": dbus.MakeVariant("spotify:track:abc"),
	}
	song, _ := songFromMetadata(metadata)
	if song.Artist != "John Lennon" || song.Duration != 183 || song.ID != "spotify:track:abc" {
		t.Errorf("unexpected song %+v", song)
	}

	empty, trackID := songFromMetadata(map[string]dbus.Variant{})
	if empty.Title != "" || empty.Duration != 0 || trackID != "" {
		t.Errorf("unexpected song from empty metadata %+v", empty)
	}
}

func TestParsePlayerctlMetadata(t *testing.T) {
	song, err := parsePlayerctlMetadata("/track/1\tJohn Lennon\tImagine\t183000000\n")
	if err != nil {
		t.Fatal(err)
	}
	if song.ID != "/track/1" || song.Artist != "John Lennon" || song.Title != "Imagine" || song.Duration != 183 {
		t.Errorf("unexpected song %+v", song)
	}

	if _, err := parsePlayerctlMetadata("garbage"); err == nil {
		t.Error("expected error for malformed output")
	}
	if _, err := parsePlayerctlMetadata("\tartist\t\t"); !errors.Is(err, ErrNoPlayer) {
		t.Errorf("expected ErrNoPlayer, got %v", err)
	}
}

func TestNewUnknownBackend(t *testing.T) {
	if _, err := New("winamp", ""); err == nil {
		t.Error("expected error for unknown backend")
	}
	src, err := New("playerctl", "org.mpris.MediaPlayer2.spotify")
	if err != nil {
		t.Fatal(err)
	}
	if p := src.(*Playerctl); p.player != "spotify" {
		t.Errorf("player = %q", p.player)
	}
}
