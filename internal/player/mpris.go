package player

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"lyricsync/pkg/music"

	"github.com/godbus/dbus/v5"
)

const (
	mprisPath        = "/org/mpris/MediaPlayer2"
	mprisPrefix      = "org.mpris.MediaPlayer2."
	mprisPlayerIface = "org.mpris.MediaPlayer2.Player"
)

// MPRIS 通过会话总线读取播放器状态
type MPRIS struct {
	bus *dbus.Conn
	// 为空时每次自动选择第一个MPRIS播放器
	service string

	mu      sync.Mutex
	trackID dbus.ObjectPath
}

var _ Source = (*MPRIS)(nil)

// NewMPRIS 连接会话总线
func NewMPRIS(service string) (*MPRIS, error) {
	bus, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to session bus: %w", err)
	}
	return &MPRIS{bus: bus, service: service}, nil
}

func (m *MPRIS) resolveService() (string, error) {
	if m.service != "" {
		return m.service, nil
	}
	var names []string
	if err := m.bus.BusObject().Call("org.freedesktop.DBus.ListNames", 0).Store(&names); err != nil {
		return "", fmt.Errorf("failed to list dbus names: %w", err)
	}
	for _, name := range names {
		if strings.HasPrefix(name, mprisPrefix) {
			return name, nil
		}
	}
	return "", ErrNoPlayer
}

func (m *MPRIS) object() (dbus.BusObject, error) {
	service, err := m.resolveService()
	if err != nil {
		return nil, err
	}
	return m.bus.Object(service, mprisPath), nil
}

func (m *MPRIS) CurrentTrack() (music.SongInfo, error) {
	obj, err := m.object()
	if err != nil {
		return music.SongInfo{}, err
	}
	prop, err := obj.GetProperty(mprisPlayerIface + ".Metadata")
	if err != nil {
		return music.SongInfo{}, fmt.Errorf("%w: failed to get metadata property: %v", ErrNoPlayer, err)
	}
	metadata, ok := prop.Value().(map[string]dbus.Variant)
	if !ok {
		return music.SongInfo{}, fmt.Errorf("unexpected metadata type %T", prop.Value())
	}

	song, trackID := songFromMetadata(metadata)
	m.mu.Lock()
	m.trackID = trackID
	m.mu.Unlock()

	if song.Title == "" {
		return song, fmt.Errorf("%w: missing title in metadata", ErrNoPlayer)
	}
	return song, nil
}

func (m *MPRIS) Position() (float64, error) {
	obj, err := m.object()
	if err != nil {
		return 0, err
	}
	prop, err := obj.GetProperty(mprisPlayerIface + ".Position")
	if err != nil {
		return 0, fmt.Errorf("failed to get position property: %w", err)
	}
	micros, ok := prop.Value().(int64)
	if !ok {
		return 0, fmt.Errorf("unexpected position type %T", prop.Value())
	}
	return max(float64(micros)/1e6, 0), nil
}

// SetPosition 跳转到指定秒数；播放器没有提供trackid时退化为相对Seek
func (m *MPRIS) SetPosition(seconds float64) error {
	obj, err := m.object()
	if err != nil {
		return err
	}
	target := int64(max(seconds, 0) * 1e6)

	m.mu.Lock()
	trackID := m.trackID
	m.mu.Unlock()

	if trackID.IsValid() && trackID != "/" {
		err = obj.Call(mprisPlayerIface+".SetPosition", 0, trackID, target).Err
	} else {
		var current float64
		if current, err = m.Position(); err == nil {
			err = obj.Call(mprisPlayerIface+".Seek", 0, target-int64(current*1e6)).Err
		}
	}
	if err != nil {
		return fmt.Errorf("failed to seek: %w", err)
	}
	logger.Debug().Float64("position", seconds).Msg("Seeked via MPRIS")
	return nil
}

func (m *MPRIS) Close() error {
	if m.bus == nil {
		return errors.New("bus not connected")
	}
	return m.bus.Close()
}

func songFromMetadata(metadata map[string]dbus.Variant) (music.SongInfo, dbus.ObjectPath) {
	song := music.SongInfo{
		Title:    extractString(metadata, "xesam:title"),
		Artist:   extractArtist(metadata, "xesam:artist"),
		Duration: extractDurationSeconds(metadata, "mpris:length"),
	}

	var trackID dbus.ObjectPath
	if v, ok := metadata["mpris:trackid"]; ok {
		switch typed := v.Value().(type) {
		case dbus.ObjectPath:
			trackID = typed
		case string:
			trackID = dbus.ObjectPath(typed)
		}
	}
	song.ID = string(trackID)
	return song, trackID
}

func extractString(metadata map[string]dbus.Variant, key string) string {
	variant, exists := metadata[key]
	if !exists {
		return ""
	}
	text, _ := variant.Value().(string)
	return strings.TrimSpace(text)
}

// extractArtist 多位歌手用逗号连接，保留给首位歌手变体使用
func extractArtist(metadata map[string]dbus.Variant, key string) string {
	variant, exists := metadata[key]
	if !exists {
		return ""
	}
	switch typed := variant.Value().(type) {
	case []string:
		return strings.Join(typed, ", ")
	case string:
		return typed
	default:
		return ""
	}
}

func extractDurationSeconds(metadata map[string]dbus.Variant, key string) float64 {
	variant, exists := metadata[key]
	if !exists {
		return 0
	}
	switch typed := variant.Value().(type) {
	case int64:
		return max(float64(typed), 0) / 1e6
	case uint64:
		return float64(typed) / 1e6
	default:
		return 0
	}
}
