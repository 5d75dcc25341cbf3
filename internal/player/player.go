package player

import (
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"lyricsync/pkg/logging"
	"lyricsync/pkg/music"
)

// ErrNoPlayer 没有正在运行的播放器
var ErrNoPlayer = errors.New("no player available")

var logger = logging.Component("player")

// Source 播放状态来源，同时负责跳转
type Source interface {
	CurrentTrack() (music.SongInfo, error)
	Position() (float64, error)
	SetPosition(seconds float64) error
	Close() error
}

// New 按backend创建播放状态来源，支持 "mpris"（默认）和 "playerctl"
func New(backend, service string) (Source, error) {
	switch strings.ToLower(backend) {
	case "", "mpris":
		return NewMPRIS(service)
	case "playerctl":
		return NewPlayerctl(service), nil
	default:
		return nil, fmt.Errorf("unknown player backend: %s", backend)
	}
}

const playerctlFormat = "{{mpris:trackid}}\t{{artist}}\t{{title}}\t{{mpris:length}}"

// Playerctl 通过playerctl命令获取播放状态
type Playerctl struct {
	player string
}

var _ Source = (*Playerctl)(nil)

// NewPlayerctl player为空时由playerctl自行选择
func NewPlayerctl(player string) *Playerctl {
	return &Playerctl{player: strings.TrimPrefix(player, "org.mpris.MediaPlayer2.")}
}

func (p *Playerctl) command(args ...string) *exec.Cmd {
	if p.player != "" {
		args = append([]string{"--player", p.player}, args...)
	}
	return exec.Command("playerctl", args...)
}

func (p *Playerctl) CurrentTrack() (music.SongInfo, error) {
	output, err := p.command("metadata", "--format", playerctlFormat).Output()
	if err != nil {
		return music.SongInfo{}, fmt.Errorf("%w: %v", ErrNoPlayer, err)
	}
	return parsePlayerctlMetadata(string(output))
}

func (p *Playerctl) Position() (float64, error) {
	out, err := p.command("position").Output()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrNoPlayer, err)
	}
	seconds, err := strconv.ParseFloat(strings.TrimSpace(string(out)), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid position %q: %w", out, err)
	}
	return seconds, nil
}

func (p *Playerctl) SetPosition(seconds float64) error {
	arg := strconv.FormatFloat(max(seconds, 0), 'f', 3, 64)
	if out, err := p.command("position", arg).CombinedOutput(); err != nil {
		return fmt.Errorf("playerctl position failed: %s: %w", strings.TrimSpace(string(out)), err)
	}
	logger.Debug().Float64("position", seconds).Msg("Seeked via playerctl")
	return nil
}

func (p *Playerctl) Close() error { return nil }

func parsePlayerctlMetadata(output string) (music.SongInfo, error) {
	fields := strings.Split(strings.TrimRight(output, "\r\n"), "\t")
	if len(fields) != 4 {
		return music.SongInfo{}, fmt.Errorf("unexpected playerctl output %q", output)
	}
	song := music.SongInfo{
		ID:     strings.TrimSpace(fields[0]),
		Artist: strings.TrimSpace(fields[1]),
		Title:  strings.TrimSpace(fields[2]),
	}
	if micros, err := strconv.ParseInt(strings.TrimSpace(fields[3]), 10, 64); err == nil && micros > 0 {
		song.Duration = float64(micros) / 1e6
	}
	if song.Title == "" {
		return song, fmt.Errorf("%w: empty title", ErrNoPlayer)
	}
	return song, nil
}
