package lyrics

import (
	"context"

	"lyricsync/pkg/timeline"
	"lyricsync/pkg/translate"
)

// FrameLine 展示窗口中的一行，附带译文
type FrameLine struct {
	timeline.DisplayLine
	Translation string `json:"translation,omitempty"`
}

// Frame 某一时刻需要展示的内容
type Frame struct {
	TrackID  string          `json:"track_id"`
	Title    string          `json:"title"`
	Artist   string          `json:"artist"`
	Position float64         `json:"position"`
	Synced   bool            `json:"synced"`
	Source   timeline.Source `json:"source"`
	Index    int             `json:"index"`
	Lines    []FrameLine     `json:"lines"`
	Ready    bool            `json:"ready"` // false表示歌词仍在解析
}

// Current 返回当前行的文本，没有歌词时为空
func (f Frame) Current() FrameLine {
	for _, l := range f.Lines {
		if l.IsCurrent {
			return l
		}
	}
	return FrameLine{}
}

// BuildFrame 按播放位置截取展示窗口
func BuildFrame(tl *timeline.Timeline, m *translate.Map, position float64, before, after int) Frame {
	frame := Frame{Position: position}
	if tl == nil {
		return frame
	}
	frame.Ready = true
	frame.Synced = tl.Synced
	frame.Source = tl.Source
	frame.Index = timeline.CurrentLineIndex(tl, position)

	window := timeline.DisplayWindow(tl, frame.Index, before, after)
	frame.Lines = make([]FrameLine, len(window))
	for i, dl := range window {
		frame.Lines[i] = FrameLine{DisplayLine: dl}
		if m != nil {
			frame.Lines[i].Translation, _ = m.Get(dl.Index)
		}
	}
	return frame
}

// Frame 当前歌曲在position处的展示内容
func (s *Service) Frame(ctx context.Context, position float64, before, after int) Frame {
	song, tl := s.Current()
	var m *translate.Map
	if tl != nil {
		m, _ = s.Translation(ctx, song.Key())
	}
	frame := BuildFrame(tl, m, position, before, after)
	frame.TrackID = song.Key()
	frame.Title = song.Title
	frame.Artist = song.Artist
	return frame
}
