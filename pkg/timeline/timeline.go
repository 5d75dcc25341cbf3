package timeline

// Source 歌词来源
type Source string

const (
	// SourceLRCLib LRCLib歌词库
	SourceLRCLib Source = "lrclib"
	// SourceLyricsOvh lyrics.ovh
	SourceLyricsOvh Source = "lyrics.ovh"
	// SourceNetEase 网易云音乐
	SourceNetEase Source = "netease"
	// SourcePlaceholder 占位歌词
	SourcePlaceholder Source = "placeholder"
)

// DefaultLastLineSpan 最后一行歌词的默认持续时间（秒）
const DefaultLastLineSpan = 5.0

// Line 一行歌词
type Line struct {
	Time    float64 `json:"time"`     // 开始时间（秒）
	EndTime float64 `json:"end_time"` // 结束时间（秒），等于下一行的开始时间
	Text    string  `json:"text"`     // 可为空，表示间奏
}

// Timeline 一首歌的有序歌词序列，创建后不再修改
type Timeline struct {
	Lines  []Line `json:"lines"`
	Synced bool   `json:"synced"` // 时间戳来自歌词源而非均分推算
	Source Source `json:"source"`
}

// Len 返回歌词行数，nil安全
func (t *Timeline) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Lines)
}

// IsPlaceholder 是否为占位歌词
func (t *Timeline) IsPlaceholder() bool {
	return t != nil && t.Source == SourcePlaceholder
}

// StartOf returns the start time of line index, used as a seek target.
func (t *Timeline) StartOf(index int) (float64, bool) {
	if index < 0 || index >= t.Len() {
		return 0, false
	}
	return t.Lines[index].Time, true
}

// Texts 返回所有歌词文本
func (t *Timeline) Texts() []string {
	texts := make([]string, 0, t.Len())
	if t == nil {
		return texts
	}
	for _, l := range t.Lines {
		texts = append(texts, l.Text)
	}
	return texts
}
