package timeline

import "math"

// DisplayLine 展示窗口中的一行
type DisplayLine struct {
	Line      Line `json:"line"`
	Index     int  `json:"index"`
	IsCurrent bool `json:"is_current"`
	IsPast    bool `json:"is_past"`
	IsFuture  bool `json:"is_future"`
}

// CurrentLineIndex returns the index of the last line whose start time is at
// or before current. It returns 0 for an empty timeline or a NaN time.
func CurrentLineIndex(t *Timeline, current float64) int {
	if t.Len() == 0 || math.IsNaN(current) {
		return 0
	}
	for i := len(t.Lines) - 1; i >= 0; i-- {
		if current >= t.Lines[i].Time {
			return i
		}
	}
	return 0
}

// DisplayWindow 返回当前行前后若干行
func DisplayWindow(t *Timeline, current, before, after int) []DisplayLine {
	n := t.Len()
	if n == 0 {
		return nil
	}
	before = max(before, 0)
	after = max(after, 0)

	current = min(max(current, 0), n-1)
	start := max(0, current-before)
	end := min(n, current+after+1)

	window := make([]DisplayLine, 0, end-start)
	for i := start; i < end; i++ {
		window = append(window, DisplayLine{
			Line:      t.Lines[i],
			Index:     i,
			IsCurrent: i == current,
			IsPast:    i < current,
			IsFuture:  i > current,
		})
	}
	return window
}
