package timeline

import (
	"bufio"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"lyricsync/pkg/logging"
)

var logger = logging.Component("timeline")

var (
	// 一行开头可以有多个时间标签，如 [00:01.00][00:30.00]歌词
	lineRe   = regexp.MustCompile(`((?:\[\d{2}:\d{2}(?:\.\d{1,3})?\])+)(.*)`)
	tagRe    = regexp.MustCompile(`\[(\d{2}):(\d{2})(?:\.(\d{1,3}))?\]`)
	hasTagRe = regexp.MustCompile(`\[\d{2}:\d{2}`)
)

// HasTimeTags reports whether raw looks like time-tagged LRC text.
func HasTimeTags(raw string) bool {
	return strings.Contains(raw, "[") && hasTagRe.MatchString(raw)
}

// ParseTimedText 解析LRC格式歌词
//
// 无法解析的行会被跳过，不会中断整个解析。空文本的行也会被跳过。
// 结果按时间升序排列，每行的EndTime为下一行的Time，最后一行为Time+5。
func ParseTimedText(raw string) *Timeline {
	var lines []Line

	scanner := bufio.NewScanner(strings.NewReader(raw))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		row := scanner.Text()
		match := lineRe.FindStringSubmatch(row)
		if match == nil {
			if strings.HasPrefix(strings.TrimSpace(row), "[") {
				logger.Debug().Str("line", row).Msg("Skipping untimed tag line")
			}
			continue
		}

		text := strings.TrimSpace(match[2])
		if text == "" {
			continue
		}

		for _, tag := range tagRe.FindAllStringSubmatch(match[1], -1) {
			t, ok := parseTag(tag)
			if !ok {
				logger.Warn().Str("line", row).Msg("Failed to parse LRC time tag")
				continue
			}
			lines = append(lines, Line{Time: t, Text: text})
		}
	}
	if err := scanner.Err(); err != nil {
		logger.Warn().Err(err).Msg("LRC scan stopped early")
	}

	sort.SliceStable(lines, func(i, j int) bool { return lines[i].Time < lines[j].Time })
	for i := 0; i < len(lines)-1; i++ {
		lines[i].EndTime = lines[i+1].Time
	}
	if n := len(lines); n > 0 {
		lines[n-1].EndTime = lines[n-1].Time + DefaultLastLineSpan
	}

	return &Timeline{Lines: lines, Synced: len(lines) > 0}
}

// parseTag 将 [mm:ss.xx] 转换为秒
func parseTag(tag []string) (float64, bool) {
	minutes, err := strconv.Atoi(tag[1])
	if err != nil {
		return 0, false
	}
	seconds, err := strconv.Atoi(tag[2])
	if err != nil {
		return 0, false
	}

	fraction := 0.0
	if frac := tag[3]; frac != "" {
		n, err := strconv.Atoi(frac)
		if err != nil {
			return 0, false
		}
		// .5 = 500ms, .49 = 490ms, .490 = 490ms
		switch len(frac) {
		case 1:
			fraction = float64(n) / 10
		case 2:
			fraction = float64(n) / 100
		default:
			fraction = float64(n) / 1000
		}
	}

	return float64(minutes*60+seconds) + fraction, true
}
