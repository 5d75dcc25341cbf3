package translate

import (
	"strings"

	"github.com/abadojack/whatlanggo"
)

// DetectSource 根据歌词文本猜测原文语言，不可靠时返回 DefaultSourceLanguage
func DetectSource(texts []string) string {
	var sb strings.Builder
	for _, text := range texts {
		if ShouldTranslate(text) {
			sb.WriteString(text)
			sb.WriteString("\n")
		}
	}
	if sb.Len() == 0 {
		return DefaultSourceLanguage
	}

	info := whatlanggo.Detect(sb.String())
	code := info.Lang.Iso6391()
	if !info.IsReliable() || code == "" {
		return DefaultSourceLanguage
	}
	return code
}
