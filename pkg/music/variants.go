package music

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

var (
	featRe        = regexp.MustCompile(`(?i)\s*[\(\[].*?feat.*?[\)\]]`)
	parensRe      = regexp.MustCompile(`\s*\([^)]*\)`)
	artistSplitRe = regexp.MustCompile(`(?i)[,&]|feat`)
)

// Variant 一组查询用的标题和歌手
type Variant struct {
	Title  string
	Artist string
	Kind   string
}

// Variants 生成查询变体，顺序为：
// 原样、去掉feat的标题、只取第一个歌手、两者组合、去掉括号内容的标题（配原歌手和第一个歌手）。
// 重复的组合只保留第一次出现。
func Variants(title, artist string) []Variant {
	title = strings.TrimSpace(norm.NFC.String(title))
	artist = strings.TrimSpace(norm.NFC.String(artist))

	// 全角括号和逗号先折叠成半角，去除规则才能生效
	folded := width.Fold.String(title)
	strip := func(re *regexp.Regexp) string {
		stripped := strings.TrimSpace(re.ReplaceAllString(folded, ""))
		if stripped == strings.TrimSpace(folded) {
			return title
		}
		return stripped
	}
	noFeat := strip(featRe)
	noParens := strip(parensRe)
	firstArtist := FirstArtist(artist)

	candidates := []Variant{
		{title, artist, "exact"},
		{noFeat, artist, "no-feat"},
		{title, firstArtist, "first-artist"},
		{noFeat, firstArtist, "no-feat+first-artist"},
		{noParens, artist, "no-parens"},
		{noParens, firstArtist, "no-parens+first-artist"},
	}

	seen := make(map[string]bool, len(candidates))
	variants := make([]Variant, 0, len(candidates))
	for _, v := range candidates {
		if v.Title == "" || v.Artist == "" {
			continue
		}
		key := v.Title + "\x00" + v.Artist
		if seen[key] {
			continue
		}
		seen[key] = true
		variants = append(variants, v)
	}
	return variants
}

// FirstArtist 取逗号、&或feat之前的第一个歌手
func FirstArtist(artist string) string {
	parts := artistSplitRe.Split(width.Fold.String(artist), 2)
	if len(parts) < 2 {
		return strings.TrimSpace(artist)
	}
	return strings.TrimSpace(parts[0])
}
