package translate

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
)

// DefaultSourceLanguage 无法识别原文语言时使用
const DefaultSourceLanguage = "en"

// Language 可选的目标语言
type Language struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// AvailableLanguages 界面上提供的目标语言
var AvailableLanguages = []Language{
	{Code: "it", Name: "Italiano"},
	{Code: "en", Name: "English"},
	{Code: "es", Name: "Español"},
	{Code: "fr", Name: "Français"},
	{Code: "de", Name: "Deutsch"},
	{Code: "pt", Name: "Português"},
	{Code: "ru", Name: "Русский"},
	{Code: "ja", Name: "日本語"},
	{Code: "zh", Name: "中文"},
	{Code: "ar", Name: "العربية"},
}

// NormalizeLanguage 把 "pt-BR"、"ZH_cn" 之类的写法规整为两位语言代码
func NormalizeLanguage(code string) (string, error) {
	code = strings.ReplaceAll(strings.TrimSpace(code), "_", "-")
	if code == "" {
		return "", fmt.Errorf("empty language code")
	}
	tag, err := language.Parse(code)
	if err != nil {
		return "", fmt.Errorf("invalid language code %q: %w", code, err)
	}
	base, confidence := tag.Base()
	if confidence == language.No {
		return "", fmt.Errorf("unknown language code %q", code)
	}
	return base.String(), nil
}
