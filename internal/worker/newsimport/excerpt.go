package newsimport

import (
	"strings"

	"golang.org/x/net/html"
)

// excerptMaxRunes は一覧表示用抜粋の最大文字数。
const excerptMaxRunes = 200

// Excerpt はHTMLからプレーンテキストの抜粋を生成する。
// タグを除去したテキストを空白1つで連結し、maxRunes文字で切り詰める。
// 切り詰めが発生した場合は末尾に省略記号を付ける。
func Excerpt(rawHTML string, maxRunes int) string {
	text := extractText(rawHTML)

	runes := []rune(text)
	if len(runes) <= maxRunes {
		return text
	}
	return string(runes[:maxRunes]) + "…"
}

// extractText はHTMLのテキストノードを抽出して連結する。
// scriptとstyleの中身は捨てる。
func extractText(rawHTML string) string {
	tokenizer := html.NewTokenizer(strings.NewReader(rawHTML))

	var parts []string
	skipDepth := 0

	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			return strings.Join(parts, " ")

		case html.StartTagToken:
			name, _ := tokenizer.TagName()
			if isSkippedTag(string(name)) {
				skipDepth++
			}

		case html.EndTagToken:
			name, _ := tokenizer.TagName()
			if isSkippedTag(string(name)) && skipDepth > 0 {
				skipDepth--
			}

		case html.TextToken:
			if skipDepth > 0 {
				continue
			}
			if text := strings.TrimSpace(string(tokenizer.Text())); text != "" {
				parts = append(parts, text)
			}
		}
	}
}

// isSkippedTag はテキスト抽出から除外するタグかどうかを返す。
func isSkippedTag(name string) bool {
	return name == "script" || name == "style"
}
