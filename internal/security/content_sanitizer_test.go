package security

import (
	"strings"
	"testing"
)

// TestSanitize_AllowedTags は許可タグが正しく通過することを検証する。
func TestSanitize_AllowedTags(t *testing.T) {
	sanitizer := NewContentSanitizer()

	tests := []struct {
		name         string
		input        string
		wantContains []string
	}{
		{
			name:         "pタグが許可される",
			input:        "<p>今日の試合は最高だった</p>",
			wantContains: []string{"<p>今日の試合は最高だった</p>"},
		},
		{
			name:         "strongタグとemタグが許可される",
			input:        "<strong>圧勝</strong>と<em>言ってもいい</em>",
			wantContains: []string{"<strong>圧勝</strong>", "<em>言ってもいい</em>"},
		},
		{
			name:         "aタグが許可される",
			input:        `<a href="https://example.com/match">試合詳細</a>`,
			wantContains: []string{"<a", "https://example.com/match", "試合詳細"},
		},
		{
			name:         "ulタグとliタグが許可される",
			input:        "<ul><li>先発</li><li>控え</li></ul>",
			wantContains: []string{"<ul>", "<li>先発</li>", "<li>控え</li>"},
		},
		{
			name:         "blockquoteタグが許可される",
			input:        "<blockquote>監督のコメント</blockquote>",
			wantContains: []string{"<blockquote>監督のコメント</blockquote>"},
		},
		{
			name:         "imgタグがhttps srcで許可される",
			input:        `<img src="https://example.com/goal.png" alt="ゴールシーン">`,
			wantContains: []string{"<img", "https://example.com/goal.png"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := sanitizer.Sanitize(tt.input)
			for _, want := range tt.wantContains {
				if !strings.Contains(got, want) {
					t.Errorf("Sanitize(%q) = %q, expected to contain %q", tt.input, got, want)
				}
			}
		})
	}
}

// TestSanitize_ForbiddenContent は危険なタグ・属性が除去されることを検証する。
func TestSanitize_ForbiddenContent(t *testing.T) {
	sanitizer := NewContentSanitizer()

	tests := []struct {
		name         string
		input        string
		wantAbsent   []string
		wantContains []string
	}{
		{
			name:         "scriptタグが除去される",
			input:        `<p>応援コメント</p><script>alert('xss')</script>`,
			wantAbsent:   []string{"<script", "alert"},
			wantContains: []string{"応援コメント"},
		},
		{
			name:         "iframeタグが除去される",
			input:        `<p>本文</p><iframe src="https://evil.com"></iframe>`,
			wantAbsent:   []string{"<iframe", "evil.com"},
			wantContains: []string{"本文"},
		},
		{
			name:       "onclickイベント属性が除去される",
			input:      `<p onclick="steal()">クリック</p>`,
			wantAbsent: []string{"onclick", "steal"},
			wantContains: []string{"クリック"},
		},
		{
			name:       "http画像が除去される",
			input:      `<img src="http://example.com/insecure.png">`,
			wantAbsent: []string{"http://example.com/insecure.png"},
		},
		{
			name:       "javascriptスキームのリンクが除去される",
			input:      `<a href="javascript:alert(1)">リンク</a>`,
			wantAbsent: []string{"javascript:"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := sanitizer.Sanitize(tt.input)
			for _, absent := range tt.wantAbsent {
				if strings.Contains(got, absent) {
					t.Errorf("Sanitize(%q) = %q, should not contain %q", tt.input, got, absent)
				}
			}
			for _, want := range tt.wantContains {
				if !strings.Contains(got, want) {
					t.Errorf("Sanitize(%q) = %q, expected to contain %q", tt.input, got, want)
				}
			}
		})
	}
}

// TestSanitize_Idempotent は同一入力に対して常に同一出力を返すことを検証する。
func TestSanitize_Idempotent(t *testing.T) {
	sanitizer := NewContentSanitizer()

	input := `<p>テスト</p><script>alert(1)</script><strong>太字</strong>`
	first := sanitizer.Sanitize(input)
	second := sanitizer.Sanitize(first)

	if first != second {
		t.Errorf("サニタイズが冪等ではありません: %q != %q", first, second)
	}
}

func TestSanitize_EmptyInput(t *testing.T) {
	sanitizer := NewContentSanitizer()
	if got := sanitizer.Sanitize(""); got != "" {
		t.Errorf("Sanitize(\"\") = %q, want \"\"", got)
	}
}

// TestSanitizeText はタグを一切残さないことを検証する。
func TestSanitizeText(t *testing.T) {
	sanitizer := NewContentSanitizer()

	tests := []struct {
		input string
		want  string
	}{
		{"red_devil_99", "red_devil_99"},
		{"<strong>名前</strong>", "名前"},
		{`<script>alert(1)</script>投稿者`, "投稿者"},
	}

	for _, tt := range tests {
		if got := sanitizer.SanitizeText(tt.input); got != tt.want {
			t.Errorf("SanitizeText(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
