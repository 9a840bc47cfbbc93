package douban

import (
	"context"
	"strings"
	"testing"
)

func TestHeuristicDetector(t *testing.T) {
	d := NewHeuristicDetector(64, []string{"div.item"}, []string{"sec.douban.com", "异常请求"})
	ctx := context.Background()

	padding := strings.Repeat("<!-- padding -->", 16)
	chart := `<html><body><div class="item"><span class="title">某片</span></div>` + padding + `</body></html>`

	tests := []struct {
		name string
		body string
		want bool
	}{
		{name: "tiny body triggers", body: "<html></html>", want: true},
		{name: "redirect keyword triggers", body: `<html><body><script>location.href="https://sec.douban.com/b"</script>` + padding + `</body></html>`, want: true},
		{name: "keyword match ignores case", body: `<html><body>SEC.DOUBAN.COM` + padding + `</body></html>`, want: true},
		{name: "block notice triggers", body: `<html><body><p>检测到有异常请求从你的 IP 发出</p><div class="item"></div>` + padding + `</body></html>`, want: true},
		{name: "missing chart selector triggers", body: `<html><body><div class="login">请登录</div>` + padding + `</body></html>`, want: true},
		{name: "real chart page passes", body: chart, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := d.Blocked(ctx, Page{Body: []byte(tt.body)})
			if got != tt.want {
				t.Fatalf("expected %v got %v", tt.want, got)
			}
		})
	}
}

func TestHeuristicDetectorDropsEmptyKeywords(t *testing.T) {
	d := NewHeuristicDetector(0, nil, []string{"", "block"})
	if len(d.keywords) != 1 {
		t.Fatalf("expected 1 keyword, got %d", len(d.keywords))
	}
	if d.Blocked(context.Background(), Page{Body: []byte("clean page")}) {
		t.Fatal("expected clean page to pass")
	}
}
