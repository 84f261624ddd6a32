package textextract

import (
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestStripHTML(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "  just text ", "just text"},
		{"empty", "", ""},
		{"paragraphs", "<p>Hola</p><p>mundo</p>", "Hola mundo"},
		{"inline", "un <strong>gran</strong> día", "un gran día"},
		{"entities", "Tom &amp; Jerry &lt;3", "Tom & Jerry <3"},
		{"script dropped", "<p>a</p><script>var x = 1;</script><p>b</p>", "a b"},
		{"style dropped", "<style>p{color:red}</style>texto", "texto"},
		{"attributes ignored", `<a href="https://x" title="nope">link</a>`, "link"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripHTML(tt.in); got != tt.want {
				t.Errorf("StripHTML(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestBodyText_Success(t *testing.T) {
	body := `<h1>Test Article</h1>
<p>This is a test article with meaningful content that should be extracted by the readability parser. It contains enough text to be considered article content.</p>
<p>The readability library needs a reasonable amount of content to identify the main article body. This second paragraph adds more substance to the article.</p>
<p>Adding a third paragraph ensures the content is substantial enough for extraction. The go-readability library uses heuristics to find the main content area.</p>`

	content, err := BodyText(body)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(content, "meaningful content") {
		t.Errorf("expected content to contain article text, got: %s", content)
	}
}

func TestBodyText_Empty(t *testing.T) {
	content, err := BodyText("   ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if content != "" {
		t.Errorf("expected empty content, got %q", content)
	}
}

func TestBodyText_Truncation(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < 500; i++ {
		sb.WriteString(fmt.Sprintf("<p>Párrafo %d con suficiente texto para que el artículo supere el límite de truncado.</p>", i))
	}

	content, err := BodyText(sb.String())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n := utf8.RuneCountInString(content); n > maxBodyLength {
		t.Errorf("expected at most %d runes, got %d", maxBodyLength, n)
	}
	if !utf8.ValidString(content) {
		t.Error("truncation split a multi-byte rune")
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("ñandú", 3); got != "ñan" {
		t.Errorf("expected ñan, got %q", got)
	}
	if got := truncate("abc", 10); got != "abc" {
		t.Errorf("expected abc, got %q", got)
	}
}
