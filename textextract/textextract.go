// Package textextract turns Ghost post HTML into plain text for the
// related-posts corpus.
package textextract

import (
	"fmt"
	"io"
	"strings"

	readability "github.com/go-shiori/go-readability"
	"golang.org/x/net/html"
)

const maxBodyLength = 4000

// StripHTML returns the text content of an HTML fragment. Text nodes are
// joined with single spaces and entities are decoded. Input that is not
// HTML at all comes back unchanged apart from whitespace trimming.
func StripHTML(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return strings.TrimSpace(s)
	}

	z := html.NewTokenizer(strings.NewReader(s))
	var parts []string
	skip := 0
	for {
		switch z.Next() {
		case html.ErrorToken:
			if z.Err() != io.EOF {
				// The tokenizer only fails on read errors, which a strings.Reader
				// never produces.
				return strings.TrimSpace(s)
			}
			return strings.Join(parts, " ")
		case html.StartTagToken:
			if isRawText(z) {
				skip++
			}
		case html.EndTagToken:
			if skip > 0 && isRawText(z) {
				skip--
			}
		case html.TextToken:
			if skip > 0 {
				continue
			}
			if t := strings.TrimSpace(string(z.Text())); t != "" {
				parts = append(parts, t)
			}
		}
	}
}

func isRawText(z *html.Tokenizer) bool {
	name, _ := z.TagName()
	switch string(name) {
	case "script", "style":
		return true
	}
	return false
}

// BodyText extracts the readable text of a post body. The result is
// truncated to 4000 characters.
func BodyText(postHTML string) (string, error) {
	if strings.TrimSpace(postHTML) == "" {
		return "", nil
	}

	doc := "<!DOCTYPE html><html><body><article>" + postHTML + "</article></body></html>"
	article, err := readability.FromReader(strings.NewReader(doc), nil)
	if err != nil {
		return "", fmt.Errorf("extracting body text: %w", err)
	}

	content := strings.TrimSpace(article.TextContent)
	if content == "" {
		content = StripHTML(postHTML)
	}
	return truncate(content, maxBodyLength), nil
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
