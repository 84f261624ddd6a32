package hreflang

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/421news/hreflangd/ghost"
)

// Lang is a site language as used in hreflang attributes and URL prefixes.
type Lang string

const (
	Spanish Lang = "es"
	English Lang = "en"
)

// LangOf derives a post's language from its tags. Posts without the English
// tag are Spanish.
func LangOf(p *ghost.Post) Lang {
	if p.IsEnglish() {
		return English
	}
	return Spanish
}

// Other returns the opposite language.
func (l Lang) Other() Lang {
	if l == English {
		return Spanish
	}
	return English
}

// PointerMeta is the name of the meta tag a post of this language uses to
// point at its translation.
func (l Lang) PointerMeta() string {
	if l == English {
		return "spanish-version"
	}
	return "english-version"
}

var (
	pointerMetaRe   = regexp.MustCompile(`(?i)<meta\s+name="(?:english|spanish)-version"\s+content="[^"]*"\s*/?>\s*`)
	alternateLinkRe = regexp.MustCompile(`(?i)<link\s+rel="alternate"\s+hreflang="[^"]*"\s+href="[^"]*"\s*/?>\s*`)
)

// Strip removes every translation-pointer meta tag and alternate link from a
// head injection and trims the rest. Unrelated markup is left untouched.
func Strip(head string) string {
	if head == "" {
		return ""
	}
	head = pointerMetaRe.ReplaceAllString(head, "")
	head = alternateLinkRe.ReplaceAllString(head, "")
	return strings.TrimSpace(head)
}

// Markup renders tags for one site.
type Markup struct {
	SiteURL string
}

// Link renders the alternate link for slug under lang's path prefix.
func (m Markup) Link(lang Lang, slug string) string {
	return fmt.Sprintf(`<link rel="alternate" hreflang="%s" href="%s/%s/%s/" />`,
		lang, strings.TrimRight(m.SiteURL, "/"), lang, slug)
}

// Tags returns the markup a post should carry. With a pair it is the
// pointer meta, the self link and the pair link; without one it is only the
// self link.
func (m Markup) Tags(lang Lang, slug, pairSlug string) []string {
	if pairSlug == "" {
		return []string{m.Link(lang, slug)}
	}
	return []string{
		fmt.Sprintf(`<meta name="%s" content="%s" />`, lang.PointerMeta(), pairSlug),
		m.Link(lang, slug),
		m.Link(lang.Other(), pairSlug),
	}
}

// Rebuild strips existing and appends tags on a new line. Calling it on its
// own output with the same tags returns that output unchanged.
func Rebuild(existing string, tags []string) string {
	block := strings.Join(tags, "\n")
	cleaned := Strip(existing)
	if cleaned == "" {
		return block
	}
	return cleaned + "\n" + block
}

// HasAlternateMarkup reports whether head already carries an alternate link
// and, for paired posts, the pointer meta of lang.
func HasAlternateMarkup(head string, lang Lang) (link, meta bool) {
	link = strings.Contains(head, `rel="alternate"`) && strings.Contains(head, "hreflang=")
	meta = strings.Contains(head, fmt.Sprintf(`name="%s"`, lang.PointerMeta()))
	return link, meta
}
