// Package hreflang pairs Spanish and English translations of the same story
// and writes alternate-language markup into their Ghost head injections.
package hreflang

import (
	"math"
	"strings"
	"time"

	"github.com/421news/hreflangd/ghost"
)

const (
	// AutoMatchWindow is the publish-time gap under which two posts are
	// paired without looking at their slugs.
	AutoMatchWindow = 120 * time.Second

	// MaxDelta is the publish-time gap beyond which posts never pair.
	MaxDelta = 48 * time.Hour

	// DefaultThreshold is the lowest score accepted as a match.
	DefaultThreshold = 0.3

	slugOverlapScore = 0.6
	proximityScore   = 0.4
	minSlugWordLen   = 4
)

// Score rates how likely b is the translation of a, in [0,1]. The result is
// symmetric in a and b.
func Score(a, b *ghost.Post) float64 {
	if a.PublishedAt == nil || b.PublishedAt == nil {
		return 0
	}

	delta := math.Abs(a.PublishedAt.Sub(*b.PublishedAt).Seconds())
	if delta <= AutoMatchWindow.Seconds() {
		return 1.0
	}
	maxDelta := MaxDelta.Seconds()
	if delta > maxDelta {
		return 0
	}

	if !slugsShareWord(a.Slug, b.Slug) {
		return 0
	}
	return slugOverlapScore + proximityScore*(1-delta/maxDelta)
}

// BestMatch returns the candidate with the strictly highest positive score.
// The first candidate wins a tie, so callers should pass candidates newest
// first. It returns nil and 0 when nothing scores above zero.
func BestMatch(post *ghost.Post, candidates []ghost.Post) (*ghost.Post, float64) {
	var best *ghost.Post
	var bestScore float64
	for i := range candidates {
		if s := Score(post, &candidates[i]); s > bestScore {
			best, bestScore = &candidates[i], s
		}
	}
	return best, bestScore
}

func slugWords(slug string) map[string]struct{} {
	words := make(map[string]struct{})
	for _, w := range strings.Split(slug, "-") {
		if len(w) >= minSlugWordLen {
			words[w] = struct{}{}
		}
	}
	return words
}

func slugsShareWord(a, b string) bool {
	wb := slugWords(b)
	for w := range slugWords(a) {
		if _, ok := wb[w]; ok {
			return true
		}
	}
	return false
}
