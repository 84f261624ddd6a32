// Package related computes, for every post in a language partition, its most
// similar posts by TF-IDF cosine similarity.
package related

import (
	"maps"
	"slices"
	"sort"
)

// DefaultCount is the number of related posts kept per post.
const DefaultCount = 4

// Result maps a post slug to its related slugs, most similar first.
type Result map[string][]string

// Compute ranks one language partition. Every post gets an entry, with up to
// count related slugs and never itself. Equal scores keep document order.
// When a slug appears more than once only its first occurrence is used.
func Compute(posts []Post, stop Stopwords, count int) Result {
	posts = uniqueSlugs(posts)
	if len(posts) == 0 {
		return Result{}
	}
	if count <= 0 {
		count = DefaultCount
	}

	docs := BuildCorpus(posts, stop)
	vectors := Vectorize(docs)

	type scored struct {
		idx   int
		score float64
	}

	res := make(Result, len(docs))
	for i := range docs {
		scores := make([]scored, 0, len(docs)-1)
		for j := range docs {
			if i == j {
				continue
			}
			scores = append(scores, scored{idx: j, score: Cosine(vectors[i], vectors[j])})
		}
		sort.SliceStable(scores, func(a, b int) bool {
			return scores[a].score > scores[b].score
		})

		n := min(count, len(scores))
		slugs := make([]string, 0, n)
		for _, s := range scores[:n] {
			slugs = append(slugs, docs[s.idx].Slug)
		}
		res[docs[i].Slug] = slugs
	}
	return res
}

// uniqueSlugs drops later posts whose slug was already seen. Offset
// pagination can return a post twice when one is published mid-fetch.
func uniqueSlugs(posts []Post) []Post {
	seen := make(map[string]struct{}, len(posts))
	out := posts[:0:0]
	for _, p := range posts {
		if _, ok := seen[p.Slug]; ok {
			continue
		}
		seen[p.Slug] = struct{}{}
		out = append(out, p)
	}
	return out
}

// Merge combines partition results into one snapshot. Later results win when
// the same slug appears twice.
func Merge(results ...Result) Result {
	merged := make(Result)
	for _, r := range results {
		maps.Copy(merged, r)
	}
	return merged
}

// Slugs returns the keys of r in sorted order.
func (r Result) Slugs() []string {
	return slices.Sorted(maps.Keys(r))
}
