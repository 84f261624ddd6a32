package related

import (
	"maps"
	"math"
	"slices"
	"strings"
)

// commonCutoff drops terms that appear in more than this share of documents.
const commonCutoff = 0.8

// Term is one weighted entry of a Vector.
type Term struct {
	Term   string
	Weight float64
}

// Vector is a sparse, L2-normalized TF-IDF vector sorted by term. All sums
// over a vector run in term order so equal inputs give bit-identical scores.
type Vector []Term

// Weight returns the weight of term, or 0 when it is absent.
func (v Vector) Weight(term string) float64 {
	i, ok := slices.BinarySearchFunc(v, term, func(e Term, t string) int {
		return strings.Compare(e.Term, t)
	})
	if !ok {
		return 0
	}
	return v[i].Weight
}

// IDF computes ln(N/df) for every term whose document frequency does not
// exceed 80% of the corpus. Terms present in every document get 0 and are
// treated as absent by Vectorize.
func IDF(docs []Document) map[string]float64 {
	n := len(docs)
	df := make(map[string]int)
	for _, d := range docs {
		seen := make(map[string]struct{}, len(d.Terms))
		for _, t := range d.Terms {
			if _, ok := seen[t]; ok {
				continue
			}
			seen[t] = struct{}{}
			df[t]++
		}
	}

	idf := make(map[string]float64, len(df))
	for term, count := range df {
		if float64(count) > float64(n)*commonCutoff {
			continue
		}
		idf[term] = math.Log(float64(n) / float64(count))
	}
	return idf
}

// Vectorize builds one vector per document with sublinear term frequency,
// (1 + ln tf) * idf, then L2-normalizes it. A document with no surviving
// terms gets an empty vector.
func Vectorize(docs []Document) []Vector {
	idf := IDF(docs)
	vectors := make([]Vector, len(docs))
	for i, d := range docs {
		tf := make(map[string]int)
		for _, t := range d.Terms {
			tf[t]++
		}

		vec := make(Vector, 0, len(tf))
		var norm float64
		for _, term := range slices.Sorted(maps.Keys(tf)) {
			w := idf[term]
			if w == 0 {
				continue
			}
			score := (1 + math.Log(float64(tf[term]))) * w
			vec = append(vec, Term{Term: term, Weight: score})
			norm += score * score
		}

		norm = math.Sqrt(norm)
		if norm > 0 {
			for j := range vec {
				vec[j].Weight /= norm
			}
		}
		vectors[i] = vec
	}
	return vectors
}

// Cosine returns the dot product of two normalized vectors. Both are walked
// in term order, so Cosine(a, b) and Cosine(b, a) are identical.
func Cosine(a, b Vector) float64 {
	var dot float64
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch c := strings.Compare(a[i].Term, b[j].Term); {
		case c < 0:
			i++
		case c > 0:
			j++
		default:
			dot += a[i].Weight * b[j].Weight
			i++
			j++
		}
	}
	return dot
}
