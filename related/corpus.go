package related

import "strings"

// Post is the input the engine needs from one published post.
type Post struct {
	Slug  string
	Title string
	// Excerpt is already HTML-stripped.
	Excerpt string
	// Tags are the names of the post's public tags.
	Tags []string
	// Body is optional extra text appended once after the excerpt.
	Body string
}

// Document is the weighted term list of one post. Duplicates are kept
// because term frequency matters.
type Document struct {
	Slug  string
	Terms []string
}

// WeightedText builds the text a post contributes to the corpus: title three
// times, tags twice, excerpt once, then the optional body.
func WeightedText(p Post) string {
	tags := strings.Join(p.Tags, " ")
	parts := []string{p.Title, p.Title, p.Title, tags, tags, p.Excerpt}
	if p.Body != "" {
		parts = append(parts, p.Body)
	}
	return strings.Join(parts, " ")
}

// BuildCorpus turns one language partition into documents, in input order.
// Stopwords are removed before bigrams are formed, so a bigram can span a
// removed stopword.
func BuildCorpus(posts []Post, stop Stopwords) []Document {
	docs := make([]Document, 0, len(posts))
	for _, p := range posts {
		tokens := Tokenize(Expand(WeightedText(p)))
		kept := tokens[:0]
		for _, t := range tokens {
			if !stop.Has(t) {
				kept = append(kept, t)
			}
		}
		terms := append(kept, Bigrams(kept)...)
		docs = append(docs, Document{Slug: p.Slug, Terms: terms})
	}
	return docs
}
