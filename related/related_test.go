package related

import (
	"fmt"
	"math"
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"empty", "", nil},
		{"lowercase and punctuation", "¡Hola, Mundo!", []string{"hola", "mundo"}},
		{"accents kept", "Pokémon y Ñandú", []string{"pokémon", "y", "ñandú"}},
		{"hyphen and underscore kept", "sci-fi snake_case", []string{"sci-fi", "snake_case"}},
		{"digits kept", "ps2 y 4chan", []string{"ps2", "y", "4chan"}},
		{"decomposed accent", "Poke\u0301mon", []string{"pokémon"}},
		{"whitespace runs", " a\t\nb  ", []string{"a", "b"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Tokenize(tt.in))
		})
	}
}

func TestBigrams(t *testing.T) {
	assert.Nil(t, Bigrams(nil))
	assert.Nil(t, Bigrams([]string{"solo"}))
	assert.Equal(t, []string{"a b", "b c"}, Bigrams([]string{"a", "b", "c"}))
}

func TestExpand(t *testing.T) {
	t.Run("no keyword", func(t *testing.T) {
		assert.Equal(t, "xyz ", Expand("xyz"))
	})

	t.Run("case-insensitive", func(t *testing.T) {
		out := Expand("Nuevo BATMAN")
		assert.Contains(t, out, "gotham")
	})

	t.Run("substring match fires nested keys", func(t *testing.T) {
		// "magic the gathering" contains "magic" too, so both rules fire.
		out := Expand("magic the gathering")
		assert.Contains(t, out, "draft arena formato torneo")
		assert.Contains(t, out, "tcg carta coleccionable gathering arena draft")
	})

	t.Run("bridges disjoint vocabulary", func(t *testing.T) {
		a := Tokenize(Expand("pokémon"))
		b := Tokenize(Expand("nintendo"))
		assert.Contains(t, a, "nintendo")
		assert.Contains(t, b, "nintendo")
	})
}

func TestWeightedText(t *testing.T) {
	p := Post{Title: "T", Tags: []string{"a", "b"}, Excerpt: "e"}
	assert.Equal(t, "T T T a b a b e", WeightedText(p))

	p.Body = "body"
	assert.Equal(t, "T T T a b a b e body", WeightedText(p))
}

func TestBuildCorpus_StopwordsAndBigrams(t *testing.T) {
	docs := BuildCorpus([]Post{{Slug: "s", Title: "zorro y gato"}}, SpanishStopwords)
	require.Len(t, docs, 1)
	assert.Equal(t, "s", docs[0].Slug)

	assert.NotContains(t, docs[0].Terms, "y")
	assert.Contains(t, docs[0].Terms, "zorro")
	// Bigrams are built after stopword removal.
	assert.Contains(t, docs[0].Terms, "zorro gato")
	assert.Contains(t, docs[0].Terms, "gato zorro")

	count := 0
	for _, term := range docs[0].Terms {
		if term == "zorro" {
			count++
		}
	}
	assert.Equal(t, 3, count, "title is weighted three times")
}

func TestIDF_CommonTermCutoff(t *testing.T) {
	docs := []Document{
		{Slug: "a", Terms: []string{"common", "rare"}},
		{Slug: "b", Terms: []string{"common", "mid"}},
		{Slug: "c", Terms: []string{"common", "mid"}},
		{Slug: "d", Terms: []string{"common"}},
		{Slug: "e", Terms: []string{"common", "four"}},
	}
	idf := IDF(docs)

	_, ok := idf["common"]
	assert.False(t, ok, "term in 5/5 docs exceeds 80% and is dropped")
	assert.InDelta(t, math.Log(5), idf["rare"], 1e-12)
	assert.InDelta(t, math.Log(2.5), idf["mid"], 1e-12)
}

func TestIDF_ExactlyEightyPercentKept(t *testing.T) {
	docs := []Document{
		{Terms: []string{"x"}}, {Terms: []string{"x"}}, {Terms: []string{"x"}},
		{Terms: []string{"x"}}, {Terms: []string{"y"}},
	}
	idf := IDF(docs)
	assert.InDelta(t, math.Log(5.0/4.0), idf["x"], 1e-12)
}

func TestVectorize_NormalizedAndSublinear(t *testing.T) {
	docs := []Document{
		{Slug: "a", Terms: []string{"x", "x", "x", "y"}},
		{Slug: "b", Terms: []string{"z"}},
		{Slug: "c", Terms: []string{"w"}},
	}
	vecs := Vectorize(docs)
	require.Len(t, vecs, 3)

	var norm float64
	for _, e := range vecs[0] {
		norm += e.Weight * e.Weight
	}
	assert.InDelta(t, 1.0, norm, 1e-9)

	// x and y share idf ln(3); x has tf 3 so its raw weight is 1+ln 3 times y's.
	assert.InDelta(t, 1+math.Log(3), vecs[0].Weight("x")/vecs[0].Weight("y"), 1e-9)
}

func TestVectorize_SingleDocument(t *testing.T) {
	vecs := Vectorize([]Document{{Slug: "only", Terms: []string{"a", "b"}}})
	require.Len(t, vecs, 1)
	assert.Empty(t, vecs[0], "with N=1 every term is universal and carries no weight")
}

func TestCosine(t *testing.T) {
	a := Vector{{"w", 0.5}, {"x", 0.6}, {"y", 0.8}}
	b := Vector{{"x", 1}}
	assert.InDelta(t, 0.6, Cosine(a, b), 1e-12)
	assert.InDelta(t, 0.6, Cosine(b, a), 1e-12)
	assert.Zero(t, Cosine(a, Vector{{"z", 1}}))
	assert.Zero(t, Cosine(Vector{}, a))
	assert.Zero(t, a.Weight("missing"))
	assert.Equal(t, 0.8, a.Weight("y"))
}

func TestVectorize_SortedByTerm(t *testing.T) {
	docs := []Document{
		{Slug: "a", Terms: []string{"zeta", "alfa", "mu", "alfa"}},
		{Slug: "b", Terms: []string{"otro"}},
		{Slug: "c", Terms: []string{"mas"}},
	}
	vecs := Vectorize(docs)
	terms := make([]string, 0, len(vecs[0]))
	for _, e := range vecs[0] {
		terms = append(terms, e.Term)
	}
	assert.Equal(t, []string{"alfa", "mu", "zeta"}, terms)
}

func corpusOf(n int) []Post {
	posts := make([]Post, n)
	for i := range posts {
		posts[i] = Post{
			Slug:    fmt.Sprintf("post-%d", i),
			Title:   fmt.Sprintf("titulo%d compartido%d", i, i%3),
			Excerpt: fmt.Sprintf("palabra%d", i%2),
		}
	}
	return posts
}

func TestCompute_SelfExclusionAndCardinality(t *testing.T) {
	for _, n := range []int{1, 2, 3, 4, 5, 6, 12} {
		t.Run(fmt.Sprintf("n=%d", n), func(t *testing.T) {
			posts := corpusOf(n)
			res := Compute(posts, SpanishStopwords, DefaultCount)
			require.Len(t, res, n)

			for _, p := range posts {
				list, ok := res[p.Slug]
				require.True(t, ok, "every post has an entry")
				assert.Len(t, list, min(4, n-1))
				assert.NotContains(t, list, p.Slug)

				seen := map[string]bool{}
				for _, s := range list {
					assert.False(t, seen[s], "duplicate %s", s)
					seen[s] = true
				}
			}
		})
	}
}

func TestCompute_DisjointVocabulary(t *testing.T) {
	posts := []Post{
		{Slug: "a", Title: "zorro"},
		{Slug: "b", Title: "ballena"},
		{Slug: "c", Title: "zorro ballena"},
	}
	docs := BuildCorpus(posts, SpanishStopwords)
	vecs := Vectorize(docs)
	assert.Zero(t, Cosine(vecs[0], vecs[1]))

	res := Compute(posts, SpanishStopwords, DefaultCount)
	assert.Len(t, res["a"], 2)
	assert.Len(t, res["b"], 2)
	assert.Equal(t, []string{"c", "b"}, res["a"], "zero-score candidate is still listed")
}

func TestCompute_TiesKeepDocumentOrder(t *testing.T) {
	posts := []Post{
		{Slug: "a", Title: "uno"},
		{Slug: "b", Title: "dos"},
		{Slug: "c", Title: "tres"},
		{Slug: "d", Title: "cuatro"},
		{Slug: "e", Title: "cinco"},
		{Slug: "f", Title: "seis"},
	}
	res := Compute(posts, SpanishStopwords, DefaultCount)
	assert.Equal(t, []string{"b", "c", "d", "e"}, res["a"])
	assert.Equal(t, []string{"a", "b", "c", "d"}, res["f"])
}

func TestCompute_DeterministicAcrossRuns(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	var shared []string
	for i := 0; i < 80; i++ {
		for n := rng.IntN(5); n >= 0; n-- {
			shared = append(shared, fmt.Sprintf("termino%d", i))
		}
	}
	text := strings.Join(shared, " ")

	posts := []Post{{Slug: "q", Title: text}}
	for i := 0; i < 6; i++ {
		posts = append(posts, Post{Slug: fmt.Sprintf("c%d", i), Title: fmt.Sprintf("%s unico%d", text, i)})
	}
	// Unrelated posts keep the shared terms under the common-term cutoff.
	for i := 0; i < 4; i++ {
		posts = append(posts, Post{Slug: fmt.Sprintf("x%d", i), Title: fmt.Sprintf("ajeno%d", i)})
	}

	want := Compute(posts, SpanishStopwords, DefaultCount)
	for run := 0; run < 200; run++ {
		got := Compute(posts, SpanishStopwords, DefaultCount)
		require.Equal(t, want["q"], got["q"], "run %d", run)
		require.Equal(t, want, got, "run %d", run)
	}
}

func TestCompute_RanksBySimilarity(t *testing.T) {
	posts := []Post{
		{Slug: "metal-1", Title: "thrash metal argentino", Tags: []string{"Música"}},
		{Slug: "cocina", Title: "receta de empanadas", Tags: []string{"Cocina"}},
		{Slug: "metal-2", Title: "nuevo disco thrash metal", Tags: []string{"Música"}},
		{Slug: "jardin", Title: "plantas de interior", Tags: []string{"Hogar"}},
		{Slug: "auto", Title: "motores diesel", Tags: []string{"Autos"}},
	}
	res := Compute(posts, SpanishStopwords, DefaultCount)
	require.NotEmpty(t, res["metal-1"])
	assert.Equal(t, "metal-2", res["metal-1"][0])
	assert.Equal(t, "metal-1", res["metal-2"][0])
}

func TestCompute_DuplicateSlugsUseFirst(t *testing.T) {
	posts := []Post{
		{Slug: "a", Title: "thrash metal argentino"},
		{Slug: "b", Title: "disco thrash metal"},
		{Slug: "a", Title: "thrash metal argentino"},
		{Slug: "c", Title: "receta de empanadas"},
	}
	res := Compute(posts, SpanishStopwords, DefaultCount)
	require.Len(t, res, 3)
	for slug, list := range res {
		assert.NotContains(t, list, slug)
		assert.Len(t, list, 2)
	}
	assert.Equal(t, []string{"b", "c"}, res["a"])
}

func TestCompute_Empty(t *testing.T) {
	assert.Empty(t, Compute(nil, EnglishStopwords, DefaultCount))
}

func TestMerge_LaterWins(t *testing.T) {
	es := Result{"a": {"b"}, "shared": {"es"}}
	en := Result{"x": {"y"}, "shared": {"en"}}
	m := Merge(es, en)
	assert.Equal(t, []string{"a", "shared", "x"}, m.Slugs())
	assert.Equal(t, []string{"en"}, m["shared"])
}
