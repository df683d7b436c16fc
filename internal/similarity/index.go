package similarity

import (
	"math"
	"sort"
	"time"
)

const DefaultMaxFeatures = 1000

type Document struct {
	ID   int64
	Text string
}

type Match struct {
	ID    int64   `json:"id"`
	Score float64 `json:"score"`
}

type Stats struct {
	TotalReviews   int   `json:"total_reviews"`
	VocabularySize int   `json:"vocabulary_size"`
	IndexBuilt     bool  `json:"index_built"`
	BuiltAt        int64 `json:"built_at"`
}

type entry struct {
	col int
	w   float64
}

// sparseVector holds non-zero weights ordered by column.
type sparseVector []entry

// Index is an immutable TF-IDF vector space over a fixed corpus.
type Index struct {
	vocab   map[string]int
	idf     []float64
	ids     []int64
	vectors []sparseVector
	builtAt time.Time
}

// Build fits the vocabulary and idf weights over docs and vectorizes every document.
func Build(docs []Document, maxFeatures int) *Index {
	if maxFeatures <= 0 {
		maxFeatures = DefaultMaxFeatures
	}
	idx := &Index{vocab: map[string]int{}, builtAt: time.Now()}
	if len(docs) == 0 {
		return idx
	}

	tokenized := make([][]string, len(docs))
	termFreq := map[string]int{}
	for i, doc := range docs {
		tokenized[i] = tokenize(doc.Text)
		for _, term := range tokenized[i] {
			termFreq[term]++
		}
	}

	terms := make([]string, 0, len(termFreq))
	for term := range termFreq {
		terms = append(terms, term)
	}
	sort.Slice(terms, func(i, j int) bool {
		if termFreq[terms[i]] != termFreq[terms[j]] {
			return termFreq[terms[i]] > termFreq[terms[j]]
		}
		return terms[i] < terms[j]
	})
	if len(terms) > maxFeatures {
		terms = terms[:maxFeatures]
	}
	sort.Strings(terms)
	for i, term := range terms {
		idx.vocab[term] = i
	}

	docFreq := make([]int, len(terms))
	for _, tokens := range tokenized {
		seen := map[int]struct{}{}
		for _, term := range tokens {
			col, ok := idx.vocab[term]
			if !ok {
				continue
			}
			if _, dup := seen[col]; dup {
				continue
			}
			seen[col] = struct{}{}
			docFreq[col]++
		}
	}
	n := float64(len(docs))
	idx.idf = make([]float64, len(terms))
	for col, df := range docFreq {
		idx.idf[col] = math.Log((1+n)/(1+float64(df))) + 1
	}

	idx.ids = make([]int64, len(docs))
	idx.vectors = make([]sparseVector, len(docs))
	for i, doc := range docs {
		idx.ids[i] = doc.ID
		idx.vectors[i] = idx.vectorize(tokenized[i])
	}
	return idx
}

// vectorize weights raw term counts by idf and L2-normalizes the result.
// Sums run in column order so identical token lists give identical vectors.
func (idx *Index) vectorize(tokens []string) sparseVector {
	counts := map[int]float64{}
	for _, term := range tokens {
		if col, ok := idx.vocab[term]; ok {
			counts[col]++
		}
	}
	if len(counts) == 0 {
		return nil
	}
	vec := make(sparseVector, 0, len(counts))
	for col, tf := range counts {
		vec = append(vec, entry{col: col, w: tf * idx.idf[col]})
	}
	sort.Slice(vec, func(i, j int) bool { return vec[i].col < vec[j].col })
	var norm float64
	for _, e := range vec {
		norm += e.w * e.w
	}
	if norm == 0 {
		return nil
	}
	norm = math.Sqrt(norm)
	for i := range vec {
		vec[i].w /= norm
	}
	return vec
}

// Query returns up to k documents by descending cosine similarity to text,
// ties broken by lower id. Documents with zero similarity are never returned.
func (idx *Index) Query(text string, k int) []Match {
	if idx == nil || k <= 0 || len(idx.vectors) == 0 {
		return []Match{}
	}
	q := idx.vectorize(tokenize(text))
	if len(q) == 0 {
		return []Match{}
	}
	matches := make([]Match, 0)
	for i, vec := range idx.vectors {
		score := dot(q, vec)
		if score <= 0 {
			continue
		}
		matches = append(matches, Match{ID: idx.ids[i], Score: score})
	}
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].ID < matches[j].ID
	})
	if len(matches) > k {
		matches = matches[:k]
	}
	return matches
}

func (idx *Index) Stats() Stats {
	if idx == nil {
		return Stats{}
	}
	return Stats{
		TotalReviews:   len(idx.ids),
		VocabularySize: len(idx.vocab),
		IndexBuilt:     len(idx.ids) > 0,
		BuiltAt:        idx.builtAt.Unix(),
	}
}

// dot merges two column-ordered vectors.
func dot(a, b sparseVector) float64 {
	var sum float64
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i].col < b[j].col:
			i++
		case a[i].col > b[j].col:
			j++
		default:
			sum += a[i].w * b[j].w
			i++
			j++
		}
	}
	return sum
}
