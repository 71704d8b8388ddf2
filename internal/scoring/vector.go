package scoring

import (
	"errors"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/chemsLazar/recrutement-intern-modelIA/internal/competency"
)

// ErrEmptyVocabulary is returned when neither blob holds a usable term.
var ErrEmptyVocabulary = errors.New("empty vocabulary")

// Terms shorter than this many runes are not indexed.
const minTermRunes = 2

// VectorScore is the cosine similarity, as a percentage, between TF-IDF
// vectors of the two competency blobs. Unigrams and bigrams are indexed, no
// stop words are removed, and the vocabulary and document frequencies come
// from this pair of blobs only (smoothed idf, l2 normalized).
func VectorScore(job, candidate *competency.Set) (float64, error) {
	docs := [2][]string{terms(candidate.Blob()), terms(job.Blob())}

	df := make(map[string]int)
	counts := [2]map[string]float64{}
	for i, doc := range docs {
		counts[i] = make(map[string]float64, len(doc))
		for _, term := range doc {
			if counts[i][term] == 0 {
				df[term]++
			}
			counts[i][term]++
		}
	}

	if len(df) == 0 {
		return 0, ErrEmptyVocabulary
	}

	n := float64(len(docs))
	var dot, normA, normB float64
	for term, freq := range df {
		idf := math.Log((1+n)/(1+float64(freq))) + 1
		a := counts[0][term] * idf
		b := counts[1][term] * idf
		dot += a * b
		normA += a * a
		normB += b * b
	}

	if normA == 0 || normB == 0 {
		return 0, nil
	}

	return clampPercentage(dot / (math.Sqrt(normA) * math.Sqrt(normB)) * 100), nil
}

// terms returns the unigrams and bigrams of a blob.
func terms(blob string) []string {
	tokens := make([]string, 0)
	for _, word := range strings.Fields(blob) {
		if utf8.RuneCountInString(word) >= minTermRunes {
			tokens = append(tokens, word)
		}
	}

	out := make([]string, 0, 2*len(tokens))
	out = append(out, tokens...)
	for i := 0; i+1 < len(tokens); i++ {
		out = append(out, tokens[i]+" "+tokens[i+1])
	}
	return out
}

func clampPercentage(v float64) float64 {
	switch {
	case math.IsNaN(v):
		return 0
	case v < 0:
		return 0
	case v > 100:
		return 100
	default:
		return v
	}
}
