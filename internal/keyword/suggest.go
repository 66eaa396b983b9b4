package keyword

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/blevesearch/bleve/v2"
)

// maxEditDistance bounds how far a suggestion may be from the typed term.
const maxEditDistance = 2

// loadVocabulary collects every indexed term of fields with its document
// frequency.
func loadVocabulary(idx bleve.Index, fields ...string) (map[string]uint64, error) {
	vocab := make(map[string]uint64)
	for _, field := range fields {
		dict, err := idx.FieldDict(field)
		if err != nil {
			return nil, fmt.Errorf("read %s terms: %w", field, err)
		}
		for {
			entry, err := dict.Next()
			if err != nil {
				_ = dict.Close()
				return nil, fmt.Errorf("read %s terms: %w", field, err)
			}
			if entry == nil {
				break
			}
			vocab[entry.Term] += entry.Count
		}
		if err := dict.Close(); err != nil {
			return nil, err
		}
	}
	return vocab, nil
}

// Suggest returns q with unknown terms replaced by the closest indexed term,
// preferring smaller edit distance and then more frequent terms. It returns
// "" when every term is known or nothing close enough exists.
func (i *Index) Suggest(q string) string {
	i.mu.RLock()
	vocab := i.vocab
	i.mu.RUnlock()

	terms := tokenize(q)
	changed := false
	for n, term := range terms {
		if _, ok := vocab[term]; ok {
			continue
		}
		if best := closestTerm(vocab, term); best != "" {
			terms[n] = best
			changed = true
		}
	}
	if !changed {
		return ""
	}
	return strings.Join(terms, " ")
}

func closestTerm(vocab map[string]uint64, term string) string {
	best, bestDist, bestFreq := "", maxEditDistance+1, uint64(0)
	n := len([]rune(term))
	for cand, freq := range vocab {
		diff := len([]rune(cand)) - n
		if diff > maxEditDistance || -diff > maxEditDistance {
			continue
		}
		d := editDistance(term, cand)
		if d > maxEditDistance {
			continue
		}
		if d < bestDist || (d == bestDist && (freq > bestFreq || (freq == bestFreq && cand < best))) {
			best, bestDist, bestFreq = cand, d, freq
		}
	}
	return best
}

func tokenize(q string) []string {
	return strings.FieldsFunc(strings.ToLower(q), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// editDistance is the Levenshtein distance between a and b over runes.
func editDistance(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}
