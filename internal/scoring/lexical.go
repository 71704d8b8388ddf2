// Package scoring computes how well a candidate's competencies cover a job's
// required competencies, combining lexical, statistical and semantic signals.
package scoring

import (
	"strings"

	"github.com/chemsLazar/recrutement-intern-modelIA/internal/competency"
)

// Partial credit awarded per job competency by the lexical matcher.
const (
	creditExact     = 1.0
	creditSubstring = 0.8
	creditWord      = 0.5
)

// Direct is the outcome of the lexical matcher.
type Direct struct {
	Percentage float64
	MatchCount float64
}

// HadMatch reports whether any job competency earned credit.
func (d Direct) HadMatch() bool {
	return d.MatchCount > 0
}

// DirectScore awards each job competency the credit of the first candidate
// competency that satisfies a rule: exact equality, substring in either
// direction, or a shared word. Scanning stops at that first candidate, even
// if a later one would earn more (first match, not best match).
func DirectScore(job, candidate *competency.Set) Direct {
	jobItems := job.Items()
	if len(jobItems) == 0 {
		return Direct{}
	}
	candidateItems := candidate.Items()

	var count float64
	for _, j := range jobItems {
		for _, c := range candidateItems {
			if credit, ok := pairCredit(j, c); ok {
				count += credit
				break
			}
		}
	}

	return Direct{
		Percentage: count / float64(len(jobItems)) * 100,
		MatchCount: count,
	}
}

func pairCredit(job, candidate string) (float64, bool) {
	switch {
	case job == candidate:
		return creditExact, true
	case strings.Contains(candidate, job) || strings.Contains(job, candidate):
		return creditSubstring, true
	case shareWord(job, candidate):
		return creditWord, true
	default:
		return 0, false
	}
}

func shareWord(a, b string) bool {
	words := competency.Words(a)
	if len(words) == 0 {
		return false
	}
	seen := make(map[string]struct{}, len(words))
	for _, w := range words {
		seen[w] = struct{}{}
	}
	for _, w := range competency.Words(b) {
		if _, ok := seen[w]; ok {
			return true
		}
	}
	return false
}
