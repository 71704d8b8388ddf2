package ranking

import (
	"encoding/json"
	"os"

	"github.com/chemsLazar/recrutement-intern-modelIA/internal/records"
	"github.com/chemsLazar/recrutement-intern-modelIA/internal/scoring"
)

// Direction names which side of the pair is the pivot of a query.
type Direction string

const (
	JobsForCandidate Direction = "jobs-for-candidate"
	CandidatesForJob Direction = "candidates-for-job"
)

// Keys of the counterpart record in rendered results.
const (
	KeyJobOffer    = "jobOffer"
	KeyUserProfile = "userProfile"
)

// CounterpartKey returns the JSON key used for the counterpart record.
func (d Direction) CounterpartKey() string {
	if d == JobsForCandidate {
		return KeyJobOffer
	}
	return KeyUserProfile
}

// Result pairs a counterpart record with its fused score.
type Result struct {
	Direction Direction
	Record    records.Record
	Score     float64
	Breakdown scoring.Breakdown

	// WithBreakdown adds the per-estimator scores to the rendered result.
	WithBreakdown bool
}

// MarshalJSON renders {"jobOffer": ..., "score": ...} or
// {"userProfile": ..., "score": ...} depending on the direction.
func (r Result) MarshalJSON() ([]byte, error) {
	out := map[string]any{
		r.Direction.CounterpartKey(): r.Record,
		"score":                      r.Score,
	}
	if r.WithBreakdown {
		out["breakdown"] = r.Breakdown
	}
	return json.Marshal(out)
}

// Results is an ordered list of ranked results.
type Results struct {
	Items []*Result
}

func (r *Results) Len() int {
	if r == nil {
		return 0
	}
	return len(r.Items)
}

// List returns the items, never nil, so an empty ranking renders as [].
func (r *Results) List() []*Result {
	if r == nil || r.Items == nil {
		return []*Result{}
	}
	return r.Items
}

// Records returns the counterpart records in rank order.
func (r *Results) Records() *records.Records {
	out := &records.Records{}
	for _, item := range r.Items {
		out.Items = append(out.Items, item.Record)
	}
	return out
}

// Exclude removes results whose counterpart field (records.IDField or
// records.DepartmentField) equals one of targets and returns their IDs.
// Rank order is preserved.
func (r *Results) Exclude(field string, targets []string) []string {
	set := make(map[string]struct{}, len(targets))
	for _, target := range targets {
		if target != "" {
			set[target] = struct{}{}
		}
	}

	return r.removeIf(func(item *Result) bool {
		_, ok := set[item.Record.GetStringField(field)]
		return ok
	})
}

// Below removes results scoring under threshold and returns their IDs.
func (r *Results) Below(threshold float64) []string {
	return r.removeIf(func(item *Result) bool {
		return item.Score < threshold
	})
}

// Truncate keeps at most n results. Non-positive n keeps everything.
func (r *Results) Truncate(n int) []string {
	if n <= 0 || n >= r.Len() {
		return nil
	}
	dropped := make([]string, 0, r.Len()-n)
	for _, item := range r.Items[n:] {
		dropped = append(dropped, item.Record.Label())
	}
	r.Items = r.Items[:n]
	return dropped
}

func (r *Results) removeIf(drop func(*Result) bool) []string {
	var removed []string
	kept := r.Items[:0]
	for _, item := range r.Items {
		if drop(item) {
			removed = append(removed, labelOrID(item.Record))
			continue
		}
		kept = append(kept, item)
	}
	r.Items = kept
	return removed
}

func labelOrID(rec records.Record) string {
	if id := rec.ID(); id != "" {
		return id
	}
	return rec.Label()
}

// DumpToTmpFile writes the results as indented JSON to a temporary file and
// returns its name.
func (r *Results) DumpToTmpFile() (string, error) {
	file, err := os.CreateTemp("", "ranking_*.json")
	if err != nil {
		return "", err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r.List()); err != nil {
		return "", err
	}
	return file.Name(), nil
}
