package filtering

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/chemsLazar/recrutement-intern-modelIA/internal/ranking"
)

// DefaultBestMatchScore is the score from which a result counts as a strong match.
const DefaultBestMatchScore = 70.0

type bestMatchFilter struct {
	enabled   bool
	reason    string
	threshold float64
	logger    *zap.Logger
}

// NewBestMatch creates a filter keeping only results scoring at least threshold.
// It starts disabled when threshold is not above the ranking threshold.
func NewBestMatch(threshold float64, logger *zap.Logger) Filter {
	if logger == nil {
		logger = zap.NewNop()
	}

	f := &bestMatchFilter{enabled: true, threshold: threshold, logger: logger}
	if threshold <= ranking.MinScore {
		f.Disable(fmt.Sprintf("threshold %.2f does not exceed ranking minimum %.2f", threshold, ranking.MinScore))
	}
	return f
}

func (f *bestMatchFilter) Name() string { return "best_match" }

func (f *bestMatchFilter) Disable(reason string) {
	f.enabled = false
	f.reason = reason
}

func (f *bestMatchFilter) IsEnabled() bool { return f.enabled }

func (f *bestMatchFilter) Validate() error {
	if f.threshold > 100 {
		return fmt.Errorf("best match score %.2f is above 100", f.threshold)
	}
	return nil
}

func (f *bestMatchFilter) Apply(_ context.Context, r *ranking.Results) (*ranking.Results, Step, error) {
	initial := r.Len()
	dropped := r.Below(f.threshold)

	f.logger.Debug("best match cut",
		zap.Float64("threshold", f.threshold),
		zap.Strings("below_threshold", dropped),
		zap.Int("results_left", r.Len()),
	)

	return r, Step{Initial: initial, Dropped: len(dropped), Left: r.Len()}, nil
}

func (f *bestMatchFilter) Status() Status {
	return Status{
		Name:    f.Name(),
		Enabled: f.IsEnabled(),
		Reason:  f.reason,
		Details: map[string]string{"threshold": strconv.FormatFloat(f.threshold, 'f', 2, 64)},
	}
}
